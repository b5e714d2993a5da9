package domain

import (
	"github.com/pkg/errors"
)

var ErrConnectionClosed = errors.New("connection closed")

const (
	ClientUuidHeader = "X-Client-Key"
)

type messageType byte

const (
	StartSession = messageType(iota)
	HumanMove
	SubmitProtocol
	ResetRoundRequest
	ResetMatchRequest
	SessionStarted
	BoardUpdate
	RoundResult
	ProtocolUpdate
	BotThinking
	ErrorMessage
)

type Message struct {
	Type    messageType
	Payload any
}

type StartSessionPayload struct {
	BoardSize  int
	Difficulty string
	Swap2      bool
	HumanColor Stone
}

type SessionStartedPayload struct {
	Handle   string
	Snapshot SessionSnapshot
}

type HumanMovePayload struct {
	X int
	Y int
}

type ProtocolActionPayload struct {
	Place  *Coord
	Choice *ChoiceKind
}

type BoardUpdatePayload struct {
	Snapshot SessionSnapshot
	Round    *RoundEvent
	Protocol *ProtocolEvent
	ByBot    bool
}

type ErrorPayload struct {
	Message string
}

type BoardUpdateOption func(p *BoardUpdatePayload)

func WithRoundEvent(event RoundEvent) BoardUpdateOption {
	return func(p *BoardUpdatePayload) {
		p.Round = &event
	}
}

func WithProtocolEvent(event ProtocolEvent) BoardUpdateOption {
	return func(p *BoardUpdatePayload) {
		p.Protocol = &event
	}
}

func FromBot() BoardUpdateOption {
	return func(p *BoardUpdatePayload) {
		p.ByBot = true
	}
}

type Client interface {
	WriteMessage(msg Message) error
	ReadMessage() (Message, error)
	Uuid() string
}
