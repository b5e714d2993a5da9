package domain

import (
	"context"
)

type Stone byte

const (
	Empty = Stone(iota)
	Black
	White
)

func (s Stone) Opponent() Stone {
	switch s {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (s Stone) String() string {
	switch s {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

type Coord struct {
	X int
	Y int
}

type Move struct {
	Coord
	Stone Stone
}

type OutcomeStatus byte

const (
	InProgress = OutcomeStatus(iota)
	Win
	Draw
)

type Outcome struct {
	Status OutcomeStatus
	Winner Stone
}

func (o Outcome) IsTerminal() bool {
	return o.Status != InProgress
}

type Difficulty byte

const (
	Beginner = Difficulty(iota)
	Intermediate
	Expert
	Master
)

var difficultyNames = [...]string{"beginner", "intermediate", "expert", "master"}

func (d Difficulty) String() string {
	if int(d) < len(difficultyNames) {
		return difficultyNames[d]
	}
	return "unknown"
}

func (d Difficulty) Valid() bool {
	return d <= Master
}

func ParseDifficulty(s string) (Difficulty, bool) {
	for i, name := range difficultyNames {
		if name == s {
			return Difficulty(i), true
		}
	}
	return Beginner, false
}

// Participant is the logical owner of a seat; it never changes within a match.
type Participant byte

const (
	Human = Participant(iota)
	Bot
)

func (p Participant) String() string {
	if p == Bot {
		return "bot"
	}
	return "human"
}

type RoundEventKind byte

const (
	Continue = RoundEventKind(iota)
	RoundWon
	RoundDraw
)

type RoundEvent struct {
	Kind        RoundEventKind
	Move        Move
	Winner      Stone
	// Line is the winning run, set when Kind is RoundWon.
	Line        []Coord
	MatchWinner Stone
	Match       MatchState
}

type MatchState struct {
	BlackWins    int
	WhiteWins    int
	Draws        int
	Rounds       int
	WinThreshold int
	Winner       Stone
}

func (m MatchState) Wins(s Stone) int {
	switch s {
	case Black:
		return m.BlackWins
	case White:
		return m.WhiteWins
	default:
		return 0
	}
}

func (m MatchState) IsOver() bool {
	return m.Winner != Empty
}

const DefaultWinThreshold = 2

type Settings struct {
	BoardSize    int
	Difficulty   Difficulty
	Swap2        bool
	HumanColor   Stone
	WinThreshold int
}

type GameUseCase interface {
	SubmitHumanMove(c Coord) (RoundEvent, error)
	SubmitProtocolAction(action ProtocolAction) (ProtocolEvent, error)
	BotMove() (Coord, error)
	BotProtocolAction() (ProtocolAction, error)
	ApplyBotMove(c Coord) (RoundEvent, error)
	ApplyBotProtocolAction(action ProtocolAction) (ProtocolEvent, error)
	BotToAct() bool
	InOpening() bool
	Settings() Settings
	ResetRound() error
	ResetMatch()
	Snapshot() SessionSnapshot
}

type HubUseCase interface {
	StartSession(ctx context.Context, settings Settings) (string, error)
	Resume(ctx context.Context, handle string) error
	SubmitHumanMove(ctx context.Context, handle string, c Coord) (RoundEvent, error)
	SubmitProtocolAction(ctx context.Context, handle string, action ProtocolAction) (ProtocolEvent, error)
	BotMove(ctx context.Context, handle string) (Coord, error)
	BotProtocolAction(ctx context.Context, handle string) (ProtocolAction, error)
	ApplyBotMove(ctx context.Context, handle string, c Coord) (RoundEvent, error)
	ApplyBotProtocolAction(ctx context.Context, handle string, action ProtocolAction) (ProtocolEvent, error)
	PlayBot(ctx context.Context, handle string, notify func(BotTurn)) error
	ResetRound(ctx context.Context, handle string) error
	ResetMatch(ctx context.Context, handle string) error
	CloseSession(ctx context.Context, handle string) error
	Detach(ctx context.Context, handle string) error
	Snapshot(ctx context.Context, handle string) (SessionSnapshot, error)
	SessionCount() int
}
