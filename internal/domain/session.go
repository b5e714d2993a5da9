package domain

import (
	"time"
)

type SessionSnapshot struct {
	Handle     string           `json:"handle"`
	Settings   Settings         `json:"settings"`
	Cells      []Stone          `json:"cells"`
	ToMove     Stone            `json:"to_move"`
	Outcome    Outcome          `json:"outcome"`
	Match      MatchState       `json:"match"`
	Protocol   *Swap2State      `json:"protocol,omitempty"`
	Assignment *ColorAssignment `json:"assignment,omitempty"`
	HumanSeat  Seat             `json:"human_seat"`
	BotToAct   bool             `json:"bot_to_act"`
	Moves      []Move           `json:"moves"`
	SavedAt    time.Time        `json:"saved_at"`
}

// BotTurn is what the deferred bot runner reports once it has applied an action.
type BotTurn struct {
	Handle   string
	Move     *RoundEvent
	Protocol *ProtocolEvent
	Err      error
}
