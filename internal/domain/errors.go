package domain

import (
	"github.com/pkg/errors"
)

// invalid moves
var (
	ErrOutOfBounds  = errors.New("coordinates out of bounds")
	ErrCellOccupied = errors.New("cell is already occupied")
)

// protocol errors
var (
	ErrWrongPhase    = errors.New("action is not valid in the current phase")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrInvalidChoice = errors.New("invalid choice")
)

// engine errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionTerminal = errors.New("session is already terminal")
	ErrInvalidSettings = errors.New("invalid session settings")
	ErrSessionAttached = errors.New("session is held by another connection")
)

var ErrSnapshotNotFound = errors.New("snapshot not found")
