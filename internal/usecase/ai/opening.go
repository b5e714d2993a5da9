package ai

import (
	"math"

	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/pkg/errors"
)

const (
	tempoDiscount    = 0.5
	balanceThreshold = 0.1
	strengthRadius   = 2
)

func (e *Engine) ProtocolAction(boardSize int, state domain.Swap2State, d domain.Difficulty) domain.ProtocolAction {
	switch state.Phase {
	case domain.Placement, domain.Extra:
		return domain.PlaceStoneAction(e.OpeningStone(boardSize, state.Stones, d))
	default:
		return domain.MakeChoiceAction(e.Choose(boardSize, state, d))
	}
}

// OpeningStone clusters tentative stones: a random free cell near the ones
// already placed, or the center for the first stone.
func (e *Engine) OpeningStone(boardSize int, stones []domain.TentativeStone, d domain.Difficulty) domain.Coord {
	board := tentativeBoard(boardSize, stones)
	if board.IsBlank() {
		return board.Center()
	}
	cells := candidateCells(board, ProfileFor(d).OpeningRadius)
	return cells[e.rng.Intn(len(cells))]
}

// Choose picks a color or asks for two more stones. Weaker tiers choose at
// random; stronger ones compare what each color can build next, Black
// moving first.
func (e *Engine) Choose(boardSize int, state domain.Swap2State, d domain.Difficulty) domain.ChoiceKind {
	options := []domain.ChoiceKind{domain.TakeBlack, domain.TakeWhite}
	if state.Phase == domain.Choice {
		options = append(options, domain.PlaceMore)
	}
	if !ProfileFor(d).WeighedChoice {
		return options[e.rng.Intn(len(options))]
	}
	board := tentativeBoard(boardSize, state.Stones)
	black := strength(board, domain.Black)
	white := strength(board, domain.White)
	lead := black - tempoDiscount*white
	if state.Phase == domain.Choice && black+white > 0 && math.Abs(lead)/(black+white) < balanceThreshold {
		return domain.PlaceMore
	}
	if lead >= 0 {
		return domain.TakeBlack
	}
	return domain.TakeWhite
}

func strength(board *domain.Board, s domain.Stone) float64 {
	best := 0.0
	if board.IsBlank() {
		return best
	}
	for _, c := range candidateCells(board, strengthRadius) {
		best = math.Max(best, attackScore(board, c, s))
	}
	return best
}

func tentativeBoard(boardSize int, stones []domain.TentativeStone) *domain.Board {
	board := domain.NewBoard(boardSize)
	for _, stone := range stones {
		if err := board.Place(stone.Coord, stone.Stone); err != nil {
			panic(errors.WithMessagef(err, "tentative stone #%d", stone.Order))
		}
	}
	return board
}
