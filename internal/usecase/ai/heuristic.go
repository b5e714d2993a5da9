package ai

import (
	"github.com/kiryu-dev/five-in-a-row/internal/domain"
)

type shape byte

const (
	shapeNone = shape(iota)
	shapeOne
	shapeTwo
	shapeOpenTwo
	shapeThree
	shapeOpenThree
	shapeFour
	shapeOpenFour
	shapeFive
)

const (
	winScore      = 1e8
	blockWinScore = 1e7
)

// shapeWeights grow sharply with run length and openness. A closed four
// outranks a single open three, two open threes outrank a closed four.
var shapeWeights = [...]float64{
	shapeNone:      0,
	shapeOne:       10,
	shapeTwo:       60,
	shapeOpenTwo:   400,
	shapeThree:     700,
	shapeOpenThree: 6_000,
	shapeFour:      9_000,
	shapeOpenFour:  300_000,
	shapeFive:      blockWinScore,
}

const (
	forkFourThree  = 250_000
	forkDoubleFour = 280_000
	forkOpenThrees = 40_000
)

const span = domain.WinLength - 1

// classify describes the line through c along (dx, dy) if s were played at c.
// c must be empty. Every five-cell window containing c that holds no foreign
// stone counts as a potential five; the number of such windows with the
// highest stone count tells closed shapes from open ones.
func classify(board *domain.Board, c domain.Coord, dx, dy int, s domain.Stone) shape {
	if 1+board.CountDirection(c, dx, dy, s)+board.CountDirection(c, -dx, -dy, s) >= domain.WinLength {
		return shapeFive
	}
	// -1 blocked, 0 empty, 1 own
	var line [2*span + 1]int8
	for i := -span; i <= span; i++ {
		p := domain.Coord{X: c.X + i*dx, Y: c.Y + i*dy}
		switch {
		case i == 0:
			line[i+span] = 1
		case !board.InBounds(p):
			line[i+span] = -1
		default:
			switch board.At(p) {
			case s:
				line[i+span] = 1
			case domain.Empty:
				line[i+span] = 0
			default:
				line[i+span] = -1
			}
		}
	}
	var windows [domain.WinLength + 1]int
	for start := 0; start+domain.WinLength <= len(line); start++ {
		own := 0
		blocked := false
		for _, v := range line[start : start+domain.WinLength] {
			if v < 0 {
				blocked = true
				break
			}
			own += int(v)
		}
		if !blocked {
			windows[own]++
		}
	}
	switch {
	case windows[5] > 0:
		return shapeFive
	case windows[4] >= 2:
		return shapeOpenFour
	case windows[4] == 1:
		return shapeFour
	case windows[3] >= 2:
		return shapeOpenThree
	case windows[3] == 1:
		return shapeThree
	case windows[2] >= 2:
		return shapeOpenTwo
	case windows[2] == 1:
		return shapeTwo
	case windows[1] > 0:
		return shapeOne
	default:
		return shapeNone
	}
}

type threat struct {
	score float64
	five  bool
	fours int
	opens int
}

// evaluate scores s playing at c across all four axes, counting forks.
func evaluate(board *domain.Board, c domain.Coord, s domain.Stone) threat {
	var t threat
	for _, dir := range domain.Directions {
		sh := classify(board, c, dir[0], dir[1], s)
		switch sh {
		case shapeFive:
			t.five = true
		case shapeOpenFour, shapeFour:
			t.fours++
		case shapeOpenThree:
			t.opens++
		}
		t.score += shapeWeights[sh]
	}
	switch {
	case t.fours >= 2:
		t.score += forkDoubleFour
	case t.fours == 1 && t.opens >= 1:
		t.score += forkFourThree
	case t.opens >= 2:
		t.score += forkOpenThrees
	}
	return t
}

func attackScore(board *domain.Board, c domain.Coord, s domain.Stone) float64 {
	t := evaluate(board, c, s)
	if t.five {
		return winScore
	}
	return t.score
}

// cellScore combines the mover's own prospects at c with the value of denying
// c to the opponent.
func cellScore(board *domain.Board, c domain.Coord, s domain.Stone, defenseWeight float64) float64 {
	return attackScore(board, c, s) + defenseWeight*evaluate(board, c, s.Opponent()).score
}

func completesFive(board *domain.Board, c domain.Coord, s domain.Stone) bool {
	for _, dir := range domain.Directions {
		if 1+board.CountDirection(c, dir[0], dir[1], s)+board.CountDirection(c, -dir[0], -dir[1], s) >= domain.WinLength {
			return true
		}
	}
	return false
}
