// Package ai selects moves for the bot: a pattern heuristic over a bounded
// neighborhood of existing stones, tuned per difficulty tier, with a one-reply
// lookahead at the top tier. It also plays the bot's part of the Swap2 opening.
package ai

import (
	"math"
	"math/rand"
	"sort"

	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/pkg/errors"
)

var errNoCandidates = errors.New("no candidate move on a board with empty cells")

type Engine struct {
	rng *rand.Rand
}

func New(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

func NewSeeded(seed int64) *Engine {
	return New(rand.New(rand.NewSource(seed)))
}

type scoredCell struct {
	c     domain.Coord
	score float64
	dist  int
}

// SelectMove returns false only when the board is full.
func (e *Engine) SelectMove(board *domain.Board, toMove domain.Stone, d domain.Difficulty) (domain.Coord, bool) {
	if board.IsFull() {
		return domain.Coord{}, false
	}
	if board.IsBlank() {
		return board.Center(), true
	}
	profile := ProfileFor(d)
	candidates := candidateCells(board, profile.SearchRadius)
	if len(candidates) == 0 {
		panic(errors.WithMessagef(errNoCandidates, "%d stones on a %dx%d board", board.Stones(), board.Size(), board.Size()))
	}
	opponent := toMove.Opponent()
	if wins := filterCells(candidates, func(c domain.Coord) bool {
		return completesFive(board, c, toMove)
	}); len(wins) > 0 {
		return rank(board, wins, toMove, profile.DefenseWeight)[0].c, true
	}
	blocks := filterCells(candidates, func(c domain.Coord) bool {
		return completesFive(board, c, opponent)
	})
	mustBlock := len(blocks) > 0
	if !(mustBlock && profile.BlocksFives) && profile.RandomMoveRate > 0 && e.rng.Float64() < profile.RandomMoveRate {
		return candidates[e.rng.Intn(len(candidates))], true
	}
	if mustBlock {
		candidates = blocks
	}
	ranked := rank(board, candidates, toMove, profile.DefenseWeight)
	if profile.Lookahead && !mustBlock && len(ranked) > 1 {
		return lookahead(board, ranked, toMove, profile), true
	}
	return ranked[0].c, true
}

// candidateCells lists empty cells near stones in raster order. When the
// neighborhood is saturated it widens until the whole board is covered.
func candidateCells(board *domain.Board, radius int) []domain.Coord {
	if radius < 1 {
		radius = 1
	}
	for ; radius <= board.Size(); radius++ {
		cells := neighborhood(board, radius)
		if len(cells) > 0 || board.IsFull() {
			return cells
		}
	}
	return board.EmptyCells()
}

func neighborhood(board *domain.Board, radius int) []domain.Coord {
	size := board.Size()
	cells := make([]domain.Coord, 0, 64)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := domain.Coord{X: x, Y: y}
			if board.IsEmpty(c) && hasStoneWithin(board, c, radius) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

func hasStoneWithin(board *domain.Board, c domain.Coord, radius int) bool {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if board.At(domain.Coord{X: c.X + dx, Y: c.Y + dy}) != domain.Empty {
				return true
			}
		}
	}
	return false
}

func filterCells(cells []domain.Coord, keep func(domain.Coord) bool) []domain.Coord {
	var out []domain.Coord
	for _, c := range cells {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// rank orders by score, then by distance to the center, then in raster order.
func rank(board *domain.Board, cells []domain.Coord, s domain.Stone, defenseWeight float64) []scoredCell {
	center := board.Center()
	ranked := make([]scoredCell, 0, len(cells))
	for _, c := range cells {
		dx, dy := c.X-center.X, c.Y-center.Y
		ranked = append(ranked, scoredCell{
			c:     c,
			score: cellScore(board, c, s, defenseWeight),
			dist:  dx*dx + dy*dy,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		if a.c.Y != b.c.Y {
			return a.c.Y < b.c.Y
		}
		return a.c.X < b.c.X
	})
	return ranked
}

// lookahead re-scores the strongest candidates by the best reply they leave
// to the opponent.
func lookahead(board *domain.Board, ranked []scoredCell, s domain.Stone, profile Profile) domain.Coord {
	width := min(profile.LookaheadWidth, len(ranked))
	probe := board.Clone()
	best := ranked[0].c
	bestValue := math.Inf(-1)
	for _, cand := range ranked[:width] {
		if err := probe.Place(cand.c, s); err != nil {
			panic(errors.WithMessage(err, "probe candidate"))
		}
		value := cand.score - profile.ReplyWeight*bestReply(probe, s.Opponent(), profile.SearchRadius)
		probe.Lift(cand.c)
		if value > bestValue {
			bestValue = value
			best = cand.c
		}
	}
	return best
}

func bestReply(board *domain.Board, s domain.Stone, radius int) float64 {
	if board.IsFull() {
		return 0
	}
	cells := candidateCells(board, radius)
	forced := false
	for _, c := range cells {
		if completesFive(board, c, s) {
			return winScore
		}
		if completesFive(board, c, s.Opponent()) {
			forced = true
		}
	}
	if forced {
		return 0
	}
	best := 0.0
	for _, c := range cells {
		best = math.Max(best, attackScore(board, c, s))
	}
	return best
}
