package domain

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultBoardSize = 15
	MinBoardSize     = 5
	MaxBoardSize     = 25
	WinLength        = 5
)

// Directions lists the four line axes: horizontal, vertical and both diagonals.
var Directions = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

type Board struct {
	size   int
	cells  []Stone
	stones int
}

func NewBoard(size int) *Board {
	b := &Board{}
	b.reset(size)
	return b
}

func (b *Board) reset(size int) {
	b.size = size
	b.cells = make([]Stone, size*size)
	b.stones = 0
}

func (b *Board) Reset() {
	b.reset(b.size)
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) Center() Coord {
	return Coord{X: b.size / 2, Y: b.size / 2}
}

func (b *Board) InBounds(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < b.size && c.Y < b.size
}

func (b *Board) At(c Coord) Stone {
	if !b.InBounds(c) {
		return Empty
	}
	return b.cells[b.index(c)]
}

func (b *Board) IsEmpty(c Coord) bool {
	return b.InBounds(c) && b.cells[b.index(c)] == Empty
}

func (b *Board) Place(c Coord, s Stone) error {
	if !b.InBounds(c) {
		return errors.WithMessagef(ErrOutOfBounds, "(%d, %d) on a %dx%d board", c.X, c.Y, b.size, b.size)
	}
	if s != Black && s != White {
		return errors.Errorf("unexpected stone '%v'", s)
	}
	idx := b.index(c)
	if b.cells[idx] != Empty {
		return errors.WithMessagef(ErrCellOccupied, "(%d, %d) holds %v", c.X, c.Y, b.cells[idx])
	}
	b.cells[idx] = s
	b.stones++
	return nil
}

// Lift clears a cell; search code uses it to undo a probe placement.
func (b *Board) Lift(c Coord) {
	idx := b.index(c)
	if b.cells[idx] != Empty {
		b.cells[idx] = Empty
		b.stones--
	}
}

func (b *Board) Stones() int {
	return b.stones
}

func (b *Board) IsFull() bool {
	return b.stones == len(b.cells)
}

func (b *Board) IsBlank() bool {
	return b.stones == 0
}

// CheckWin reports whether the stone at c belongs to s and closes a run of
// WinLength or more through c. Overlines count.
func (b *Board) CheckWin(c Coord, s Stone) bool {
	if s == Empty || b.At(c) != s {
		return false
	}
	for _, dir := range Directions {
		count := 1 + b.CountDirection(c, dir[0], dir[1], s) + b.CountDirection(c, -dir[0], -dir[1], s)
		if count >= WinLength {
			return true
		}
	}
	return false
}

// HasFive scans the whole board; it must agree with CheckWin on the last move.
func (b *Board) HasFive(s Stone) bool {
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			c := Coord{X: x, Y: y}
			if b.cells[b.index(c)] != s {
				continue
			}
			for _, dir := range Directions {
				if b.At(Coord{X: x - dir[0], Y: y - dir[1]}) == s {
					continue
				}
				if 1+b.CountDirection(c, dir[0], dir[1], s) >= WinLength {
					return true
				}
			}
		}
	}
	return false
}

// CountDirection counts contiguous s stones starting one step away from c.
func (b *Board) CountDirection(c Coord, dx, dy int, s Stone) int {
	count := 0
	x, y := c.X+dx, c.Y+dy
	for b.InBounds(Coord{X: x, Y: y}) && b.cells[y*b.size+x] == s {
		count++
		x += dx
		y += dy
	}
	return count
}

// WinningLine returns the run through c when it wins, ordered along its axis.
func (b *Board) WinningLine(c Coord) []Coord {
	s := b.At(c)
	if s == Empty {
		return nil
	}
	for _, dir := range Directions {
		back := b.CountDirection(c, -dir[0], -dir[1], s)
		forward := b.CountDirection(c, dir[0], dir[1], s)
		if back+forward+1 < WinLength {
			continue
		}
		line := make([]Coord, 0, back+forward+1)
		for i := -back; i <= forward; i++ {
			line = append(line, Coord{X: c.X + i*dir[0], Y: c.Y + i*dir[1]})
		}
		return line
	}
	return nil
}

func (b *Board) EmptyCells() []Coord {
	cells := make([]Coord, 0, len(b.cells)-b.stones)
	for i, v := range b.cells {
		if v == Empty {
			cells = append(cells, Coord{X: i % b.size, Y: i / b.size})
		}
	}
	return cells
}

func (b *Board) Clone() *Board {
	clone := &Board{size: b.size, stones: b.stones}
	clone.cells = make([]Stone, len(b.cells))
	copy(clone.cells, b.cells)
	return clone
}

// Cells exposes a row-major copy for snapshots and rendering.
func (b *Board) Cells() []Stone {
	cells := make([]Stone, len(b.cells))
	copy(cells, b.cells)
	return cells
}

func BoardFromCells(size int, cells []Stone) (*Board, error) {
	if len(cells) != size*size {
		return nil, errors.Errorf("expected %d cells, got %d", size*size, len(cells))
	}
	b := NewBoard(size)
	for i, v := range cells {
		if v == Empty {
			continue
		}
		if err := b.Place(Coord{X: i % size, Y: i / size}, v); err != nil {
			return nil, errors.WithMessage(err, "restore cell")
		}
	}
	return b, nil
}

func (b *Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			switch b.cells[y*b.size+x] {
			case Black:
				sb.WriteByte('X')
			case White:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b *Board) index(c Coord) int {
	return c.Y*b.size + c.X
}
