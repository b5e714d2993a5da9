package domain

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceRejectsInvalidCells(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	require.NoError(t, b.Place(Coord{X: 3, Y: 4}, Black))

	tests := []struct {
		name string
		c    Coord
		want error
	}{
		{"negative x", Coord{X: -1, Y: 0}, ErrOutOfBounds},
		{"y too large", Coord{X: 0, Y: 15}, ErrOutOfBounds},
		{"occupied", Coord{X: 3, Y: 4}, ErrCellOccupied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := b.Cells()
			err := b.Place(tt.c, White)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.Equal(t, before, b.Cells())
			assert.Equal(t, 1, b.Stones())
		})
	}
	assert.Equal(t, Black, b.At(Coord{X: 3, Y: 4}))
}

func TestCheckWinAllDirections(t *testing.T) {
	tests := []struct {
		name  string
		start Coord
		dx    int
		dy    int
	}{
		{"horizontal", Coord{X: 2, Y: 2}, 1, 0},
		{"vertical", Coord{X: 9, Y: 1}, 0, 1},
		{"diagonal", Coord{X: 0, Y: 0}, 1, 1},
		{"anti diagonal", Coord{X: 4, Y: 10}, 1, -1},
	}
	for _, tt := range tests {
		for last := 0; last < WinLength; last++ {
			b := NewBoard(DefaultBoardSize)
			var lastCoord Coord
			for i := 0; i < WinLength; i++ {
				c := Coord{X: tt.start.X + i*tt.dx, Y: tt.start.Y + i*tt.dy}
				if i == last {
					lastCoord = c
					continue
				}
				require.NoError(t, b.Place(c, White))
			}
			require.NoError(t, b.Place(lastCoord, White))
			assert.True(t, b.CheckWin(lastCoord, White), "%s, last stone #%d", tt.name, last)
			assert.False(t, b.CheckWin(lastCoord, Black))
			assert.True(t, b.HasFive(White))
		}
	}
}

func TestCheckWinFourIsNotEnough(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	for x := 0; x < 4; x++ {
		require.NoError(t, b.Place(Coord{X: x, Y: 0}, Black))
	}
	require.NoError(t, b.Place(Coord{X: 4, Y: 0}, White))
	assert.False(t, b.CheckWin(Coord{X: 3, Y: 0}, Black))
	assert.False(t, b.HasFive(Black))
}

func TestOverlineCountsAsWin(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	for _, x := range []int{0, 1, 2, 4, 5} {
		require.NoError(t, b.Place(Coord{X: x, Y: 7}, Black))
	}
	require.NoError(t, b.Place(Coord{X: 3, Y: 7}, Black))
	assert.True(t, b.CheckWin(Coord{X: 3, Y: 7}, Black))
	assert.Len(t, b.WinningLine(Coord{X: 3, Y: 7}), 6)
}

func TestVerticalRunFromAlternatingPlay(t *testing.T) {
	b := NewBoard(DefaultBoardSize)
	moves := []Move{
		{Coord{X: 0, Y: 0}, Black}, {Coord{X: 1, Y: 0}, White},
		{Coord{X: 0, Y: 1}, Black}, {Coord{X: 1, Y: 1}, White},
		{Coord{X: 0, Y: 2}, Black}, {Coord{X: 1, Y: 2}, White},
		{Coord{X: 0, Y: 3}, Black}, {Coord{X: 1, Y: 3}, White},
		{Coord{X: 0, Y: 4}, Black},
	}
	for i, m := range moves {
		require.NoError(t, b.Place(m.Coord, m.Stone))
		if i < len(moves)-1 {
			require.False(t, b.CheckWin(m.Coord, m.Stone))
		}
	}
	assert.True(t, b.CheckWin(Coord{X: 0, Y: 4}, Black))
}

func TestCheckWinMatchesFullScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for game := 0; game < 50; game++ {
		b := NewBoard(9)
		stone := Black
		for !b.IsFull() {
			empty := b.EmptyCells()
			c := empty[rng.Intn(len(empty))]
			require.NoError(t, b.Place(c, stone))
			won := b.CheckWin(c, stone)
			require.Equal(t, b.HasFive(stone), won, "board:\n%s", b)
			if won {
				break
			}
			stone = stone.Opponent()
		}
	}
}

func TestIsFull(t *testing.T) {
	b := NewBoard(MinBoardSize)
	stone := Black
	for _, c := range b.EmptyCells() {
		require.False(t, b.IsFull())
		require.NoError(t, b.Place(c, stone))
		stone = stone.Opponent()
	}
	assert.True(t, b.IsFull())
	assert.Empty(t, b.EmptyCells())

	b.Reset()
	assert.True(t, b.IsBlank())
	assert.Equal(t, MinBoardSize, b.Size())
}

func TestBoardFromCellsRoundTrip(t *testing.T) {
	b := NewBoard(7)
	require.NoError(t, b.Place(Coord{X: 1, Y: 2}, Black))
	require.NoError(t, b.Place(Coord{X: 6, Y: 6}, White))

	restored, err := BoardFromCells(7, b.Cells())
	require.NoError(t, err)
	assert.Equal(t, b.String(), restored.String())
	assert.Equal(t, 2, restored.Stones())

	_, err = BoardFromCells(7, make([]Stone, 10))
	require.Error(t, err)
}
