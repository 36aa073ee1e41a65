package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_ZeroValueIsEmpty(t *testing.T) {
	var b Board

	assert.Equal(t, NumCells, b.EmptyCount())
	assert.False(t, b.IsFull())
	for _, c := range AllCoordinates() {
		assert.True(t, b.IsEmptyAt(c), "cell %s should be empty", c)
	}
}

func TestBoard_SetAndGet(t *testing.T) {
	var b Board
	b.Set(NewCoordinate(1, 2), PlayerOne)
	b.Set(NewCoordinate(2, 0), PlayerTwo)

	assert.Equal(t, PlayerOne, b.Get(NewCoordinate(1, 2)))
	assert.Equal(t, PlayerTwo, b.Get(NewCoordinate(2, 0)))
	assert.Equal(t, Empty, b.Get(NewCoordinate(0, 0)))
	assert.Equal(t, 7, b.EmptyCount())
	assert.Equal(t, 1, b.Count(PlayerOne))
	assert.Equal(t, 1, b.Count(PlayerTwo))
}

func TestBoard_IsFull(t *testing.T) {
	b := Board{
		{PlayerOne, PlayerTwo, PlayerOne},
		{PlayerOne, PlayerTwo, PlayerTwo},
		{PlayerTwo, PlayerOne, PlayerOne},
	}
	assert.True(t, b.IsFull())

	b.Set(NewCoordinate(2, 2), Empty)
	assert.False(t, b.IsFull())
}

func TestBoard_Clear(t *testing.T) {
	b := Board{{PlayerOne, PlayerTwo, PlayerOne}}
	b.Clear()
	assert.Equal(t, Board{}, b)
}

func TestBoard_CopyIsIndependent(t *testing.T) {
	var b Board
	snapshot := b
	b.Set(NewCoordinate(0, 0), PlayerOne)

	assert.Equal(t, Empty, snapshot.Get(NewCoordinate(0, 0)), "copy must not observe later writes")

	ints := b.Ints()
	ints[0][0] = 0
	assert.Equal(t, PlayerOne, b.Get(NewCoordinate(0, 0)), "Ints must return a copy")
}

func TestBoard_Ints(t *testing.T) {
	b := Board{
		{PlayerOne, Empty, PlayerTwo},
		{Empty, PlayerOne, Empty},
		{PlayerTwo, Empty, Empty},
	}
	expected := [Size][Size]int{
		{1, 0, -1},
		{0, 1, 0},
		{-1, 0, 0},
	}
	assert.Equal(t, expected, b.Ints())
}

func TestBoardFromInts(t *testing.T) {
	t.Run("valid values", func(t *testing.T) {
		b, err := BoardFromInts([Size][Size]int{{1, 0, -1}, {0, 0, 0}, {0, 0, 1}})
		require.NoError(t, err)
		assert.Equal(t, PlayerOne, b.Get(NewCoordinate(0, 0)))
		assert.Equal(t, PlayerTwo, b.Get(NewCoordinate(0, 2)))
		assert.Equal(t, PlayerOne, b.Get(NewCoordinate(2, 2)))
	})

	t.Run("out of range value", func(t *testing.T) {
		_, err := BoardFromInts([Size][Size]int{{0, 0, 0}, {0, 2, 0}, {0, 0, 0}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidCell)
		assert.Contains(t, err.Error(), "(1,1)")
	})
}

func TestBoard_String(t *testing.T) {
	b := Board{
		{PlayerOne, Empty, PlayerTwo},
		{Empty, PlayerOne, Empty},
		{Empty, Empty, Empty},
	}
	assert.Equal(t, "X . O\n. X .\n. . .\n", b.String())
}

func TestCell_Opponent(t *testing.T) {
	assert.Equal(t, PlayerTwo, PlayerOne.Opponent())
	assert.Equal(t, PlayerOne, PlayerTwo.Opponent())
	assert.Equal(t, Empty, Empty.Opponent())
}

func TestCell_Predicates(t *testing.T) {
	tests := []struct {
		cell     Cell
		isPlayer bool
		isValid  bool
		str      string
	}{
		{PlayerOne, true, true, "X"},
		{PlayerTwo, true, true, "O"},
		{Empty, false, true, "empty"},
		{Cell(5), false, false, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.isPlayer, tt.cell.IsPlayer())
			assert.Equal(t, tt.isValid, tt.cell.IsValid())
			assert.Equal(t, tt.str, tt.cell.String())
		})
	}
}
