package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCoordinate(t *testing.T) {
	c := NewCoordinate(2, 1)
	assert.Equal(t, 2, c.Row)
	assert.Equal(t, 1, c.Col)
}

func TestCoordinate_FromIndex(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		expected Coordinate
	}{
		{"TopLeft", 0, Coordinate{0, 0}},
		{"TopRight", 2, Coordinate{0, 2}},
		{"SecondRow", 3, Coordinate{1, 0}},
		{"Center", 4, Coordinate{1, 1}},
		{"BottomLeft", 6, Coordinate{2, 0}},
		{"BottomRight", 8, Coordinate{2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromIndex(tt.index))
		})
	}
}

func TestCoordinate_IndexRoundTrip(t *testing.T) {
	for i := 0; i < NumCells; i++ {
		c := FromIndex(i)
		assert.True(t, c.IsValid())
		assert.Equal(t, i, c.ToIndex())
	}
}

func TestCoordinate_IsValid(t *testing.T) {
	tests := []struct {
		coord Coordinate
		valid bool
	}{
		{Coordinate{0, 0}, true},
		{Coordinate{2, 2}, true},
		{Coordinate{-1, 0}, false},
		{Coordinate{0, -1}, false},
		{Coordinate{3, 0}, false},
		{Coordinate{0, 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.coord.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.coord.IsValid())
		})
	}
}

func TestCoordinate_AddAndEqual(t *testing.T) {
	c := NewCoordinate(1, 1).Add(NewCoordinate(1, -1))
	assert.True(t, c.Equal(NewCoordinate(2, 0)))
	assert.False(t, c.Equal(NewCoordinate(0, 2)))
}

func TestAllCoordinates(t *testing.T) {
	coords := AllCoordinates()
	assert.Len(t, coords, NumCells)
	assert.Equal(t, Coordinate{0, 0}, coords[0])
	assert.Equal(t, Coordinate{2, 2}, coords[NumCells-1])
}
