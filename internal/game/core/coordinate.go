package core

import "fmt"

// Coordinate represents a position on the game board
type Coordinate struct {
	Row, Col int
}

// NewCoordinate creates a new coordinate with the given row and column
func NewCoordinate(row, col int) Coordinate {
	return Coordinate{Row: row, Col: col}
}

// FromIndex creates a coordinate from a flat cell index using row-major ordering
func FromIndex(idx int) Coordinate {
	return Coordinate{
		Row: idx / Size,
		Col: idx % Size,
	}
}

// IsValid checks if the coordinate is on the board
func (c Coordinate) IsValid() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

// ToIndex converts the coordinate to a flat cell index using row-major ordering
func (c Coordinate) ToIndex() int {
	return c.Row*Size + c.Col
}

// Add returns a new coordinate that is the sum of this coordinate and another
func (c Coordinate) Add(other Coordinate) Coordinate {
	return Coordinate{
		Row: c.Row + other.Row,
		Col: c.Col + other.Col,
	}
}

// Equal checks if two coordinates are equal
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Row == other.Row && c.Col == other.Col
}

// String returns a string representation of the coordinate
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// AllCoordinates returns every board position in row-major order.
func AllCoordinates() []Coordinate {
	coords := make([]Coordinate, 0, NumCells)
	for i := 0; i < NumCells; i++ {
		coords = append(coords, FromIndex(i))
	}
	return coords
}
