package core

import "strings"

// Cell is the state of a single board position.
// Empty is 0; the two players are 1 and -1 so a cell value doubles as a player ID.
type Cell int

const (
	Empty     Cell = 0
	PlayerOne Cell = 1
	PlayerTwo Cell = -1
)

// Size is the side length of the board.
const Size = 3

// NumCells is the number of positions on the board and the size of the action space.
const NumCells = Size * Size

// IsPlayer reports whether c is one of the two player marks.
func (c Cell) IsPlayer() bool { return c == PlayerOne || c == PlayerTwo }

// IsValid reports whether c is one of the three legal cell values.
func (c Cell) IsValid() bool { return c == Empty || c.IsPlayer() }

// Opponent returns the other player. Empty has no opponent and is returned unchanged.
func (c Cell) Opponent() Cell { return -c }

// Symbol returns the mark drawn for the cell: "X" for player one, "O" for player two.
func (c Cell) Symbol() string {
	switch c {
	case PlayerOne:
		return "X"
	case PlayerTwo:
		return "O"
	default:
		return " "
	}
}

func (c Cell) String() string {
	switch c {
	case PlayerOne:
		return "X"
	case PlayerTwo:
		return "O"
	case Empty:
		return "empty"
	default:
		return "invalid"
	}
}

// Board is the 3x3 grid, indexed [row][col].
// It is a value type: assigning or returning a Board copies every cell.
type Board [Size][Size]Cell

// Get returns the cell at c. The coordinate must be valid.
func (b *Board) Get(c Coordinate) Cell { return b[c.Row][c.Col] }

// Set writes v at c. The coordinate must be valid.
func (b *Board) Set(c Coordinate, v Cell) { b[c.Row][c.Col] = v }

// IsEmptyAt reports whether the cell at c is unoccupied.
func (b *Board) IsEmptyAt(c Coordinate) bool { return b.Get(c) == Empty }

// Clear resets every cell to Empty.
func (b *Board) Clear() { *b = Board{} }

// IsFull reports whether no cell is Empty.
func (b *Board) IsFull() bool {
	return b.EmptyCount() == 0
}

// EmptyCount returns the number of unoccupied cells.
func (b *Board) EmptyCount() int {
	n := 0
	for _, row := range b {
		for _, cell := range row {
			if cell == Empty {
				n++
			}
		}
	}
	return n
}

// Count returns how many cells hold v.
func (b *Board) Count(v Cell) int {
	n := 0
	for _, row := range b {
		for _, cell := range row {
			if cell == v {
				n++
			}
		}
	}
	return n
}

// Ints returns the board as plain integers, the shape exposed to environment callers.
func (b *Board) Ints() [Size][Size]int {
	var out [Size][Size]int
	for r := range b {
		for c := range b[r] {
			out[r][c] = int(b[r][c])
		}
	}
	return out
}

// BoardFromInts builds a Board from integer cell values.
// Values outside {-1, 0, 1} are rejected with ErrInvalidCell.
func BoardFromInts(cells [Size][Size]int) (Board, error) {
	var b Board
	for r := range cells {
		for c := range cells[r] {
			v := Cell(cells[r][c])
			if !v.IsValid() {
				return Board{}, WrapCellError(NewCoordinate(r, c), ErrInvalidCell)
			}
			b[r][c] = v
		}
	}
	return b, nil
}

// String renders the board as three lines of "X", "O" and "." separated by spaces.
func (b Board) String() string {
	var sb strings.Builder
	sb.Grow(NumCells * 2)
	for r := range b {
		for c := range b[r] {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if b[r][c] == Empty {
				sb.WriteByte('.')
			} else {
				sb.WriteString(b[r][c].Symbol())
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
