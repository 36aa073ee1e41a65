package testutil

import (
	"fmt"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

// Scripted action sequences, player one first.
var (
	// TopRowWin ends with player one completing row 0 on the fifth move.
	TopRowWin = []int{0, 3, 1, 4, 2}
	// ColumnWinPlayerTwo ends with player two completing column 1.
	ColumnWinPlayerTwo = []int{0, 1, 3, 4, 8, 7}
	// FullBoardDraw fills the board with no line:
	//   X O X
	//   X O O
	//   O X X
	FullBoardDraw = []int{0, 1, 2, 4, 3, 5, 7, 6, 8}
)

// BoardFromRows parses rows of 'X', 'O' and '.' into a board.
// It panics on malformed input; it is meant for literal fixtures.
func BoardFromRows(rows ...string) core.Board {
	if len(rows) != core.Size {
		panic(fmt.Sprintf("testutil: need %d rows, got %d", core.Size, len(rows)))
	}
	var b core.Board
	for r, row := range rows {
		if len(row) != core.Size {
			panic(fmt.Sprintf("testutil: row %d has %d cells", r, len(row)))
		}
		for c, ch := range row {
			var v core.Cell
			switch ch {
			case 'X', 'x':
				v = core.PlayerOne
			case 'O', 'o':
				v = core.PlayerTwo
			case '.', ' ':
				v = core.Empty
			default:
				panic(fmt.Sprintf("testutil: bad cell %q", ch))
			}
			b.Set(core.NewCoordinate(r, c), v)
		}
	}
	return b
}
