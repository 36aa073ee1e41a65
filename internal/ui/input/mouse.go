package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

func IsLeftClickJustPressed() bool {
	return inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
}

func GetCursorPosition() (int, int) {
	return ebiten.CursorPosition()
}

// CellAt maps a screen position to the board action under it.
// ok is false when the position is outside the board.
func CellAt(x, y, cellSize int) (core.Action, bool) {
	if cellSize <= 0 || x < 0 || y < 0 {
		return 0, false
	}
	c := core.NewCoordinate(y/cellSize, x/cellSize)
	if !c.IsValid() {
		return 0, false
	}
	return core.ActionAt(c), true
}

// ClickedCell returns the action under the cursor when the left button was pressed this tick.
// It must be called from the ebiten update loop.
func ClickedCell(cellSize int) (core.Action, bool) {
	if !IsLeftClickJustPressed() {
		return 0, false
	}
	x, y := GetCursorPosition()
	return CellAt(x, y, cellSize)
}
