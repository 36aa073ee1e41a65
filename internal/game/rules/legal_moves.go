package rules

import "github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"

// LegalMoveCalculator computes legal moves for the player to move
type LegalMoveCalculator struct{}

// NewLegalMoveCalculator creates a new legal move calculator
func NewLegalMoveCalculator() *LegalMoveCalculator {
	return &LegalMoveCalculator{}
}

// LegalActionMask returns a boolean mask over the action space.
// Index i is true when cell i (row-major) is empty. Occupied cells are still
// accepted by the engine as no-op moves; the mask only marks moves that change the board.
func (lmc *LegalMoveCalculator) LegalActionMask(b *core.Board) [core.NumActions]bool {
	var mask [core.NumActions]bool
	for i := 0; i < core.NumActions; i++ {
		mask[i] = b.IsEmptyAt(core.FromIndex(i))
	}
	return mask
}

// LegalActions returns the actions whose target cell is empty, in ascending order.
func (lmc *LegalMoveCalculator) LegalActions(b *core.Board) []core.Action {
	actions := make([]core.Action, 0, b.EmptyCount())
	for i := 0; i < core.NumActions; i++ {
		if b.IsEmptyAt(core.FromIndex(i)) {
			actions = append(actions, core.Action(i))
		}
	}
	return actions
}
