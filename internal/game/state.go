package game

import (
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/rules"
)

// GameState is the board, the player to move and the number of accepted moves.
// It is a value type; copies are independent snapshots.
type GameState struct {
	Board         core.Board
	CurrentPlayer core.Cell
	Moves         int
}

// NewGameState returns an empty board with player one to move.
func NewGameState() GameState {
	return GameState{CurrentPlayer: core.PlayerOne}
}

// MoveResult describes the effect of one ApplyMove call.
type MoveResult struct {
	// Accepted is false when the target cell was occupied and the state was left unchanged.
	Accepted   bool
	Terminated bool
	Outcome    rules.Outcome
	// Reward is 1 when a line is complete after the move, otherwise 0. It is never negative.
	Reward     int
	Player     core.Cell
	Coordinate core.Coordinate
	// Winner owns the completed line, core.Empty when there is none.
	Winner core.Cell
	// Draw is true whenever the board is full after the move, even if the move also won.
	Draw   bool
	Reason error
}

// Reset clears every cell and gives the move to player one.
func (gs *GameState) Reset() {
	gs.Board.Clear()
	gs.CurrentPlayer = core.PlayerOne
	gs.Moves = 0
}

// ApplyMove places the current player's mark at action.
//
// An out-of-range action returns core.ErrInvalidAction and leaves the state unchanged.
// An occupied target is not an error: the result has Accepted false, Reason
// core.ErrCellOccupied, zero reward and the same player to move.
func (gs *GameState) ApplyMove(action core.Action) (MoveResult, error) {
	return gs.applyMove(action, rules.Evaluate)
}

func (gs *GameState) applyMove(action core.Action, evaluate func(*core.Board) rules.Result) (MoveResult, error) {
	coord, err := action.Decode()
	if err != nil {
		return MoveResult{}, core.WrapActionError(gs.CurrentPlayer, action, err)
	}

	mover := gs.CurrentPlayer
	if !mover.IsPlayer() {
		return MoveResult{}, core.WrapActionError(mover, action, core.ErrInvalidPlayer)
	}

	res := MoveResult{Player: mover, Coordinate: coord}

	if !gs.Board.IsEmptyAt(coord) {
		res.Reason = core.ErrCellOccupied
		return res, nil
	}

	gs.Board.Set(coord, mover)
	gs.CurrentPlayer = mover.Opponent()
	gs.Moves++

	eval := evaluate(&gs.Board)
	res.Accepted = true
	res.Terminated = eval.Terminated()
	res.Outcome = eval.Outcome
	res.Draw = eval.Draw
	if eval.Win {
		res.Reward = 1
		res.Winner = eval.Winner
	}
	return res, nil
}

// IsWin reports whether any line is complete.
func (gs *GameState) IsWin() bool { return rules.CheckWin(&gs.Board) }

// IsDraw reports whether the board is full.
func (gs *GameState) IsDraw() bool { return rules.CheckDraw(&gs.Board) }
