package rules

import (
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
	"github.com/rs/zerolog"
)

// Outcome is the terminal classification of a board.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeDraw
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeDraw:
		return "draw"
	default:
		return "none"
	}
}

// IsTerminal reports whether the outcome ends the episode.
func (o Outcome) IsTerminal() bool { return o != OutcomeNone }

// Line is three board positions that win when held by the same player.
type Line [core.Size]core.Coordinate

// WinLines lists the 3 rows, 3 columns and 2 diagonals.
var WinLines = [8]Line{
	{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}},
	{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}},
	{{Row: 2, Col: 0}, {Row: 2, Col: 1}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}},
	{{Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 2, Col: 1}},
	{{Row: 0, Col: 2}, {Row: 1, Col: 2}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}},
	{{Row: 0, Col: 2}, {Row: 1, Col: 1}, {Row: 2, Col: 0}},
}

// Owner returns the player holding all three cells of the line, or core.Empty.
func (l Line) Owner(b *core.Board) core.Cell {
	first := b.Get(l[0])
	if first == core.Empty {
		return core.Empty
	}
	for _, c := range l[1:] {
		if b.Get(c) != first {
			return core.Empty
		}
	}
	return first
}

// Winner returns the player owning any complete line, or core.Empty when no line is complete.
func Winner(b *core.Board) core.Cell {
	for _, line := range WinLines {
		if owner := line.Owner(b); owner != core.Empty {
			return owner
		}
	}
	return core.Empty
}

// CheckWin reports whether any row, column or diagonal holds three equal non-empty cells.
func CheckWin(b *core.Board) bool {
	return Winner(b) != core.Empty
}

// CheckDraw reports whether no empty cell remains.
// It is independent of CheckWin: a full board with a completed line satisfies both.
func CheckDraw(b *core.Board) bool {
	return b.IsFull()
}

// Result is the evaluation of a board after a move.
type Result struct {
	Win     bool
	Draw    bool
	Winner  core.Cell
	Outcome Outcome
}

// Terminated reports whether the board ends the episode.
func (r Result) Terminated() bool { return r.Win || r.Draw }

// WinConditionChecker handles game over detection and winner determination
type WinConditionChecker struct {
	logger zerolog.Logger
}

// NewWinConditionChecker creates a new win condition checker
func NewWinConditionChecker(logger zerolog.Logger) *WinConditionChecker {
	return &WinConditionChecker{
		logger: logger.With().Str("component", "WinConditionChecker").Logger(),
	}
}

// Evaluate runs the win and draw checks on b.
func (wc *WinConditionChecker) Evaluate(b *core.Board) Result {
	res := Evaluate(b)

	switch res.Outcome {
	case OutcomeWin:
		wc.logger.Debug().Str("winner", res.Winner.String()).Bool("board_full", res.Draw).Msg("Winning line found")
	case OutcomeDraw:
		wc.logger.Debug().Msg("Board full with no winning line")
	}

	return res
}

// Evaluate runs the win and draw checks on b independently.
// A win takes precedence for the Outcome; Draw is still reported when the board is full.
func Evaluate(b *core.Board) Result {
	winner := Winner(b)
	res := Result{
		Win:    winner != core.Empty,
		Draw:   CheckDraw(b),
		Winner: winner,
	}

	switch {
	case res.Win:
		res.Outcome = OutcomeWin
	case res.Draw:
		res.Outcome = OutcomeDraw
	default:
		res.Outcome = OutcomeNone
	}
	return res
}
