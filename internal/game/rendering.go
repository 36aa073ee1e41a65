package game

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

// BoardStyles contains styling for the text board
type BoardStyles struct {
	PlayerOne lipgloss.Style
	PlayerTwo lipgloss.Style
	Hint      lipgloss.Style
	Grid      lipgloss.Style
	Status    lipgloss.Style
	Cursor    lipgloss.Style
}

// NewBoardStyles returns the default palette: X blue, O red, matching the pixel renderer.
func NewBoardStyles() BoardStyles {
	return BoardStyles{
		PlayerOne: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0000FF")).
			Bold(true),
		PlayerTwo: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true),
		Hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Grid: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Cursor: lipgloss.NewStyle().
			Reverse(true),
	}
}

// PlainBoardStyles returns styles that add no escape sequences.
func PlainBoardStyles() BoardStyles {
	plain := lipgloss.NewStyle()
	return BoardStyles{
		PlayerOne: plain,
		PlayerTwo: plain,
		Hint:      plain,
		Grid:      plain,
		Status:    plain,
		Cursor:    plain,
	}
}

// FormatBoard renders the board as text. Empty cells show their 1-based key hint.
// cursor is the action index to highlight, or -1 for none.
func FormatBoard(b core.Board, styles BoardStyles, cursor int) string {
	var sb strings.Builder
	sep := styles.Grid.Render("───┼───┼───")
	bar := styles.Grid.Render("│")

	for r := 0; r < core.Size; r++ {
		if r > 0 {
			sb.WriteString(sep)
			sb.WriteByte('\n')
		}
		for c := 0; c < core.Size; c++ {
			if c > 0 {
				sb.WriteString(bar)
			}
			coord := core.NewCoordinate(r, c)
			cell := " " + cellText(b.Get(coord), coord, styles) + " "
			if coord.ToIndex() == cursor {
				cell = styles.Cursor.Render(cell)
			}
			sb.WriteString(cell)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cellText(v core.Cell, c core.Coordinate, styles BoardStyles) string {
	switch v {
	case core.PlayerOne:
		return styles.PlayerOne.Render(v.Symbol())
	case core.PlayerTwo:
		return styles.PlayerTwo.Render(v.Symbol())
	default:
		return styles.Hint.Render(strconv.Itoa(c.ToIndex() + 1))
	}
}

// StatusLine describes whose turn it is or how the episode ended.
func (e *Engine) StatusLine(styles BoardStyles) string {
	if !e.IsTerminal() {
		return styles.Status.Render(e.gs.CurrentPlayer.Symbol() + " to move")
	}
	if w := e.winnerOnBoard(); w != core.Empty {
		return styles.Status.Render(w.Symbol() + " wins")
	}
	return styles.Status.Render("draw")
}

func (e *Engine) winnerOnBoard() core.Cell {
	return e.winChecker.Evaluate(&e.gs.Board).Winner
}

// Render returns the styled board followed by the status line.
func (e *Engine) Render(styles BoardStyles) string {
	return FormatBoard(e.gs.Board, styles, -1) + e.StatusLine(styles) + "\n"
}
