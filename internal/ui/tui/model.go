package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

// Score counts finished episodes.
type Score struct {
	XWins     int
	OWins     int
	Draws     int
	Truncated int
}

// Model is a hot-seat tic-tac-toe game driving an env.Env.
type Model struct {
	env    env.Env
	styles game.BoardStyles
	logger zerolog.Logger

	board     core.Board
	info      env.Info
	cursor    int
	done      bool
	truncated bool
	winner    core.Cell
	message   string
	score     Score
	quitting  bool
	err       error
}

// New resets e and returns a model positioned on the centre cell.
func New(e env.Env, styles game.BoardStyles, logger zerolog.Logger) (*Model, error) {
	m := &Model{
		env:    e,
		styles: styles,
		logger: logger.With().Str("component", "tui").Logger(),
		cursor: 4,
	}
	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) reset() error {
	obs, info, err := m.env.Reset(env.ResetOptions{})
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := m.setBoard(obs); err != nil {
		return err
	}
	m.info = info
	m.done, m.truncated = false, false
	m.winner = core.Empty
	m.message = ""
	return nil
}

func (m *Model) setBoard(obs env.Observation) error {
	b, err := core.BoardFromInts(obs)
	if err != nil {
		return err
	}
	m.board = b
	return nil
}

func (m *Model) play(action int) {
	if m.done {
		m.message = "episode over, press r to play again"
		return
	}

	res, err := m.env.Step(action)
	if err != nil {
		m.err = err
		m.message = err.Error()
		return
	}
	if err := m.setBoard(res.Observation); err != nil {
		m.err = err
		return
	}
	m.info = res.Info
	m.message = ""

	if !res.Info.MoveAccepted {
		m.message = fmt.Sprintf("cell %d is taken", action+1)
	}

	switch {
	case res.Terminated:
		m.done = true
		m.winner = core.Cell(res.Info.Winner)
		switch m.winner {
		case core.PlayerOne:
			m.score.XWins++
		case core.PlayerTwo:
			m.score.OWins++
		default:
			m.score.Draws++
		}
		m.logger.Debug().Str("winner", m.winner.String()).Msg("Episode finished")
	case res.Truncated:
		m.done, m.truncated = true, true
		m.score.Truncated++
	}
}

func (m *Model) moveCursor(dRow, dCol int) {
	c := core.FromIndex(m.cursor).Add(core.NewCoordinate(dRow, dCol))
	if c.IsValid() {
		m.cursor = c.ToIndex()
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch s := key.String(); s {
	case "ctrl+c", "esc", "q":
		m.quitting = true
		return m, tea.Quit
	case "r":
		if err := m.reset(); err != nil {
			m.err = err
			m.message = err.Error()
		}
	case "up", "k":
		m.moveCursor(-1, 0)
	case "down", "j":
		m.moveCursor(1, 0)
	case "left", "h":
		m.moveCursor(0, -1)
	case "right", "l":
		m.moveCursor(0, 1)
	case "enter", " ":
		m.play(m.cursor)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		action := int(s[0] - '1')
		m.cursor = action
		m.play(action)
	}
	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("Tic-Tac-Toe"))
	sb.WriteString("\n\n")
	sb.WriteString(game.FormatBoard(m.board, m.styles, m.cursor))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Status.Render(m.Status()))
	sb.WriteString("\n")
	if m.message != "" {
		sb.WriteString(ErrorStyle.Render(m.message))
		sb.WriteString("\n")
	}
	sb.WriteString(ScoreStyle.Render(fmt.Sprintf("X %d  O %d  draws %d", m.score.XWins, m.score.OWins, m.score.Draws)))
	sb.WriteString("\n")
	sb.WriteString(InfoStyle.Render("1-9 or arrows+enter: play  r: reset  q: quit"))
	sb.WriteString("\n")
	return sb.String()
}

// Status describes whose turn it is or how the episode ended.
func (m *Model) Status() string {
	switch {
	case m.truncated:
		return "step limit reached"
	case m.done && m.winner != core.Empty:
		return m.winner.Symbol() + " wins"
	case m.done:
		return "draw"
	default:
		return core.Cell(m.info.Player).Symbol() + " to move"
	}
}

func (m *Model) Board() core.Board { return m.board }

func (m *Model) Cursor() int { return m.cursor }

func (m *Model) Score() Score { return m.score }

func (m *Model) Message() string { return m.message }

func (m *Model) Done() bool { return m.done }

// Err returns the last environment error, if any.
func (m *Model) Err() error { return m.err }
