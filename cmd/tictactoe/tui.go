package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/ui/tui"
)

// TuiCmd plays hot-seat games in the terminal.
type TuiCmd struct {
	Plain bool `help:"Disable colors"`
}

func (c *TuiCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	// The board owns the terminal; keep the log quiet unless asked.
	if g.LogLevel == "" {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}

	registry := env.NewRegistry()
	if err := env.RegisterDefaults(registry); err != nil {
		return err
	}
	e, err := registry.Make(cfg.Env.ID, env.Options{
		Logger:          log.Logger,
		EventBus:        newEventBus(log.Logger),
		MaxEpisodeSteps: cfg.Env.MaxEpisodeSteps,
	})
	if err != nil {
		return err
	}
	defer e.Close()

	styles := game.NewBoardStyles()
	if c.Plain {
		styles = game.PlainBoardStyles()
	}
	model, err := tui.New(e, styles, log.Logger)
	if err != nil {
		return err
	}

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	if model.Err() != nil {
		return model.Err()
	}

	score := model.Score()
	log.Info().
		Int("x_wins", score.XWins).
		Int("o_wins", score.OWins).
		Int("draws", score.Draws).
		Int("truncated", score.Truncated).
		Msg("Session finished")
	return nil
}
