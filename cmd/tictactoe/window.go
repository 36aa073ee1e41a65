package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/ui"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/ui/renderer"
)

// WindowCmd opens an Ebitengine window driven by the environment in human mode.
type WindowCmd struct {
	Random bool          `help:"Let a random agent play instead of reading clicks"`
	Pause  time.Duration `default:"2s" help:"Pause after an episode ends before the next reset"`
}

func (c *WindowCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	clicks := make(chan core.Action, 1)
	opts := ui.WindowOptions{
		Title: cfg.Render.Title,
		Size:  cfg.Render.WindowSize,
		FPS:   cfg.Render.FPS,
		Clock: quartz.NewReal(),
	}
	if !c.Random {
		opts.Clicks = clicks
	}
	display := ui.NewWindowDisplay(opts, log.Logger)

	registry := env.NewRegistry()
	if err := env.RegisterDefaults(registry); err != nil {
		return err
	}
	rOpts := renderer.DefaultOptions()
	rOpts.WindowSize = cfg.Render.WindowSize
	e, err := registry.Make(cfg.Env.ID, env.Options{
		RenderMode:      env.RenderHuman,
		Logger:          log.Logger,
		Renderer:        renderer.NewPixelRenderer(rOpts),
		Display:         display,
		EventBus:        newEventBus(log.Logger),
		MaxEpisodeSteps: cfg.Env.MaxEpisodeSteps,
	})
	if err != nil {
		return err
	}

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- c.loop(e, display.Done(), clicks)
	}()

	// Ebitengine owns the main goroutine until the window closes.
	runErr := display.Run()
	loopResult := <-loopErr
	closeErr := e.Close()
	if loopResult != nil {
		return loopResult
	}
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// loop plays episodes until the window closes.
func (c *WindowCmd) loop(e env.Env, done <-chan struct{}, clicks <-chan core.Action) error {
	for {
		if _, _, err := e.Reset(env.ResetOptions{}); err != nil {
			return ignoreClosed(err)
		}
		for {
			var action int
			if c.Random {
				select {
				case <-done:
					return nil
				default:
				}
				action = e.SampleAction()
			} else {
				select {
				case <-done:
					return nil
				case a := <-clicks:
					action = int(a)
				}
			}

			res, err := e.Step(action)
			if err != nil {
				return ignoreClosed(err)
			}
			if res.Terminated || res.Truncated {
				log.Info().
					Int("winner", res.Info.Winner).
					Bool("truncated", res.Truncated).
					Int("steps", res.Info.EpisodeStep).
					Msg("Episode finished")
				break
			}
		}

		select {
		case <-done:
			return nil
		case <-time.After(c.Pause):
		}
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, ui.ErrDisplayClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("window loop: %w", err)
}
