package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/experience"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

// PlayCmd runs episodes with uniformly random agents.
type PlayCmd struct {
	Episodes   int    `default:"1" help:"Episodes per worker"`
	Parallel   int    `default:"1" help:"Number of concurrent environments"`
	RenderMode string `help:"Render mode (none, ansi, rgb_array); overrides config"`
	Seed       *int64 `help:"Base seed; worker i uses seed+i"`
	AnyAction  bool   `help:"Sample from the whole action space instead of legal moves only"`
	Record     bool   `help:"Record transitions into an experience buffer"`
}

type tally struct {
	mu        sync.Mutex
	xWins     int
	oWins     int
	draws     int
	truncated int
	steps     int
}

func (t *tally) add(res env.StepResult, steps int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps += steps
	switch {
	case res.Truncated:
		t.truncated++
	case core.Cell(res.Info.Winner) == core.PlayerOne:
		t.xWins++
	case core.Cell(res.Info.Winner) == core.PlayerTwo:
		t.oWins++
	default:
		t.draws++
	}
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if c.Episodes <= 0 || c.Parallel <= 0 {
		return fmt.Errorf("episodes and parallel must be positive")
	}

	modeName := cfg.Env.RenderMode
	if c.RenderMode != "" {
		modeName = c.RenderMode
	}
	mode, err := env.ParseRenderMode(modeName)
	if err != nil {
		return err
	}
	if mode == env.RenderHuman {
		return fmt.Errorf("render mode %q needs a window, use the window command", mode)
	}

	registry := env.NewRegistry()
	if err := env.RegisterDefaults(registry); err != nil {
		return err
	}

	var buffer *experience.Buffer
	if c.Record || cfg.Experience.Enabled {
		buffer = experience.NewBuffer(cfg.Experience.Capacity, log.Logger)
		defer buffer.Close()
	}

	baseSeed := time.Now().UnixNano()
	if c.Seed != nil {
		baseSeed = *c.Seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("env_id", cfg.Env.ID).
		Str("render_mode", mode.String()).
		Int("episodes", c.Episodes).
		Int("parallel", c.Parallel).
		Int64("seed", baseSeed).
		Bool("record", buffer != nil).
		Msg("Starting random play")

	bus := newEventBus(log.Logger)
	var results tally
	start := time.Now()
	grp, ctx := errgroup.WithContext(ctx)
	for w := 0; w < c.Parallel; w++ {
		seed := baseSeed + int64(w)
		logger := log.With().Int("worker", w).Logger()
		grp.Go(func() error {
			e, err := registry.Make(cfg.Env.ID, env.Options{
				RenderMode:      mode,
				Logger:          logger,
				Seed:            &seed,
				EventBus:        bus,
				MaxEpisodeSteps: cfg.Env.MaxEpisodeSteps,
			})
			if err != nil {
				return err
			}
			if buffer != nil {
				e = experience.NewRecorder(e, buffer, quartz.NewReal(), logger)
			}
			defer e.Close()

			agent := rand.New(rand.NewSource(seed))
			for ep := 0; ep < c.Episodes; ep++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, steps, err := playEpisode(e, agent, seed+int64(ep), c.AnyAction)
				if err != nil {
					return fmt.Errorf("worker %d episode %d: %w", w, ep, err)
				}
				results.add(res, steps)
				logger.Debug().
					Int("episode", ep).
					Int("steps", steps).
					Int("winner", res.Info.Winner).
					Bool("truncated", res.Truncated).
					Msg("Episode finished")
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	ev := log.Info().
		Int("x_wins", results.xWins).
		Int("o_wins", results.oWins).
		Int("draws", results.draws).
		Int("truncated", results.truncated).
		Int("steps", results.steps).
		Dur("elapsed", time.Since(start))
	if buffer != nil {
		logBufferStats(ev, buffer.Stats())
	}
	ev.Msg("Random play finished")
	return nil
}

// playEpisode resets e and steps it with random actions until the episode ends.
func playEpisode(e env.Env, agent *rand.Rand, seed int64, anyAction bool) (env.StepResult, int, error) {
	_, info, err := e.Reset(env.Seed(seed))
	if err != nil {
		return env.StepResult{}, 0, err
	}
	for steps := 1; ; steps++ {
		action := e.SampleAction()
		if !anyAction {
			action = randomLegal(info.ActionMask, agent)
		}
		res, err := e.Step(action)
		if err != nil {
			return res, steps, err
		}
		if res.Terminated || res.Truncated {
			return res, steps, nil
		}
		info = res.Info
	}
}

func randomLegal(mask [9]bool, rng *rand.Rand) int {
	legal := make([]int, 0, len(mask))
	for i, ok := range mask {
		if ok {
			legal = append(legal, i)
		}
	}
	if len(legal) == 0 {
		return 0
	}
	return legal[rng.Intn(len(legal))]
}

func logBufferStats(ev *zerolog.Event, s experience.BufferStats) {
	ev.Int("buffer_size", s.CurrentSize).
		Int64("buffer_added", s.TotalAdded).
		Int64("buffer_dropped", s.TotalDropped).
		Float64("buffer_utilization_pct", s.UtilizationPct)
}
