package experience

import (
	"errors"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

// Recorder wraps an environment and stores one Transition per applied Step
// in a Buffer. Steps that return an error are not recorded unless the error
// is env.ErrDisplay, which follows an applied move.
type Recorder struct {
	env.Env

	buffer *Buffer
	clock  quartz.Clock
	logger zerolog.Logger

	episodeID string
	step      int
	lastObs   env.Observation
	lastInfo  env.Info
	recorded  int64
}

// NewRecorder creates a recorder writing to buffer. A nil clock uses the
// real clock.
func NewRecorder(e env.Env, buffer *Buffer, clock quartz.Clock, logger zerolog.Logger) *Recorder {
	if clock == nil {
		clock = quartz.NewReal()
	}
	r := &Recorder{
		Env:    e,
		buffer: buffer,
		clock:  clock,
		logger: logger.With().Str("component", "experience_recorder").Logger(),
	}
	r.startEpisode(env.Observation{}, initialInfo())
	return r
}

func initialInfo() env.Info {
	info := env.Info{Player: int(core.PlayerOne)}
	for i := range info.ActionMask {
		info.ActionMask[i] = true
	}
	return info
}

func (r *Recorder) startEpisode(obs env.Observation, info env.Info) {
	r.episodeID = uuid.NewString()
	r.step = 0
	r.lastObs = obs
	r.lastInfo = info
}

// Reset starts a new episode ID.
func (r *Recorder) Reset(opts env.ResetOptions) (env.Observation, env.Info, error) {
	obs, info, err := r.Env.Reset(opts)
	if err != nil && !errors.Is(err, env.ErrDisplay) {
		return obs, info, err
	}
	r.startEpisode(obs, info)
	return obs, info, err
}

// Step forwards to the wrapped environment and records the transition.
func (r *Recorder) Step(action int) (env.StepResult, error) {
	res, err := r.Env.Step(action)
	if err != nil && !errors.Is(err, env.ErrDisplay) {
		return res, err
	}
	r.step++

	t := &Transition{
		ID:              uuid.NewString(),
		EpisodeID:       r.episodeID,
		Step:            r.step,
		Player:          r.lastInfo.Player,
		Observation:     r.lastObs,
		Action:          action,
		Reward:          res.Reward,
		NextObservation: res.Observation,
		Terminated:      res.Terminated,
		Truncated:       res.Truncated,
		Accepted:        res.Info.MoveAccepted,
		ActionMask:      r.lastInfo.ActionMask,
		CollectedAt:     r.clock.Now(),
	}
	r.lastObs = res.Observation
	r.lastInfo = res.Info

	if addErr := r.buffer.Add(t); addErr != nil {
		r.logger.Warn().Err(addErr).
			Str("episode_id", r.episodeID).
			Int("step", r.step).
			Msg("Dropping transition")
		return res, err
	}
	r.recorded++

	r.logger.Debug().
		Str("transition_id", t.ID).
		Str("episode_id", t.EpisodeID).
		Int("player", t.Player).
		Int("action", action).
		Float64("reward", t.Reward).
		Bool("done", t.Done()).
		Msg("Recorded transition")

	return res, err
}

// EpisodeID identifies the current episode.
func (r *Recorder) EpisodeID() string { return r.episodeID }

// Recorded is the number of transitions written to the buffer.
func (r *Recorder) Recorded() int64 { return r.recorded }

// Buffer returns the destination buffer.
func (r *Recorder) Buffer() *Buffer { return r.buffer }

// Unwrap returns the wrapped environment.
func (r *Recorder) Unwrap() env.Env { return r.Env }
