package game

import (
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/events"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/rules"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/states"
	"github.com/rs/zerolog"
)

// GameConfig configures an Engine. Every field is optional.
type GameConfig struct {
	GameID   string
	Logger   zerolog.Logger
	EventBus events.Publisher
	Clock    quartz.Clock
}

// Engine owns one GameState and layers rules, phase tracking, events and logging over it.
// It is not safe for concurrent use.
type Engine struct {
	gs           GameState
	gameID       string
	episode      int
	episodeStep  int
	episodeStart time.Time

	winChecker   *rules.WinConditionChecker
	legalMoves   *rules.LegalMoveCalculator
	stateMachine *states.StateMachine
	eventBus     events.Publisher
	clock        quartz.Clock
	logger       zerolog.Logger
}

// NewEngine creates an engine with an empty board. Call Reset to start the first episode.
func NewEngine(cfg GameConfig) *Engine {
	if cfg.GameID == "" {
		cfg.GameID = uuid.NewString()
	}
	if cfg.EventBus == nil {
		cfg.EventBus = events.NopPublisher{}
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	logger := cfg.Logger.With().Str("component", "GameEngine").Str("game_id", cfg.GameID).Logger()

	return &Engine{
		gs:           NewGameState(),
		gameID:       cfg.GameID,
		winChecker:   rules.NewWinConditionChecker(logger),
		legalMoves:   rules.NewLegalMoveCalculator(),
		stateMachine: states.NewStateMachine(cfg.GameID, cfg.EventBus, logger),
		eventBus:     cfg.EventBus,
		clock:        cfg.Clock,
		logger:       logger,
	}
}

// Reset clears the board, returns the phase to Active and starts a new episode.
func (e *Engine) Reset() {
	e.gs.Reset()
	e.episode++
	e.episodeStep = 0
	e.episodeStart = e.clock.Now()
	e.stateMachine.Reset()

	e.eventBus.Publish(events.NewEpisodeStartedEvent(e.gameID, e.episode, int(e.gs.CurrentPlayer)))
	e.logger.Debug().Int("episode", e.episode).Msg("Episode started")
}

// Step applies one action. See GameState.ApplyMove for the move semantics.
//
// Steps after the episode has terminated are evaluated with the same rules;
// the terminal transition and the episode.ended event happen only once.
func (e *Engine) Step(action core.Action) (MoveResult, error) {
	res, err := e.gs.applyMove(action, e.winChecker.Evaluate)
	if err != nil {
		e.logger.Debug().Err(err).Int("action", int(action)).Msg("Action rejected as invalid")
		return res, err
	}
	e.episodeStep++

	phase := e.stateMachine.CurrentPhase()
	if phase.IsTerminal() {
		e.logger.Warn().
			Int("episode", e.episode).
			Int("action", int(action)).
			Msg("Step called after episode terminated")
	}

	if !res.Accepted {
		e.eventBus.Publish(events.NewMoveRejectedEvent(
			e.gameID, e.episode, e.episodeStep, int(res.Player), int(action), res.Reason.Error()))
		e.logger.Debug().
			Str("player", res.Player.String()).
			Str("cell", res.Coordinate.String()).
			Msg("Move to occupied cell ignored")
		return res, nil
	}

	e.eventBus.Publish(events.NewMoveAppliedEvent(
		e.gameID, e.episode, e.episodeStep, int(res.Player), int(action), res.Coordinate.Row, res.Coordinate.Col))

	if res.Terminated && !phase.IsTerminal() {
		e.finishEpisode(res)
	}
	return res, nil
}

func (e *Engine) finishEpisode(res MoveResult) {
	reason := res.Outcome.String()
	if err := e.stateMachine.TransitionTo(states.PhaseTerminal, reason); err != nil {
		e.logger.Error().Err(err).Msg("Failed to enter terminal phase")
		return
	}

	duration := e.clock.Since(e.episodeStart)
	e.eventBus.Publish(events.NewEpisodeEndedEvent(
		e.gameID, e.episode, e.episodeStep, reason, int(res.Winner), e.gs.Moves, duration))

	e.logger.Info().
		Int("episode", e.episode).
		Str("outcome", reason).
		Str("winner", res.Winner.String()).
		Int("moves", e.gs.Moves).
		Dur("duration", duration).
		Msg("Episode ended")
}

// GameState returns a copy of the current state.
func (e *Engine) GameState() GameState { return e.gs }

// Board returns a copy of the board.
func (e *Engine) Board() core.Board { return e.gs.Board }

func (e *Engine) CurrentPlayer() core.Cell { return e.gs.CurrentPlayer }

func (e *Engine) Phase() states.GamePhase { return e.stateMachine.CurrentPhase() }

func (e *Engine) IsTerminal() bool { return e.Phase().IsTerminal() }

// LegalActionMask marks the actions whose cell is empty.
func (e *Engine) LegalActionMask() [core.NumActions]bool {
	return e.legalMoves.LegalActionMask(&e.gs.Board)
}

// LegalActions lists the actions whose cell is empty.
func (e *Engine) LegalActions() []core.Action {
	return e.legalMoves.LegalActions(&e.gs.Board)
}

// Episode is the number of Reset calls so far.
func (e *Engine) Episode() int { return e.episode }

// EpisodeStep counts valid Step calls, accepted or not, since the last Reset.
func (e *Engine) EpisodeStep() int { return e.episodeStep }

func (e *Engine) GameID() string { return e.gameID }

// TransitionHistory returns the phase transitions recorded so far.
func (e *Engine) TransitionHistory() []states.Transition {
	return e.stateMachine.GetHistory()
}

func (e *Engine) String() string {
	return fmt.Sprintf("%s episode=%d step=%d to_move=%s phase=%s",
		e.gameID, e.episode, e.episodeStep, e.gs.CurrentPlayer, e.Phase())
}
