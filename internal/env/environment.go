package env

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/game"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/events"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/ui/renderer"
)

// DefaultRenderFPS is the frame rate advertised in Metadata.
const DefaultRenderFPS = renderer.DefaultFPS

// Options configures an Environment. Only RenderMode is validated; every other field is optional.
type Options struct {
	RenderMode RenderMode
	GameID     string
	Logger     zerolog.Logger
	EventBus   events.Publisher
	// Renderer draws frames for the human and rgb_array modes. Defaults to a 900x900 PixelRenderer.
	Renderer BoardRenderer
	// Display is required in human mode.
	Display Display
	// Writer receives the text board in ansi mode. Defaults to stdout.
	Writer io.Writer
	Styles *game.BoardStyles
	Seed   *int64
	// MaxEpisodeSteps overrides the registered step cap in Registry.Make when positive.
	MaxEpisodeSteps int
}

// Environment adapts the game engine to the reset/step/render/close interface.
// It is not safe for concurrent use.
type Environment struct {
	engine   *game.Engine
	mode     RenderMode
	renderer BoardRenderer
	display  Display
	writer   io.Writer
	styles   game.BoardStyles
	rng      *rand.Rand
	closed   bool
	logger   zerolog.Logger
}

var _ Env = (*Environment)(nil)

// New validates the render mode and builds an environment with an empty board.
func New(opts Options) (*Environment, error) {
	if !opts.RenderMode.IsValid() {
		return nil, fmt.Errorf("%w: unsupported render mode %q", ErrConfiguration, string(opts.RenderMode))
	}
	if opts.RenderMode == RenderHuman && opts.Display == nil {
		return nil, fmt.Errorf("%w: render mode %q requires a display", ErrConfiguration, RenderHuman)
	}

	engine := game.NewEngine(game.GameConfig{
		GameID:   opts.GameID,
		Logger:   opts.Logger,
		EventBus: opts.EventBus,
	})

	e := &Environment{
		engine:  engine,
		mode:    opts.RenderMode,
		display: opts.Display,
		writer:  opts.Writer,
		logger: opts.Logger.With().
			Str("component", "Environment").
			Str("game_id", engine.GameID()).
			Str("render_mode", opts.RenderMode.String()).
			Logger(),
	}

	switch {
	case opts.Renderer != nil:
		e.renderer = opts.Renderer
	case e.mode == RenderHuman || e.mode == RenderRGBArray:
		e.renderer = renderer.NewPixelRenderer(renderer.DefaultOptions())
	}
	if e.writer == nil {
		e.writer = os.Stdout
	}
	if opts.Styles != nil {
		e.styles = *opts.Styles
	} else {
		e.styles = game.NewBoardStyles()
	}

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	e.rng = rand.New(rand.NewSource(seed))

	e.logger.Debug().Msg("Environment created")
	return e, nil
}

// Reset starts a new episode: every cell empty, player one to move.
func (e *Environment) Reset(opts ResetOptions) (Observation, Info, error) {
	if opts.Seed != nil {
		e.rng.Seed(*opts.Seed)
	}
	e.engine.Reset()

	obs, info := e.observation(), e.info()
	return obs, info, e.renderHuman()
}

// Step plays action for the player to move.
//
// An action outside [0, 8] returns an error wrapping core.ErrInvalidAction.
// An occupied target leaves the state unchanged and returns zero reward with
// Info.MoveAccepted false. Truncated is always false. In human mode an
// accepted move is shown on the display; a display error is returned
// alongside the completed result.
func (e *Environment) Step(action int) (StepResult, error) {
	res, err := e.engine.Step(core.Action(action))
	if err != nil {
		return StepResult{}, err
	}

	info := e.info()
	info.MoveAccepted = res.Accepted
	info.Winner = int(res.Winner)

	result := StepResult{
		Observation: e.observation(),
		Reward:      float64(res.Reward),
		Terminated:  res.Terminated,
		Truncated:   false,
		Info:        info,
	}
	if !res.Accepted {
		return result, nil
	}
	return result, e.renderHuman()
}

// Render produces output for the configured mode.
// rgb_array returns a new frame; human shows a frame and returns nil; ansi writes text and returns nil.
func (e *Environment) Render() (*renderer.Frame, error) {
	switch e.mode {
	case RenderRGBArray:
		return e.renderer.RenderFrame(e.engine.Board()), nil
	case RenderHuman:
		return nil, e.renderHuman()
	case RenderANSI:
		_, err := io.WriteString(e.writer, e.engine.Render(e.styles))
		return nil, err
	default:
		return nil, nil
	}
}

func (e *Environment) renderHuman() error {
	if e.mode != RenderHuman || e.display == nil {
		return nil
	}
	if s, ok := e.display.(statusSetter); ok {
		s.SetStatus(e.engine.StatusLine(game.PlainBoardStyles()))
	}
	if err := e.display.Show(e.renderer.RenderFrame(e.engine.Board())); err != nil {
		return fmt.Errorf("%w: show frame: %w", ErrDisplay, err)
	}
	return nil
}

// Close releases the display. It is safe to call more than once.
func (e *Environment) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	if e.display != nil {
		err = e.display.Close()
		e.display = nil
	}
	e.logger.Debug().Msg("Environment closed")
	return err
}

func (e *Environment) observation() Observation {
	b := e.engine.Board()
	return Observation(b.Ints())
}

func (e *Environment) info() Info {
	return Info{
		Player:      int(e.engine.CurrentPlayer()),
		ActionMask:  e.engine.LegalActionMask(),
		EpisodeStep: e.engine.EpisodeStep(),
	}
}

func (e *Environment) ActionSpace() Discrete { return ActionSpace() }

func (e *Environment) ObservationSpace() Box { return ObservationSpace() }

// SampleAction draws a uniformly random action, legal or not.
func (e *Environment) SampleAction() int { return ActionSpace().Sample(e.rng) }

func (e *Environment) Metadata() Metadata {
	return Metadata{
		RenderModes: append([]RenderMode(nil), SupportedRenderModes...),
		RenderFPS:   DefaultRenderFPS,
	}
}

func (e *Environment) RenderMode() RenderMode { return e.mode }

// Engine exposes the underlying engine for callers that need phases or legal actions.
func (e *Environment) Engine() *game.Engine { return e.engine }
