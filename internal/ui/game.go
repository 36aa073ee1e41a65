package ui

import (
	"context"
	"errors"
	"image/color"
	"sync"

	"github.com/coder/quartz"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/ui/input"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/ui/renderer"
)

var ErrDisplayClosed = errors.New("display closed")

// WindowOptions configures a WindowDisplay.
type WindowOptions struct {
	Title string
	Size  int
	FPS   int
	Clock quartz.Clock
	// Clicks, when set, receives the action under each left click.
	// Sends never block; clicks are dropped when the channel is full.
	Clicks chan<- core.Action
}

// WindowDisplay shows rendered frames in an Ebitengine window.
//
// Run must be called on the main goroutine and blocks until the window closes.
// Show may be called from any other goroutine.
type WindowDisplay struct {
	opts  WindowOptions
	pacer *renderer.Pacer

	mu     sync.Mutex
	frame  *renderer.Frame
	dirty  bool
	status string

	canvas    *ebiten.Image
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    chan struct{}
	logger    zerolog.Logger
}

// NewWindowDisplay creates a display. No window is opened until Run.
func NewWindowDisplay(opts WindowOptions, logger zerolog.Logger) *WindowDisplay {
	if opts.Size <= 0 {
		opts.Size = renderer.DefaultWindowSize
	}
	if opts.Title == "" {
		opts.Title = "TicTacToe"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WindowDisplay{
		opts:   opts,
		pacer:  renderer.NewPacer(opts.Clock, opts.FPS),
		ctx:    ctx,
		cancel: cancel,
		closed: make(chan struct{}),
		logger: logger.With().Str("component", "WindowDisplay").Logger(),
	}
}

// Run opens the window and drives the Ebitengine loop until Close is called or the window is closed.
func (d *WindowDisplay) Run() error {
	ebiten.SetWindowSize(d.opts.Size, d.opts.Size)
	ebiten.SetWindowTitle(d.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	d.logger.Info().Int("size", d.opts.Size).Msg("Opening window")
	err := ebiten.RunGame(d)
	d.Close()
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// Show hands a frame to the window, then waits until the frame rate allows the next one.
func (d *WindowDisplay) Show(frame *renderer.Frame) error {
	select {
	case <-d.closed:
		return ErrDisplayClosed
	default:
	}

	d.mu.Lock()
	d.frame = frame
	d.dirty = true
	d.mu.Unlock()

	return d.pacer.Wait(d.ctx)
}

// SetStatus sets a line of text drawn over the board.
func (d *WindowDisplay) SetStatus(s string) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

// Close stops the loop. It is safe to call more than once.
func (d *WindowDisplay) Close() error {
	d.closeOnce.Do(func() {
		close(d.closed)
		d.cancel()
		d.logger.Debug().Msg("Window display closed")
	})
	return nil
}

// Done is closed once the display has been closed.
func (d *WindowDisplay) Done() <-chan struct{} { return d.closed }

// Update implements ebiten.Game.
func (d *WindowDisplay) Update() error {
	select {
	case <-d.closed:
		return ebiten.Termination
	default:
	}

	if d.opts.Clicks != nil {
		if action, ok := input.ClickedCell(d.opts.Size / core.Size); ok {
			select {
			case d.opts.Clicks <- action:
			default:
			}
		}
	}
	return nil
}

// Draw implements ebiten.Game.
func (d *WindowDisplay) Draw(screen *ebiten.Image) {
	frame, dirty, status := d.snapshot()

	if frame == nil {
		screen.Fill(color.White)
		return
	}
	if d.canvas == nil || d.canvas.Bounds().Dx() != frame.Width || d.canvas.Bounds().Dy() != frame.Height {
		d.canvas = ebiten.NewImage(frame.Width, frame.Height)
		dirty = true
	}
	if dirty {
		d.canvas.WritePixels(frame.Image().Pix)
	}
	screen.DrawImage(d.canvas, nil)

	if status != "" {
		ebitenutil.DebugPrintAt(screen, status, 5, 5)
	}
}

// Layout implements ebiten.Game.
func (d *WindowDisplay) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return d.opts.Size, d.opts.Size
}

func (d *WindowDisplay) snapshot() (*renderer.Frame, bool, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dirty := d.dirty
	d.dirty = false
	return d.frame, dirty, d.status
}
