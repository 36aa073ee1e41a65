package renderer

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

// -----------------------------------------------------------------------------
// Colour definitions
// -----------------------------------------------------------------------------

var (
	BackgroundColor = color.RGBA{255, 255, 255, 255}
	GridColor       = color.RGBA{0, 0, 0, 255}

	PlayerColors = map[core.Cell]color.RGBA{
		core.PlayerOne: {0, 0, 255, 255}, // X - blue
		core.PlayerTwo: {255, 0, 0, 255}, // O - red
	}
)

const (
	DefaultWindowSize = 900
	DefaultLineWidth  = 3
	// DefaultGlyphScale is the glyph height as a fraction of the cell size.
	DefaultGlyphScale = 0.6
)

// Options configures a PixelRenderer.
type Options struct {
	WindowSize int
	LineWidth  int
	GlyphScale float64
}

// DefaultOptions returns a 900x900 canvas with 3 pixel grid lines.
func DefaultOptions() Options {
	return Options{
		WindowSize: DefaultWindowSize,
		LineWidth:  DefaultLineWidth,
		GlyphScale: DefaultGlyphScale,
	}
}

// -----------------------------------------------------------------------------
// Renderer
// -----------------------------------------------------------------------------

// PixelRenderer draws a board snapshot into an RGB frame.
// It only reads the board it is given and holds no game state.
type PixelRenderer struct {
	opts   Options
	face   font.Face
	glyphs map[core.Cell]*image.RGBA
}

// NewPixelRenderer returns a renderer ready to use. Zero option fields take their defaults.
func NewPixelRenderer(opts Options) *PixelRenderer {
	def := DefaultOptions()
	if opts.WindowSize <= 0 {
		opts.WindowSize = def.WindowSize
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = def.LineWidth
	}
	if opts.GlyphScale <= 0 || opts.GlyphScale > 1 {
		opts.GlyphScale = def.GlyphScale
	}

	r := &PixelRenderer{
		opts:   opts,
		face:   basicfont.Face7x13,
		glyphs: make(map[core.Cell]*image.RGBA, len(PlayerColors)),
	}
	for cell, c := range PlayerColors {
		r.glyphs[cell] = r.rasterizeGlyph(cell.Symbol(), c)
	}
	return r
}

// WindowSize is the side length of rendered frames in pixels.
func (r *PixelRenderer) WindowSize() int { return r.opts.WindowSize }

// CellSize is the side length of one board cell in pixels.
func (r *PixelRenderer) CellSize() int { return r.opts.WindowSize / core.Size }

// RenderFrame draws the board: white canvas, black grid lines, blue X, red O.
func (r *PixelRenderer) RenderFrame(board core.Board) *Frame {
	return FrameFromImage(r.RenderImage(board))
}

// RenderImage draws the board into a new RGBA image.
func (r *PixelRenderer) RenderImage(board core.Board) *image.RGBA {
	size := r.opts.WindowSize
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(BackgroundColor), image.Point{}, draw.Src)

	r.drawGrid(canvas)

	for _, c := range core.AllCoordinates() {
		if glyph, ok := r.glyphs[board.Get(c)]; ok {
			r.drawGlyph(canvas, glyph, c)
		}
	}
	return canvas
}

// drawGrid draws the lines at every multiple of the cell size, including both edges.
func (r *PixelRenderer) drawGrid(canvas *image.RGBA) {
	size := r.opts.WindowSize
	cell := r.CellSize()
	lw := r.opts.LineWidth
	ink := image.NewUniform(GridColor)

	for i := 0; i <= core.Size; i++ {
		pos := cell * i
		lo := pos - lw/2
		hi := lo + lw

		horizontal := image.Rect(0, lo, size, hi).Intersect(canvas.Bounds())
		vertical := image.Rect(lo, 0, hi, size).Intersect(canvas.Bounds())
		draw.Draw(canvas, horizontal, ink, image.Point{}, draw.Src)
		draw.Draw(canvas, vertical, ink, image.Point{}, draw.Src)
	}
}

// rasterizeGlyph draws text once at the bitmap font's native size on a transparent background.
func (r *PixelRenderer) rasterizeGlyph(text string, c color.RGBA) *image.RGBA {
	metrics := r.face.Metrics()
	w := font.MeasureString(r.face, text).Ceil()
	h := metrics.Height.Ceil()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(text)
	return img
}

// drawGlyph scales glyph up and centres it on the cell.
func (r *PixelRenderer) drawGlyph(canvas *image.RGBA, glyph *image.RGBA, at core.Coordinate) {
	cell := r.CellSize()
	gb := glyph.Bounds()

	h := int(float64(cell) * r.opts.GlyphScale)
	w := h * gb.Dx() / gb.Dy()

	cx := at.Col*cell + cell/2
	cy := at.Row*cell + cell/2
	dst := image.Rect(cx-w/2, cy-h/2, cx-w/2+w, cy-h/2+h)

	xdraw.NearestNeighbor.Scale(canvas, dst, glyph, gb, xdraw.Over, nil)
}
