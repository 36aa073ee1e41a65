package renderer

import (
	"image"
	"image/color"
)

// Frame is an RGB image, three bytes per pixel, rows top to bottom.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame allocates a black frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// FrameFromImage converts img to an RGB frame, dropping alpha.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < f.Height; y++ {
			src := rgba.Pix[(y)*rgba.Stride : (y)*rgba.Stride+f.Width*4]
			dst := f.Pix[y*f.Width*3 : (y+1)*f.Width*3]
			for x := 0; x < f.Width; x++ {
				dst[x*3] = src[x*4]
				dst[x*3+1] = src[x*4+1]
				dst[x*3+2] = src[x*4+2]
			}
		}
		return f
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			f.Set(x, y, c)
		}
	}
	return f
}

func (f *Frame) offset(x, y int) int { return (y*f.Width + x) * 3 }

// At returns the pixel at (x, y) with full alpha.
func (f *Frame) At(x, y int) color.RGBA {
	i := f.offset(x, y)
	return color.RGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: 0xff}
}

// Set writes the RGB components of c at (x, y).
func (f *Frame) Set(x, y int, c color.RGBA) {
	i := f.offset(x, y)
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c.R, c.G, c.B
}

// Image returns an RGBA copy of the frame.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for p, q := 0, 0; p < len(f.Pix); p, q = p+3, q+4 {
		img.Pix[q] = f.Pix[p]
		img.Pix[q+1] = f.Pix[p+1]
		img.Pix[q+2] = f.Pix[p+2]
		img.Pix[q+3] = 0xff
	}
	return img
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := &Frame{Width: f.Width, Height: f.Height, Pix: make([]uint8, len(f.Pix))}
	copy(c.Pix, f.Pix)
	return c
}

// Shape returns the frame dimensions as (height, width, channels).
func (f *Frame) Shape() [3]int {
	return [3]int{f.Height, f.Width, 3}
}
