// Package visualize renders a byte buffer as a PNG image with one pixel per
// byte, colored by the class of the byte, so that structure in binary data
// (padding, text, compressed regions) is visible at a glance.
package visualize

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
)

// DefaultWidth is the image width in pixels when none is configured.
const DefaultWidth = 256

// ErrEmpty is returned when there is nothing to render.
var ErrEmpty = errors.New("visualize: empty buffer")

// Class groups byte values that share a color.
type Class int

const (
	Zero       Class = iota // 0x00
	Whitespace              // \t \n \v \f \r and space
	Printable               // Printable ASCII other than space.
	Control                 // Remaining ASCII control characters and DEL.
	Full                    // 0xFF
	High                    // 0x80 to 0xFE
)

// Palette maps every Class to a color.
type Palette [High + 1]color.RGBA

// DefaultPalette is used unless WithPalette is given.
var DefaultPalette = Palette{
	Zero:       {R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	Whitespace: {R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff},
	Printable:  {R: 0x37, G: 0x7e, B: 0xb8, A: 0xff},
	Control:    {R: 0x4d, G: 0xaf, B: 0x4a, A: 0xff},
	Full:       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	High:       {R: 0xe4, G: 0x1a, B: 0x1c, A: 0xff},
}

// Classify returns the class of b.
func Classify(b byte) Class {
	switch {
	case b == 0x00:
		return Zero
	case b == ' ' || (b >= '\t' && b <= '\r'):
		return Whitespace
	case b > ' ' && b < 0x7f:
		return Printable
	case b < 0x80:
		return Control
	case b == 0xff:
		return Full
	default:
		return High
	}
}

type options struct {
	width   int
	palette Palette
}

// Option configures Render.
type Option func(*options)

// WithWidth sets the image width. Values below 1 are ignored.
func WithWidth(width int) Option {
	return func(o *options) {
		if width > 0 {
			o.width = width
		}
	}
}

// WithPalette replaces DefaultPalette.
func WithPalette(p Palette) Option {
	return func(o *options) { o.palette = p }
}

// Image lays buf out row by row. Pixels past the end of buf in the last row
// are transparent.
func Image(buf []byte, opts ...Option) (*image.NRGBA, error) {
	if len(buf) == 0 {
		return nil, ErrEmpty
	}
	o := options{width: DefaultWidth, palette: DefaultPalette}
	for _, opt := range opts {
		opt(&o)
	}

	width := min(o.width, len(buf))
	height := (len(buf) + width - 1) / width
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, b := range buf {
		c := o.palette[Classify(b)]
		off := (i/width)*img.Stride + (i%width)*4
		img.Pix[off+0] = c.R
		img.Pix[off+1] = c.G
		img.Pix[off+2] = c.B
		img.Pix[off+3] = c.A
	}
	return img, nil
}

// Render writes the PNG for buf to w.
func Render(w io.Writer, buf []byte, opts ...Option) error {
	img, err := Image(buf, opts...)
	if err != nil {
		return err
	}
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	return encoder.Encode(w, img)
}
