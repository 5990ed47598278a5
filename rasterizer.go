package dapple

import (
	"fmt"
	"image"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

// Rasterizer draws a single glyph into a width×height bitmap with ink as
// high values.
type Rasterizer interface {
	// Name identifies the font in glyph cache keys
	Name() string
	Rasterize(r rune, width, height int) (*Bitmap, error)
}

// TrueTypeRasterizer renders glyphs from a TrueType font, centered in the
// cell at a size of height-2 pixels.
type TrueTypeRasterizer struct {
	name string
	font *truetype.Font
}

// NewTrueTypeRasterizer parses a TrueType font.
func NewTrueTypeRasterizer(name string, ttf []byte) (*TrueTypeRasterizer, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %q: %w", name, err)
	}
	return &TrueTypeRasterizer{name: name, font: f}, nil
}

var goMono = sync.OnceValues(func() (*TrueTypeRasterizer, error) {
	return NewTrueTypeRasterizer("gomono", gomono.TTF)
})

// GoMono returns a rasterizer for the Go Mono font bundled with
// golang.org/x/image.
func GoMono() (*TrueTypeRasterizer, error) {
	return goMono()
}

func (t *TrueTypeRasterizer) Name() string { return t.name }

// HasGlyph reports whether the font maps r to a real glyph.
func (t *TrueTypeRasterizer) HasGlyph(r rune) bool {
	return r == ' ' || t.font.Index(r) != 0
}

func (t *TrueTypeRasterizer) Rasterize(r rune, width, height int) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("glyph cell must be positive, got %dx%d: %w", width, height, ErrShape)
	}
	if !t.HasGlyph(r) {
		return nil, fmt.Errorf("font %q has no glyph for %U: %w", t.name, r, ErrUnavailable)
	}

	face := truetype.NewFace(t.font, &truetype.Options{
		Size:    float64(max(1, height-2)),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	s := string(r)
	bounds, _ := font.BoundString(face, s)
	textW := bounds.Max.X - bounds.Min.X
	textH := bounds.Max.Y - bounds.Min.Y

	// white ink on black gives ink = high directly
	dst := image.NewGray(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot: fixed.Point26_6{
			X: (fixed.I(width)-textW)/2 - bounds.Min.X,
			Y: (fixed.I(height)-textH)/2 - bounds.Min.Y,
		},
	}
	d.DrawString(s)

	b := newBitmap(width, height)
	for y := range height {
		for x := range width {
			b.pix[y*width+x] = float64(dst.Pix[y*dst.Stride+x]) / 255
		}
	}
	return b, nil
}
