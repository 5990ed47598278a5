package dapple

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Canvas pairs a bitmap with optional colors and a default renderer. A
// Canvas is never modified after construction; every transform returns a
// new one.
type Canvas struct {
	bitmap   *Bitmap
	colors   *Colors
	renderer Renderer
}

// CanvasOption configures NewCanvas.
type CanvasOption func(*Canvas)

// WithColors attaches RGB colors matching the bitmap's shape.
func WithColors(c *Colors) CanvasOption {
	return func(cv *Canvas) { cv.colors = c }
}

// WithDefaultRenderer sets the renderer used by String and Out(nil, ...).
func WithDefaultRenderer(r Renderer) CanvasOption {
	return func(cv *Canvas) { cv.renderer = r }
}

// NewCanvas wraps a bitmap.
func NewCanvas(bitmap *Bitmap, opts ...CanvasOption) (*Canvas, error) {
	c := &Canvas{bitmap: bitmap}
	for _, opt := range opts {
		opt(c)
	}
	if err := validate(c.bitmap, c.colors); err != nil {
		return nil, err
	}
	return c, nil
}

// derive returns a canvas sharing this canvas's renderer. Callers guarantee
// matching shapes.
func (c *Canvas) derive(bitmap *Bitmap, colors *Colors) *Canvas {
	return &Canvas{bitmap: bitmap, colors: colors, renderer: c.renderer}
}

func (c *Canvas) Width() int  { return c.bitmap.w }
func (c *Canvas) Height() int { return c.bitmap.h }

// Size returns width and height in pixels.
func (c *Canvas) Size() (width, height int) { return c.bitmap.w, c.bitmap.h }

func (c *Canvas) Bitmap() *Bitmap { return c.bitmap }

// Colors returns nil for a grayscale canvas.
func (c *Canvas) Colors() *Colors { return c.colors }

func (c *Canvas) HasColors() bool { return c.colors != nil }

func (c *Canvas) DefaultRenderer() Renderer { return c.renderer }

// At returns the brightness at column x, row y.
func (c *Canvas) At(x, y int) float64 { return c.bitmap.At(x, y) }

// ToBitmap returns an independent copy of the values in row-major order.
func (c *Canvas) ToBitmap() []float64 { return c.bitmap.Pix() }

func (c *Canvas) rendererOrDefault(r Renderer) Renderer {
	switch {
	case r != nil:
		return r
	case c.renderer != nil:
		return c.renderer
	default:
		return Braille()
	}
}

// Out encodes the canvas to w. A nil renderer means the default renderer,
// or Braille; a nil writer means standard output.
func (c *Canvas) Out(r Renderer, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	return c.rendererOrDefault(r).Render(w, c.bitmap, c.colors)
}

// Render returns the encoded text.
func (c *Canvas) Render(r Renderer) (string, error) {
	var sb strings.Builder
	if err := c.Out(r, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// String renders with the default renderer, or Braille. Errors yield an
// empty string.
func (c *Canvas) String() string {
	s, _ := c.Render(nil)
	return s
}

// GoString describes the canvas shape.
func (c *Canvas) GoString() string {
	s := fmt.Sprintf("Canvas(%dx%d", c.bitmap.h, c.bitmap.w)
	if c.colors != nil {
		s += ", colors=true"
	}
	if c.renderer != nil {
		s += fmt.Sprintf(", renderer=%T", c.renderer)
	}
	return s + ")"
}

func (c *Canvas) WithRenderer(r Renderer) *Canvas {
	return &Canvas{bitmap: c.bitmap, colors: c.colors, renderer: r}
}

// WithInvert inverts brightness and keeps the colors.
func (c *Canvas) WithInvert() *Canvas {
	return c.derive(Invert(c.bitmap), c.colors)
}

// mergedColors returns both color arrays, broadcasting gray for the side
// without colors, or nils when neither side has colors.
func mergedColors(a, b *Canvas) (*Colors, *Colors) {
	if a.colors == nil && b.colors == nil {
		return nil, nil
	}
	ac, bc := a.colors, b.colors
	if ac == nil {
		ac = grayColors(a.bitmap)
	}
	if bc == nil {
		bc = grayColors(b.bitmap)
	}
	return ac, bc
}

// HStack places other to the right. Heights must match.
func (c *Canvas) HStack(other *Canvas) (*Canvas, error) {
	if c.bitmap.h != other.bitmap.h {
		return nil, fmt.Errorf("heights must match: %d vs %d: %w", c.bitmap.h, other.bitmap.h, ErrDimensionMismatch)
	}
	bitmap := hstack(c.bitmap.plane(), other.bitmap.plane()).bitmap()
	var colors *Colors
	if ac, bc := mergedColors(c, other); ac != nil {
		colors = hstack(ac.plane(), bc.plane()).colors()
	}
	return c.derive(bitmap, colors), nil
}

// VStack places other below. Widths must match.
func (c *Canvas) VStack(other *Canvas) (*Canvas, error) {
	if c.bitmap.w != other.bitmap.w {
		return nil, fmt.Errorf("widths must match: %d vs %d: %w", c.bitmap.w, other.bitmap.w, ErrDimensionMismatch)
	}
	bitmap := vstack(c.bitmap.plane(), other.bitmap.plane()).bitmap()
	var colors *Colors
	if ac, bc := mergedColors(c, other); ac != nil {
		colors = vstack(ac.plane(), bc.plane()).colors()
	}
	return c.derive(bitmap, colors), nil
}

func hstack(a, b plane) plane {
	out := newPlane(a.w+b.w, a.h, a.ch)
	for y := range a.h {
		row := out.pix[y*out.w*a.ch:]
		copy(row, a.pix[y*a.w*a.ch:(y+1)*a.w*a.ch])
		copy(row[a.w*a.ch:], b.pix[y*b.w*b.ch:(y+1)*b.w*b.ch])
	}
	return out
}

func vstack(a, b plane) plane {
	out := newPlane(a.w, a.h+b.h, a.ch)
	copy(out.pix, a.pix)
	copy(out.pix[len(a.pix):], b.pix)
	return out
}

// Overlay copies other onto this canvas with its top-left corner at x, y.
// Anything outside either canvas is clipped; offsets may be negative.
func (c *Canvas) Overlay(other *Canvas, x, y int) *Canvas {
	bitmap := c.bitmap.clone()
	var colors *Colors
	if c.colors != nil {
		colors = &Colors{w: c.colors.w, h: c.colors.h, pix: c.colors.Pix()}
	}

	srcX1, srcY1 := max(0, -x), max(0, -y)
	srcX2 := min(other.bitmap.w, c.bitmap.w-x)
	srcY2 := min(other.bitmap.h, c.bitmap.h-y)
	if srcX2 <= srcX1 || srcY2 <= srcY1 {
		return c.derive(bitmap, colors)
	}

	var src *Colors
	if colors != nil {
		src = other.colors
		if src == nil {
			src = grayColors(other.bitmap)
		}
	}
	for sy := srcY1; sy < srcY2; sy++ {
		dy := sy + y
		for sx := srcX1; sx < srcX2; sx++ {
			dx := sx + x
			bitmap.pix[dy*bitmap.w+dx] = other.bitmap.At(sx, sy)
			if colors != nil {
				copy(colors.plane().px(dx, dy), src.plane().px(sx, sy))
			}
		}
	}
	return c.derive(bitmap, colors)
}

// Crop keeps columns x1 to x2 and rows y1 to y2, end exclusive.
func (c *Canvas) Crop(x1, y1, x2, y2 int) (*Canvas, error) {
	if x1 < 0 || y1 < 0 || x2 > c.bitmap.w || y2 > c.bitmap.h {
		return nil, fmt.Errorf("crop region (%d, %d, %d, %d) out of bounds for canvas of size (%d, %d): %w",
			x1, y1, x2, y2, c.bitmap.w, c.bitmap.h, ErrShape)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region (%d, %d, %d, %d): %w", x1, y1, x2, y2, ErrShape)
	}
	return c.geometry(func(p plane) (plane, error) { return p.crop(x1, y1, x2-x1, y2-y1) })
}

// geometry applies the same transform to the bitmap and the colors.
func (c *Canvas) geometry(fn func(plane) (plane, error)) (*Canvas, error) {
	bp, err := fn(c.bitmap.plane())
	if err != nil {
		return nil, err
	}
	var colors *Colors
	if c.colors != nil {
		cp, err := fn(c.colors.plane())
		if err != nil {
			return nil, err
		}
		colors = cp.colors()
	}
	return c.derive(bp.bitmap(), colors), nil
}

// Resize resamples bitmap and colors to width×height.
func (c *Canvas) Resize(width, height int, method ResizeMethod) (*Canvas, error) {
	return c.geometry(func(p plane) (plane, error) { return p.resize(width, height, method) })
}

func (c *Canvas) Flip(dir FlipDirection) *Canvas {
	out, _ := c.geometry(func(p plane) (plane, error) { return p.flip(dir), nil })
	return out
}

// Rotate turns bitmap and colors counter-clockwise by a multiple of 90.
func (c *Canvas) Rotate(degrees float64) (*Canvas, error) {
	k, err := quarterTurns(degrees)
	if err != nil {
		return nil, err
	}
	return c.geometry(func(p plane) (plane, error) { return p.rot90(k), nil })
}

func (c *Canvas) AutoContrast() *Canvas {
	return c.derive(AutoContrast(c.bitmap), c.colors)
}

// Dither applies Floyd-Steinberg error diffusion to the bitmap.
func (c *Canvas) Dither(threshold float64) *Canvas {
	return c.derive(FloydSteinberg(c.bitmap, threshold), c.colors)
}

func (c *Canvas) Gamma(gamma float64) *Canvas {
	return c.derive(GammaCorrect(c.bitmap, gamma), c.colors)
}

func (c *Canvas) Sharpen(strength float64) *Canvas {
	return c.derive(Sharpen(c.bitmap, strength), c.colors)
}

func (c *Canvas) Threshold(level float64) *Canvas {
	return c.derive(Threshold(c.bitmap, level), c.colors)
}

// Tint colors the canvas with a single RGB color scaled by brightness.
func (c *Canvas) Tint(r, g, b float64) *Canvas {
	colors := newColors(c.bitmap.w, c.bitmap.h)
	for i, v := range c.bitmap.pix {
		colors.pix[i*3] = clamp01(v * r)
		colors.pix[i*3+1] = clamp01(v * g)
		colors.pix[i*3+2] = clamp01(v * b)
	}
	return c.derive(c.bitmap, colors)
}

// WithoutColors drops the color array.
func (c *Canvas) WithoutColors() *Canvas {
	return c.derive(c.bitmap, nil)
}
