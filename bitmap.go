package dapple

import "fmt"

// Bitmap is an immutable grid of brightness values, 0.0 is off/black and
// 1.0 is on/white. Every transform returns a new Bitmap.
type Bitmap struct {
	w, h int
	pix  []float64
}

// NewBitmap returns a zero filled bitmap.
func NewBitmap(width, height int) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bitmap must be non-empty, got %dx%d: %w", width, height, ErrShape)
	}
	return newBitmap(width, height), nil
}

// BitmapFromSlice wraps a row-major slice of width*height values. The slice
// is copied.
func BitmapFromSlice(width, height int, pix []float64) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bitmap must be non-empty, got %dx%d: %w", width, height, ErrShape)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("bitmap %dx%d needs %d values, got %d: %w", width, height, width*height, len(pix), ErrShape)
	}
	b := newBitmap(width, height)
	copy(b.pix, pix)
	return b, nil
}

// BitmapFromRows builds a bitmap from rows of equal length.
func BitmapFromRows(rows [][]float64) (*Bitmap, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("bitmap must be 2-D and non-empty: %w", ErrShape)
	}
	w := len(rows[0])
	b := newBitmap(w, len(rows))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", y, len(row), w, ErrShape)
		}
		copy(b.pix[y*w:], row)
	}
	return b, nil
}

func newBitmap(w, h int) *Bitmap {
	return &Bitmap{w: w, h: h, pix: make([]float64, w*h)}
}

func filledBitmap(w, h int, v float64) *Bitmap {
	b := newBitmap(w, h)
	for i := range b.pix {
		b.pix[i] = v
	}
	return b
}

// Width returns the number of columns.
func (b *Bitmap) Width() int { return b.w }

// Height returns the number of rows.
func (b *Bitmap) Height() int { return b.h }

// At returns the value at column x, row y.
func (b *Bitmap) At(x, y int) float64 { return b.pix[y*b.w+x] }

// Pix returns a row-major copy of the values.
func (b *Bitmap) Pix() []float64 {
	out := make([]float64, len(b.pix))
	copy(out, b.pix)
	return out
}

// Mean returns the average value.
func (b *Bitmap) Mean() float64 {
	var sum float64
	for _, v := range b.pix {
		sum += v
	}
	return sum / float64(len(b.pix))
}

// MinMax returns the smallest and largest values.
func (b *Bitmap) MinMax() (lo, hi float64) {
	lo, hi = b.pix[0], b.pix[0]
	for _, v := range b.pix[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Equal reports whether both bitmaps have the same size and values.
func (b *Bitmap) Equal(o *Bitmap) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.w != o.w || b.h != o.h {
		return false
	}
	for i, v := range b.pix {
		if o.pix[i] != v {
			return false
		}
	}
	return true
}

func (b *Bitmap) clone() *Bitmap {
	return &Bitmap{w: b.w, h: b.h, pix: b.Pix()}
}

// mapValues applies fn to every value.
func (b *Bitmap) mapValues(fn func(float64) float64) *Bitmap {
	out := newBitmap(b.w, b.h)
	for i, v := range b.pix {
		out.pix[i] = fn(v)
	}
	return out
}

// Colors is an immutable H×W×3 array of RGB values in [0, 1].
type Colors struct {
	w, h int
	pix  []float64
}

// NewColors returns a black color array.
func NewColors(width, height int) (*Colors, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("colors must be non-empty, got %dx%d: %w", width, height, ErrShape)
	}
	return newColors(width, height), nil
}

// ColorsFromSlice wraps interleaved r,g,b values, three per pixel.
func ColorsFromSlice(width, height int, pix []float64) (*Colors, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("colors must be non-empty, got %dx%d: %w", width, height, ErrShape)
	}
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("colors must be (%d, %d, 3), got %d values: %w", height, width, len(pix), ErrShape)
	}
	c := newColors(width, height)
	copy(c.pix, pix)
	return c, nil
}

// ColorsFromRows builds colors from rows of pixels, each pixel holding
// exactly three channels.
func ColorsFromRows(rows [][][]float64) (*Colors, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("colors must be 3-D and non-empty: %w", ErrShape)
	}
	w := len(rows[0])
	c := newColors(w, len(rows))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has %d pixels, want %d: %w", y, len(row), w, ErrShape)
		}
		for x, px := range row {
			if len(px) != 3 {
				return nil, fmt.Errorf("colors must be (H, W, 3), pixel (%d, %d) has %d channels: %w", x, y, len(px), ErrShape)
			}
			copy(c.pix[(y*w+x)*3:], px)
		}
	}
	return c, nil
}

func newColors(w, h int) *Colors {
	return &Colors{w: w, h: h, pix: make([]float64, w*h*3)}
}

// grayColors broadcasts a bitmap into three identical channels.
func grayColors(b *Bitmap) *Colors {
	c := newColors(b.w, b.h)
	for i, v := range b.pix {
		c.pix[i*3] = v
		c.pix[i*3+1] = v
		c.pix[i*3+2] = v
	}
	return c
}

// Width returns the number of columns.
func (c *Colors) Width() int { return c.w }

// Height returns the number of rows.
func (c *Colors) Height() int { return c.h }

// At returns the color at column x, row y.
func (c *Colors) At(x, y int) (r, g, b float64) {
	i := (y*c.w + x) * 3
	return c.pix[i], c.pix[i+1], c.pix[i+2]
}

// Pix returns a copy of the interleaved values.
func (c *Colors) Pix() []float64 {
	out := make([]float64, len(c.pix))
	copy(out, c.pix)
	return out
}

// Luminance converts the colors to a bitmap with BT.601 weights.
func (c *Colors) Luminance() *Bitmap {
	b := newBitmap(c.w, c.h)
	for i := range b.pix {
		b.pix[i] = luminance(c.pix[i*3], c.pix[i*3+1], c.pix[i*3+2])
	}
	return b
}

// validate checks the invariants every renderer relies on.
func validate(bitmap *Bitmap, colors *Colors) error {
	if bitmap == nil {
		return fmt.Errorf("bitmap is nil: %w", ErrShape)
	}
	if bitmap.w <= 0 || bitmap.h <= 0 || len(bitmap.pix) != bitmap.w*bitmap.h {
		return fmt.Errorf("bitmap must be a non-empty 2-D array, got %dx%d: %w", bitmap.w, bitmap.h, ErrShape)
	}
	if colors == nil {
		return nil
	}
	if len(colors.pix) != colors.w*colors.h*3 {
		return fmt.Errorf("colors must be (H, W, 3): %w", ErrShape)
	}
	if colors.w != bitmap.w || colors.h != bitmap.h {
		return fmt.Errorf("colors shape (%d, %d) must match bitmap shape (%d, %d): %w",
			colors.h, colors.w, bitmap.h, bitmap.w, ErrShape)
	}
	return nil
}
