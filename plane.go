package dapple

import (
	"fmt"
	"math"
)

// plane is a row-major grid with ch interleaved channels. Geometry
// operations run on planes so bitmaps and colors transform identically.
type plane struct {
	w, h, ch int
	pix      []float64
}

func (b *Bitmap) plane() plane { return plane{b.w, b.h, 1, b.pix} }
func (c *Colors) plane() plane { return plane{c.w, c.h, 3, c.pix} }

func (p plane) bitmap() *Bitmap { return &Bitmap{w: p.w, h: p.h, pix: p.pix} }
func (p plane) colors() *Colors { return &Colors{w: p.w, h: p.h, pix: p.pix} }

func newPlane(w, h, ch int) plane {
	return plane{w, h, ch, make([]float64, w*h*ch)}
}

// px returns the channel slice of one pixel.
func (p plane) px(x, y int) []float64 {
	i := (y*p.w + x) * p.ch
	return p.pix[i : i+p.ch]
}

func (p plane) crop(x, y, w, h int) (plane, error) {
	if w <= 0 || h <= 0 {
		return plane{}, fmt.Errorf("crop size must be positive, got %dx%d: %w", w, h, ErrShape)
	}
	if x < 0 || y < 0 {
		return plane{}, fmt.Errorf("crop position must not be negative, got (%d, %d): %w", x, y, ErrShape)
	}
	if x+w > p.w || y+h > p.h {
		return plane{}, fmt.Errorf("crop region (%d, %d, %d, %d) exceeds bounds (%d, %d): %w", x, y, w, h, p.w, p.h, ErrShape)
	}
	out := newPlane(w, h, p.ch)
	for row := range h {
		copy(out.pix[row*w*p.ch:(row+1)*w*p.ch], p.pix[((y+row)*p.w+x)*p.ch:])
	}
	return out, nil
}

func (p plane) flip(dir FlipDirection) plane {
	out := newPlane(p.w, p.h, p.ch)
	for y := range p.h {
		for x := range p.w {
			sx, sy := x, y
			if dir == FlipHorizontal {
				sx = p.w - 1 - x
			} else {
				sy = p.h - 1 - y
			}
			copy(out.px(x, y), p.px(sx, sy))
		}
	}
	return out
}

// rot90 rotates k quarter turns counter-clockwise.
func (p plane) rot90(k int) plane {
	switch k % 4 {
	case 1:
		out := newPlane(p.h, p.w, p.ch)
		for y := range out.h {
			for x := range out.w {
				copy(out.px(x, y), p.px(p.w-1-y, x))
			}
		}
		return out
	case 2:
		out := newPlane(p.w, p.h, p.ch)
		for y := range out.h {
			for x := range out.w {
				copy(out.px(x, y), p.px(p.w-1-x, p.h-1-y))
			}
		}
		return out
	case 3:
		out := newPlane(p.h, p.w, p.ch)
		for y := range out.h {
			for x := range out.w {
				copy(out.px(x, y), p.px(y, p.h-1-x))
			}
		}
		return out
	default:
		out := newPlane(p.w, p.h, p.ch)
		copy(out.pix, p.pix)
		return out
	}
}

func (p plane) resize(w, h int, method ResizeMethod) (plane, error) {
	if w <= 0 || h <= 0 {
		return plane{}, fmt.Errorf("resize target must be positive, got %dx%d: %w", w, h, ErrShape)
	}
	switch method {
	case ResizeBilinear:
		return p.bilinear(w, h), nil
	case ResizeNearest:
		return p.nearest(w, h), nil
	case ResizeArea:
		return p.area(w, h), nil
	default:
		return plane{}, fmt.Errorf("unsupported resize method %s: %w", method, ErrConfig)
	}
}

// bilinear samples at i*old/new along each axis.
func (p plane) bilinear(w, h int) plane {
	out := newPlane(w, h, p.ch)
	yRatio := float64(p.h) / float64(h)
	xRatio := float64(p.w) / float64(w)
	for y := range h {
		sy := float64(y) * yRatio
		y0 := int(math.Floor(sy))
		y1 := min(y0+1, p.h-1)
		fy := sy - float64(y0)
		for x := range w {
			sx := float64(x) * xRatio
			x0 := int(math.Floor(sx))
			x1 := min(x0+1, p.w-1)
			fx := sx - float64(x0)

			tl, tr := p.px(x0, y0), p.px(x1, y0)
			bl, br := p.px(x0, y1), p.px(x1, y1)
			dst := out.px(x, y)
			for c := range p.ch {
				top := tl[c]*(1-fx) + tr[c]*fx
				bottom := bl[c]*(1-fx) + br[c]*fx
				dst[c] = top*(1-fy) + bottom*fy
			}
		}
	}
	return out
}

func (p plane) nearest(w, h int) plane {
	out := newPlane(w, h, p.ch)
	for y := range h {
		sy := clampInt(y*p.h/h, 0, p.h-1)
		for x := range w {
			sx := clampInt(x*p.w/w, 0, p.w-1)
			copy(out.px(x, y), p.px(sx, sy))
		}
	}
	return out
}

// area averages every source pixel touched by the output pixel's footprint.
// Upscaling falls back to bilinear.
func (p plane) area(w, h int) plane {
	sy := float64(p.h) / float64(h)
	sx := float64(p.w) / float64(w)
	if sx < 1 || sy < 1 {
		return p.bilinear(w, h)
	}
	out := newPlane(w, h, p.ch)
	for ty := range h {
		y0 := int(math.Floor(float64(ty) * sy))
		y1 := min(int(math.Ceil(float64(ty+1)*sy)), p.h)
		for tx := range w {
			x0 := int(math.Floor(float64(tx) * sx))
			x1 := min(int(math.Ceil(float64(tx+1)*sx)), p.w)
			dst := out.px(tx, ty)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					for c, v := range p.px(x, y) {
						dst[c] += v
					}
				}
			}
			n := float64((y1 - y0) * (x1 - x0))
			for c := range dst {
				dst[c] /= n
			}
		}
	}
	return out
}
