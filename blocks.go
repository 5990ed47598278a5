package dapple

import (
	"io"
	"strings"
)

// uniformEpsilon is the fg/bg spread below which a cell renders as a full
// block.
const uniformEpsilon = 0.001

// blockLayout describes a fg/bg block glyph family.
type blockLayout struct {
	cw, ch  int
	weights []int
	full    int
	glyph   func(pattern int) rune
}

var (
	quadrantLayout = blockLayout{
		cw: 2, ch: 2,
		weights: quadrantWeights,
		full:    0b1111,
		glyph:   func(p int) rune { return quadrantGlyphs[p] },
	}
	sextantLayout = blockLayout{
		cw: 2, ch: 3,
		weights: sextantWeights,
		full:    0b111111,
		glyph:   sextantRune,
	}
)

// blockOptions is the configuration shared by Quadrants and Sextants.
type blockOptions struct {
	trueColor bool
	grayscale bool
	workers   int
}

func (o blockOptions) render(w io.Writer, l blockLayout, bitmap *Bitmap, colors *Colors) error {
	if err := validate(bitmap, colors); err != nil {
		return err
	}
	useRGB := colors != nil && !o.grayscale

	n := l.cw * l.ch
	cols, rows := gridSize(bitmap, l.cw, l.ch)
	return renderRows(w, rows, o.workers, func(cy int) string {
		var sb strings.Builder
		lum := make([]float64, n)
		rgb := make([][3]float64, n)
		for cx := range cols {
			x0, y0 := cx*l.cw, cy*l.ch
			if useRGB {
				colors.block(rgb, lum, x0, y0, l.cw, l.ch)
			} else {
				bitmap.cell(lum, x0, y0, l.cw, l.ch)
			}

			fgIdx, bgIdx := 0, 0
			for i, v := range lum {
				if v > lum[fgIdx] {
					fgIdx = i
				}
				if v < lum[bgIdx] {
					bgIdx = i
				}
			}
			fg, bg := lum[fgIdx], lum[bgIdx]

			pattern := 0
			uniform := fg-bg < uniformEpsilon
			if uniform {
				pattern = l.full
			} else {
				mid := (fg + bg) / 2
				for i, v := range lum {
					if v > mid {
						pattern |= l.weights[i]
					}
				}
			}

			if useRGB {
				fc, bc := rgb[fgIdx], rgb[bgIdx]
				if uniform {
					var m [3]float64
					for _, c := range rgb {
						m[0] += c[0]
						m[1] += c[1]
						m[2] += c[2]
					}
					for i := range m {
						m[i] /= float64(n)
					}
					fc, bc = m, m
				}
				writeRGB(&sb, fc[0], fc[1], fc[2], true, o.trueColor)
				writeRGB(&sb, bc[0], bc[1], bc[2], false, o.trueColor)
			} else {
				writeGray(&sb, fg, true, o.trueColor)
				writeGray(&sb, bg, false, o.trueColor)
			}
			sb.WriteRune(l.glyph(pattern))
		}
		sb.WriteString(RESET)
		return sb.String()
	})
}

// block copies a cw×ch block of colors and its luminance, zero padded past
// the edge.
func (c *Colors) block(rgb [][3]float64, lum []float64, x0, y0, cw, ch int) {
	for y := range ch {
		for x := range cw {
			i := y*cw + x
			px, py := x0+x, y0+y
			if px >= c.w || py >= c.h {
				rgb[i] = [3]float64{}
				lum[i] = 0
				continue
			}
			r, g, b := c.At(px, py)
			rgb[i] = [3]float64{r, g, b}
			lum[i] = luminance(r, g, b)
		}
	}
}

// QuadrantsRenderer draws 2×2 pixel cells with quadrant block glyphs and a
// foreground/background color pair.
type QuadrantsRenderer struct{ blockOptions }

// Quadrants returns a truecolor quadrant renderer.
func Quadrants() QuadrantsRenderer {
	return QuadrantsRenderer{blockOptions{trueColor: true}}
}

// WithTrueColor switches between 24-bit and 256-color escapes.
func (r QuadrantsRenderer) WithTrueColor(on bool) QuadrantsRenderer {
	r.trueColor = on
	return r
}

// WithGrayscale ignores colors and renders the bitmap in gray.
func (r QuadrantsRenderer) WithGrayscale(on bool) QuadrantsRenderer {
	r.grayscale = on
	return r
}

func (r QuadrantsRenderer) WithWorkers(n int) QuadrantsRenderer {
	r.workers = n
	return r
}

func (r QuadrantsRenderer) CellWidth() int  { return 2 }
func (r QuadrantsRenderer) CellHeight() int { return 2 }

func (r QuadrantsRenderer) Render(w io.Writer, bitmap *Bitmap, colors *Colors) error {
	return r.render(w, quadrantLayout, bitmap, colors)
}

// SextantsRenderer draws 2×3 pixel cells with the Unicode 13 sextant
// glyphs and a foreground/background color pair.
type SextantsRenderer struct{ blockOptions }

// Sextants returns a truecolor sextant renderer.
func Sextants() SextantsRenderer {
	return SextantsRenderer{blockOptions{trueColor: true}}
}

func (r SextantsRenderer) WithTrueColor(on bool) SextantsRenderer {
	r.trueColor = on
	return r
}

func (r SextantsRenderer) WithGrayscale(on bool) SextantsRenderer {
	r.grayscale = on
	return r
}

func (r SextantsRenderer) WithWorkers(n int) SextantsRenderer {
	r.workers = n
	return r
}

func (r SextantsRenderer) CellWidth() int  { return 2 }
func (r SextantsRenderer) CellHeight() int { return 3 }

func (r SextantsRenderer) Render(w io.Writer, bitmap *Bitmap, colors *Colors) error {
	return r.render(w, sextantLayout, bitmap, colors)
}
