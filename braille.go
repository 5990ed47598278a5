package dapple

import (
	"io"
	"strings"
)

// BrailleRenderer draws 2×4 pixel cells as Unicode braille patterns.
type BrailleRenderer struct {
	threshold float64
	auto      bool
	colorMode ColorMode
	workers   int
}

// Braille returns a braille renderer with threshold 0.5 and no color.
func Braille() BrailleRenderer {
	return BrailleRenderer{threshold: 0.5}
}

// WithThreshold sets a fixed dot threshold.
func (r BrailleRenderer) WithThreshold(t float64) BrailleRenderer {
	r.threshold = t
	r.auto = false
	return r
}

// WithAutoThreshold derives the threshold from the bitmap mean, clamped to
// [0.1, 0.9].
func (r BrailleRenderer) WithAutoThreshold() BrailleRenderer {
	r.auto = true
	return r
}

func (r BrailleRenderer) WithColorMode(m ColorMode) BrailleRenderer {
	r.colorMode = m
	return r
}

// WithWorkers renders rows on n goroutines.
func (r BrailleRenderer) WithWorkers(n int) BrailleRenderer {
	r.workers = n
	return r
}

func (r BrailleRenderer) Threshold() (float64, bool) { return r.threshold, !r.auto }
func (r BrailleRenderer) ColorMode() ColorMode       { return r.colorMode }
func (r BrailleRenderer) CellWidth() int             { return 2 }
func (r BrailleRenderer) CellHeight() int            { return 4 }

func (r BrailleRenderer) Render(w io.Writer, bitmap *Bitmap, colors *Colors) error {
	if err := validate(bitmap, colors); err != nil {
		return err
	}

	threshold := r.threshold
	if r.auto {
		threshold = min(0.9, max(0.1, bitmap.Mean()))
	}

	cols, rows := gridSize(bitmap, 2, 4)
	return renderRows(w, rows, r.workers, func(cy int) string {
		var sb strings.Builder
		region := make([]float64, 8)
		for cx := range cols {
			x0, y0 := cx*2, cy*4
			vw, vh := bitmap.cell(region, x0, y0, 2, 4)

			code := 0
			for row := range 4 {
				for col := range 2 {
					if region[row*2+col] > threshold {
						code |= 1 << brailleBits[row][col]
					}
				}
			}

			switch r.colorMode {
			case ColorGrayscale:
				level := clampInt(int(validMean(region, 2, vw, vh)*23.999), 0, 23)
				sgr(&sb, 38, 5, 232+level)
			case ColorTrueColor:
				var cr, cg, cb float64
				if colors != nil {
					cr, cg, cb = colors.meanColor(x0, y0, vw, vh)
				} else {
					v := validMean(region, 2, vw, vh)
					cr, cg, cb = v, v, v
				}
				sgr(&sb, 38, 2,
					clampInt(int(cr*255.999), 0, 255),
					clampInt(int(cg*255.999), 0, 255),
					clampInt(int(cb*255.999), 0, 255))
			}
			sb.WriteRune(rune(brailleBase + code))
		}
		if r.colorMode != ColorNone {
			sb.WriteString(RESET)
		}
		return sb.String()
	})
}

// validMean averages the top-left vw×vh part of a cell buffer with the
// given stride.
func validMean(region []float64, stride, vw, vh int) float64 {
	var sum float64
	for y := range vh {
		for x := range vw {
			sum += region[y*stride+x]
		}
	}
	return sum / float64(vw*vh)
}
