package dapple

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/soniakeys/quant/median"
)

const (
	SIXEL_START = "\x1bPq"
	SIXEL_END   = "\x1b\\"
	// maxSixelRun is the longest run emitted in one repeat introducer
	maxSixelRun = 255
)

// PaletteMode selects how the Sixel renderer builds its palette.
type PaletteMode int

const (
	// PaletteUniform bins each channel into equal steps.
	PaletteUniform PaletteMode = iota
	// PaletteMedianCut builds an adaptive palette with median cut.
	PaletteMedianCut
)

func (m PaletteMode) String() string {
	if m == PaletteMedianCut {
		return "median-cut"
	}
	return "uniform"
}

// ParsePaletteMode resolves uniform or median-cut.
func ParsePaletteMode(name string) (PaletteMode, error) {
	switch strings.ToLower(name) {
	case "uniform", "":
		return PaletteUniform, nil
	case "median-cut", "mediancut", "median":
		return PaletteMedianCut, nil
	default:
		return 0, fmt.Errorf("unknown palette mode %q: %w", name, ErrConfig)
	}
}

// SixelRenderer encodes pixels as a DEC sixel graphics sequence.
type SixelRenderer struct {
	maxColors int
	scale     int
	palette   PaletteMode
}

// Sixel returns a renderer with 256 colors at scale 1.
func Sixel() SixelRenderer {
	return SixelRenderer{maxColors: 256, scale: 1}
}

func (r SixelRenderer) WithMaxColors(n int) SixelRenderer {
	r.maxColors = n
	return r
}

// WithScale repeats every pixel n times in both directions.
func (r SixelRenderer) WithScale(n int) SixelRenderer {
	r.scale = n
	return r
}

func (r SixelRenderer) WithPalette(mode PaletteMode) SixelRenderer {
	r.palette = mode
	return r
}

func (r SixelRenderer) MaxColors() int  { return r.maxColors }
func (r SixelRenderer) Scale() int      { return r.scale }
func (r SixelRenderer) CellWidth() int  { return 1 }
func (r SixelRenderer) CellHeight() int { return 1 }

func (r SixelRenderer) Render(w io.Writer, bitmap *Bitmap, colors *Colors) error {
	if err := validate(bitmap, colors); err != nil {
		return err
	}
	if r.maxColors < 1 {
		return fmt.Errorf("sixel max colors must be positive, got %d: %w", r.maxColors, ErrConfig)
	}
	if r.scale < 1 {
		return fmt.Errorf("sixel scale must be positive, got %d: %w", r.scale, ErrConfig)
	}

	if r.scale > 1 {
		bitmap = repeatPixels(bitmap, r.scale)
		if colors != nil {
			colors = repeatColors(colors, r.scale)
		}
	}

	// the last band is filled with black rows, which take part in
	// quantization like any other pixel
	if pad := (6 - bitmap.h%6) % 6; pad > 0 {
		bitmap = padRows(bitmap, pad)
		if colors != nil {
			colors = padColorRows(colors, pad)
		}
	}

	var indices []int
	var palette [][3]float64
	switch {
	case colors != nil && r.palette == PaletteMedianCut:
		indices, palette = medianCutQuantize(colors, r.maxColors)
	case colors != nil:
		indices, palette = uniformQuantize(colors, r.maxColors)
	default:
		indices, palette = grayQuantize(bitmap, min(r.maxColors, 256))
	}

	if _, err := io.WriteString(w, encodeSixel(indices, palette, bitmap.w, bitmap.h)); err != nil {
		return fmt.Errorf("failed to write sixel data: %w", err)
	}
	return nil
}

// encodeSixel writes the DCS sequence for an indexed image whose height is
// a multiple of six.
func encodeSixel(indices []int, palette [][3]float64, w, h int) string {
	var sb strings.Builder
	sb.WriteString(SIXEL_START)
	for i, c := range palette {
		fmt.Fprintf(&sb, "#%d;2;%d;%d;%d", i, int(c[0]*100), int(c[1]*100), int(c[2]*100))
	}

	bands := (h + 5) / 6
	present := make([]bool, len(palette))
	patterns := make([]byte, w)
	for band := range bands {
		y0 := band * 6
		for i := range present {
			present[i] = false
		}
		for y := y0; y < y0+6; y++ {
			for _, idx := range indices[y*w : (y+1)*w] {
				present[idx] = true
			}
		}

		for ci, ok := range present {
			if !ok {
				continue
			}
			for x := range w {
				var p byte
				for bit := range 6 {
					if indices[(y0+bit)*w+x] == ci {
						p |= 1 << bit
					}
				}
				patterns[x] = p
			}

			sb.WriteByte('#')
			sb.WriteString(strconv.Itoa(ci))
			for x := 0; x < w; {
				run := 1
				for x+run < w && run < maxSixelRun && patterns[x+run] == patterns[x] {
					run++
				}
				ch := 0x3F + patterns[x]
				if run > 3 {
					sb.WriteByte('!')
					sb.WriteString(strconv.Itoa(run))
					sb.WriteByte(ch)
				} else {
					for range run {
						sb.WriteByte(ch)
					}
				}
				x += run
			}
			sb.WriteByte('$')
		}
		sb.WriteByte('-')
	}
	sb.WriteString(SIXEL_END)
	return sb.String()
}

// uniformLevels returns the per-channel level count for a color budget.
func uniformLevels(maxColors int) int {
	return clampInt(int(math.Round(math.Cbrt(float64(maxColors)))), 2, 6)
}

func uniformQuantize(c *Colors, maxColors int) ([]int, [][3]float64) {
	levels := uniformLevels(maxColors)
	step := float64(levels) - 0.001
	q := func(v float64) int { return clampInt(int(v*step), 0, levels-1) }

	indices := make([]int, c.w*c.h)
	for i := range indices {
		indices[i] = q(c.pix[i*3])*levels*levels + q(c.pix[i*3+1])*levels + q(c.pix[i*3+2])
	}

	palette := make([][3]float64, levels*levels*levels)
	l := float64(levels)
	for i := range palette {
		palette[i] = [3]float64{
			(float64(i/(levels*levels)) + 0.5) / l,
			(float64((i/levels)%levels) + 0.5) / l,
			(float64(i%levels) + 0.5) / l,
		}
	}
	return indices, palette
}

func grayQuantize(b *Bitmap, levels int) ([]int, [][3]float64) {
	step := float64(levels) - 0.001
	indices := make([]int, len(b.pix))
	for i, v := range b.pix {
		indices[i] = clampInt(int(v*step), 0, levels-1)
	}
	palette := make([][3]float64, levels)
	for i := range palette {
		v := (float64(i) + 0.5) / float64(levels)
		palette[i] = [3]float64{v, v, v}
	}
	return indices, palette
}

// medianCutQuantize builds an adaptive palette and maps every pixel to its
// nearest entry.
func medianCutQuantize(c *Colors, maxColors int) ([]int, [][3]float64) {
	img := c.toRGBA()
	pal := median.Quantizer(min(maxColors, 256)).Palette(img).ColorPalette()

	palette := make([][3]float64, len(pal))
	for i, pc := range pal {
		r, g, b, _ := pc.RGBA()
		palette[i] = [3]float64{float64(r) / 0xffff, float64(g) / 0xffff, float64(b) / 0xffff}
	}
	indices := make([]int, c.w*c.h)
	for y := range c.h {
		for x := range c.w {
			indices[y*c.w+x] = pal.Index(img.RGBAAt(x, y))
		}
	}
	return indices, palette
}

func (c *Colors) toRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.w, c.h))
	for y := range c.h {
		for x := range c.w {
			r, g, b := c.At(x, y)
			img.SetRGBA(x, y, color.RGBA{toByte(r), toByte(g), toByte(b), 0xff})
		}
	}
	return img
}

// toByte truncates a [0, 1] value to 8 bits.
func toByte(v float64) uint8 {
	return uint8(clamp01(v) * 255)
}

func repeatPixels(b *Bitmap, n int) *Bitmap {
	out := newBitmap(b.w*n, b.h*n)
	for y := range out.h {
		for x := range out.w {
			out.pix[y*out.w+x] = b.At(x/n, y/n)
		}
	}
	return out
}

func padRows(b *Bitmap, n int) *Bitmap {
	out := newBitmap(b.w, b.h+n)
	copy(out.pix, b.pix)
	return out
}

func padColorRows(c *Colors, n int) *Colors {
	out := newColors(c.w, c.h+n)
	copy(out.pix, c.pix)
	return out
}

func repeatColors(c *Colors, n int) *Colors {
	out := newColors(c.w*n, c.h*n)
	for y := range out.h {
		for x := range out.w {
			copy(out.pix[(y*out.w+x)*3:(y*out.w+x)*3+3], c.pix[((y/n)*c.w+x/n)*3:])
		}
	}
	return out
}
