package dapple

import (
	"fmt"
	"io"
	"strings"
)

// Character ramps ordered from dark to bright.
const (
	CharsetStandard = " .:-=+*#%@"
	CharsetDetailed = " .'`^\",:;Il!i><~+_-?][}{1)(|\\/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$"
	CharsetBlocks   = " ░▒▓█"
	CharsetSimple   = " .oO@"
)

var charsets = map[string]string{
	"standard": CharsetStandard,
	"detailed": CharsetDetailed,
	"blocks":   CharsetBlocks,
	"simple":   CharsetSimple,
}

// ParseCharset resolves a named character ramp.
func ParseCharset(name string) (string, error) {
	if cs, ok := charsets[strings.ToLower(name)]; ok {
		return cs, nil
	}
	return "", fmt.Errorf("unknown charset %q: %w", name, ErrConfig)
}

// ASCIIRenderer maps 1×2 pixel cells to characters from a brightness ramp.
type ASCIIRenderer struct {
	charset string
	invert  bool
	workers int
}

// ASCII returns a renderer using CharsetStandard.
func ASCII() ASCIIRenderer {
	return ASCIIRenderer{charset: CharsetStandard}
}

// WithCharset sets the ramp, darkest character first.
func (r ASCIIRenderer) WithCharset(charset string) ASCIIRenderer {
	r.charset = charset
	return r
}

// WithInvert maps bright pixels to the start of the ramp.
func (r ASCIIRenderer) WithInvert(on bool) ASCIIRenderer {
	r.invert = on
	return r
}

func (r ASCIIRenderer) WithWorkers(n int) ASCIIRenderer {
	r.workers = n
	return r
}

func (r ASCIIRenderer) Charset() string { return r.charset }
func (r ASCIIRenderer) CellWidth() int  { return 1 }
func (r ASCIIRenderer) CellHeight() int { return 2 }

func (r ASCIIRenderer) Render(w io.Writer, bitmap *Bitmap, colors *Colors) error {
	if err := validate(bitmap, colors); err != nil {
		return err
	}
	ramp := []rune(r.charset)
	if len(ramp) == 0 {
		return fmt.Errorf("charset must not be empty: %w", ErrConfig)
	}

	cols, rows := gridSize(bitmap, 1, 2)
	return renderRows(w, rows, r.workers, func(cy int) string {
		var sb strings.Builder
		strip := make([]float64, 2)
		for x := range cols {
			bitmap.cell(strip, x, cy*2, 1, 2)
			v := (strip[0] + strip[1]) / 2
			if r.invert {
				v = 1 - v
			}
			sb.WriteRune(ramp[rampIndex(v, len(ramp))])
		}
		return sb.String()
	})
}

// rampIndex maps a brightness to a ramp position. The 0.001 nudge keeps
// 1.0 on the last character.
func rampIndex(v float64, n int) int {
	return clampInt(int(v*(float64(n)-0.001)), 0, n-1)
}
