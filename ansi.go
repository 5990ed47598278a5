package dapple

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
)

// Cell is one character of terminal art with the colors active where it was
// printed.
type Cell struct {
	Rune  rune
	FG    colorful.Color
	BG    colorful.Color
	HasFG bool
	HasBG bool
}

var sgrPattern = regexp.MustCompile(`\x1b\[([0-9;]*)m`)

// ParseANSI splits text into lines of cells, applying SGR color sequences
// to the characters that follow them. Every line starts with default
// colors. Other text is kept as-is.
func ParseANSI(text string) [][]Cell {
	var grid [][]Cell
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		var (
			row   []Cell
			state Cell
		)
		pos := 0
		for _, m := range sgrPattern.FindAllStringSubmatchIndex(line, -1) {
			row = appendCells(row, line[pos:m[0]], state)
			state = applySGR(state, line[m[2]:m[3]])
			pos = m[1]
		}
		grid = append(grid, appendCells(row, line[pos:], state))
	}
	return grid
}

func appendCells(row []Cell, s string, state Cell) []Cell {
	for _, r := range s {
		c := state
		c.Rune = r
		row = append(row, c)
	}
	return row
}

// applySGR updates the color state with one parameter list. An empty list
// is a reset, as are empty fields.
func applySGR(state Cell, params string) Cell {
	codes := []int{0}
	if params != "" {
		fields := strings.Split(params, ";")
		codes = make([]int, len(fields))
		for i, f := range fields {
			codes[i], _ = strconv.Atoi(f)
		}
	}

	for i := 0; i < len(codes); i++ {
		code := codes[i]
		switch {
		case code == 0:
			state = Cell{}
		case code == 39:
			state.FG, state.HasFG = colorful.Color{}, false
		case code == 49:
			state.BG, state.HasBG = colorful.Color{}, false
		case code == 38 || code == 48:
			c, n, ok := extendedColor(codes[i+1:])
			i += n
			if !ok {
				continue
			}
			if code == 38 {
				state.FG, state.HasFG = c, true
			} else {
				state.BG, state.HasBG = c, true
			}
		case code >= 30 && code <= 37:
			state.FG, state.HasFG = paletteColor(code-30), true
		case code >= 90 && code <= 97:
			state.FG, state.HasFG = paletteColor(code-90+8), true
		case code >= 40 && code <= 47:
			state.BG, state.HasBG = paletteColor(code-40), true
		case code >= 100 && code <= 107:
			state.BG, state.HasBG = paletteColor(code-100+8), true
		}
	}
	return state
}

// extendedColor decodes the arguments after 38 or 48 and reports how many
// of them it consumed.
func extendedColor(args []int) (colorful.Color, int, bool) {
	if len(args) == 0 {
		return colorful.Color{}, 0, false
	}
	switch args[0] {
	case 2:
		if len(args) < 4 {
			return colorful.Color{}, len(args), false
		}
		return rgb8(uint8(clampInt(args[1], 0, 255)), uint8(clampInt(args[2], 0, 255)), uint8(clampInt(args[3], 0, 255))), 4, true
	case 5:
		if len(args) < 2 {
			return colorful.Color{}, len(args), false
		}
		return rgb8(ansi256(clampInt(args[1], 0, 255))), 2, true
	default:
		return colorful.Color{}, 1, false
	}
}

func paletteColor(n int) colorful.Color {
	c := basicPalette[n]
	return rgb8(c[0], c[1], c[2])
}

func rgb8(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// DetectFormat guesses which character renderer produced text by counting
// the glyphs each one emits. Spaces count for none of them, so text made
// only of spaces is ASCII.
func DetectFormat(text string) (Format, error) {
	plain := strings.TrimSuffix(ansi.Strip(text), "\n")
	if plain == "" {
		return 0, fmt.Errorf("no content to detect: %w", ErrFormatDetection)
	}

	var counts [4]int
	spaces := 0
	for _, r := range plain {
		switch {
		case r == ' ':
			spaces++
		case isBraille(r):
			counts[0]++
		case isQuadrant(r):
			counts[1]++
		case isSextant(r):
			counts[2]++
		case r > ' ' && r < 0x7f:
			counts[3]++
		}
	}

	formats := [4]Format{FormatBraille, FormatQuadrants, FormatSextants, FormatASCII}
	best := 0
	for i, n := range counts {
		if n > counts[best] {
			best = i
		}
	}
	if counts[best] == 0 {
		if spaces > 0 {
			return FormatASCII, nil
		}
		return 0, fmt.Errorf("no braille, block or ASCII characters found: %w", ErrFormatDetection)
	}
	return formats[best], nil
}

func isQuadrant(r rune) bool {
	_, ok := quadrantPattern(r)
	return ok && r != ' '
}

func isSextant(r rune) bool {
	_, ok := sextantPattern(r)
	return ok && r >= sextantBase
}

type ansiConfig struct {
	format     Format
	detect     bool
	charset    string
	charsetSet bool
}

// ANSIOption configures FromANSI.
type ANSIOption func(*ansiConfig)

// WithFormat skips detection and decodes text as f.
func WithFormat(f Format) ANSIOption {
	return func(c *ansiConfig) {
		c.format = f
		c.detect = false
	}
}

// WithCharset sets the ramp used to decode ASCII art.
func WithCharset(ramp string) ANSIOption {
	return func(c *ansiConfig) {
		c.charset = ramp
		c.charsetSet = true
	}
}

// FromANSI decodes text printed by the Braille, Quadrants, Sextants or ASCII
// renderer back into a canvas. Lit sub-pixels take the foreground color of
// their character, or white when it has none.
func FromANSI(text string, opts ...ANSIOption) (*Canvas, error) {
	cfg := ansiConfig{detect: true, charset: CharsetStandard}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.charsetSet && cfg.charset == "" {
		return nil, fmt.Errorf("charset must not be empty: %w", ErrConfig)
	}

	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil, fmt.Errorf("empty terminal art: %w", ErrFormatDetection)
	}
	if cfg.detect {
		f, err := DetectFormat(text)
		if err != nil {
			return nil, err
		}
		cfg.format = f
	}

	var cw, ch int
	var decode func(r rune) []float64
	switch cfg.format {
	case FormatBraille:
		cw, ch, decode = 2, 4, brailleCell
	case FormatQuadrants:
		cw, ch, decode = 2, 2, quadrantCell
	case FormatSextants:
		cw, ch, decode = 2, 3, sextantCell
	case FormatASCII:
		ramp := []rune(cfg.charset)
		cw, ch = 1, 2
		decode = func(r rune) []float64 {
			v := asciiBrightness(r, ramp)
			return []float64{v, v}
		}
	default:
		return nil, fmt.Errorf("unsupported format for decoding: %s: %w", cfg.format, ErrConfig)
	}

	grid := ParseANSI(text)
	cols := 0
	for _, row := range grid {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil, fmt.Errorf("empty terminal art: %w", ErrFormatDetection)
	}

	bitmap := newBitmap(cols*cw, len(grid)*ch)
	colors := newColors(bitmap.w, bitmap.h)
	for cy, row := range grid {
		for cx, c := range row {
			pix := decode(c.Rune)
			for i, v := range pix {
				x, y := cx*cw+i%cw, cy*ch+i/cw
				bitmap.pix[y*bitmap.w+x] = v
				if v <= 0.5 {
					continue
				}
				rgb := colors.pix[(y*colors.w+x)*3:]
				if c.HasFG {
					rgb[0], rgb[1], rgb[2] = c.FG.R, c.FG.G, c.FG.B
				} else {
					rgb[0], rgb[1], rgb[2] = 1, 1, 1
				}
			}
		}
	}
	return NewCanvas(bitmap, WithColors(colors))
}

// brailleCell returns the 2×4 dots of a braille glyph; anything else is
// blank.
func brailleCell(r rune) []float64 {
	cell := make([]float64, 8)
	if !isBraille(r) {
		return cell
	}
	bits := uint(r - brailleBase)
	for y, row := range brailleBits {
		for x, bit := range row {
			if bits&(1<<bit) != 0 {
				cell[y*2+x] = 1
			}
		}
	}
	return cell
}

func quadrantCell(r rune) []float64 {
	cell := make([]float64, 4)
	pattern, ok := quadrantPattern(r)
	if !ok {
		return cell
	}
	for i, w := range quadrantWeights {
		if pattern&w != 0 {
			cell[i] = 1
		}
	}
	return cell
}

// sextantCell decodes a sextant in Unicode bit order: bit i is row i/2,
// column i%2.
func sextantCell(r rune) []float64 {
	cell := make([]float64, 6)
	pattern, ok := sextantPattern(r)
	if !ok {
		return cell
	}
	for i := range cell {
		if pattern&(1<<i) != 0 {
			cell[i] = 1
		}
	}
	return cell
}

// asciiBrightness returns the ramp position of r scaled to [0, 1], or 0.5
// for characters missing from the ramp.
func asciiBrightness(r rune, ramp []rune) float64 {
	for i, c := range ramp {
		if c == r {
			return float64(i) / float64(max(1, len(ramp)-1))
		}
	}
	return 0.5
}
