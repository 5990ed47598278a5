package dapple

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseANSI(t *testing.T) {
	red := rgb8(255, 0, 0)

	tests := []struct {
		name  string
		input string
		want  Cell
	}{
		{name: "plain", input: "A", want: Cell{Rune: 'A'}},
		{name: "truecolor", input: "\x1b[38;2;255;0;0mA", want: Cell{Rune: 'A', FG: red, HasFG: true}},
		{name: "256 colors", input: "\x1b[38;5;196mA", want: Cell{Rune: 'A', FG: rgb8(ansi256(196)), HasFG: true}},
		{name: "basic", input: "\x1b[31mA", want: Cell{Rune: 'A', FG: paletteColor(1), HasFG: true}},
		{name: "bright", input: "\x1b[91mA", want: Cell{Rune: 'A', FG: paletteColor(9), HasFG: true}},
		{name: "background", input: "\x1b[48;2;255;0;0mA", want: Cell{Rune: 'A', BG: red, HasBG: true}},
		{name: "basic background", input: "\x1b[104mA", want: Cell{Rune: 'A', BG: paletteColor(12), HasBG: true}},
		{name: "both in one sequence", input: "\x1b[38;2;255;0;0;48;5;21mA", want: Cell{Rune: 'A', FG: red, HasFG: true, BG: rgb8(ansi256(21)), HasBG: true}},
		{name: "reset", input: "\x1b[31m\x1b[0mA", want: Cell{Rune: 'A'}},
		{name: "empty reset", input: "\x1b[31;41m\x1b[mA", want: Cell{Rune: 'A'}},
		{name: "default foreground", input: "\x1b[31;41m\x1b[39mA", want: Cell{Rune: 'A', BG: paletteColor(1), HasBG: true}},
		{name: "default background", input: "\x1b[31;41m\x1b[49mA", want: Cell{Rune: 'A', FG: paletteColor(1), HasFG: true}},
		{name: "truncated truecolor", input: "\x1b[38;2;255mA", want: Cell{Rune: 'A'}},
		{name: "unknown codes are ignored", input: "\x1b[1;4mA", want: Cell{Rune: 'A'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := ParseANSI(tt.input)
			require.Len(t, grid, 1)
			require.Len(t, grid[0], 1)
			assert.Equal(t, tt.want, grid[0][0])
		})
	}
}

func TestParseANSILines(t *testing.T) {
	grid := ParseANSI("\x1b[32mAB\r\nC\x1b[0mD")
	require.Len(t, grid, 2)
	require.Len(t, grid[0], 2)
	require.Len(t, grid[1], 2)

	assert.Equal(t, paletteColor(2), grid[0][1].FG)
	assert.False(t, grid[1][0].HasFG, "every line starts with default colors")
	assert.False(t, grid[1][1].HasFG)
}

func TestFromANSIColorsDoNotBleed(t *testing.T) {
	c, err := FromANSI("\x1b[38;2;255;0;0m⣿\n⣿", WithFormat(FormatBraille))
	require.NoError(t, err)

	r, g, b := c.Colors().At(0, 0)
	assert.Equal(t, []float64{1, 0, 0}, []float64{r, g, b})
	r, g, b = c.Colors().At(0, 4)
	assert.Equal(t, []float64{1, 1, 1}, []float64{r, g, b})
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "braille", input: "⠑⢄⠀⠀\n⠀⠀⠑⢄", want: FormatBraille},
		{name: "colored braille", input: "\x1b[38;2;255;0;0m⠑\x1b[0m", want: FormatBraille},
		{name: "quadrants", input: "▘▝\n▖█", want: FormatQuadrants},
		{name: "half blocks are quadrants", input: "▌▐", want: FormatQuadrants},
		{name: "sextants", input: string([]rune{0x1FB00, 0x1FB01, 0x1FB02}), want: FormatSextants},
		{name: "ascii", input: " .:-=+*#%@", want: FormatASCII},
		{name: "only spaces", input: "   \n   ", want: FormatASCII},
		{name: "trailing newline", input: "⠑\n", want: FormatBraille},
		{name: "ties go to braille", input: "⠑a", want: FormatBraille},
		{name: "majority wins", input: "⠑ab", want: FormatASCII},
		{name: "empty", input: "", wantErr: true},
		{name: "only escapes", input: "\x1b[31m\x1b[0m", wantErr: true},
		{name: "unrecognized", input: "ĀĀĀ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrFormatDetection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromANSIRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		renderer Renderer
		bitmap   *Bitmap
	}{
		{
			name:     "braille",
			renderer: Braille(),
			bitmap:   diagonal(8),
		},
		{
			name:     "quadrants",
			renderer: Quadrants().WithTrueColor(true),
			bitmap: mustBitmap(t, [][]float64{
				{1, 0, 1, 0},
				{1, 0, 0, 0},
			}),
		},
		{
			name:     "sextants",
			renderer: Sextants(),
			bitmap: mustBitmap(t, [][]float64{
				{1, 0},
				{0, 1},
				{1, 1},
			}),
		},
		{
			name:     "ascii",
			renderer: ASCII(),
			bitmap: mustBitmap(t, [][]float64{
				{0, 1, 0},
				{0, 1, 0},
				{1, 0, 1},
				{1, 0, 1},
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := render(t, tt.renderer, tt.bitmap, nil)

			c, err := FromANSI(text)
			require.NoError(t, err)
			assert.Equal(t, rowsOf(tt.bitmap), rowsOf(c.Bitmap()))
			require.True(t, c.HasColors())

			for y := range tt.bitmap.Height() {
				for x := range tt.bitmap.Width() {
					r, g, b := c.Colors().At(x, y)
					if tt.bitmap.At(x, y) > 0.5 {
						assert.Equal(t, []float64{1, 1, 1}, []float64{r, g, b}, "lit pixel (%d, %d)", x, y)
					} else {
						assert.Equal(t, []float64{0, 0, 0}, []float64{r, g, b}, "dark pixel (%d, %d)", x, y)
					}
				}
			}
		})
	}
}

func TestFromANSIColors(t *testing.T) {
	bitmap := filledBitmap(2, 4, 1)
	colors := newColors(2, 4)
	for i := 0; i < len(colors.pix); i += 3 {
		colors.pix[i] = 1
	}

	text := render(t, Braille().WithColorMode(ColorTrueColor), bitmap, colors)
	c, err := FromANSI(text, WithFormat(FormatBraille))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Width())
	assert.Equal(t, 4, c.Height())
	r, g, b := c.Colors().At(1, 3)
	assert.Equal(t, colorful.Color{R: 1}, colorful.Color{R: r, G: g, B: b})
}

func TestFromANSIShape(t *testing.T) {
	c, err := FromANSI("⣿\n⣿⣿⣿\n")
	require.NoError(t, err)
	assert.Equal(t, 6, c.Width())
	assert.Equal(t, 8, c.Height())
	assert.Zero(t, c.At(5, 0), "short lines are padded")
	assert.Equal(t, 1.0, c.At(5, 7))
}

func TestFromANSICharset(t *testing.T) {
	c, err := FromANSI(" x#", WithFormat(FormatASCII), WithCharset(" #"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0.5, 1}, {0, 0.5, 1}}, rowsOf(c.Bitmap()))

	c, err = FromANSI("#", WithFormat(FormatASCII), WithCharset("#"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0}, {0}}, rowsOf(c.Bitmap()))
}

func TestFromANSIErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    []ANSIOption
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrFormatDetection},
		{name: "only a newline", input: "\n", wantErr: ErrFormatDetection},
		{name: "undetectable", input: "ĀĀ", wantErr: ErrFormatDetection},
		{name: "sixel", input: "⠑", opts: []ANSIOption{WithFormat(FormatSixel)}, wantErr: ErrConfig},
		{name: "empty charset", input: "#", opts: []ANSIOption{WithFormat(FormatASCII), WithCharset("")}, wantErr: ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromANSI(tt.input, tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
