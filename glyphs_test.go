package dapple

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSextantRoundTrip(t *testing.T) {
	seen := make(map[rune]bool)
	for pattern := range 64 {
		r := sextantRune(pattern)
		assert.False(t, seen[r], "pattern %06b reuses %q", pattern, r)
		seen[r] = true

		up, ok := sextantPattern(r)
		require.True(t, ok, "pattern %06b", pattern)
		for i, w := range sextantWeights {
			assert.Equal(t, pattern&w != 0, up&(1<<i) != 0, "pattern %06b cell %d", pattern, i)
		}
	}

	_, ok := sextantPattern('x')
	assert.False(t, ok)
	_, ok = sextantPattern(sextantBase + 60)
	assert.False(t, ok)
}

func TestQuadrantGlyphs(t *testing.T) {
	require.Len(t, quadrantGlyphs, 16)
	for i, g := range quadrantGlyphs {
		p, ok := quadrantPattern(g)
		require.True(t, ok)
		assert.Equal(t, i, p)
	}
	_, ok := quadrantPattern('#')
	assert.False(t, ok)
}

func TestAnsi256(t *testing.T) {
	tests := []struct {
		n       int
		r, g, b uint8
	}{
		{n: 1, r: 128},
		{n: 15, r: 255, g: 255, b: 255},
		{n: 16},
		{n: 196, r: 255},
		{n: 231, r: 255, g: 255, b: 255},
		{n: 232, r: 0, g: 0, b: 0},
		{n: 244, r: 128, g: 128, b: 128},
		{n: 255, r: 245, g: 245, b: 245},
	}

	for _, tt := range tests {
		r, g, b := ansi256(tt.n)
		assert.Equal(t, []uint8{tt.r, tt.g, tt.b}, []uint8{r, g, b}, "color %d", tt.n)
	}
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		name    string
		want    ColorMode
		wantErr bool
	}{
		{name: "none", want: ColorNone},
		{name: "Grayscale", want: ColorGrayscale},
		{name: "truecolor", want: ColorTrueColor},
		{name: "24bit", want: ColorTrueColor},
		{name: "sepia", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColorMode(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToLower(got.String()), got.String())
		})
	}
}
