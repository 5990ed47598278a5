package dapple

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRasterizer draws '#' as a solid cell, ' ' as an empty one and '-' as
// a horizontal bar through the middle. Every other rune fails.
type fakeRasterizer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRasterizer) Name() string { return "fake" }

func (f *fakeRasterizer) Rasterize(r rune, width, height int) (*Bitmap, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	switch r {
	case ' ':
		return newBitmap(width, height), nil
	case '#':
		return filledBitmap(width, height, 1), nil
	case '-':
		b := newBitmap(width, height)
		for x := range width {
			b.pix[(height/2)*width+x] = 1
		}
		return b, nil
	default:
		return nil, errors.New("no glyph")
	}
}

func TestFingerprint(t *testing.T) {
	r := Fingerprint().WithRasterizer(&fakeRasterizer{}).WithCellSize(2, 4)

	bar := newBitmap(2, 4)
	bar.pix[2*2] = 1
	bar.pix[2*2+1] = 1

	tests := []struct {
		name   string
		bitmap *Bitmap
		want   string
	}{
		{name: "solid", bitmap: filledBitmap(4, 4, 1), want: "##"},
		{name: "empty", bitmap: filledBitmap(2, 8, 0), want: " \n "},
		{name: "bar", bitmap: bar, want: "-"},
		{name: "ties pick the earlier glyph", bitmap: filledBitmap(2, 4, 0.5), want: " "},
		{name: "partial cells are padded", bitmap: filledBitmap(3, 4, 1), want: "# "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, r, tt.bitmap, nil))
		})
	}
}

func TestFingerprintMetric(t *testing.T) {
	r := Fingerprint().WithRasterizer(&fakeRasterizer{}).WithCellSize(1, 2).WithMetric(MetricMAE)
	assert.Equal(t, MetricMAE, r.Metric())
	assert.Equal(t, "#", render(t, r, filledBitmap(1, 2, 0.9), nil))
}

func TestFingerprintErrors(t *testing.T) {
	b := filledBitmap(8, 16, 1)

	tests := []struct {
		name     string
		renderer FingerprintRenderer
		wantErr  error
	}{
		{name: "no rasterizer", renderer: Fingerprint().WithRasterizer(nil), wantErr: ErrUnavailable},
		{name: "no renderable glyph", renderer: Fingerprint().WithRasterizer(&fakeRasterizer{}).WithGlyphSet(GlyphsBraille), wantErr: ErrUnavailable},
		{name: "empty cell", renderer: Fingerprint().WithCellSize(0, 16), wantErr: ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			assert.ErrorIs(t, tt.renderer.Render(&sb, b, nil), tt.wantErr)
			assert.Empty(t, sb.String())
		})
	}
}

func TestGlyphSetRunes(t *testing.T) {
	assert.Len(t, GlyphsBasic.Runes(), 95)
	assert.Equal(t, ' ', GlyphsBasic.Runes()[0])
	assert.Len(t, GlyphsBraille.Runes(), 256)
	assert.Equal(t, '█', GlyphsBlocks.Runes()[9])
	assert.Len(t, GlyphsExtended.Runes(), 95+len([]rune(blockGlyphs))+256)
	assert.Nil(t, GlyphSet(9).Runes())

	for _, s := range []GlyphSet{GlyphsBasic, GlyphsBlocks, GlyphsBraille, GlyphsExtended} {
		got, err := ParseGlyphSet(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseGlyphSet("emoji")
	assert.ErrorIs(t, err, ErrConfig)

	m, err := ParseMetric("MAE")
	require.NoError(t, err)
	assert.Equal(t, MetricMAE, m)
	_, err = ParseMetric("ssim")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestGlyphCache(t *testing.T) {
	ras := &fakeRasterizer{}
	cache := NewGlyphCache(2)

	key := func(w int) GlyphKey {
		return GlyphKey{Set: GlyphsBasic, CellWidth: w, CellHeight: 4, Font: ras.Name()}
	}

	table, err := cache.Load(key(1), ras)
	require.NoError(t, err)
	assert.Equal(t, []rune(" #-"), table.Runes())
	assert.Equal(t, 3, table.Len())
	calls := ras.calls

	_, err = cache.Load(key(1), ras)
	require.NoError(t, err)
	assert.Equal(t, calls, ras.calls, "a cached table is not rasterized again")

	_, err = cache.Load(key(2), ras)
	require.NoError(t, err)
	// touch key(1) so key(2) is the least recently used
	_, err = cache.Load(key(1), ras)
	require.NoError(t, err)
	_, err = cache.Load(key(3), ras)
	require.NoError(t, err)

	assert.Equal(t, 2, cache.Len())
	assert.True(t, cache.Contains(key(1)))
	assert.False(t, cache.Contains(key(2)))
	assert.True(t, cache.Contains(key(3)))

	cache.Clear()
	assert.Zero(t, cache.Len())
}

func TestGlyphCacheSharedAcrossRenders(t *testing.T) {
	ras := &fakeRasterizer{}
	cache := NewGlyphCache(0)
	r := Fingerprint().WithRasterizer(ras).WithCellSize(2, 4).WithCache(cache).WithWorkers(4)

	b := filledBitmap(16, 32, 1)
	first := render(t, r, b, nil)
	calls := ras.calls
	second := render(t, r, b, nil)

	assert.Equal(t, first, second)
	assert.Equal(t, calls, ras.calls)
	assert.True(t, cache.Contains(r.Key()))
}

func TestGlyphCacheConcurrentLoad(t *testing.T) {
	ras := &fakeRasterizer{}
	cache := NewGlyphCache(4)
	key := GlyphKey{Set: GlyphsBasic, CellWidth: 2, CellHeight: 4, Font: ras.Name()}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := cache.Load(key, ras)
			assert.NoError(t, err)
			assert.Equal(t, 3, table.Len())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}

func TestGoMono(t *testing.T) {
	ras, err := GoMono()
	require.NoError(t, err)
	assert.Equal(t, "gomono", ras.Name())
	assert.True(t, ras.HasGlyph('A'))
	assert.False(t, ras.HasGlyph('\U0010FFFD'))

	glyph, err := ras.Rasterize('M', 8, 16)
	require.NoError(t, err)
	assert.Equal(t, 8, glyph.Width())
	assert.Equal(t, 16, glyph.Height())
	assert.Greater(t, glyph.Mean(), 0.05)

	space, err := ras.Rasterize(' ', 8, 16)
	require.NoError(t, err)
	assert.Zero(t, space.Mean())

	_, err = ras.Rasterize('\U0010FFFD', 8, 16)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = ras.Rasterize('A', 0, 16)
	assert.ErrorIs(t, err, ErrShape)
}

func TestFingerprintGoMono(t *testing.T) {
	r := Fingerprint()
	assert.Equal(t, 8, r.CellWidth())
	assert.Equal(t, 16, r.CellHeight())

	assert.Equal(t, "  ", render(t, r, filledBitmap(16, 16, 0), nil))

	ink := render(t, r, filledBitmap(8, 16, 1), nil)
	assert.NotEqual(t, " ", ink)
	assert.Len(t, []rune(ink), 1)
}
