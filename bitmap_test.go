package dapple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBitmap(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		wantErr bool
	}{
		{name: "single pixel", width: 1, height: 1},
		{name: "wide", width: 10, height: 2},
		{name: "zero width", width: 0, height: 2, wantErr: true},
		{name: "negative height", width: 3, height: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBitmap(tt.width, tt.height)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrShape)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.width, b.Width())
			assert.Equal(t, tt.height, b.Height())
			assert.Zero(t, b.Mean())
		})
	}
}

func TestBitmapFromRows(t *testing.T) {
	b, err := BitmapFromRows([][]float64{{0, 0.25}, {0.5, 1}})
	require.NoError(t, err)
	assert.Equal(t, 0.25, b.At(1, 0))
	assert.Equal(t, 0.5, b.At(0, 1))
	assert.Equal(t, []float64{0, 0.25, 0.5, 1}, b.Pix())
	assert.InDelta(t, 0.4375, b.Mean(), 1e-9)

	lo, hi := b.MinMax()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	_, err = BitmapFromRows([][]float64{{0, 1}, {1}})
	assert.ErrorIs(t, err, ErrShape)
	_, err = BitmapFromRows(nil)
	assert.ErrorIs(t, err, ErrShape)
	_, err = BitmapFromRows([][]float64{{}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestBitmapFromSlice(t *testing.T) {
	pix := []float64{1, 2, 3, 4, 5, 6}
	b, err := BitmapFromSlice(3, 2, pix)
	require.NoError(t, err)
	assert.Equal(t, 6.0, b.At(2, 1))

	// the bitmap owns its values
	pix[0] = 9
	assert.Equal(t, 1.0, b.At(0, 0))
	b.Pix()[1] = 9
	assert.Equal(t, 2.0, b.At(1, 0))

	_, err = BitmapFromSlice(2, 2, pix)
	assert.ErrorIs(t, err, ErrShape)
}

func TestBitmapEqual(t *testing.T) {
	a := filledBitmap(2, 2, 0.5)
	assert.True(t, a.Equal(filledBitmap(2, 2, 0.5)))
	assert.False(t, a.Equal(filledBitmap(2, 2, 0.4)))
	assert.False(t, a.Equal(filledBitmap(4, 1, 0.5)))
	assert.False(t, a.Equal(nil))
}

func TestColorsFromRows(t *testing.T) {
	c, err := ColorsFromRows([][][]float64{
		{{1, 0, 0}, {0, 1, 0}},
		{{0, 0, 1}, {1, 1, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Width())
	assert.Equal(t, 2, c.Height())

	r, g, b := c.At(1, 0)
	assert.Equal(t, []float64{0, 1, 0}, []float64{r, g, b})

	lum := c.Luminance()
	assert.InDelta(t, 0.299, lum.At(0, 0), 1e-9)
	assert.InDelta(t, 0.587, lum.At(1, 0), 1e-9)
	assert.InDelta(t, 0.114, lum.At(0, 1), 1e-9)
	assert.InDelta(t, 1.0, lum.At(1, 1), 1e-9)

	_, err = ColorsFromRows([][][]float64{{{1, 0}}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestColorsFromSlice(t *testing.T) {
	_, err := ColorsFromSlice(2, 1, []float64{1, 0, 0, 0, 1, 0})
	require.NoError(t, err)
	_, err = ColorsFromSlice(2, 1, []float64{1, 0, 0})
	assert.ErrorIs(t, err, ErrShape)
	_, err = NewColors(0, 1)
	assert.ErrorIs(t, err, ErrShape)
}

func TestValidate(t *testing.T) {
	bitmap := filledBitmap(3, 2, 0)

	tests := []struct {
		name    string
		bitmap  *Bitmap
		colors  *Colors
		wantErr bool
	}{
		{name: "bitmap only", bitmap: bitmap},
		{name: "matching colors", bitmap: bitmap, colors: newColors(3, 2)},
		{name: "nil bitmap", wantErr: true},
		{name: "zero value bitmap", bitmap: &Bitmap{}, wantErr: true},
		{name: "transposed colors", bitmap: bitmap, colors: newColors(2, 3), wantErr: true},
		{name: "truncated colors", bitmap: bitmap, colors: &Colors{w: 3, h: 2, pix: make([]float64, 6)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.bitmap, tt.colors)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrShape)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
