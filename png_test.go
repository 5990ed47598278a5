package dapple

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePNGGray(t *testing.T) {
	b := mustBitmap(t, [][]float64{{0, 0.5, 1}, {1, 0.5, 0}})

	data, err := EncodePNG(b, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngSignature))

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok, "want a grayscale PNG, got %T", img)
	assert.Equal(t, image.Rect(0, 0, 3, 2), gray.Bounds())
	assert.Equal(t, color.Gray{Y: 0}, gray.GrayAt(0, 0))
	assert.Equal(t, color.Gray{Y: 127}, gray.GrayAt(1, 0))
	assert.Equal(t, color.Gray{Y: 255}, gray.GrayAt(0, 1))
}

func TestEncodePNGColor(t *testing.T) {
	b := filledBitmap(2, 1, 1)
	c := mustColors(t, [][][]float64{{{1, 0, 0}, {0, 0, 1}}})

	data, err := EncodePNG(b, c)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, color.RGBAModel.Convert(color.RGBA{R: 255, A: 255}), color.RGBAModel.Convert(img.At(0, 0)))
	assert.Equal(t, color.RGBAModel.Convert(color.RGBA{B: 255, A: 255}), color.RGBAModel.Convert(img.At(1, 0)))
}

func TestEncodePNGChunks(t *testing.T) {
	data, err := EncodePNG(filledBitmap(5, 4, 0.25), nil)
	require.NoError(t, err)

	var types []string
	rest := data[len(pngSignature):]
	for len(rest) >= 12 {
		n := binary.BigEndian.Uint32(rest)
		typ := string(rest[4:8])
		body := rest[8 : 8+n]
		crc := binary.BigEndian.Uint32(rest[8+n:])
		assert.Equal(t, crc32.ChecksumIEEE(append([]byte(typ), body...)), crc, "chunk %s", typ)
		if typ == "IHDR" {
			assert.Equal(t, uint32(5), binary.BigEndian.Uint32(body[0:]))
			assert.Equal(t, uint32(4), binary.BigEndian.Uint32(body[4:]))
			assert.Equal(t, []byte{8, 0, 0, 0, 0}, body[8:13])
		}
		types = append(types, typ)
		rest = rest[12+n:]
	}
	assert.Empty(t, rest)
	assert.Equal(t, []string{"IHDR", "IDAT", "IEND"}, types)
}

func TestEncodePNGInvalid(t *testing.T) {
	_, err := EncodePNG(nil, nil)
	assert.ErrorIs(t, err, ErrShape)
	_, err = EncodePNG(filledBitmap(2, 2, 0), newColors(1, 1))
	assert.ErrorIs(t, err, ErrShape)
}
