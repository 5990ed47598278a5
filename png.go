package dapple

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

const (
	pngColorGray = 0
	pngColorRGB  = 2
)

// EncodePNG writes an 8-bit PNG without any image codec: RGB when colors are
// given, grayscale otherwise. Every scanline uses filter type 0.
func EncodePNG(bitmap *Bitmap, colors *Colors) ([]byte, error) {
	if err := validate(bitmap, colors); err != nil {
		return nil, err
	}
	w, h := bitmap.w, bitmap.h

	colorType := byte(pngColorGray)
	channels := 1
	if colors != nil {
		colorType = pngColorRGB
		channels = 3
	}

	stride := 1 + w*channels
	raw := make([]byte, h*stride)
	for y := range h {
		line := raw[y*stride+1 : (y+1)*stride]
		if colors != nil {
			for i, v := range colors.pix[y*w*3 : (y+1)*w*3] {
				line[i] = toByte(v)
			}
		} else {
			for i, v := range bitmap.pix[y*w : (y+1)*w] {
				line[i] = toByte(v)
			}
		}
	}

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("failed to compress scanlines: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress scanlines: %w", err)
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], uint32(w))
	binary.BigEndian.PutUint32(ihdr[4:], uint32(h))
	ihdr[8] = 8 // bit depth
	ihdr[9] = colorType
	// compression, filter and interlace methods stay 0

	var out bytes.Buffer
	out.Write(pngSignature)
	writePNGChunk(&out, "IHDR", ihdr)
	writePNGChunk(&out, "IDAT", idat.Bytes())
	writePNGChunk(&out, "IEND", nil)
	return out.Bytes(), nil
}

// writePNGChunk appends length, type, data and the CRC32 of type+data.
func writePNGChunk(out *bytes.Buffer, typ string, data []byte) {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(data)))
	out.Write(hdr[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	out.WriteString(typ)
	out.Write(data)

	binary.BigEndian.PutUint32(hdr[:], crc.Sum32())
	out.Write(hdr[:])
}
