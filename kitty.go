package dapple

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"
	"strings"
)

const (
	KITTY_START = "\x1b_G"
	KITTY_END   = "\x1b\\"
	// CHUNK_SIZE is the largest base64 payload per escape sequence
	CHUNK_SIZE = 4096
	// BASE64_CHUNK_SIZE raw bytes encode to exactly CHUNK_SIZE characters
	BASE64_CHUNK_SIZE = CHUNK_SIZE / 4 * 3
)

// KittyFormat is the pixel payload format of a Kitty transmission.
type KittyFormat int

const (
	KittyPNG KittyFormat = iota
	KittyRGB
	KittyRGBA
)

func (f KittyFormat) String() string {
	switch f {
	case KittyPNG:
		return "png"
	case KittyRGB:
		return "rgb"
	case KittyRGBA:
		return "rgba"
	default:
		return "KittyFormat(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseKittyFormat resolves png, rgb or rgba.
func ParseKittyFormat(name string) (KittyFormat, error) {
	switch strings.ToLower(name) {
	case "png":
		return KittyPNG, nil
	case "rgb":
		return KittyRGB, nil
	case "rgba":
		return KittyRGBA, nil
	default:
		return 0, fmt.Errorf("unknown kitty format %q: %w", name, ErrConfig)
	}
}

// PNGEncoder encodes an image as PNG. Any error makes the Kitty renderer
// fall back to EncodePNG.
type PNGEncoder func(img image.Image) ([]byte, error)

// StdlibPNG encodes with image/png.
func StdlibPNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// KittyRenderer transmits pixels with the Kitty graphics protocol.
type KittyRenderer struct {
	format   KittyFormat
	compress bool
	columns  int
	rows     int
	encoder  PNGEncoder
	workers  int
}

// Kitty returns a renderer sending PNG payloads encoded with image/png,
// compressing raw formats.
func Kitty() KittyRenderer {
	return KittyRenderer{format: KittyPNG, compress: true, encoder: StdlibPNG}
}

func (r KittyRenderer) WithFormat(f KittyFormat) KittyRenderer {
	r.format = f
	return r
}

// WithCompression toggles zlib compression of raw RGB/RGBA payloads.
func (r KittyRenderer) WithCompression(on bool) KittyRenderer {
	r.compress = on
	return r
}

// WithSize sets the display size in terminal cells, 0 leaves it to the
// terminal.
func (r KittyRenderer) WithSize(columns, rows int) KittyRenderer {
	r.columns = columns
	r.rows = rows
	return r
}

// WithPNGEncoder replaces the codec tried before the built-in PNG writer.
// A nil encoder always uses EncodePNG.
func (r KittyRenderer) WithPNGEncoder(enc PNGEncoder) KittyRenderer {
	r.encoder = enc
	return r
}

// WithWorkers base64 encodes the payload chunks on up to n goroutines.
func (r KittyRenderer) WithWorkers(n int) KittyRenderer {
	r.workers = n
	return r
}

func (r KittyRenderer) Format() KittyFormat { return r.format }
func (r KittyRenderer) CellWidth() int      { return 1 }
func (r KittyRenderer) CellHeight() int     { return 1 }

func (r KittyRenderer) Render(w io.Writer, bitmap *Bitmap, colors *Colors) error {
	if err := validate(bitmap, colors); err != nil {
		return err
	}
	if r.columns < 0 || r.rows < 0 {
		return fmt.Errorf("kitty display size must not be negative: %w", ErrConfig)
	}

	var params strings.Builder
	var data []byte
	switch r.format {
	case KittyPNG:
		data = r.encodePNG(bitmap, colors)
		params.WriteString("a=T,f=100")
	case KittyRGB, KittyRGBA:
		alpha := r.format == KittyRGBA
		data = rawPixels(bitmap, colors, alpha)
		f := 24
		if alpha {
			f = 32
		}
		fmt.Fprintf(&params, "a=T,f=%d", f)
		if r.compress {
			var buf bytes.Buffer
			zw := zlib.NewWriter(&buf)
			if _, err := zw.Write(data); err != nil {
				return fmt.Errorf("failed to compress kitty payload: %w", err)
			}
			if err := zw.Close(); err != nil {
				return fmt.Errorf("failed to compress kitty payload: %w", err)
			}
			data = buf.Bytes()
			params.WriteString(",o=z")
		}
		fmt.Fprintf(&params, ",s=%d,v=%d", bitmap.w, bitmap.h)
	default:
		return fmt.Errorf("unsupported kitty format %s: %w", r.format, ErrConfig)
	}
	if r.columns > 0 {
		fmt.Fprintf(&params, ",c=%d", r.columns)
	}
	if r.rows > 0 {
		fmt.Fprintf(&params, ",r=%d", r.rows)
	}

	if _, err := io.WriteString(w, kittyChunks(params.String(), data, r.workers)); err != nil {
		return fmt.Errorf("failed to write kitty data: %w", err)
	}
	return nil
}

func (r KittyRenderer) encodePNG(bitmap *Bitmap, colors *Colors) []byte {
	if r.encoder != nil {
		if data, err := r.encoder(toImage(bitmap, colors)); err == nil && len(data) > 0 {
			return data
		}
	}
	// validated by the caller, EncodePNG cannot fail here
	data, _ := EncodePNG(bitmap, colors)
	return data
}

// kittyChunks splits the base64 payload into CHUNK_SIZE pieces. Only the
// first carries the control data, every chunk carries m=1 except the last.
func kittyChunks(params string, data []byte, workers int) string {
	chunks := EncodeChunks(data, BASE64_CHUNK_SIZE, workers)
	if len(chunks) == 0 {
		chunks = []string{""}
	}

	var sb strings.Builder
	for i, chunk := range chunks {
		more := 0
		if i < len(chunks)-1 {
			more = 1
		}
		sb.WriteString(KITTY_START)
		if i == 0 {
			sb.WriteString(params)
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "m=%d;%s", more, chunk)
		sb.WriteString(KITTY_END)
	}
	return sb.String()
}

// rawPixels flattens to 8-bit RGB or RGBA, broadcasting gray and using an
// opaque alpha.
func rawPixels(bitmap *Bitmap, colors *Colors, alpha bool) []byte {
	ch := 3
	if alpha {
		ch = 4
	}
	out := make([]byte, 0, len(bitmap.pix)*ch)
	for i, v := range bitmap.pix {
		if colors != nil {
			out = append(out, toByte(colors.pix[i*3]), toByte(colors.pix[i*3+1]), toByte(colors.pix[i*3+2]))
		} else {
			g := toByte(v)
			out = append(out, g, g, g)
		}
		if alpha {
			out = append(out, 0xff)
		}
	}
	return out
}
