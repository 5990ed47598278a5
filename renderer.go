package dapple

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Renderer encodes a bitmap, with optional colors, as terminal text.
type Renderer interface {
	// CellWidth is the number of source pixels per output column
	CellWidth() int
	// CellHeight is the number of source pixels per output row
	CellHeight() int
	// Render writes the encoded bitmap to w
	Render(w io.Writer, bitmap *Bitmap, colors *Colors) error
}

type Format int

const (
	FormatBraille Format = iota
	FormatQuadrants
	FormatSextants
	FormatASCII
	FormatSixel
	FormatKitty
	FormatFingerprint
)

var formatNames = map[Format]string{
	FormatBraille:     "braille",
	FormatQuadrants:   "quadrants",
	FormatSextants:    "sextants",
	FormatASCII:       "ascii",
	FormatSixel:       "sixel",
	FormatKitty:       "kitty",
	FormatFingerprint: "fingerprint",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// ParseFormat resolves a renderer name.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown renderer %q: %w", name, ErrConfig)
}

// NewRenderer returns the renderer for the given format with its default
// configuration.
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatBraille:
		return Braille(), nil
	case FormatQuadrants:
		return Quadrants(), nil
	case FormatSextants:
		return Sextants(), nil
	case FormatASCII:
		return ASCII(), nil
	case FormatSixel:
		return Sixel(), nil
	case FormatKitty:
		return Kitty(), nil
	case FormatFingerprint:
		return Fingerprint(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s: %w", format, ErrConfig)
	}
}

// gridSize returns the output size in characters for a cell geometry.
func gridSize(b *Bitmap, cw, ch int) (cols, rows int) {
	return (b.w + cw - 1) / cw, (b.h + ch - 1) / ch
}

// cell copies a cw×ch block starting at (x0, y0), zero padded past the
// bitmap edge. It returns the size of the part inside the bitmap.
func (b *Bitmap) cell(dst []float64, x0, y0, cw, ch int) (vw, vh int) {
	vw, vh = min(cw, b.w-x0), min(ch, b.h-y0)
	for i := range dst {
		dst[i] = 0
	}
	for y := range vh {
		copy(dst[y*cw:y*cw+vw], b.pix[(y0+y)*b.w+x0:])
	}
	return vw, vh
}

// meanColor averages the colors of the valid region of a cell.
func (c *Colors) meanColor(x0, y0, vw, vh int) (r, g, b float64) {
	for y := y0; y < y0+vh; y++ {
		for x := x0; x < x0+vw; x++ {
			cr, cg, cb := c.At(x, y)
			r += cr
			g += cg
			b += cb
		}
	}
	n := float64(vw * vh)
	return r / n, g / n, b / n
}

// renderRows writes one line per output row, separated by newlines and
// without a trailing newline. With more than one worker the rows are built
// concurrently and then written in order.
func renderRows(w io.Writer, rows, workers int, row func(y int) string) error {
	if workers <= 1 {
		for y := range rows {
			line := row(y)
			if y > 0 {
				line = "\n" + line
			}
			if _, err := io.WriteString(w, line); err != nil {
				return fmt.Errorf("failed to write row %d: %w", y, err)
			}
		}
		return nil
	}

	lines := make([]string, rows)
	var g errgroup.Group
	g.SetLimit(workers)
	for y := range rows {
		g.Go(func() error {
			lines[y] = row(y)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}
