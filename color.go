package dapple

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	ESC   = "\x1b"
	RESET = "\x1b[0m"
)

// ColorMode selects how the Braille renderer colors its glyphs.
type ColorMode int

const (
	ColorNone ColorMode = iota
	ColorGrayscale
	ColorTrueColor
)

func (m ColorMode) String() string {
	switch m {
	case ColorNone:
		return "none"
	case ColorGrayscale:
		return "grayscale"
	case ColorTrueColor:
		return "truecolor"
	default:
		return "ColorMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseColorMode resolves a color mode by name.
func ParseColorMode(name string) (ColorMode, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return ColorNone, nil
	case "grayscale", "gray", "grey":
		return ColorGrayscale, nil
	case "truecolor", "24bit", "rgb":
		return ColorTrueColor, nil
	default:
		return ColorNone, fmt.Errorf("unknown color mode %q: %w", name, ErrConfig)
	}
}

// luminance uses ITU-R BT.601 weights.
func luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func clampInt(v, lo, hi int) int {
	return min(hi, max(lo, v))
}

// sgr writes a single Select Graphic Rendition sequence.
func sgr(sb *strings.Builder, params ...int) {
	sb.WriteString("\x1b[")
	for i, p := range params {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.Itoa(p))
	}
	sb.WriteByte('m')
}

// layer returns the SGR selector for foreground (38) or background (48).
func layer(fg bool) int {
	if fg {
		return 38
	}
	return 48
}

// writeGray emits a gray level as truecolor or as the 24 step gray ramp.
func writeGray(sb *strings.Builder, v float64, fg, trueColor bool) {
	if trueColor {
		c := int(v * 255)
		sgr(sb, layer(fg), 2, c, c, c)
		return
	}
	sgr(sb, layer(fg), 5, 232+int(v*23))
}

// writeRGB emits a color as truecolor or as the 6×6×6 color cube.
func writeRGB(sb *strings.Builder, r, g, b float64, fg, trueColor bool) {
	if trueColor {
		sgr(sb, layer(fg), 2, int(r*255), int(g*255), int(b*255))
		return
	}
	sgr(sb, layer(fg), 5, 16+36*int(r*5)+6*int(g*5)+int(b*5))
}

// basicPalette holds the 16 standard terminal colors in SGR order
// (30-37 then 90-97).
var basicPalette = [16][3]uint8{
	{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
	{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
	{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// ansi256 maps a 256-color index to 8-bit RGB.
func ansi256(n int) (r, g, b uint8) {
	switch {
	case n < 16:
		c := basicPalette[clampInt(n, 0, 15)]
		return c[0], c[1], c[2]
	case n < 232:
		n -= 16
		return uint8((n / 36) * 51), uint8(((n % 36) / 6) * 51), uint8((n % 6) * 51)
	default:
		v := uint8((clampInt(n, 232, 255) - 232) * 256 / 24)
		return v, v, v
	}
}
