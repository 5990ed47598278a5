package dapple

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/gift"
	"github.com/makeworld-the-better-one/dither/v2"
)

// AutoContrast stretches values so the minimum becomes 0 and the maximum 1.
// A constant bitmap becomes uniform 0.5.
func AutoContrast(b *Bitmap) *Bitmap {
	lo, hi := b.MinMax()
	if hi-lo < 1e-6 {
		return filledBitmap(b.w, b.h, 0.5)
	}
	return b.mapValues(func(v float64) float64 { return (v - lo) / (hi - lo) })
}

// FloydSteinberg dithers to pure 0/1 values, diffusing the quantization
// error 7/16 right, 3/16 below-left, 5/16 below and 1/16 below-right.
func FloydSteinberg(b *Bitmap, threshold float64) *Bitmap {
	return ErrorDiffusion(b, threshold, dither.FloydSteinberg)
}

// ErrorDiffusion dithers to pure 0/1 values with any diffusion matrix. The
// pixel being quantized sits just left of the first non-zero weight of the
// matrix's top row.
func ErrorDiffusion(b *Bitmap, threshold float64, m dither.ErrorDiffusionMatrix) *Bitmap {
	cur := 0
	if len(m) > 0 {
		for i, v := range m[0] {
			if v != 0 {
				cur = i - 1
				break
			}
		}
	}

	img := b.Pix()
	for y := range b.h {
		for x := range b.w {
			old := img[y*b.w+x]
			var q float64
			if old > threshold {
				q = 1
			}
			img[y*b.w+x] = q
			e := old - q
			if e == 0 {
				continue
			}
			for my, row := range m {
				ny := y + my
				if ny >= b.h {
					break
				}
				for mx, weight := range row {
					nx := x + mx - cur
					if weight == 0 || nx < 0 || nx >= b.w {
						continue
					}
					img[ny*b.w+nx] += e * float64(weight)
				}
			}
		}
	}
	return &Bitmap{w: b.w, h: b.h, pix: img}
}

var diffusionMatrices = map[string]dither.ErrorDiffusionMatrix{
	"floyd-steinberg":     dither.FloydSteinberg,
	"atkinson":            dither.Atkinson,
	"stucki":              dither.Stucki,
	"burkes":              dither.Burkes,
	"jarvis-judice-ninke": dither.JarvisJudiceNinke,
	"sierra-lite":         dither.SierraLite,
}

// DiffusionMatrix resolves an error diffusion matrix by name.
func DiffusionMatrix(name string) (dither.ErrorDiffusionMatrix, error) {
	if m, ok := diffusionMatrices[strings.ToLower(name)]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown dither matrix %q: %w", name, ErrConfig)
}

// Invert returns 1 - v for every value.
func Invert(b *Bitmap) *Bitmap {
	return b.mapValues(func(v float64) float64 { return 1 - v })
}

// GammaCorrect clamps to [0, 1] and raises to gamma. Gamma above 1 darkens.
func GammaCorrect(b *Bitmap, gamma float64) *Bitmap {
	return b.mapValues(func(v float64) float64 { return math.Pow(clamp01(v), gamma) })
}

// Sharpen adds strength times the 4-neighbour Laplacian, replicating edge
// pixels, and clamps the result.
func Sharpen(b *Bitmap, strength float64) *Bitmap {
	out := newBitmap(b.w, b.h)
	at := func(x, y int) float64 {
		return b.At(clampInt(x, 0, b.w-1), clampInt(y, 0, b.h-1))
	}
	for y := range b.h {
		for x := range b.w {
			c := b.At(x, y)
			lap := 4*c - at(x, y-1) - at(x, y+1) - at(x-1, y) - at(x+1, y)
			out.pix[y*b.w+x] = clamp01(c + strength*lap)
		}
	}
	return out
}

// Threshold maps values above level to 1 and the rest to 0.
func Threshold(b *Bitmap, level float64) *Bitmap {
	return b.mapValues(func(v float64) float64 {
		if v > level {
			return 1
		}
		return 0
	})
}

// ResizeMethod selects the resampling used by ResizeWith.
type ResizeMethod int

const (
	ResizeBilinear ResizeMethod = iota
	ResizeNearest
	ResizeArea
)

func (m ResizeMethod) String() string {
	switch m {
	case ResizeBilinear:
		return "bilinear"
	case ResizeNearest:
		return "nearest"
	case ResizeArea:
		return "area"
	default:
		return fmt.Sprintf("ResizeMethod(%d)", int(m))
	}
}

// ParseResizeMethod resolves bilinear, nearest or area.
func ParseResizeMethod(name string) (ResizeMethod, error) {
	for _, m := range []ResizeMethod{ResizeBilinear, ResizeNearest, ResizeArea} {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown resize method %q: %w", name, ErrConfig)
}

// Resize resamples bilinearly to width×height.
func Resize(b *Bitmap, width, height int) (*Bitmap, error) {
	return ResizeWith(b, width, height, ResizeBilinear)
}

// ResizeWith resamples with the given method.
func ResizeWith(b *Bitmap, width, height int, method ResizeMethod) (*Bitmap, error) {
	p, err := b.plane().resize(width, height, method)
	if err != nil {
		return nil, err
	}
	return p.bitmap(), nil
}

// Crop extracts the width×height region with its top-left corner at x, y.
func Crop(b *Bitmap, x, y, width, height int) (*Bitmap, error) {
	p, err := b.plane().crop(x, y, width, height)
	if err != nil {
		return nil, err
	}
	return p.bitmap(), nil
}

// FlipDirection is the mirror axis used by Flip.
type FlipDirection int

const (
	// FlipHorizontal mirrors left to right
	FlipHorizontal FlipDirection = iota
	// FlipVertical mirrors top to bottom
	FlipVertical
)

// ParseFlipDirection accepts "h"/"horizontal" and "v"/"vertical".
func ParseFlipDirection(name string) (FlipDirection, error) {
	switch strings.ToLower(name) {
	case "h", "horizontal":
		return FlipHorizontal, nil
	case "v", "vertical":
		return FlipVertical, nil
	default:
		return 0, fmt.Errorf("flip direction must be h or v, got %q: %w", name, ErrConfig)
	}
}

func Flip(b *Bitmap, dir FlipDirection) *Bitmap {
	return b.plane().flip(dir).bitmap()
}

// Rotate turns the bitmap counter-clockwise by a multiple of 90 degrees
// without resampling. Other angles need RotateResampled.
func Rotate(b *Bitmap, degrees float64) (*Bitmap, error) {
	k, err := quarterTurns(degrees)
	if err != nil {
		return nil, err
	}
	return b.plane().rot90(k).bitmap(), nil
}

// quarterTurns normalizes an angle to 0-3 counter-clockwise quarter turns.
func quarterTurns(degrees float64) (int, error) {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return 0, nil
	case 90:
		return 1, nil
	case 180:
		return 2, nil
	case 270:
		return 3, nil
	default:
		return 0, fmt.Errorf("exact rotation needs a multiple of 90 degrees, got %g: %w", degrees, ErrConfig)
	}
}

// RotateResampled rotates counter-clockwise by any angle with bilinear
// interpolation. The output grows to fit the rotated content and uncovered
// areas are 0.
func RotateResampled(b *Bitmap, degrees float64) *Bitmap {
	if k, err := quarterTurns(degrees); err == nil {
		return b.plane().rot90(k).bitmap()
	}

	src := image.NewGray16(image.Rect(0, 0, b.w, b.h))
	for y := range b.h {
		for x := range b.w {
			src.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(clamp01(b.At(x, y)) * 0xffff))})
		}
	}
	g := gift.New(gift.Rotate(float32(degrees), color.Black, gift.LinearInterpolation))
	dst := image.NewGray16(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	bounds := dst.Bounds()
	out := newBitmap(bounds.Dx(), bounds.Dy())
	for y := range out.h {
		for x := range out.w {
			out.pix[y*out.w+x] = float64(dst.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y) / 0xffff
		}
	}
	return out
}
