package dapple

import (
	"fmt"
	"image"
	"io"

	"github.com/mattn/go-sixel"
	"github.com/nfnt/resize"
)

// FromImage converts any image to a canvas. Brightness uses BT.601 luma;
// the RGB values become the canvas colors.
func FromImage(img image.Image, opts ...CanvasOption) (*Canvas, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("image is empty: %w", ErrShape)
	}

	colors := newColors(w, h)
	for y := range h {
		for x := range w {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (y*w + x) * 3
			colors.pix[i] = float64(r) / 0xffff
			colors.pix[i+1] = float64(g) / 0xffff
			colors.pix[i+2] = float64(b) / 0xffff
		}
	}
	return NewCanvas(colors.Luminance(), append([]CanvasOption{WithColors(colors)}, opts...)...)
}

// FromGrayImage converts an image to a canvas without colors.
func FromGrayImage(img image.Image, opts ...CanvasOption) (*Canvas, error) {
	c, err := FromImage(img)
	if err != nil {
		return nil, err
	}
	return NewCanvas(c.bitmap, opts...)
}

// ToImage returns an 8-bit image: RGBA when the canvas has colors, Gray
// otherwise.
func (c *Canvas) ToImage() image.Image {
	return toImage(c.bitmap, c.colors)
}

func toImage(bitmap *Bitmap, colors *Colors) image.Image {
	if colors != nil {
		return colors.toRGBA()
	}
	img := image.NewGray(image.Rect(0, 0, bitmap.w, bitmap.h))
	for i, v := range bitmap.pix {
		img.Pix[(i/bitmap.w)*img.Stride+i%bitmap.w] = toByte(v)
	}
	return img
}

// FromSixel decodes a DEC sixel sequence into a canvas.
func FromSixel(r io.Reader, opts ...CanvasOption) (*Canvas, error) {
	var img image.Image
	if err := sixel.NewDecoder(r).Decode(&img); err != nil {
		return nil, fmt.Errorf("failed to decode sixel data: %w", err)
	}
	if img == nil {
		return nil, fmt.Errorf("sixel data contains no image: %w", ErrFormatDetection)
	}
	return FromImage(img, opts...)
}

// ScaleMode controls how FitImage maps an image onto a target box.
type ScaleMode int

const (
	ScaleNone    ScaleMode = iota // keep the original size
	ScaleFit                      // fit within bounds, keep aspect ratio
	ScaleFill                     // fill bounds, keep aspect ratio, crop the overflow
	ScaleStretch                  // stretch to the exact size
)

func (m ScaleMode) String() string {
	switch m {
	case ScaleNone:
		return "none"
	case ScaleFit:
		return "fit"
	case ScaleFill:
		return "fill"
	case ScaleStretch:
		return "stretch"
	default:
		return fmt.Sprintf("ScaleMode(%d)", int(m))
	}
}

// ParseScaleMode resolves none, fit, fill or stretch.
func ParseScaleMode(name string) (ScaleMode, error) {
	for _, m := range []ScaleMode{ScaleNone, ScaleFit, ScaleFill, ScaleStretch} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown scale mode %q: %w", name, ErrConfig)
}

// FitImage scales img to a width×height pixel box. A zero dimension is
// derived from the other one and the aspect ratio.
func FitImage(img image.Image, width, height int, mode ScaleMode) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if mode == ScaleNone || srcW == 0 || srcH == 0 || (width <= 0 && height <= 0) {
		return img
	}

	switch {
	case width <= 0:
		width = max(1, height*srcW/srcH)
	case height <= 0:
		height = max(1, width*srcH/srcW)
	}

	targetW, targetH := width, height
	switch mode {
	case ScaleFit:
		ratio := min(float64(width)/float64(srcW), float64(height)/float64(srcH))
		targetW = max(1, int(float64(srcW)*ratio))
		targetH = max(1, int(float64(srcH)*ratio))
	case ScaleFill:
		ratio := max(float64(width)/float64(srcW), float64(height)/float64(srcH))
		targetW = max(1, int(float64(srcW)*ratio))
		targetH = max(1, int(float64(srcH)*ratio))
	}

	resized := ResizeImage(img, uint(targetW), uint(targetH))
	if mode == ScaleFill {
		return CropImageCenter(resized, width, height)
	}
	return resized
}

// ResizeImage picks a cheap interpolation for large downscales and a
// sharper one otherwise.
func ResizeImage(img image.Image, width, height uint) image.Image {
	bounds := img.Bounds()
	if uint(bounds.Dx()) == width && uint(bounds.Dy()) == height {
		return img
	}
	interp := resize.Lanczos3
	if bounds.Dx()*bounds.Dy() > int(width*height)*16 {
		interp = resize.Bilinear
	}
	return resize.Resize(width, height, img, interp)
}

// CropImageCenter crops to the target size around the center.
func CropImageCenter(img image.Image, targetWidth, targetHeight int) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if targetWidth >= srcW && targetHeight >= srcH {
		return img
	}
	targetWidth = min(targetWidth, srcW)
	targetHeight = min(targetHeight, srcH)

	offsetX := (srcW - targetWidth) / 2
	offsetY := (srcH - targetHeight) / 2
	cropped := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	for y := range targetHeight {
		for x := range targetWidth {
			cropped.Set(x, y, img.At(bounds.Min.X+offsetX+x, bounds.Min.Y+offsetY+y))
		}
	}
	return cropped
}

// CellAspect squashes an image vertically so that renderer cells, which
// sit in terminal cells roughly twice as tall as wide, keep the picture's
// proportions.
func CellAspect(img image.Image, r Renderer) image.Image {
	if r.CellWidth() == 1 && r.CellHeight() == 1 {
		return img
	}
	const terminalCellRatio = 0.5
	aspect := float64(r.CellHeight()) / float64(r.CellWidth()) * terminalCellRatio
	b := img.Bounds()
	h := int(float64(b.Dy()) * aspect)
	if h <= 0 || h == b.Dy() {
		return img
	}
	return resize.Resize(uint(b.Dx()), uint(h), img, resize.Lanczos3)
}
