/*
Copyright © 2024 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/apex/log"
	"github.com/blacktop/go-dapple"
	"github.com/blacktop/go-dapple/pkg/csi"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/term"
)

const (
	defaultColumns = 80
	// pixels per terminal cell assumed for the Sixel and Kitty renderers
	// when the terminal does not report its cell size
	cellPixelWidth  = 8
	cellPixelHeight = 16
)

type renderOptions struct {
	renderer      string
	width         int
	height        int
	scale         string
	color         string
	ansi256       bool
	threshold     float64
	autoThreshold bool
	charset       string
	invert        bool
	maxColors     int
	palette       string
	kittyFormat   string
	glyphs        string
	workers       int
	contrast      bool
	dither        bool
	gamma         float64
	sharpen       float64
	tint          string
	noColor       bool
	tmux          bool

	// pixel size of a terminal cell, when the terminal reports it
	cellWidth  int
	cellHeight int
}

var ropts renderOptions

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&ropts.renderer, "renderer", "r", "braille", "Renderer: braille, quadrants, sextants, ascii, sixel, kitty or fingerprint")
	f.IntVarP(&ropts.width, "width", "W", 0, "Output width in terminal columns (default: terminal width)")
	f.IntVarP(&ropts.height, "height", "H", 0, "Output height in terminal rows (default: keep aspect ratio)")
	f.StringVarP(&ropts.scale, "scale", "s", "fit", "Scale mode: none, fit, fill or stretch")
	f.StringVar(&ropts.color, "color", "none", "Braille color mode: none, grayscale or truecolor")
	f.BoolVar(&ropts.ansi256, "256", false, "Use the 256 color palette instead of truecolor for block renderers")
	f.Float64VarP(&ropts.threshold, "threshold", "t", 0.5, "Braille dot threshold")
	f.BoolVar(&ropts.autoThreshold, "auto-threshold", false, "Use the image mean as braille threshold")
	f.StringVar(&ropts.charset, "charset", "standard", "ASCII charset: standard, detailed, blocks or simple")
	f.BoolVarP(&ropts.invert, "invert", "i", false, "Invert brightness")
	f.IntVar(&ropts.maxColors, "max-colors", 256, "Sixel palette size")
	f.StringVar(&ropts.palette, "palette", "uniform", "Sixel palette: uniform or median-cut")
	f.StringVar(&ropts.kittyFormat, "kitty-format", "png", "Kitty transmission format: png, rgb or rgba")
	f.StringVar(&ropts.glyphs, "glyphs", "basic", "Fingerprint glyph set: basic, blocks, braille or extended")
	f.IntVarP(&ropts.workers, "workers", "j", 0, "Number of rows rendered concurrently")
	f.BoolVar(&ropts.contrast, "contrast", false, "Stretch brightness to the full range")
	f.BoolVarP(&ropts.dither, "dither", "d", false, "Apply Floyd-Steinberg dithering")
	f.Float64Var(&ropts.gamma, "gamma", 1, "Gamma correction")
	f.Float64Var(&ropts.sharpen, "sharpen", 0, "Sharpen strength")
	f.StringVar(&ropts.tint, "tint", "", "Color the output with a hex color, e.g. #ff8800")
	f.BoolVar(&ropts.noColor, "no-color", false, "Drop image colors")
	f.BoolVar(&ropts.tmux, "tmux", false, "Wrap graphics for tmux passthrough (default: auto-detect)")
}

var renderCmd = &cobra.Command{
	Use:   "render <IMAGE>",
	Short: "Display an image in your terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if dapple.InTmux() {
			ropts.tmux = true
		}
		if csi.Supported() {
			if w, h, ok := csi.CellSize(cmd.Context()); ok {
				log.Debugf("Terminal cell size: %dx%d pixels", w, h)
				ropts.cellWidth, ropts.cellHeight = w, h
			}
		}
		r, err := ropts.build()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open image: %w", err)
		}
		defer f.Close()
		img, format, err := image.Decode(f)
		if err != nil {
			return fmt.Errorf("failed to decode image: %w", err)
		}
		log.WithFields(log.Fields{
			"format": format,
			"size":   img.Bounds().Size().String(),
		}).Debug("Decoded image")

		canvas, err := ropts.canvas(img, r, terminalColumns())
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"renderer": ropts.renderer,
			"width":    canvas.Width(),
			"height":   canvas.Height(),
		}).Debug("Rendering canvas")

		if ropts.tmux && dapple.InTmux() && !dapple.EnableTmuxPassthrough() {
			log.Warn("Failed to enable tmux passthrough")
		}
		if err := canvas.Out(r, os.Stdout); err != nil {
			return err
		}
		fmt.Println()
		return nil
	},
}

func terminalColumns() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultColumns
}

// build returns the configured renderer.
func (o renderOptions) build() (dapple.Renderer, error) {
	format, err := dapple.ParseFormat(o.renderer)
	if err != nil {
		return nil, err
	}
	switch format {
	case dapple.FormatBraille:
		mode, err := dapple.ParseColorMode(o.color)
		if err != nil {
			return nil, err
		}
		r := dapple.Braille().WithColorMode(mode).WithWorkers(o.workers)
		if o.autoThreshold {
			return r.WithAutoThreshold(), nil
		}
		return r.WithThreshold(o.threshold), nil
	case dapple.FormatQuadrants:
		return dapple.Quadrants().
			WithTrueColor(!o.ansi256).
			WithGrayscale(o.noColor).
			WithWorkers(o.workers), nil
	case dapple.FormatSextants:
		return dapple.Sextants().
			WithTrueColor(!o.ansi256).
			WithGrayscale(o.noColor).
			WithWorkers(o.workers), nil
	case dapple.FormatASCII:
		charset, err := dapple.ParseCharset(o.charset)
		if err != nil {
			return nil, err
		}
		return dapple.ASCII().WithCharset(charset).WithWorkers(o.workers), nil
	case dapple.FormatSixel:
		palette, err := dapple.ParsePaletteMode(o.palette)
		if err != nil {
			return nil, err
		}
		return o.passthrough(dapple.Sixel().WithMaxColors(o.maxColors).WithPalette(palette)), nil
	case dapple.FormatKitty:
		kf, err := dapple.ParseKittyFormat(o.kittyFormat)
		if err != nil {
			return nil, err
		}
		return o.passthrough(dapple.Kitty().WithFormat(kf).WithWorkers(o.workers)), nil
	case dapple.FormatFingerprint:
		set, err := dapple.ParseGlyphSet(o.glyphs)
		if err != nil {
			return nil, err
		}
		return dapple.Fingerprint().WithGlyphSet(set).WithWorkers(o.workers), nil
	default:
		return nil, fmt.Errorf("unsupported renderer %s: %w", format, dapple.ErrConfig)
	}
}

func (o renderOptions) passthrough(r dapple.Renderer) dapple.Renderer {
	if o.tmux {
		return dapple.Passthrough(r)
	}
	return r
}

// targetSize converts the requested size in terminal cells to pixels. A
// zero height keeps the aspect ratio.
func (o renderOptions) targetSize(r dapple.Renderer, columns int) (width, height int) {
	cw, ch := r.CellWidth(), r.CellHeight()
	if cw == 1 && ch == 1 {
		cw, ch = cellPixelWidth, cellPixelHeight
		if o.cellWidth > 0 && o.cellHeight > 0 {
			cw, ch = o.cellWidth, o.cellHeight
		}
	}
	if o.width > 0 {
		columns = o.width
	}
	return columns * cw, o.height * ch
}

// canvas scales img for r and applies the preprocessing flags.
func (o renderOptions) canvas(img image.Image, r dapple.Renderer, columns int) (*dapple.Canvas, error) {
	mode, err := dapple.ParseScaleMode(o.scale)
	if err != nil {
		return nil, err
	}
	width, height := o.targetSize(r, columns)
	img = dapple.FitImage(dapple.CellAspect(img, r), width, height, mode)

	var canvas *dapple.Canvas
	if o.noColor {
		canvas, err = dapple.FromGrayImage(img)
	} else {
		canvas, err = dapple.FromImage(img)
	}
	if err != nil {
		return nil, err
	}

	if o.contrast {
		canvas = canvas.AutoContrast()
	}
	if o.gamma > 0 && o.gamma != 1 {
		canvas = canvas.Gamma(o.gamma)
	}
	if o.sharpen > 0 {
		canvas = canvas.Sharpen(o.sharpen)
	}
	if o.dither {
		canvas = canvas.Dither(0.5)
	}
	if o.invert {
		canvas = canvas.WithInvert()
	}
	if o.tint != "" {
		c, err := colorful.Hex(o.tint)
		if err != nil {
			return nil, fmt.Errorf("invalid tint %q: %w", o.tint, dapple.ErrConfig)
		}
		canvas = canvas.Tint(c.R, c.G, c.B)
	}
	return canvas, nil
}
