/*
Package dapple encodes grayscale bitmaps, with optional RGB colors, as
terminal graphics and decodes character art back into bitmaps.

A Canvas holds brightness values in [0, 1] and is rendered by any of the
built-in renderers:

  - Braille: 2×4 dots per character
  - Quadrants and Sextants: 2×2 and 2×3 block mosaics with fg/bg colors
  - ASCII: 1×2 cells mapped onto a brightness ramp
  - Sixel: DEC sixel graphics with a uniform or median-cut palette
  - Kitty: the Kitty graphics protocol carrying PNG or raw pixels
  - Fingerprint: nearest glyph by rendered-font comparison

Renderers are immutable values configured with With* methods.

Basic Usage:

	f, _ := os.Open("photo.png")
	img, _, err := image.Decode(f)
	if err != nil {
	    log.Fatal(err)
	}
	canvas, err := dapple.FromImage(dapple.FitImage(img, 160, 0, dapple.ScaleFit))
	if err != nil {
	    log.Fatal(err)
	}
	canvas.AutoContrast().Out(dapple.Quadrants(), os.Stdout)

Configured renderers:

	r := dapple.Braille().
	    WithAutoThreshold().
	    WithColorMode(dapple.ColorTrueColor)
	s, err := canvas.Render(r)

Decoding:

	canvas, err := dapple.FromANSI(text) // braille, quadrants, sextants or ascii

Inside tmux, wrap Sixel and Kitty output with Passthrough after calling
EnableTmuxPassthrough.
*/
package dapple
