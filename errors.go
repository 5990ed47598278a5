package dapple

import "errors"

var (
	// ErrShape reports a bitmap or color array with an invalid shape, or
	// coordinates outside a canvas.
	ErrShape = errors.New("invalid shape")
	// ErrDimensionMismatch reports canvases that cannot be stacked.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrConfig reports an unknown renderer, preset, glyph set or color name,
	// or an otherwise unusable renderer configuration.
	ErrConfig = errors.New("invalid configuration")
	// ErrFormatDetection reports text the ANSI decoder cannot classify.
	ErrFormatDetection = errors.New("cannot detect format")
	// ErrUnavailable reports a missing optional capability such as a font
	// rasterizer or an external PNG encoder.
	ErrUnavailable = errors.New("capability unavailable")
)
