package dapple

// Glyph tables shared by the bit-pattern renderers and the ANSI decoder.

const (
	brailleBase = 0x2800
	sextantBase = 0x1FB00
)

// brailleBits maps [row][col] inside a 2×4 cell to its bit in the
// codepoint offset from U+2800.
var brailleBits = [4][2]uint{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// quadrantGlyphs is indexed by a pattern with TL=8, TR=4, BL=2, BR=1.
var quadrantGlyphs = []rune(" ▗▖▄▝▐▞▟▘▚▌▙▀▜▛█")

// quadrantWeights lists the bit of each sub-pixel in row-major order.
var quadrantWeights = []int{8, 4, 2, 1}

// sextantWeights lists the bit of each sub-pixel in row-major order, the
// top-left pixel carrying the most significant bit.
var sextantWeights = []int{32, 16, 8, 4, 2, 1}

// sextantRune maps a 6-bit pattern (weights from sextantWeights) to its
// glyph. Unicode orders sextants with bit i set for cell i, and leaves out
// the three patterns already covered by ▌, ▐ and █.
func sextantRune(pattern int) rune {
	up := 0
	for i, w := range sextantWeights {
		if pattern&w != 0 {
			up |= 1 << i
		}
	}
	switch up {
	case 0:
		return ' '
	case 63:
		return '█'
	case 21:
		return '▌'
	case 42:
		return '▐'
	}
	skip := 0
	if up > 21 {
		skip++
	}
	if up > 42 {
		skip++
	}
	return rune(sextantBase + up - 1 - skip)
}

// sextantPattern is the inverse of sextantRune in Unicode bit order (bit i
// is cell i in row-major order).
func sextantPattern(r rune) (int, bool) {
	switch r {
	case ' ':
		return 0, true
	case '█':
		return 63, true
	case '▌':
		return 21, true
	case '▐':
		return 42, true
	}
	off := int(r) - sextantBase
	if off < 0 || off >= 60 {
		return 0, false
	}
	up := off + 1
	if up >= 21 {
		up++
	}
	if up >= 42 {
		up++
	}
	return up, true
}

func quadrantPattern(r rune) (int, bool) {
	for i, g := range quadrantGlyphs {
		if g == r {
			return i, true
		}
	}
	return 0, false
}

func isBraille(r rune) bool {
	return r >= brailleBase && r <= brailleBase+0xFF
}
