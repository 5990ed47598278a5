package dapple

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
)

// GlyphSet names the candidate characters of the Fingerprint renderer.
type GlyphSet int

const (
	GlyphsBasic GlyphSet = iota
	GlyphsBlocks
	GlyphsBraille
	GlyphsExtended
)

var glyphSetNames = []string{"basic", "blocks", "braille", "extended"}

func (s GlyphSet) String() string {
	if int(s) >= 0 && int(s) < len(glyphSetNames) {
		return glyphSetNames[s]
	}
	return fmt.Sprintf("GlyphSet(%d)", int(s))
}

// ParseGlyphSet resolves basic, blocks, braille or extended.
func ParseGlyphSet(name string) (GlyphSet, error) {
	for i, n := range glyphSetNames {
		if strings.EqualFold(n, name) {
			return GlyphSet(i), nil
		}
	}
	return 0, fmt.Errorf("unknown glyph set %q: %w", name, ErrConfig)
}

const blockGlyphs = " ▀▁▂▃▄▅▆▇█▉▊▋▌▍▎▏▐░▒▓" +
	"─━│┃┄┅┆┇┈┉┊┋┌┍┎┏┐┑┒┓└┕┖┗┘┙┚┛├┝┞┟┠┡┢┣┤┥┦┧┨┩┪┫┬┭┮┯┰┱┲┳┴┵┶┷┸┹┺┻┼┽┾┿╀╁╂╃╄╅╆╇╈╉╊╋" +
	"╌╍╎╏═║╒╓╔╕╖╗╘╙╚╛╜╝╞╟╠╡╢╣╤╥╦╧╨╩╪╫╬" +
	"▖▗▘▙▚▛▜▝▞▟"

// Runes lists the candidate characters in matching order.
func (s GlyphSet) Runes() []rune {
	var basic, braille []rune
	for r := rune(32); r < 127; r++ {
		basic = append(basic, r)
	}
	for i := range 256 {
		braille = append(braille, rune(brailleBase+i))
	}
	switch s {
	case GlyphsBasic:
		return basic
	case GlyphsBlocks:
		return []rune(blockGlyphs)
	case GlyphsBraille:
		return braille
	case GlyphsExtended:
		out := append(basic, []rune(blockGlyphs)...)
		return append(out, braille...)
	default:
		return nil
	}
}

// Metric is the distance used to compare a cell with a glyph.
type Metric int

const (
	MetricMSE Metric = iota
	MetricMAE
)

func (m Metric) String() string {
	if m == MetricMAE {
		return "mae"
	}
	return "mse"
}

// ParseMetric resolves mse or mae.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(name) {
	case "mse":
		return MetricMSE, nil
	case "mae":
		return MetricMAE, nil
	default:
		return 0, fmt.Errorf("unknown metric %q: %w", name, ErrConfig)
	}
}

// GlyphTable is a rendered glyph set: one flattened cell bitmap per rune.
type GlyphTable struct {
	runes []rune
	stack []float64
	size  int
}

func (t *GlyphTable) Runes() []rune { return t.runes }
func (t *GlyphTable) Len() int      { return len(t.runes) }

// nearest returns the index of the glyph closest to cell. Ties go to the
// earlier glyph.
func (t *GlyphTable) nearest(cell []float64, metric Metric) int {
	best, bestDist := 0, math.Inf(1)
	for g := range t.runes {
		glyph := t.stack[g*t.size : (g+1)*t.size]
		var d float64
		for i, v := range cell {
			diff := v - glyph[i]
			if metric == MetricMAE {
				d += math.Abs(diff)
			} else {
				d += diff * diff
			}
		}
		if d < bestDist {
			best, bestDist = g, d
		}
	}
	return best
}

// FingerprintRenderer picks, for every cell, the glyph whose rendered
// bitmap is closest to the cell's pixels.
type FingerprintRenderer struct {
	glyphSet   GlyphSet
	cellWidth  int
	cellHeight int
	metric     Metric
	rasterizer Rasterizer
	cache      *GlyphCache
	workers    int
}

// Fingerprint returns a renderer matching 8×16 cells against printable
// ASCII drawn with the embedded Go Mono font.
func Fingerprint() FingerprintRenderer {
	r := FingerprintRenderer{glyphSet: GlyphsBasic, cellWidth: 8, cellHeight: 16}
	if ras, err := GoMono(); err == nil {
		r.rasterizer = ras
	}
	return r
}

func (r FingerprintRenderer) WithGlyphSet(s GlyphSet) FingerprintRenderer {
	r.glyphSet = s
	return r
}

func (r FingerprintRenderer) WithCellSize(width, height int) FingerprintRenderer {
	r.cellWidth = width
	r.cellHeight = height
	return r
}

func (r FingerprintRenderer) WithMetric(m Metric) FingerprintRenderer {
	r.metric = m
	return r
}

// WithRasterizer replaces the glyph source. A nil rasterizer makes Render
// fail with ErrUnavailable.
func (r FingerprintRenderer) WithRasterizer(ras Rasterizer) FingerprintRenderer {
	r.rasterizer = ras
	return r
}

// WithCache shares rendered glyph tables across renders. Without a cache
// every Render rasterizes its glyph set again.
func (r FingerprintRenderer) WithCache(c *GlyphCache) FingerprintRenderer {
	r.cache = c
	return r
}

func (r FingerprintRenderer) WithWorkers(n int) FingerprintRenderer {
	r.workers = n
	return r
}

func (r FingerprintRenderer) GlyphSet() GlyphSet { return r.glyphSet }
func (r FingerprintRenderer) Metric() Metric     { return r.metric }
func (r FingerprintRenderer) CellWidth() int     { return r.cellWidth }
func (r FingerprintRenderer) CellHeight() int    { return r.cellHeight }

// Key returns the cache key of this configuration.
func (r FingerprintRenderer) Key() GlyphKey {
	key := GlyphKey{Set: r.glyphSet, CellWidth: r.cellWidth, CellHeight: r.cellHeight}
	if r.rasterizer != nil {
		key.Font = r.rasterizer.Name()
	}
	return key
}

func (r FingerprintRenderer) Render(w io.Writer, bitmap *Bitmap, colors *Colors) error {
	if err := validate(bitmap, colors); err != nil {
		return err
	}
	if r.cellWidth <= 0 || r.cellHeight <= 0 {
		return fmt.Errorf("cell size must be positive, got %dx%d: %w", r.cellWidth, r.cellHeight, ErrConfig)
	}
	if r.rasterizer == nil {
		return fmt.Errorf("fingerprint renderer has no glyph rasterizer: %w", ErrUnavailable)
	}

	cache := r.cache
	if cache == nil {
		cache = NewGlyphCache(1)
	}
	table, err := cache.Load(r.Key(), r.rasterizer)
	if err != nil {
		return err
	}

	cw, ch := r.cellWidth, r.cellHeight
	cols, rows := gridSize(bitmap, cw, ch)
	return renderRows(w, rows, r.workers, func(cy int) string {
		var sb strings.Builder
		cell := make([]float64, cw*ch)
		for cx := range cols {
			bitmap.cell(cell, cx*cw, cy*ch, cw, ch)
			sb.WriteRune(table.runes[table.nearest(cell, r.metric)])
		}
		return sb.String()
	})
}

// GlyphKey identifies a rendered glyph table.
type GlyphKey struct {
	Set        GlyphSet
	CellWidth  int
	CellHeight int
	Font       string
}

const DefaultGlyphCacheSize = 16

// GlyphCache keeps rendered glyph tables with LRU eviction. It is safe for
// concurrent use.
type GlyphCache struct {
	tables      map[GlyphKey]*GlyphTable
	accessOrder []GlyphKey // most recently used first
	mutex       sync.Mutex
	maxSize     int
}

// NewGlyphCache holds up to maxSize tables, DefaultGlyphCacheSize when
// maxSize is not positive.
func NewGlyphCache(maxSize int) *GlyphCache {
	if maxSize <= 0 {
		maxSize = DefaultGlyphCacheSize
	}
	return &GlyphCache{
		tables:  make(map[GlyphKey]*GlyphTable),
		maxSize: maxSize,
	}
}

// Load returns the table for key, rasterizing it on first use. Glyphs the
// rasterizer cannot draw are skipped; a table without any glyph is an
// ErrUnavailable error and is not cached.
func (gc *GlyphCache) Load(key GlyphKey, ras Rasterizer) (*GlyphTable, error) {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()

	if t, ok := gc.tables[key]; ok {
		gc.touch(key)
		return t, nil
	}

	t := &GlyphTable{size: key.CellWidth * key.CellHeight}
	for _, g := range key.Set.Runes() {
		bm, err := ras.Rasterize(g, key.CellWidth, key.CellHeight)
		if err != nil || bm.w != key.CellWidth || bm.h != key.CellHeight {
			continue
		}
		t.runes = append(t.runes, g)
		t.stack = append(t.stack, bm.pix...)
	}
	if len(t.runes) == 0 {
		return nil, fmt.Errorf("no glyphs of set %s could be rendered with %q: %w", key.Set, key.Font, ErrUnavailable)
	}

	for len(gc.tables) >= gc.maxSize {
		gc.evictLRU()
	}
	gc.tables[key] = t
	gc.accessOrder = append([]GlyphKey{key}, gc.accessOrder...)
	return t, nil
}

// Len returns the number of cached tables.
func (gc *GlyphCache) Len() int {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()
	return len(gc.tables)
}

// Contains reports whether key is cached, without touching its LRU slot.
func (gc *GlyphCache) Contains(key GlyphKey) bool {
	gc.mutex.Lock()
	defer gc.mutex.Unlock()
	_, ok := gc.tables[key]
	return ok
}

func (gc *GlyphCache) Clear() {
	gc.mutex.Lock()
	gc.tables = make(map[GlyphKey]*GlyphTable)
	gc.accessOrder = nil
	gc.mutex.Unlock()
}

func (gc *GlyphCache) touch(key GlyphKey) {
	for i, k := range gc.accessOrder {
		if k == key {
			gc.accessOrder = append(gc.accessOrder[:i], gc.accessOrder[i+1:]...)
			break
		}
	}
	gc.accessOrder = append([]GlyphKey{key}, gc.accessOrder...)
}

func (gc *GlyphCache) evictLRU() {
	if len(gc.accessOrder) == 0 {
		return
	}
	lru := gc.accessOrder[len(gc.accessOrder)-1]
	gc.accessOrder = gc.accessOrder[:len(gc.accessOrder)-1]
	delete(gc.tables, lru)
}
