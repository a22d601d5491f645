package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for the transforms
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Delimiter      string   // joins composite identifier parts
	PctPlaces      int32    // rounding of importance shares
	Palette        []string // fallback trace colors
	BaseHeight     int      // figure height before per-category growth
	CoverageHeight int      // pixels per identifier in the coverage chart
	CrossHeight    int      // pixels per id1 category in the cross chart
}

// DefaultDelimiter joins the parts of a composite identifier.
const DefaultDelimiter = " - "

// WithDelimiter overrides the composite identifier delimiter.
func WithDelimiter(delim string) Option {
	return func(c *config) {
		c.Delimiter = delim
	}
}

// WithPctPrecision sets the number of decimal digits kept in importance shares.
func WithPctPrecision(places int32) Option {
	return func(c *config) {
		c.PctPlaces = places
	}
}

// WithPalette replaces the default trace colors.
func WithPalette(colors ...string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Palette = colors
		}
	}
}

// WithHeights sets the base figure height and the per-category increments
// used by the coverage and cross-importance charts.
func WithHeights(base, perCoverageID, perCrossID int) Option {
	return func(c *config) {
		c.BaseHeight = base
		c.CoverageHeight = perCoverageID
		c.CrossHeight = perCrossID
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Delimiter:      DefaultDelimiter,
		PctPlaces:      8,
		Palette:        defaultColors,
		BaseHeight:     100,
		CoverageHeight: 25,
		CrossHeight:    40,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
