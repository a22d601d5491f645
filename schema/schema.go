package schema

// ============================================================================
// SCHEMA — Describes the shape of a dataset for the loaders and the CLI
// ============================================================================
// Auto-discovered from data sources or written by hand (JSON / YAML).
// Loaders use the schema to type each column: identifier and categorical
// columns become dimensions, numeric columns measures, dates times.
// ============================================================================

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name" mapstructure:"name"`
	Version     string `json:"version,omitempty" mapstructure:"version"`
	Description string `json:"description,omitempty" mapstructure:"description"`

	Dimensions []DimensionMeta `json:"dimensions" mapstructure:"dimensions"`
	Measures   []MeasureMeta   `json:"measures" mapstructure:"measures"`
	Times      []TimeMeta      `json:"times" mapstructure:"times"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty" mapstructure:"discovered_from"`
	DiscoveredAt   string `json:"discoveredAt,omitempty" mapstructure:"discovered_at"`

	// Columns skipped during auto-discovery
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty" mapstructure:"skipped_columns"`
}

// DimensionMeta describes a string column used for identifiers, grouping
// and filtering.
type DimensionMeta struct {
	Key             string   `json:"key" mapstructure:"key"`
	DisplayName     string   `json:"displayName" mapstructure:"display_name"`
	Description     string   `json:"description,omitempty" mapstructure:"description"`
	SampleValues    []string `json:"sampleValues" mapstructure:"sample_values"`
	IsIdentifier    bool     `json:"isIdentifier,omitempty" mapstructure:"is_identifier"`
	CardinalityHint string   `json:"cardinalityHint,omitempty" mapstructure:"cardinality_hint"` // "low", "medium", "high"
}

// MeasureMeta describes a numeric column summed by the transforms.
type MeasureMeta struct {
	Key         string `json:"key" mapstructure:"key"`
	DisplayName string `json:"displayName" mapstructure:"display_name"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	IsSynthetic bool   `json:"isSynthetic,omitempty" mapstructure:"is_synthetic"` // Auto-generated (record_count)
}

// TimeMeta describes a timestamp column. Layout is a Go time layout;
// empty means "try every known layout".
type TimeMeta struct {
	Key          string   `json:"key" mapstructure:"key"`
	DisplayName  string   `json:"displayName" mapstructure:"display_name"`
	Layout       string   `json:"layout,omitempty" mapstructure:"layout"`
	SampleValues []string `json:"sampleValues,omitempty" mapstructure:"sample_values"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column      string `json:"column"`
	Reason      string `json:"reason"`
	Recoverable bool   `json:"recoverable"` // Can be restored if consumer overrides
}

// RecordCountKey is the synthetic measure worth 1 per row.
const RecordCountKey = "record_count"

// DefaultDimension creates a DimensionMeta with sensible defaults.
func DefaultDimension(key, displayName string, samples []string) DimensionMeta {
	return DimensionMeta{
		Key:          key,
		DisplayName:  displayName,
		SampleValues: samples,
	}
}

// DefaultMeasure creates a MeasureMeta with sensible defaults.
func DefaultMeasure(key, displayName string) MeasureMeta {
	return MeasureMeta{
		Key:         key,
		DisplayName: displayName,
	}
}

// DefaultTime creates a TimeMeta for a column parsed with layout.
func DefaultTime(key, displayName, layout string) TimeMeta {
	return TimeMeta{
		Key:         key,
		DisplayName: displayName,
		Layout:      layout,
	}
}

// GetDefaultMeasure returns the first non-synthetic measure's key, or
// record_count as fallback.
func (c Config) GetDefaultMeasure() string {
	for _, m := range c.Measures {
		if !m.IsSynthetic {
			return m.Key
		}
	}
	return RecordCountKey
}

// GetDefaultTime returns the first time column's key, or "".
func (c Config) GetDefaultTime() string {
	if len(c.Times) > 0 {
		return c.Times[0].Key
	}
	return ""
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// IdentifierKeys returns the dimensions flagged as identifiers.
func (c Config) IdentifierKeys() []string {
	var keys []string
	for _, d := range c.Dimensions {
		if d.IsIdentifier {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// TimeKeys returns all time keys.
func (c Config) TimeKeys() []string {
	keys := make([]string, len(c.Times))
	for i, t := range c.Times {
		keys[i] = t.Key
	}
	return keys
}

// TimeLayout returns the layout declared for key, or "".
func (c Config) TimeLayout(key string) string {
	for _, t := range c.Times {
		if t.Key == key {
			return t.Layout
		}
	}
	return ""
}
