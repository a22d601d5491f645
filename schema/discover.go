package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic column-role classification
// ============================================================================
// Inspects raw rows and generates a schema.Config automatically.
//
// Classification pipeline per column:
//   1. Sample values → detect type (numeric, time, bool, string)
//   2. Type + cardinality → classify role (dimension, measure, time, skip)
//   3. Identifier detection (explicit option, "id" / "*_id" headers)
//   4. Generate synthetic measures (record_count)
//
// Explicit Identifiers / TimeColumns options always win over the heuristics.
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize     int      // Max rows to inspect (0 = all). Default: 1000
	RecoverColumns []string // Force-include columns that were auto-skipped
	Identifiers    []string // Force these columns to identifier dimensions
	TimeColumns    []string // Force these columns to time columns
	Name           string   // Dataset name override (otherwise inferred)
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// DiscoverFromCSV generates a schema.Config by inspecting CSV data.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	limit := opt.SampleSize
	if limit <= 0 {
		limit = 100000 // safety cap
	}

	var rows [][]string
	for i := 0; i < limit; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}

	config, err := DiscoverFromRows(headers, rows, opt)
	if err != nil {
		return nil, err
	}
	config.DiscoveredFrom = "CSV"
	return config, nil
}

// DiscoverFromRows classifies columns of an already-split table.
func DiscoverFromRows(headers []string, rows [][]string, opt DiscoverOptions) (*Config, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("table has no columns")
	}
	totalRows := len(rows)
	if totalRows == 0 {
		return nil, fmt.Errorf("table has no data rows")
	}

	recoverSet := lowerSet(opt.RecoverColumns)
	idSet := lowerSet(opt.Identifiers)
	timeSet := lowerSet(opt.TimeColumns)

	config := &Config{
		Name:    opt.Name,
		Version: "1.0",
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Dataset"
	}

	for i, header := range headers {
		col := analyzeColumn(header, i, rows, totalRows)

		forcedID := idSet[strings.ToLower(col.header)] || idSet[col.key]
		forcedTime := timeSet[strings.ToLower(col.header)] || timeSet[col.key]
		switch {
		case forcedTime:
			col.role = roleTime
			if col.timeLayout == "" {
				col.timeLayout, _ = DetectTimeLayout(col.values)
			}
		case forcedID:
			col.role = roleDimension
			col.isIdentifier = true
		}

		switch col.role {
		case roleDimension:
			config.Dimensions = append(config.Dimensions, col.toDimension())

		case roleMeasure:
			config.Measures = append(config.Measures, col.toMeasure())

		case roleTime:
			config.Times = append(config.Times, col.toTime())

		case roleSkipped:
			if recoverSet[strings.ToLower(col.header)] || recoverSet[col.key] {
				config.Dimensions = append(config.Dimensions, col.toDimension())
			} else {
				config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
					Column:      col.header,
					Reason:      col.skipReason,
					Recoverable: col.recoverable,
				})
			}
		}
	}

	config.Measures = append(config.Measures, MeasureMeta{
		Key:         RecordCountKey,
		DisplayName: "Record Count",
		Description: "Number of records (auto-generated)",
		IsSynthetic: true,
	})

	config.DiscoveredAt = time.Now().Format(time.RFC3339)
	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnRole int

const (
	roleDimension columnRole = iota
	roleMeasure
	roleTime
	roleSkipped
)

type columnType int

const (
	typeString columnType = iota
	typeNumeric
	typeTime
	typeBool
)

type columnAnalysis struct {
	header      string
	key         string
	colType     columnType
	role        columnRole
	skipReason  string
	recoverable bool

	values      []string
	uniqueCount int
	sampleVals  []string

	timeLayout      string
	isIdentifier    bool
	hasDecimals     bool
	cardinalityHint string
}

// analyzeColumn inspects all values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string, totalRows int) columnAnalysis {
	col := columnAnalysis{
		header: strings.TrimSpace(header),
		key:    toSnakeCase(strings.TrimSpace(header)),
	}

	uniqueSet := make(map[string]bool)
	for _, row := range rows {
		if index >= len(row) {
			continue
		}
		val := strings.TrimSpace(row[index])
		if IsNull(val) {
			continue
		}
		col.values = append(col.values, val)
		uniqueSet[val] = true
	}
	col.uniqueCount = len(uniqueSet)

	if len(col.values) == 0 {
		col.role = roleSkipped
		col.skipReason = "All values are empty/null"
		col.recoverable = false
		return col
	}

	col.sampleVals = collectSamples(uniqueSet, 10)

	col.colType, col.timeLayout = detectType(col.values)
	if col.colType == typeNumeric {
		for _, v := range col.values {
			if strings.Contains(v, ".") {
				col.hasDecimals = true
				break
			}
		}
	}

	col.classifyRole(totalRows)

	switch {
	case col.uniqueCount <= 10:
		col.cardinalityHint = "low"
	case col.uniqueCount <= 100:
		col.cardinalityHint = "medium"
	default:
		col.cardinalityHint = "high"
	}

	return col
}

// classifyRole determines dimension vs measure vs time vs skip.
func (col *columnAnalysis) classifyRole(totalRows int) {
	if looksLikeIdentifier(col.key) && col.colType != typeTime {
		col.role = roleDimension
		col.isIdentifier = true
		return
	}

	switch col.colType {

	case typeNumeric:
		if col.hasDecimals {
			col.role = roleMeasure
			return
		}
		// Few distinct integers relative to the row count → coded category
		uniqueRatio := float64(col.uniqueCount) / float64(totalRows)
		if col.uniqueCount < 20 && uniqueRatio < 0.3 {
			col.role = roleDimension
			return
		}
		col.role = roleMeasure

	case typeTime:
		col.role = roleTime

	case typeBool:
		col.role = roleDimension

	case typeString:
		if col.uniqueCount == totalRows && totalRows > 10 {
			col.role = roleSkipped
			col.skipReason = "Unique per row — likely free text"
			col.recoverable = true
			return
		}
		if col.uniqueCount > totalRows/2 && col.uniqueCount > 50 {
			col.role = roleSkipped
			col.skipReason = fmt.Sprintf("High cardinality (%d unique values) — not useful for grouping", col.uniqueCount)
			col.recoverable = true
			return
		}
		col.role = roleDimension
	}
}

// looksLikeIdentifier matches "id", "*_id" and "id_*" keys.
func looksLikeIdentifier(key string) bool {
	return key == "id" || strings.HasSuffix(key, "_id") || strings.HasPrefix(key, "id_")
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType inspects values to determine column type.
// Requires 80%+ of non-null values to match for numeric/time/bool.
func detectType(values []string) (columnType, string) {
	if len(values) == 0 {
		return typeString, ""
	}

	numCount := 0
	boolCount := 0
	for _, v := range values {
		if isNumeric(v) {
			numCount++
		}
		if isBool(v) {
			boolCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)

	if boolCount >= threshold {
		return typeBool, ""
	}
	if layout, ok := DetectTimeLayout(values); ok {
		return typeTime, layout
	}
	if numCount >= threshold {
		return typeNumeric, ""
	}
	return typeString, ""
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "") // handle "1,234.56"
	s = strings.TrimPrefix(s, "-")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "false" || s == "yes" || s == "no"
}

// IsNull reports whether a raw cell counts as missing.
func IsNull(val string) bool {
	switch strings.TrimSpace(val) {
	case "", "null", "NULL", "N/A", "n/a", "NaN", "nan":
		return true
	}
	return false
}

// ============================================================================
// TIME LAYOUTS
// ============================================================================

// TimeLayouts are tried in order. Day-first numeric dates are not listed:
// "01/02/2006" is read month first.
var TimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01",
	"Jan-2006",
	"January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// DetectTimeLayout returns the first layout that parses at least 80% of
// values.
func DetectTimeLayout(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	threshold := int(float64(len(values)) * 0.8)
	if threshold == 0 {
		threshold = 1
	}
	for _, layout := range TimeLayouts {
		hits := 0
		for _, v := range values {
			if _, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				hits++
			}
		}
		if hits >= threshold {
			return layout, true
		}
	}
	return "", false
}

// ParseTime parses value with layout, or with every known layout when
// layout is empty. Times without a zone are UTC.
func ParseTime(value, layout string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if layout != "" {
		return time.Parse(layout, value)
	}
	for _, l := range TimeLayouts {
		if t, err := time.Parse(l, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time", value)
}

// ============================================================================
// CONVERSION HELPERS
// ============================================================================

func (col *columnAnalysis) toDimension() DimensionMeta {
	return DimensionMeta{
		Key:             col.key,
		DisplayName:     toDisplayName(col.header),
		SampleValues:    col.sampleVals,
		IsIdentifier:    col.isIdentifier,
		CardinalityHint: col.cardinalityHint,
	}
}

func (col *columnAnalysis) toMeasure() MeasureMeta {
	return MeasureMeta{
		Key:         col.key,
		DisplayName: toDisplayName(col.header),
	}
}

func (col *columnAnalysis) toTime() TimeMeta {
	return TimeMeta{
		Key:          col.key,
		DisplayName:  toDisplayName(col.header),
		Layout:       col.timeLayout,
		SampleValues: col.sampleVals,
	}
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// ToKey converts a raw header to the column key used by loaders.
func ToKey(header string) string {
	return toSnakeCase(strings.TrimSpace(header))
}

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = result.String()
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "__", "_")
	s = strings.Trim(s, "_")
	return s
}

// toDisplayName cleans a header for human display.
// "story_points" → "Story Points", "assignee" → "Assignee"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
