package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// AGGREGATORS — Grouping, summing and ordering via RecordView
// ============================================================================
// Groups are emitted in ascending key order (string parts compared
// left to right, then time), so every derived table has a deterministic
// row order regardless of input order.
// ============================================================================

// rowGroup is one group of row indices sharing a key.
type rowGroup struct {
	Values  []string
	Time    time.Time
	Indices []int
}

// groupRows buckets view rows by keyFn and, when timeKey is set, by the
// value of that time column.
func groupRows(view RecordView, keyFn func(i int) []string, timeKey string) []rowGroup {
	index := make(map[string]int)
	var groups []rowGroup

	for i := 0; i < view.Len(); i++ {
		values := keyFn(i)
		key := strings.Join(values, "\x1f")

		var ts time.Time
		if timeKey != "" {
			ts = view.Time(i, timeKey)
			key += "\x1e" + ts.UTC().Format(time.RFC3339Nano)
		}

		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, rowGroup{Values: values, Time: ts})
		}
		groups[pos].Indices = append(groups[pos].Indices, i)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return lessGroup(groups[a], groups[b])
	})
	return groups
}

func lessGroup(a, b rowGroup) bool {
	for k := 0; k < len(a.Values) && k < len(b.Values); k++ {
		if a.Values[k] != b.Values[k] {
			return a.Values[k] < b.Values[k]
		}
	}
	if len(a.Values) != len(b.Values) {
		return len(a.Values) < len(b.Values)
	}
	return a.Time.Before(b.Time)
}

// dimensionValues returns a key function reading keys as dimensions.
func dimensionValues(view RecordView, keys []string) func(i int) []string {
	return func(i int) []string {
		values := make([]string, len(keys))
		for k, key := range keys {
			values[k] = view.Dimension(i, key)
		}
		return values
	}
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// sumIndices sums a measure over selected rows of view.
func sumIndices(view RecordView, indices []int, measure string) float64 {
	return SumMeasure(newSubView(view, indices), measure)
}

// ============================================================================
// COMPOSITE IDENTIFIERS
// ============================================================================

// CompositeLabel joins the values of keys at row i with delim.
// The same values always produce the same label; distinct value tuples
// never collide unless a value itself contains delim.
func CompositeLabel(view RecordView, i int, keys []string, delim string) string {
	return JoinLabel(dimensionValues(view, keys)(i), delim)
}

// JoinLabel joins identifier parts with delim.
func JoinLabel(parts []string, delim string) string {
	return strings.Join(parts, delim)
}

// UniqueValues returns distinct values for a dimension across a view,
// in first-appearance order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// uniqueStrings de-duplicates items keeping the first occurrence.
func uniqueStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// MaxTime returns the latest non-zero time in a column, and false when
// the column holds no time at all.
func MaxTime(view RecordView, key string) (time.Time, bool) {
	var latest time.Time
	found := false
	for i := 0; i < view.Len(); i++ {
		t := view.Time(i, key)
		if t.IsZero() {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	return latest, found
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// RoundTo rounds v half away from zero to places decimal digits.
// Non-finite values are returned unchanged.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// FormatPct renders a share as a percentage with one decimal: 0.6667 → "66.7%".
func FormatPct(share float64) string {
	if math.IsNaN(share) || math.IsInf(share, 0) {
		return "NaN%"
	}
	return decimal.NewFromFloat(100*share).StringFixed(1) + "%"
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LabelForDimension returns a capitalized label for a column key.
func LabelForDimension(dimension string) string {
	if len(dimension) == 0 {
		return ""
	}
	return strings.ToUpper(dimension[:1]) + dimension[1:]
}
