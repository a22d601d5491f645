package helpers

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/spektr-org/idscope/engine"
	"github.com/spektr-org/idscope/schema"
)

// ============================================================================
// DATAFRAME HELPER — gota DataFrame ↔ engine.SliceView
// ============================================================================
// String columns that parse as dates become time columns; numeric columns
// become measures; everything else is a dimension. timeCols forces a
// column to the time role.
// ============================================================================

// FromDataFrame converts df into a view. NA cells leave the column unset.
func FromDataFrame(df dataframe.DataFrame, timeCols ...string) (*engine.SliceView, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("dataframe: %w", df.Err)
	}

	forced := make(map[string]bool, len(timeCols))
	for _, c := range timeCols {
		forced[c] = true
	}

	n := df.Nrow()
	records := make([]engine.Record, n)
	for i := range records {
		records[i] = engine.NewRecord()
	}

	var dims, measures, times []string
	for _, name := range df.Names() {
		col := df.Col(name)
		raw := col.Records()

		switch {
		case forced[name] || col.Type() == series.String && isTimeColumn(col):
			layout, _ := schema.DetectTimeLayout(nonNull(col))
			for i := 0; i < n; i++ {
				if col.Elem(i).IsNA() || schema.IsNull(raw[i]) {
					continue
				}
				t, err := schema.ParseTime(raw[i], layout)
				if err != nil {
					return nil, fmt.Errorf("dataframe: column %q row %d: %w", name, i, err)
				}
				records[i].Times[name] = t
			}
			times = append(times, name)

		case col.Type() == series.Int || col.Type() == series.Float:
			values := col.Float()
			for i := 0; i < n; i++ {
				if col.Elem(i).IsNA() || math.IsNaN(values[i]) {
					continue
				}
				records[i].Measures[name] = values[i]
			}
			measures = append(measures, name)

		default:
			for i := 0; i < n; i++ {
				if col.Elem(i).IsNA() {
					continue
				}
				records[i].Dimensions[name] = raw[i]
			}
			dims = append(dims, name)
		}
	}

	return engine.NewSliceViewWithKeys(records, dims, measures, times), nil
}

// ToDataFrame converts a view (typically a derived table) back into a
// gota DataFrame: dimensions and times as string series, measures as
// float series.
func ToDataFrame(view engine.RecordView) dataframe.DataFrame {
	n := view.Len()
	var cols []series.Series

	for _, key := range view.DimensionKeys() {
		values := make([]string, n)
		for i := range values {
			values[i] = view.Dimension(i, key)
		}
		cols = append(cols, series.New(values, series.String, key))
	}
	for _, key := range view.TimeKeys() {
		values := make([]string, n)
		for i := range values {
			values[i] = engine.FormatTime(view.Time(i, key))
		}
		cols = append(cols, series.New(values, series.String, key))
	}
	for _, key := range view.MeasureKeys() {
		values := make([]float64, n)
		for i := range values {
			values[i] = view.Measure(i, key)
		}
		cols = append(cols, series.New(values, series.Float, key))
	}

	return dataframe.New(cols...)
}

func isTimeColumn(col series.Series) bool {
	values := nonNull(col)
	if len(values) == 0 {
		return false
	}
	_, ok := schema.DetectTimeLayout(values)
	return ok
}

func nonNull(col series.Series) []string {
	raw := col.Records()
	out := make([]string, 0, len(raw))
	for i, v := range raw {
		if col.Elem(i).IsNA() || schema.IsNull(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
