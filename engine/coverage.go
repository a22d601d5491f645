package engine

import (
	"fmt"
	"log"
	"time"
)

// ============================================================================
// COVERAGE — Time coverage per composite identifier
// ============================================================================
// Pipeline: validate → composite label → group (label, time) → sum measures.
// The chart is a scatter of label (y) against time (x) with one category
// row per identifier, so gaps in a series show up as missing points.
// ============================================================================

// CoverageRow is one (identifier, time) cell.
type CoverageRow struct {
	ID    string             `json:"id"`
	Time  time.Time          `json:"time"`
	Count int                `json:"count"`
	Sums  map[string]float64 `json:"sums"`
}

// CoverageSummary is the grouped coverage table.
type CoverageSummary struct {
	IDColumns  []string      `json:"idColumns"`
	TimeColumn string        `json:"timeColumn"`
	Measures   []string      `json:"measures"`
	Rows       []CoverageRow `json:"rows"`
	Labels     []string      `json:"labels"` // distinct IDs, first-appearance order in Rows
}

// CoverageLabelColumn is the dimension holding the composite label in Records.
const CoverageLabelColumn = "id"

// SummarizeCoverage groups view by (composite identifier, time) and sums
// every measure column.
func SummarizeCoverage(view RecordView, ids []string, timeCol string, opts ...Option) (*CoverageSummary, error) {
	cfg := applyOptions(opts)

	if len(ids) == 0 {
		return nil, fmt.Errorf("coverage: %w: at least one identifier column is required", ErrInvalidOption)
	}
	if err := requireColumns(view, "identifier", KindDimension, ids...); err != nil {
		return nil, fmt.Errorf("coverage: %w", err)
	}
	if err := requireColumns(view, "time", KindTime, timeCol); err != nil {
		return nil, fmt.Errorf("coverage: %w", err)
	}

	labelOf := dimensionValues(view, ids)
	groups := groupRows(view, func(i int) []string {
		return []string{JoinLabel(labelOf(i), cfg.Delimiter)}
	}, timeCol)

	measures := append([]string(nil), view.MeasureKeys()...)
	summary := &CoverageSummary{
		IDColumns:  append([]string(nil), ids...),
		TimeColumn: timeCol,
		Measures:   measures,
		Rows:       make([]CoverageRow, 0, len(groups)),
	}

	seen := make(map[string]bool)
	for _, g := range groups {
		row := CoverageRow{
			ID:    g.Values[0],
			Time:  g.Time,
			Count: len(g.Indices),
			Sums:  make(map[string]float64, len(measures)),
		}
		for _, m := range measures {
			row.Sums[m] = sumIndices(view, g.Indices, m)
		}
		summary.Rows = append(summary.Rows, row)

		if !seen[row.ID] {
			seen[row.ID] = true
			summary.Labels = append(summary.Labels, row.ID)
		}
	}

	log.Printf("🔧 idscope: coverage over %d rows → %d (id, time) cells, %d ids",
		view.Len(), len(summary.Rows), len(summary.Labels))

	return summary, nil
}

// Records converts the summary into the Record model: the composite label
// as dimension "id", the time column, and one measure per summed column.
func (s *CoverageSummary) Records() *SliceView {
	records := make([]Record, 0, len(s.Rows))
	for _, row := range s.Rows {
		rec := NewRecord()
		rec.Dimensions[CoverageLabelColumn] = row.ID
		rec.Times[s.TimeColumn] = row.Time
		for m, v := range row.Sums {
			rec.Measures[m] = v
		}
		records = append(records, rec)
	}
	return NewSliceViewWithKeys(records, []string{CoverageLabelColumn}, s.Measures, []string{s.TimeColumn})
}

// CoverageChart builds the coverage scatter. args are caller styling
// options; they are copied unchanged into Figure.Options and a string
// "title" is also applied to the layout.
func CoverageChart(view RecordView, ids []string, timeCol string, args map[string]interface{}, opts ...Option) (*Figure, error) {
	summary, err := SummarizeCoverage(view, ids, timeCol, opts...)
	if err != nil {
		return nil, err
	}
	return buildCoverageFigure(summary, args, applyOptions(opts)), nil
}

func buildCoverageFigure(s *CoverageSummary, args map[string]interface{}, cfg *config) *Figure {
	fig := newFigure("")
	trace := newTrace("scatter", "markers", "")
	trace.Marker = &Marker{Color: colorAt(cfg.Palette, 0)}
	for _, row := range s.Rows {
		trace.X = append(trace.X, row.Time)
		trace.Y = append(trace.Y, row.ID)
	}
	fig.Data = append(fig.Data, trace)

	fig.Layout.Height = cfg.BaseHeight + cfg.CoverageHeight*len(s.Labels)
	fig.Layout.XAxis = Axis{Title: s.TimeColumn, Type: "date"}
	fig.Layout.YAxis = Axis{
		Title:         CoverageLabelColumn,
		Type:          "category",
		CategoryOrder: "array",
		CategoryArray: s.Labels,
	}

	if len(args) > 0 {
		fig.Options = make(map[string]interface{}, len(args))
		for k, v := range args {
			fig.Options[k] = v
		}
		if title, ok := args["title"].(string); ok {
			fig.Layout.Title = title
		}
	}
	return fig
}
