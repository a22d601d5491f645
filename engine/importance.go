package engine

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
)

// ============================================================================
// IMPORTANCE — Cumulative share (Pareto) ranking of identifier groups
// ============================================================================
// Pipeline: group → sum → share of grand total → sort desc → running sum.
//
// Shares are rounded (8 digits by default) so that float noise does not
// reorder groups with equal totals. Groups with equal shares come out in
// reverse key order: the descending order is the reverse of a stable
// ascending sort.
// ============================================================================

// Mode selects the output of IDImportance.
type Mode int

const (
	ModeTable Mode = iota
	ModeGraph
)

// ParseMode accepts "tab"/"table" and "graph"/"chart".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tab", "table":
		return ModeTable, nil
	case "graph", "chart":
		return ModeGraph, nil
	default:
		return ModeTable, fmt.Errorf("%w: unknown importance mode %q", ErrInvalidOption, s)
	}
}

// ImportanceRow is one ranked identifier group.
type ImportanceRow struct {
	Rank          int      `json:"rank"`
	Keys          []string `json:"keys"`
	Label         string   `json:"label"`
	Count         int      `json:"count"`
	Sum           float64  `json:"sum"`
	Pct           float64  `json:"pct"`
	CumulativePct float64  `json:"cumulativePct"`
}

// ImportanceRanking is the sorted importance table.
type ImportanceRanking struct {
	IDColumns []string        `json:"idColumns"`
	Measure   string          `json:"measure"`
	Total     float64         `json:"total"`
	Rows      []ImportanceRow `json:"rows"`
}

// Column names used when a ranking is converted to records.
const (
	SumColumn = "sum"
	PctColumn = "pct"
)

// CumulativeColumn is the name of the running share column.
func (r *ImportanceRanking) CumulativeColumn() string {
	return "cumulative sum " + r.Measure
}

// RankImportance groups view by ids, sums measure and ranks groups by
// their share of the grand total. A zero or non-finite grand total fails
// with ErrZeroTotal.
func RankImportance(view RecordView, ids []string, measure string, opts ...Option) (*ImportanceRanking, error) {
	cfg := applyOptions(opts)

	if len(ids) == 0 {
		return nil, fmt.Errorf("importance: %w: at least one identifier column is required", ErrInvalidOption)
	}
	if err := requireColumns(view, "identifier", KindDimension, ids...); err != nil {
		return nil, fmt.Errorf("importance: %w", err)
	}
	if err := requireColumns(view, "measure", KindMeasure, measure); err != nil {
		return nil, fmt.Errorf("importance: %w", err)
	}
	if view.Len() == 0 {
		return nil, fmt.Errorf("importance: %w", ErrEmptyTable)
	}

	groups := groupRows(view, dimensionValues(view, ids), "")

	rows := make([]ImportanceRow, 0, len(groups))
	var total float64
	for _, g := range groups {
		sum := sumIndices(view, g.Indices, measure)
		total += sum
		rows = append(rows, ImportanceRow{
			Keys:  g.Values,
			Label: JoinLabel(g.Values, cfg.Delimiter),
			Count: len(g.Indices),
			Sum:   sum,
		})
	}

	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("importance: %w", &DegenerateError{Measure: measure, Total: total})
	}

	for i := range rows {
		rows[i].Pct = RoundTo(rows[i].Sum/total, cfg.PctPlaces)
	}

	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Pct < rows[b].Pct })
	reverseRows(rows)

	var cumulative float64
	for i := range rows {
		cumulative += rows[i].Pct
		rows[i].Rank = i
		rows[i].CumulativePct = cumulative
	}

	log.Printf("🔧 idscope: importance of %q over %d rows → %d groups (total %s)",
		measure, view.Len(), len(rows), FormatNumber(total))

	return &ImportanceRanking{
		IDColumns: append([]string(nil), ids...),
		Measure:   measure,
		Total:     total,
		Rows:      rows,
	}, nil
}

func reverseRows(rows []ImportanceRow) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// Records converts the ranking into the Record model: identifier columns
// as dimensions; sum, pct and the cumulative column as measures.
func (r *ImportanceRanking) Records() *SliceView {
	cumCol := r.CumulativeColumn()
	records := make([]Record, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := NewRecord()
		for k, id := range r.IDColumns {
			rec.Dimensions[id] = row.Keys[k]
		}
		rec.Measures[SumColumn] = row.Sum
		rec.Measures[PctColumn] = row.Pct
		rec.Measures[cumCol] = row.CumulativePct
		records = append(records, rec)
	}
	return NewSliceViewWithKeys(records, r.IDColumns, []string{SumColumn, PctColumn, cumCol}, nil)
}

// ImportanceChart draws the concentration curve: cumulative share against
// group rank (0, 1, 2, …).
func ImportanceChart(view RecordView, ids []string, measure string, opts ...Option) (*Figure, error) {
	ranking, err := RankImportance(view, ids, measure, opts...)
	if err != nil {
		return nil, err
	}
	return buildImportanceFigure(ranking, applyOptions(opts)), nil
}

func buildImportanceFigure(r *ImportanceRanking, cfg *config) *Figure {
	fig := newFigure("")
	trace := newTrace("scatter", "lines", r.CumulativeColumn())
	trace.Line = &Line{Color: colorAt(cfg.Palette, 0)}
	trace.Text = make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		trace.X = append(trace.X, row.Rank)
		trace.Y = append(trace.Y, row.CumulativePct)
		trace.Text = append(trace.Text, row.Label)
	}
	fig.Data = append(fig.Data, trace)

	fig.Layout.XAxis = Axis{Title: "Combination[" + strings.Join(r.IDColumns, ", ") + "]"}
	fig.Layout.YAxis = Axis{Title: r.CumulativeColumn()}
	return fig
}

// IDImportance returns the ranking as a table (ModeTable) or as the
// concentration curve (ModeGraph). The result always carries TableData.
func IDImportance(view RecordView, ids []string, measure string, mode Mode, opts ...Option) (*Result, error) {
	ranking, err := RankImportance(view, ids, measure, opts...)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Type:      "table",
		Kind:      "importance",
		TableData: BuildImportanceTable(ranking),
		Data:      ranking,
	}
	if mode == ModeGraph {
		result.Type = "chart"
		result.Figure = buildImportanceFigure(ranking, applyOptions(opts))
	}
	return result, nil
}
