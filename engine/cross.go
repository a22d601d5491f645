package engine

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// CROSS IMPORTANCE — How each id1 group splits across id2 partners
// ============================================================================
// Pipeline:
//   1. Group by id1 ∪ id2, sum the weight into Value
//   2. Composite labels for both groupings
//   3. Per-id1 totals → Pct = Value / Total
//   4. Order: id1 labels ascending by total (largest renders on top)
//   5. Rows sorted (id1 label, Pct desc, grouped index); Tier = rank in group
// ============================================================================

// CrossAxis selects the bar length of the cross-importance chart.
type CrossAxis int

const (
	AxisPct CrossAxis = iota
	AxisVal
)

// ParseCrossAxis accepts "pct" and "val".
func ParseCrossAxis(s string) (CrossAxis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pct":
		return AxisPct, nil
	case "val":
		return AxisVal, nil
	default:
		return AxisPct, fmt.Errorf("%w: unknown cross axis %q", ErrInvalidOption, s)
	}
}

func (a CrossAxis) String() string {
	if a == AxisVal {
		return "val"
	}
	return "pct"
}

// CrossRow is one (id1, id2) pair.
type CrossRow struct {
	ID1Label string  `json:"id1"`
	ID2Label string  `json:"id2"`
	Value    float64 `json:"val"`
	Total    float64 `json:"total"`
	Pct      float64 `json:"pct"`
	PctLabel string  `json:"pctStr"`
	Tier     int     `json:"top"`

	keys []string // grouped values, in Columns order
}

// CrossTable is the tabulated cross importance.
type CrossTable struct {
	ID1     []string           `json:"id1Columns"`
	ID2     []string           `json:"id2Columns"`
	Weight  string             `json:"weight"`
	Columns []string           `json:"columns"` // id1 ∪ id2
	Rows    []CrossRow         `json:"rows"`
	Order   []string           `json:"order"` // id1 labels, ascending total
	Totals  map[string]float64 `json:"totals"`
}

// Record column names of a cross table.
const (
	CrossID1Column   = "id1"
	CrossID2Column   = "id2"
	CrossValColumn   = "val"
	CrossTotalColumn = "total"
	CrossPctColumn   = "pct"
	CrossTierColumn  = "top"
	CrossPctStr      = "pct_str"
)

// TabulateCrossImportance computes the share of every id2 partner within
// its id1 group and ranks partners per group.
func TabulateCrossImportance(view RecordView, id1, id2 []string, weight string, opts ...Option) (*CrossTable, error) {
	cfg := applyOptions(opts)

	if len(id1) == 0 || len(id2) == 0 {
		return nil, fmt.Errorf("cross importance: %w: id1 and id2 need at least one column each", ErrInvalidOption)
	}
	if err := requireColumns(view, "identifier", KindDimension, id1...); err != nil {
		return nil, fmt.Errorf("cross importance: %w", err)
	}
	if err := requireColumns(view, "identifier", KindDimension, id2...); err != nil {
		return nil, fmt.Errorf("cross importance: %w", err)
	}
	if err := requireColumns(view, "measure", KindMeasure, weight); err != nil {
		return nil, fmt.Errorf("cross importance: %w", err)
	}

	columns := uniqueStrings(append(append([]string(nil), id1...), id2...))
	position := make(map[string]int, len(columns))
	for i, c := range columns {
		position[c] = i
	}
	pick := func(values []string, cols []string) []string {
		out := make([]string, len(cols))
		for i, c := range cols {
			out[i] = values[position[c]]
		}
		return out
	}

	// 1–2. Group and label
	groups := groupRows(view, dimensionValues(view, columns), "")
	rows := make([]CrossRow, 0, len(groups))
	totals := make(map[string]float64)
	var labels []string
	for _, g := range groups {
		row := CrossRow{
			ID1Label: JoinLabel(pick(g.Values, id1), cfg.Delimiter),
			ID2Label: JoinLabel(pick(g.Values, id2), cfg.Delimiter),
			Value:    sumIndices(view, g.Indices, weight),
			keys:     g.Values,
		}
		if _, ok := totals[row.ID1Label]; !ok {
			labels = append(labels, row.ID1Label)
		}
		totals[row.ID1Label] += row.Value
		rows = append(rows, row)
	}

	// 3. Shares within id1 groups
	for i := range rows {
		total := totals[rows[i].ID1Label]
		if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
			return nil, fmt.Errorf("cross importance: %w",
				&DegenerateError{Measure: weight, Group: rows[i].ID1Label, Total: total})
		}
		rows[i].Total = total
		rows[i].Pct = rows[i].Value / total
		rows[i].PctLabel = FormatPct(rows[i].Pct)
	}

	// 4. Display order of id1 categories
	sort.Strings(labels)
	sort.SliceStable(labels, func(a, b int) bool { return totals[labels[a]] < totals[labels[b]] })

	// 5. Tiers: rank partners inside each id1 group
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].ID1Label != rows[b].ID1Label {
			return rows[a].ID1Label < rows[b].ID1Label
		}
		return rows[a].Pct > rows[b].Pct
	})
	tier := 0
	for i := range rows {
		if i > 0 && rows[i].ID1Label != rows[i-1].ID1Label {
			tier = 0
		}
		rows[i].Tier = tier
		tier++
	}

	log.Printf("🔧 idscope: cross importance of %q over %d rows → %d pairs in %d id1 groups",
		weight, view.Len(), len(rows), len(labels))

	return &CrossTable{
		ID1:     append([]string(nil), id1...),
		ID2:     append([]string(nil), id2...),
		Weight:  weight,
		Columns: columns,
		Rows:    rows,
		Order:   labels,
		Totals:  totals,
	}, nil
}

// Tiers returns the number of distinct tiers (the largest group size).
func (t *CrossTable) Tiers() int {
	n := 0
	for _, row := range t.Rows {
		if row.Tier+1 > n {
			n = row.Tier + 1
		}
	}
	return n
}

// Records converts the table into the Record model.
func (t *CrossTable) Records() *SliceView {
	dims := append(append([]string(nil), t.Columns...), CrossID1Column, CrossID2Column, CrossPctStr, CrossTierColumn)
	measures := []string{CrossValColumn, CrossTotalColumn, CrossPctColumn}

	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := NewRecord()
		for i, c := range t.Columns {
			rec.Dimensions[c] = row.keys[i]
		}
		rec.Dimensions[CrossID1Column] = row.ID1Label
		rec.Dimensions[CrossID2Column] = row.ID2Label
		rec.Dimensions[CrossPctStr] = row.PctLabel
		rec.Dimensions[CrossTierColumn] = strconv.Itoa(row.Tier)
		rec.Measures[CrossValColumn] = row.Value
		rec.Measures[CrossTotalColumn] = row.Total
		rec.Measures[CrossPctColumn] = row.Pct
		records = append(records, rec)
	}
	return NewSliceViewWithKeys(records, dims, measures, nil)
}

// CrossImportanceChart draws the horizontal stacked bars: one bar per id1
// label, one segment per id2 partner, one trace (color) per tier.
func CrossImportanceChart(view RecordView, id1, id2 []string, weight string, axis CrossAxis, title string, opts ...Option) (*Figure, error) {
	table, err := TabulateCrossImportance(view, id1, id2, weight, opts...)
	if err != nil {
		return nil, err
	}
	return buildCrossFigure(table, axis, title, applyOptions(opts)), nil
}

func buildCrossFigure(t *CrossTable, axis CrossAxis, title string, cfg *config) *Figure {
	fig := newFigure(title)

	hover := strings.Join([]string{
		strings.Join(t.ID2, ", ") + ": %{customdata[0]}",
		"pct: %{customdata[1]}",
		"top: %{customdata[2]}",
	}, "<br>")

	traces := make([]Trace, t.Tiers())
	for k := range traces {
		name := strconv.Itoa(k)
		traces[k] = newTrace("bar", "", name)
		traces[k].Orientation = "h"
		traces[k].LegendGroup = name
		traces[k].HoverTemplate = hover
		traces[k].Marker = &Marker{Color: colorAt(cfg.Palette, k)}
	}

	for _, row := range t.Rows {
		tr := &traces[row.Tier]
		x := row.Pct
		if axis == AxisVal {
			x = row.Value
		}
		tr.X = append(tr.X, x)
		tr.Y = append(tr.Y, row.ID1Label)
		tr.Text = append(tr.Text, row.ID2Label)
		tr.CustomData = append(tr.CustomData, []interface{}{row.ID2Label, row.PctLabel, row.Tier})
	}

	fig.Data = traces
	fig.Layout.BarMode = "stack"
	fig.Layout.Height = cfg.BaseHeight + cfg.CrossHeight*len(t.Order)
	fig.Layout.XAxis = Axis{Title: axis.String()}
	fig.Layout.YAxis = Axis{
		Title:         CrossID1Column,
		Type:          "category",
		CategoryOrder: "array",
		CategoryArray: t.Order,
	}
	return fig
}
