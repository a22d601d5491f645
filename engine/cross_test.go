package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func crossFixture() *SliceView {
	return salesView(
		sale{"S1", "pear", "2023-01-01", 2},
		sale{"S1", "apple", "2023-01-01", 6},
		sale{"S2", "apple", "2023-01-01", 1},
		sale{"S1", "fig", "2023-01-01", 2},
		sale{"S2", "pear", "2023-01-01", 3},
	)
}

func TestTabulateCrossImportance(t *testing.T) {
	ct, err := TabulateCrossImportance(crossFixture(), []string{"store"}, []string{"item"}, "sales")
	if err != nil {
		t.Fatalf("TabulateCrossImportance: %v", err)
	}

	want := []struct {
		id1, id2 string
		pct      float64
		label    string
		tier     int
	}{
		{"S1", "apple", 0.6, "60.0%", 0},
		{"S1", "fig", 0.2, "20.0%", 1},
		{"S1", "pear", 0.2, "20.0%", 2},
		{"S2", "pear", 0.75, "75.0%", 0},
		{"S2", "apple", 0.25, "25.0%", 1},
	}
	if len(ct.Rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(ct.Rows), len(want))
	}
	for i, w := range want {
		row := ct.Rows[i]
		if row.ID1Label != w.id1 || row.ID2Label != w.id2 || row.Tier != w.tier || row.PctLabel != w.label {
			t.Errorf("row %d = %s/%s tier %d %s, want %s/%s tier %d %s",
				i, row.ID1Label, row.ID2Label, row.Tier, row.PctLabel, w.id1, w.id2, w.tier, w.label)
		}
		approx(t, w.id1+"/"+w.id2+" pct", row.Pct, w.pct)
	}

	shares := map[string]float64{}
	for _, row := range ct.Rows {
		shares[row.ID1Label] += row.Pct
	}
	for id, s := range shares {
		approx(t, id+" share sum", s, 1)
	}

	if !reflect.DeepEqual(ct.Order, []string{"S2", "S1"}) {
		t.Errorf("order = %v, want [S2 S1]", ct.Order)
	}
	if ct.Tiers() != 3 {
		t.Errorf("tiers = %d, want 3", ct.Tiers())
	}
	approx(t, "S1 total", ct.Totals["S1"], 10)
}

func TestCrossOrderTieBreak(t *testing.T) {
	view := salesView(
		sale{"S2", "apple", "2023-01-01", 5},
		sale{"S1", "apple", "2023-01-01", 5},
		sale{"S3", "apple", "2023-01-01", 1},
	)
	ct, err := TabulateCrossImportance(view, []string{"store"}, []string{"item"}, "sales")
	if err != nil {
		t.Fatalf("TabulateCrossImportance: %v", err)
	}
	if !reflect.DeepEqual(ct.Order, []string{"S3", "S1", "S2"}) {
		t.Errorf("order = %v", ct.Order)
	}
	if len(ct.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(ct.Rows))
	}
	for _, row := range ct.Rows {
		approx(t, row.ID1Label+" pct", row.Pct, 1)
		if row.PctLabel != "100.0%" || row.Tier != 0 {
			t.Errorf("%s = %s tier %d, want 100.0%% tier 0", row.ID1Label, row.PctLabel, row.Tier)
		}
	}
	if ct.Tiers() != 1 {
		t.Errorf("tiers = %d, want 1", ct.Tiers())
	}

	fig, err := CrossImportanceChart(view, []string{"store"}, []string{"item"}, "sales", AxisPct, "")
	if err != nil {
		t.Fatalf("CrossImportanceChart: %v", err)
	}
	if len(fig.Data) != 1 {
		t.Fatalf("traces = %d, want 1", len(fig.Data))
	}
	if got := len(fig.Data[0].Y); got != 3 {
		t.Errorf("segments = %d, want 3", got)
	}
	if !reflect.DeepEqual(fig.Layout.YAxis.CategoryArray, ct.Order) {
		t.Errorf("category array = %v, want %v", fig.Layout.YAxis.CategoryArray, ct.Order)
	}
}

func TestCrossImportanceChart(t *testing.T) {
	fig, err := CrossImportanceChart(crossFixture(), []string{"store"}, []string{"item"}, "sales", AxisPct, "Mix")
	if err != nil {
		t.Fatalf("CrossImportanceChart: %v", err)
	}

	if len(fig.Data) != 3 {
		t.Fatalf("traces = %d, want one per tier", len(fig.Data))
	}
	top := fig.Data[0]
	if top.Type != "bar" || top.Orientation != "h" || top.Name != "0" {
		t.Errorf("tier 0 trace = %s/%s/%s", top.Type, top.Orientation, top.Name)
	}
	if !reflect.DeepEqual(top.Y, []interface{}{"S1", "S2"}) {
		t.Errorf("tier 0 y = %v", top.Y)
	}
	if !reflect.DeepEqual(top.Text, []string{"apple", "pear"}) {
		t.Errorf("tier 0 text = %v", top.Text)
	}
	if !strings.Contains(top.HoverTemplate, "item: %{customdata[0]}") {
		t.Errorf("hover = %q", top.HoverTemplate)
	}
	if top.CustomData[1][1] != "75.0%" {
		t.Errorf("customdata = %v", top.CustomData)
	}
	if len(fig.Data[2].Y) != 1 {
		t.Errorf("tier 2 y = %v, want only S1", fig.Data[2].Y)
	}

	if fig.Layout.Title != "Mix" || fig.Layout.BarMode != "stack" {
		t.Errorf("layout = %+v", fig.Layout)
	}
	if fig.Layout.Height != 100+40*2 {
		t.Errorf("height = %d, want 180", fig.Layout.Height)
	}
	if !reflect.DeepEqual(fig.Layout.YAxis.CategoryArray, []string{"S2", "S1"}) {
		t.Errorf("category array = %v", fig.Layout.YAxis.CategoryArray)
	}

	val, err := CrossImportanceChart(crossFixture(), []string{"store"}, []string{"item"}, "sales", AxisVal, "")
	if err != nil {
		t.Fatalf("val axis: %v", err)
	}
	if !reflect.DeepEqual(val.Data[0].X, []interface{}{6.0, 3.0}) {
		t.Errorf("val x = %v, want [6 3]", val.Data[0].X)
	}
	if val.Layout.XAxis.Title != "val" {
		t.Errorf("x title = %q", val.Layout.XAxis.Title)
	}
}

func TestCrossRecords(t *testing.T) {
	ct, err := TabulateCrossImportance(crossFixture(), []string{"store"}, []string{"item"}, "sales")
	if err != nil {
		t.Fatalf("TabulateCrossImportance: %v", err)
	}
	recs := ct.Records()
	if got := recs.Dimension(0, CrossTierColumn); got != "0" {
		t.Errorf("top = %q", got)
	}
	if got := recs.Dimension(3, "item"); got != "pear" {
		t.Errorf("item = %q", got)
	}
	approx(t, "total", recs.Measure(3, CrossTotalColumn), 4)

	table := BuildCrossTable(ct, "")
	if table.Title != "Cross importance of sales" {
		t.Errorf("title = %q", table.Title)
	}
}

func TestCrossImportanceErrors(t *testing.T) {
	zero := salesView(
		sale{"S1", "apple", "2023-01-01", 3},
		sale{"S2", "apple", "2023-01-01", 0},
	)
	_, err := TabulateCrossImportance(zero, []string{"store"}, []string{"item"}, "sales")
	if !errors.Is(err, ErrZeroTotal) {
		t.Fatalf("err = %v, want ErrZeroTotal", err)
	}
	var degenerate *DegenerateError
	if !errors.As(err, &degenerate) || degenerate.Group != "S2" {
		t.Errorf("degenerate = %+v", degenerate)
	}

	if _, err := TabulateCrossImportance(crossFixture(), []string{"store"}, nil, "sales"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("no id2: err = %v", err)
	}
	if _, err := TabulateCrossImportance(crossFixture(), []string{"store"}, []string{"sku"}, "sales"); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("missing id2: err = %v", err)
	}
	if _, err := TabulateCrossImportance(crossFixture(), []string{"store"}, []string{"item"}, "item"); !errors.Is(err, ErrColumnKind) {
		t.Errorf("dimension weight: err = %v", err)
	}
}

func TestParseCrossAxis(t *testing.T) {
	if a, err := ParseCrossAxis("VAL"); err != nil || a != AxisVal {
		t.Errorf("VAL = %v, %v", a, err)
	}
	if a, err := ParseCrossAxis(""); err != nil || a != AxisPct {
		t.Errorf("empty = %v, %v", a, err)
	}
	if _, err := ParseCrossAxis("log"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("log: err = %v", err)
	}
}
