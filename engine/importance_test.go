package engine

import (
	"errors"
	"testing"
)

func TestRankImportanceExample(t *testing.T) {
	r, err := RankImportance(exampleView(), []string{"id"}, "v")
	if err != nil {
		t.Fatalf("RankImportance: %v", err)
	}
	if len(r.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(r.Rows))
	}

	want := []struct {
		label    string
		sum, pct float64
		cum      float64
	}{
		{"B", 30, 0.5, 0.5},
		{"A", 30, 0.5, 1.0},
	}
	for i, w := range want {
		row := r.Rows[i]
		if row.Label != w.label {
			t.Errorf("row %d label = %q, want %q", i, row.Label, w.label)
		}
		if row.Rank != i {
			t.Errorf("row %d rank = %d", i, row.Rank)
		}
		approx(t, w.label+" sum", row.Sum, w.sum)
		approx(t, w.label+" pct", row.Pct, w.pct)
		approx(t, w.label+" cumulative", row.CumulativePct, w.cum)
	}
	approx(t, "total", r.Total, 60)
	if r.CumulativeColumn() != "cumulative sum v" {
		t.Errorf("cumulative column = %q", r.CumulativeColumn())
	}
}

func TestRankImportanceCumulative(t *testing.T) {
	view := salesView(
		sale{"S1", "apple", "2023-01-01", 2},
		sale{"S2", "apple", "2023-01-01", 5},
		sale{"S3", "apple", "2023-01-01", 1},
		sale{"S3", "pear", "2023-01-02", 2},
	)
	r, err := RankImportance(view, []string{"store"}, "sales")
	if err != nil {
		t.Fatalf("RankImportance: %v", err)
	}

	labels := []string{"S2", "S3", "S1"}
	for i, l := range labels {
		if r.Rows[i].Label != l {
			t.Errorf("row %d = %q, want %q", i, r.Rows[i].Label, l)
		}
	}
	if r.Rows[1].Count != 2 {
		t.Errorf("S3 count = %d, want 2", r.Rows[1].Count)
	}

	prev := 0.0
	for _, row := range r.Rows {
		if row.CumulativePct < prev {
			t.Errorf("cumulative decreased at %q: %v < %v", row.Label, row.CumulativePct, prev)
		}
		prev = row.CumulativePct
	}
	approx(t, "last cumulative", prev, 1)
}

func TestRankImportanceCompositeIDs(t *testing.T) {
	view := salesView(
		sale{"S1", "apple", "2023-01-01", 1},
		sale{"S1", "pear", "2023-01-01", 3},
	)
	r, err := RankImportance(view, []string{"store", "item"}, "sales", WithDelimiter("/"))
	if err != nil {
		t.Fatalf("RankImportance: %v", err)
	}
	if r.Rows[0].Label != "S1/pear" || r.Rows[1].Label != "S1/apple" {
		t.Errorf("labels = %q, %q", r.Rows[0].Label, r.Rows[1].Label)
	}

	recs := r.Records()
	if got := recs.Dimension(0, "item"); got != "pear" {
		t.Errorf("record item = %q, want pear", got)
	}
	approx(t, "record pct", recs.Measure(0, PctColumn), 0.75)
}

func TestRankImportanceErrors(t *testing.T) {
	zero := salesView(
		sale{"S1", "apple", "2023-01-01", 0},
		sale{"S2", "apple", "2023-01-01", 0},
	)
	empty := NewSliceViewWithKeys(nil, []string{"id"}, []string{"v"}, []string{"t"})

	tests := []struct {
		name    string
		view    RecordView
		ids     []string
		measure string
		want    error
	}{
		{"zero total", zero, []string{"store"}, "sales", ErrZeroTotal},
		{"empty table", empty, []string{"id"}, "v", ErrEmptyTable},
		{"missing id", exampleView(), []string{"store"}, "v", ErrMissingColumn},
		{"missing measure", exampleView(), []string{"id"}, "amount", ErrMissingColumn},
		{"time as id", exampleView(), []string{"t"}, "v", ErrColumnKind},
		{"no ids", exampleView(), nil, "v", ErrInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RankImportance(tt.view, tt.ids, tt.measure)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	_, err := RankImportance(zero, []string{"store"}, "sales")
	var degenerate *DegenerateError
	if !errors.As(err, &degenerate) {
		t.Fatalf("err = %T, want *DegenerateError", err)
	}
	if degenerate.Measure != "sales" || degenerate.Group != "" {
		t.Errorf("degenerate = %+v", degenerate)
	}
}

func TestIDImportanceModes(t *testing.T) {
	tab, err := IDImportance(exampleView(), []string{"id"}, "v", ModeTable)
	if err != nil {
		t.Fatalf("table mode: %v", err)
	}
	if tab.Type != "table" || tab.Figure != nil {
		t.Errorf("table mode: type %q, figure %v", tab.Type, tab.Figure)
	}
	if len(tab.TableData.Rows) != 2 || tab.TableData.Rows[0][0] != "B" {
		t.Errorf("table rows = %v", tab.TableData.Rows)
	}

	graph, err := IDImportance(exampleView(), []string{"id"}, "v", ModeGraph)
	if err != nil {
		t.Fatalf("graph mode: %v", err)
	}
	if graph.Figure == nil || len(graph.Figure.Data) != 1 {
		t.Fatalf("graph mode figure = %+v", graph.Figure)
	}
	tr := graph.Figure.Data[0]
	if tr.X[0] != 0 || tr.X[1] != 1 {
		t.Errorf("x = %v, want ranks 0, 1", tr.X)
	}
	if tr.Y[1] != 1.0 {
		t.Errorf("y = %v, want to end at 1", tr.Y)
	}
	if graph.Figure.Layout.XAxis.Title != "Combination[id]" {
		t.Errorf("x title = %q", graph.Figure.Layout.XAxis.Title)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"tab", ModeTable, false},
		{"", ModeTable, false},
		{"Graph", ModeGraph, false},
		{"chart", ModeGraph, false},
		{"pie", ModeTable, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
