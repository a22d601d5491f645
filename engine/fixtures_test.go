package engine

import (
	"math"
	"testing"
	"time"
)

// ============================================================================
// Shared fixtures
// ============================================================================

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// exampleView is the three-row dataset used throughout: two ids, one
// measure v, one time t.
func exampleView() *SliceView {
	return NewSliceView([]Record{
		{Dimensions: map[string]string{"id": "A"}, Measures: map[string]float64{"v": 10}, Times: map[string]time.Time{"t": day("2023-01-01")}},
		{Dimensions: map[string]string{"id": "A"}, Measures: map[string]float64{"v": 20}, Times: map[string]time.Time{"t": day("2023-01-02")}},
		{Dimensions: map[string]string{"id": "B"}, Measures: map[string]float64{"v": 30}, Times: map[string]time.Time{"t": day("2023-01-01")}},
	})
}

type sale struct {
	store string
	item  string
	date  string
	sales float64
}

func salesView(rows ...sale) *SliceView {
	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec := NewRecord()
		rec.Dimensions["store"] = r.store
		rec.Dimensions["item"] = r.item
		rec.Measures["sales"] = r.sales
		rec.Times["date"] = day(r.date)
		records = append(records, rec)
	}
	return NewSliceViewWithKeys(records, []string{"store", "item"}, []string{"sales"}, []string{"date"})
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}
