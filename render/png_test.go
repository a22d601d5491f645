package render

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/idscope/engine"
)

var pngMagic = []byte("\x89PNG")

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func salesView() *engine.SliceView {
	mk := func(store, item, date string, sales float64) engine.Record {
		rec := engine.NewRecord()
		rec.Dimensions["store"] = store
		rec.Dimensions["item"] = item
		rec.Measures["sales"] = sales
		rec.Times["date"] = day(date)
		return rec
	}
	return engine.NewSliceView([]engine.Record{
		mk("S1", "apple", "2023-01-01", 10),
		mk("S1", "apple", "2023-01-02", 5),
		mk("S1", "pear", "2023-01-03", 2),
		mk("S2", "pear", "2023-01-01", 7),
		mk("S2", "apple", "2023-01-04", 1),
	})
}

func TestPNGCoverage(t *testing.T) {
	fig, err := engine.CoverageChart(salesView(), []string{"store", "item"}, "date", map[string]interface{}{"title": "Coverage"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, fig))
	require.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPNGImportance(t *testing.T) {
	fig, err := engine.ImportanceChart(salesView(), []string{"store"}, "sales")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, fig))
	require.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPNGCrossStackedBars(t *testing.T) {
	fig, err := engine.CrossImportanceChart(salesView(), []string{"store"}, []string{"item"}, "sales", engine.AxisPct, "")
	require.NoError(t, err)
	require.True(t, isStackedBar(fig))

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, fig))
	require.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPNGSeriesWithSplit(t *testing.T) {
	split := day("2023-01-02")
	fig, err := engine.VisualizeSeries(salesView(), engine.SeriesOptions{
		IDs:       []string{"S1", "S2"},
		Group:     "store",
		TimeCol:   "date",
		Values:    []string{"sales"},
		SplitDate: &split,
		Weekdays:  true,
	})
	require.NoError(t, err)
	require.Len(t, fig.Layout.Shapes, 1)

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, fig))
	require.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPNGNothingToDraw(t *testing.T) {
	tests := []struct {
		name string
		fig  *engine.Figure
	}{
		{"nil", nil},
		{"no traces", &engine.Figure{}},
		{"empty scatter", &engine.Figure{Data: []engine.Trace{{Type: "scatter", Mode: "lines"}}}},
		{"empty bars", &engine.Figure{Data: []engine.Trace{{Type: "bar", Orientation: "h"}}}},
		{"unknown categories", &engine.Figure{
			Data: []engine.Trace{{
				Type: "scatter",
				Mode: "markers",
				X:    []interface{}{day("2023-01-01")},
				Y:    []interface{}{"missing"},
			}},
			Layout: engine.Layout{YAxis: engine.Axis{Type: "category", CategoryArray: []string{"S1"}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := PNG(&buf, tt.fig)
			require.True(t, errors.Is(err, ErrNothingToDraw), "err = %v", err)
			require.Zero(t, buf.Len())
		})
	}
}

func TestPoints(t *testing.T) {
	tr := engine.Trace{
		X: []interface{}{day("2023-01-01"), time.Time{}, day("2023-01-03"), day("2023-01-04")},
		Y: []interface{}{1.0, 2.0, "b", 4},
	}
	xs, times, ys := points(tr, map[string]int{"a": 0, "b": 1})
	require.Nil(t, xs)
	require.Len(t, times, 3)
	require.Equal(t, []float64{1, 1, 4}, ys)

	mixed := engine.Trace{
		X: []interface{}{day("2023-01-01"), 2.0},
		Y: []interface{}{1.0, 2.0},
	}
	xs, times, ys = points(mixed, nil)
	require.Nil(t, xs)
	require.Nil(t, times)
	require.Nil(t, ys)
}

func TestSplitBand(t *testing.T) {
	shapes := []engine.Shape{
		{Type: "line"},
		{Type: "rect", X0: day("2023-01-05"), X1: day("2023-01-02")},
		{Type: "rect", X0: day("2023-01-02"), X1: day("2023-01-05"), FillColor: engine.SplitBandColor},
	}
	band, ok := splitBand(shapes, 0, 12)
	require.True(t, ok)
	require.Equal(t, []time.Time{day("2023-01-02"), day("2023-01-05")}, band.XValues)
	require.Equal(t, []float64{12, 12}, band.YValues)
	require.Equal(t, uint8(64), band.Style.FillColor.A)

	_, ok = splitBand(shapes[:2], 0, 12)
	require.False(t, ok)
}

func TestParseColor(t *testing.T) {
	fallback := drawing.ColorBlack
	tests := []struct {
		in   string
		want drawing.Color
	}{
		{"#ff0000", drawing.Color{R: 255, A: 255}},
		{"00ff00", drawing.Color{G: 255, A: 255}},
		{"LightSeaGreen", drawing.Color{R: 32, G: 178, B: 170, A: 255}},
		{" white ", drawing.ColorWhite},
		{"#12345", fallback},
		{"#zzzzzz", fallback},
		{"", fallback},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, parseColor(tt.in, fallback))
		})
	}
}

func TestPaddedRange(t *testing.T) {
	r := paddedRange(0, 0)
	require.Equal(t, -1.0, r.Min)
	require.Equal(t, 1.0, r.Max)

	r = paddedRange(100, 100)
	require.Equal(t, 95.0, r.Min)
	require.Equal(t, 105.0, r.Max)

	r = paddedRange(1, 3)
	require.Equal(t, 1.0, r.Min)
	require.Equal(t, 3.0, r.Max)
}

func TestCanvasHeight(t *testing.T) {
	require.Equal(t, DefaultHeight, canvasHeight(&engine.Figure{}))
	require.Equal(t, 900, canvasHeight(&engine.Figure{Layout: engine.Layout{Height: 900}}))
}
