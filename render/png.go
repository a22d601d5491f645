// Package render draws an engine.Figure as a static PNG through go-chart.
//
// Only the declarative parts go-chart can express are honored: scatter
// traces (lines or markers) over a time or numeric x axis, category y
// axes, stacked bars, and a shaded vertical band. Dropdowns and hover
// templates are interactive features and are ignored.
package render

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/idscope/engine"
)

// ErrNothingToDraw is returned for a figure without drawable points.
var ErrNothingToDraw = errors.New("figure has no drawable points")

// Canvas defaults.
const (
	DefaultWidth  = 1024
	DefaultHeight = 480
	markerDot     = 4
	lineWidth     = 2
)

// PNG renders fig into w.
func PNG(w io.Writer, fig *engine.Figure) error {
	if fig == nil || len(fig.Data) == 0 {
		return ErrNothingToDraw
	}
	if isStackedBar(fig) {
		return renderStackedBars(w, fig)
	}
	return renderScatter(w, fig)
}

func canvasHeight(fig *engine.Figure) int {
	if fig.Layout.Height > DefaultHeight {
		return fig.Layout.Height
	}
	return DefaultHeight
}

func isStackedBar(fig *engine.Figure) bool {
	for _, tr := range fig.Data {
		if tr.Type != "bar" {
			return false
		}
	}
	return true
}

// ============================================================================
// SCATTER — lines and markers
// ============================================================================

func renderScatter(w io.Writer, fig *engine.Figure) error {
	categories := categoryIndex(fig.Layout.YAxis)

	var series []chart.Series
	xMin, xMax := math.Inf(1), math.Inf(-1)
	yMin, yMax := math.Inf(1), math.Inf(-1)
	timeAxis := false

	for i, tr := range fig.Data {
		if tr.Type != "scatter" {
			continue
		}
		xs, times, ys := points(tr, categories)
		if len(ys) == 0 {
			continue
		}
		for _, y := range ys {
			yMin, yMax = math.Min(yMin, y), math.Max(yMax, y)
		}

		style := traceStyle(tr, i)
		if times != nil {
			timeAxis = true
			for _, t := range times {
				x := chart.TimeToFloat64(t)
				xMin, xMax = math.Min(xMin, x), math.Max(xMax, x)
			}
			series = append(series, chart.TimeSeries{Name: tr.Name, XValues: times, YValues: ys, Style: style})
		} else {
			for _, x := range xs {
				xMin, xMax = math.Min(xMin, x), math.Max(xMax, x)
			}
			series = append(series, chart.ContinuousSeries{Name: tr.Name, XValues: xs, YValues: ys, Style: style})
		}
	}
	if len(series) == 0 {
		return ErrNothingToDraw
	}

	if band, ok := splitBand(fig.Layout.Shapes, yMin, yMax); ok && timeAxis {
		series = append([]chart.Series{band}, series...)
		xMin = math.Min(xMin, chart.TimeToFloat64(band.XValues[0]))
		xMax = math.Max(xMax, chart.TimeToFloat64(band.XValues[1]))
	}

	xAxis := chart.XAxis{Name: fig.Layout.XAxis.Title, Range: paddedRange(xMin, xMax)}
	if timeAxis {
		xAxis.ValueFormatter = chart.TimeDateValueFormatter
	}
	yAxis := chart.YAxis{Name: fig.Layout.YAxis.Title, Range: paddedRange(yMin, yMax)}
	if len(categories) > 0 {
		ticks := make([]chart.Tick, len(fig.Layout.YAxis.CategoryArray))
		for i, c := range fig.Layout.YAxis.CategoryArray {
			ticks[i] = chart.Tick{Value: float64(i), Label: c}
		}
		yAxis.Ticks = ticks
		yAxis.Range = &chart.ContinuousRange{Min: -1, Max: float64(len(ticks))}
	}

	ch := chart.Chart{
		Title:      fig.Layout.Title,
		Width:      DefaultWidth,
		Height:     canvasHeight(fig),
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      xAxis,
		YAxis:      yAxis,
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	log.Printf("🖼️ idscope: rendered %d series to PNG", len(series))
	return nil
}

// points extracts numeric x (or time x) and y values. Category y values
// map to their index in the category array; unknown categories and
// non-numeric values are dropped.
func points(tr engine.Trace, categories map[string]int) ([]float64, []time.Time, []float64) {
	var xs []float64
	var times []time.Time
	var ys []float64
	for i := range tr.X {
		if i >= len(tr.Y) {
			break
		}
		y, ok := toFloat(tr.Y[i], categories)
		if !ok {
			continue
		}
		switch x := tr.X[i].(type) {
		case time.Time:
			if x.IsZero() {
				continue
			}
			times = append(times, x)
		default:
			f, ok := toFloat(x, nil)
			if !ok {
				continue
			}
			xs = append(xs, f)
		}
		ys = append(ys, y)
	}
	if len(times) > 0 && len(xs) > 0 {
		// mixed x kinds cannot share one axis
		return nil, nil, nil
	}
	return xs, times, ys
}

func toFloat(v interface{}, categories map[string]int) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		idx, ok := categories[x]
		return float64(idx), ok
	default:
		return 0, false
	}
}

func categoryIndex(axis engine.Axis) map[string]int {
	if axis.Type != "category" || len(axis.CategoryArray) == 0 {
		return nil
	}
	index := make(map[string]int, len(axis.CategoryArray))
	for i, c := range axis.CategoryArray {
		index[c] = i
	}
	return index
}

func traceStyle(tr engine.Trace, i int) chart.Style {
	if tr.Mode == "markers" {
		color := chart.GetDefaultColor(i)
		if tr.Marker != nil && tr.Marker.Color != "" {
			color = parseColor(tr.Marker.Color, color)
		}
		dot := float64(markerDot)
		if tr.Marker != nil && tr.Marker.Size > 0 {
			dot = tr.Marker.Size / 2
		}
		return chart.Style{StrokeWidth: chart.Disabled, DotWidth: dot, DotColor: color}
	}
	color := chart.GetDefaultColor(i)
	if tr.Line != nil && tr.Line.Color != "" {
		color = parseColor(tr.Line.Color, color)
	}
	return chart.Style{StrokeColor: color, StrokeWidth: lineWidth}
}

// splitBand turns the first rect shape into a filled series spanning the
// full y range.
func splitBand(shapes []engine.Shape, yMin, yMax float64) (chart.TimeSeries, bool) {
	for _, s := range shapes {
		if s.Type != "rect" {
			continue
		}
		x0, ok0 := s.X0.(time.Time)
		x1, ok1 := s.X1.(time.Time)
		if !ok0 || !ok1 || !x1.After(x0) {
			continue
		}
		fill := parseColor(s.FillColor, chart.ColorAlternateGray).WithAlpha(64)
		return chart.TimeSeries{
			Name:    "split",
			XValues: []time.Time{x0, x1},
			YValues: []float64{yMax, yMax},
			Style:   chart.Style{StrokeWidth: chart.Disabled, FillColor: fill},
		}, true
	}
	return chart.TimeSeries{}, false
}

// paddedRange avoids the zero-width ranges go-chart refuses to draw.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if hi <= lo {
		pad := math.Max(math.Abs(lo)*0.05, 1)
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// ============================================================================
// STACKED BARS — one bar per category, one segment per trace
// ============================================================================

func renderStackedBars(w io.Writer, fig *engine.Figure) error {
	order := fig.Layout.YAxis.CategoryArray
	segments := make(map[string][]chart.Value)
	for i, tr := range fig.Data {
		color := chart.GetDefaultColor(i)
		if tr.Marker != nil && tr.Marker.Color != "" {
			color = parseColor(tr.Marker.Color, color)
		}
		for k := range tr.Y {
			category, ok := tr.Y[k].(string)
			if !ok || k >= len(tr.X) {
				continue
			}
			v, ok := toFloat(tr.X[k], nil)
			if !ok {
				continue
			}
			label := ""
			if k < len(tr.Text) {
				label = tr.Text[k]
			}
			segments[category] = append(segments[category], chart.Value{
				Label: label,
				Value: v,
				Style: chart.Style{FillColor: color, StrokeColor: color},
			})
			if !contains(order, category) {
				order = append(order, category)
			}
		}
	}

	var bars []chart.StackedBar
	for _, category := range order {
		if len(segments[category]) == 0 {
			continue
		}
		bars = append(bars, chart.StackedBar{Name: category, Values: segments[category]})
	}
	if len(bars) == 0 {
		return ErrNothingToDraw
	}

	sbc := chart.StackedBarChart{
		Title:      fig.Layout.Title,
		Width:      DefaultWidth,
		Height:     canvasHeight(fig),
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	if err := sbc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	log.Printf("🖼️ idscope: rendered %d stacked bars to PNG", len(bars))
	return nil
}

// ============================================================================
// COLORS
// ============================================================================

var namedColors = map[string]drawing.Color{
	"black":         drawing.ColorBlack,
	"white":         drawing.ColorWhite,
	"red":           drawing.ColorRed,
	"green":         drawing.ColorGreen,
	"blue":          drawing.ColorBlue,
	"lightseagreen": {R: 32, G: 178, B: 170, A: 255},
}

// parseColor reads "#rrggbb" or a known CSS color name.
func parseColor(s string, fallback drawing.Color) drawing.Color {
	s = strings.TrimSpace(s)
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 3 {
		return fallback
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return fallback
		}
	}
	return drawing.ColorFromHex(hex)
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
