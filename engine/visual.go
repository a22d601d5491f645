package engine

import (
	"fmt"
	"log"
	"time"
)

// ============================================================================
// SERIES COMPOSER — Multi-series time plot with an identifier dropdown
// ============================================================================
// Every selected identifier contributes its own block of traces to a single
// figure. The dropdown has one button per identifier; a button shows that
// identifier's block and hides every other one. Before any selection
// (Active = -1) all traces are visible.
// ============================================================================

// SeriesOptions configures VisualizeSeries.
type SeriesOptions struct {
	IDs       []string   // identifiers offered in the dropdown
	Group     string     // dimension holding the identifier
	TimeCol   string     // x axis
	Values    []string   // measures drawn as lines
	Colors    []string   // one color per value column, cycled
	SplitDate *time.Time // start of the shaded held-out band
	Weekdays  bool       // add weekday-colored markers
	Scatter   bool       // add markers on top of the lines
}

// SeriesPanel is the data behind one identifier's block of traces.
type SeriesPanel struct {
	ID   string
	View RecordView
}

// Weekday marker styling.
const (
	weekdayMarkerSize  = 8
	weekdayOutlineSize = 1
)

// SplitBandColor fills the held-out band.
const SplitBandColor = "LightSeaGreen"

func (o SeriesOptions) validate(view RecordView) error {
	if o.Group == "" {
		return fmt.Errorf("%w: group column is required", ErrInvalidOption)
	}
	if len(o.Values) == 0 {
		return fmt.Errorf("%w: at least one value column is required", ErrInvalidOption)
	}
	if err := requireColumns(view, "identifier", KindDimension, o.Group); err != nil {
		return err
	}
	if err := requireColumns(view, "time", KindTime, o.TimeCol); err != nil {
		return err
	}
	return requireColumns(view, "value", KindMeasure, o.Values...)
}

// SeriesPanels filters view once per selected identifier. An identifier
// with no rows yields an empty panel.
func SeriesPanels(view RecordView, so SeriesOptions) ([]SeriesPanel, error) {
	if err := so.validate(view); err != nil {
		return nil, fmt.Errorf("visualize: %w", err)
	}
	panels := make([]SeriesPanel, 0, len(so.IDs))
	for _, id := range so.IDs {
		panels = append(panels, SeriesPanel{ID: id, View: FilterEqual(view, so.Group, id)})
	}
	return panels, nil
}

// VisualizeSeries builds the combined figure with its identifier dropdown.
func VisualizeSeries(view RecordView, so SeriesOptions, opts ...Option) (*Figure, error) {
	cfg := applyOptions(opts)

	panels, err := SeriesPanels(view, so)
	if err != nil {
		return nil, err
	}

	colors := so.Colors
	if len(colors) == 0 {
		colors = cfg.Palette
	}

	fig := newFigure("")
	blocks := make([][2]int, len(panels)) // [start, end) trace range per panel
	for p, panel := range panels {
		start := len(fig.Data)
		fig.Data = append(fig.Data, panelTraces(panel, so, colors, cfg.Palette)...)
		blocks[p] = [2]int{start, len(fig.Data)}
	}

	buttons := make([]Button, len(panels))
	for p, panel := range panels {
		visible := make([]bool, len(fig.Data))
		for t := blocks[p][0]; t < blocks[p][1]; t++ {
			visible[t] = true
		}
		buttons[p] = Button{
			Label:   panel.ID,
			Method:  "update",
			Visible: visible,
			Patch: map[string]interface{}{
				"showlegend": true,
				"title":      "id = " + panel.ID,
			},
		}
	}
	fig.Layout.UpdateMenus = []UpdateMenu{{Type: "dropdown", Active: -1, Buttons: buttons}}
	fig.Layout.XAxis = Axis{Title: so.TimeCol, Type: "date"}
	fig.Layout.ShowLegend = boolPtr(true)

	if so.SplitDate != nil {
		if end, ok := MaxTime(view, so.TimeCol); ok {
			fig.Layout.Shapes = append(fig.Layout.Shapes, Shape{
				Type:      "rect",
				XRef:      "x",
				YRef:      "paper",
				X0:        *so.SplitDate,
				X1:        end,
				Y0:        0,
				Y1:        1,
				FillColor: SplitBandColor,
				Layer:     "below",
				Line:      ShapeLine{Width: 0},
			})
		} else {
			log.Printf("⚠️ idscope: split date ignored, %q holds no time values", so.TimeCol)
		}
	}

	log.Printf("🔧 idscope: series figure with %d identifiers, %d traces", len(panels), len(fig.Data))

	return fig, nil
}

// panelTraces builds one identifier's traces: lines, optional markers,
// optional weekday markers.
func panelTraces(panel SeriesPanel, so SeriesOptions, colors, palette []string) []Trace {
	v := panel.View
	var traces []Trace

	for i, value := range so.Values {
		tr := newTrace("scatter", "lines", value)
		tr.Line = &Line{Color: colorAt(colors, i)}
		fillXY(&tr, v, so.TimeCol, value, nil)
		traces = append(traces, tr)
	}

	if so.Scatter {
		for i, value := range so.Values {
			tr := newTrace("scatter", "markers", value)
			tr.Marker = &Marker{Color: colorAt(colors, i)}
			fillXY(&tr, v, so.TimeCol, value, nil)
			traces = append(traces, tr)
		}
	}

	if so.Weekdays {
		days, rows := weekdayRows(v, so.TimeCol)
		for _, value := range so.Values {
			for d, day := range days {
				tr := newTrace("scatter", "markers", day)
				tr.LegendGroup = day
				tr.Marker = &Marker{
					Color: colorAt(palette, d),
					Size:  weekdayMarkerSize,
					Line:  &Line{Color: "black", Width: weekdayOutlineSize},
				}
				fillXY(&tr, v, so.TimeCol, value, rows[day])
				traces = append(traces, tr)
			}
		}
	}

	return traces
}

// fillXY appends (time, value) points of view to tr; indices selects rows
// (nil = all rows).
func fillXY(tr *Trace, view RecordView, timeCol, value string, indices []int) {
	if indices == nil {
		for i := 0; i < view.Len(); i++ {
			tr.X = append(tr.X, view.Time(i, timeCol))
			tr.Y = append(tr.Y, view.Measure(i, value))
		}
		return
	}
	for _, i := range indices {
		tr.X = append(tr.X, view.Time(i, timeCol))
		tr.Y = append(tr.Y, view.Measure(i, value))
	}
}

// weekdayRows groups row indices by weekday name, names in first-appearance order.
func weekdayRows(view RecordView, timeCol string) ([]string, map[string][]int) {
	var days []string
	rows := make(map[string][]int)
	for i := 0; i < view.Len(); i++ {
		day := view.Time(i, timeCol).Weekday().String()
		if _, ok := rows[day]; !ok {
			days = append(days, day)
		}
		rows[day] = append(rows[day], i)
	}
	return days, rows
}
