package engine

import (
	"encoding/json"
	"time"
)

// ============================================================================
// IDSCOPE ENGINE TYPES — Identifier-keyed tabular time series
// ============================================================================
// Record carries three typed column families: string dimensions (identifiers
// and categories), numeric measures and timestamps. Derived tables produced
// by the transforms use the same Record model, so a lag table or a ranking
// can be fed straight back into another transform.
//
// Dependency: engine uses uuid (figure/trace ids) and decimal (rounding).
// ============================================================================

// ============================================================================
// RECORD — Generic data row
// ============================================================================

// Record is a single observation.
//
//	Record{
//	    Dimensions: {"store": "S1", "item": "apple"},
//	    Measures:   {"sales": 12},
//	    Times:      {"date": 2023-01-01},
//	}
type Record struct {
	Dimensions map[string]string    `json:"dimensions,omitempty"`
	Measures   map[string]float64   `json:"measures,omitempty"`
	Times      map[string]time.Time `json:"times,omitempty"`
}

// NewRecord returns a Record with all maps allocated.
func NewRecord() Record {
	return Record{
		Dimensions: make(map[string]string),
		Measures:   make(map[string]float64),
		Times:      make(map[string]time.Time),
	}
}

// ============================================================================
// RESULT — Render-ready output of Execute
// ============================================================================

// Result is what Execute hands back to a consumer.
// Figure is set for chart requests; TableData is always set so the same
// result can be written as CSV or XLSX. Data holds the typed summary
// (*CoverageSummary, *ImportanceRanking, *CrossTable or *SliceView).
type Result struct {
	Type      string      `json:"type"` // "chart", "table"
	Kind      string      `json:"kind"` // "coverage", "importance", "cross", "lag", "visualize"
	Title     string      `json:"title,omitempty"`
	Figure    *Figure     `json:"figure,omitempty"`
	TableData *TableData  `json:"tableData,omitempty"`
	Data      interface{} `json:"-"`
}

// ============================================================================
// FIGURE — Declarative chart description
// ============================================================================
// Field names follow the plotly figure JSON so a browser front end can pass
// a marshalled Figure straight to Plotly.newPlot. The engine only sets
// declarative properties; drawing is left to the consumer (or render.PNG).
// ============================================================================

// Figure is a complete chart: traces plus layout.
type Figure struct {
	ID      string                 `json:"id"`
	Data    []Trace                `json:"data"`
	Layout  Layout                 `json:"layout"`
	Options map[string]interface{} `json:"options,omitempty"` // caller styling, passed through unchanged
}

// Trace is one drawable series.
type Trace struct {
	UID           string          `json:"uid"`
	Type          string          `json:"type"`           // "scatter", "bar"
	Mode          string          `json:"mode,omitempty"` // "lines", "markers"
	Name          string          `json:"name,omitempty"`
	Orientation   string          `json:"orientation,omitempty"`
	X             []interface{}   `json:"x"`
	Y             []interface{}   `json:"y"`
	Text          []string        `json:"text,omitempty"`
	CustomData    [][]interface{} `json:"customdata,omitempty"`
	HoverTemplate string          `json:"hovertemplate,omitempty"`
	LegendGroup   string          `json:"legendgroup,omitempty"`
	Line          *Line           `json:"line,omitempty"`
	Marker        *Marker         `json:"marker,omitempty"`
	Visible       *bool           `json:"visible,omitempty"`
}

// Line styles a trace line or a marker outline.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
}

// Marker styles trace points.
type Marker struct {
	Color string  `json:"color,omitempty"`
	Size  float64 `json:"size,omitempty"`
	Line  *Line   `json:"line,omitempty"`
}

// Layout holds figure-level presentation.
type Layout struct {
	Title       string       `json:"title,omitempty"`
	Height      int          `json:"height,omitempty"`
	BarMode     string       `json:"barmode,omitempty"`
	ShowLegend  *bool        `json:"showlegend,omitempty"`
	XAxis       Axis         `json:"xaxis"`
	YAxis       Axis         `json:"yaxis"`
	Shapes      []Shape      `json:"shapes,omitempty"`
	UpdateMenus []UpdateMenu `json:"updatemenus,omitempty"`
}

// Axis configures one axis. CategoryArray fixes category order when
// CategoryOrder is "array".
type Axis struct {
	Title         string   `json:"title,omitempty"`
	Type          string   `json:"type,omitempty"`
	CategoryOrder string   `json:"categoryorder,omitempty"`
	CategoryArray []string `json:"categoryarray,omitempty"`
	TickFormat    string   `json:"tickformat,omitempty"`
}

// Shape is a layout decoration such as a shaded vertical band.
type Shape struct {
	Type      string      `json:"type"`
	XRef      string      `json:"xref"`
	YRef      string      `json:"yref"`
	X0        interface{} `json:"x0"`
	X1        interface{} `json:"x1"`
	Y0        float64     `json:"y0"`
	Y1        float64     `json:"y1"`
	FillColor string      `json:"fillcolor,omitempty"`
	Layer     string      `json:"layer,omitempty"`
	Line      ShapeLine   `json:"line"`
}

// ShapeLine always serializes its width so a zero width disables the border.
type ShapeLine struct {
	Width float64 `json:"width"`
}

// UpdateMenu is an interactive control (dropdown) attached to the figure.
// Active is -1 when no button is selected.
type UpdateMenu struct {
	Type    string   `json:"type"`
	Active  int      `json:"active"`
	Buttons []Button `json:"buttons"`
}

// Button is a single "update" action: a trace visibility mask plus a
// layout patch applied when the button is chosen.
type Button struct {
	Label   string
	Method  string
	Visible []bool
	Patch   map[string]interface{}
}

// MarshalJSON writes the button in plotly form: {label, method, args: [{visible}, patch]}.
func (b Button) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Label  string        `json:"label"`
		Method string        `json:"method"`
		Args   []interface{} `json:"args"`
	}{
		Label:  b.Label,
		Method: b.Method,
		Args: []interface{}{
			map[string]interface{}{"visible": b.Visible},
			b.Patch,
		},
	})
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "time"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
