package engine

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// ============================================================================
// EXECUTOR — Request dispatcher
// ============================================================================
// Entry point: Execute(req, view, opts...)
//
// Pipeline:
//   1. Apply filters from Request → SubView
//   2. Dispatch on Kind to the transform
//   3. Attach TableData (always) and Figure (chart kinds)
//   4. Return Result
//
// Zero data copy until a transform builds its derived table; the engine
// reads consumer data through RecordView.
// ============================================================================

// Request kinds.
const (
	KindCoverage   = "coverage"
	KindImportance = "importance"
	KindCross      = "cross"
	KindLag        = "lag"
	KindVisualize  = "visualize"
)

// Request is a serializable description of one transform. The CLI builds
// one from flags or decodes it from a config file.
type Request struct {
	Kind       string                 `json:"kind" mapstructure:"kind"`
	Filters    Filters                `json:"filters" mapstructure:"filters"`
	IDs        []string               `json:"ids" mapstructure:"ids"`
	IDs2       []string               `json:"ids2,omitempty" mapstructure:"ids2"`
	TimeColumn string                 `json:"timeColumn,omitempty" mapstructure:"time_column"`
	Measure    string                 `json:"measure,omitempty" mapstructure:"measure"`
	Mode       string                 `json:"mode,omitempty" mapstructure:"mode"`
	Axis       string                 `json:"axis,omitempty" mapstructure:"axis"`
	Title      string                 `json:"title,omitempty" mapstructure:"title"`
	Lagged     []string               `json:"lagged,omitempty" mapstructure:"lagged"`
	Period     string                 `json:"period,omitempty" mapstructure:"period"`
	Join       bool                   `json:"join,omitempty" mapstructure:"join"`
	Group      string                 `json:"group,omitempty" mapstructure:"group"`
	Select     []string               `json:"select,omitempty" mapstructure:"select"`
	Values     []string               `json:"values,omitempty" mapstructure:"values"`
	Colors     []string               `json:"colors,omitempty" mapstructure:"colors"`
	SplitDate  string                 `json:"splitDate,omitempty" mapstructure:"split_date"`
	Weekdays   bool                   `json:"weekdays,omitempty" mapstructure:"weekdays"`
	Scatter    bool                   `json:"scatter,omitempty" mapstructure:"scatter"`
	Args       map[string]interface{} `json:"args,omitempty" mapstructure:"args"`
}

// Execute runs a Request against a RecordView and returns a render-ready Result.
func Execute(req Request, view RecordView, opts ...Option) (*Result, error) {
	filtered := ApplyFilters(view, req.Filters)

	log.Printf("🔧 idscope: %s request over %d records (%d after filtering)",
		req.Kind, view.Len(), filtered.Len())

	switch strings.ToLower(req.Kind) {
	case KindCoverage:
		return executeCoverage(req, filtered, opts)
	case KindImportance:
		mode, err := ParseMode(req.Mode)
		if err != nil {
			return nil, err
		}
		result, err := IDImportance(filtered, req.IDs, req.Measure, mode, opts...)
		if err != nil {
			return nil, err
		}
		result.Title = req.Title
		if result.Figure != nil && req.Title != "" {
			result.Figure.Layout.Title = req.Title
		}
		return result, nil
	case KindCross:
		return executeCross(req, filtered, opts)
	case KindLag:
		return executeLag(req, filtered)
	case KindVisualize:
		return executeVisualize(req, filtered, opts)
	default:
		return nil, fmt.Errorf("%w: unknown request kind %q", ErrInvalidOption, req.Kind)
	}
}

func executeCoverage(req Request, view RecordView, opts []Option) (*Result, error) {
	summary, err := SummarizeCoverage(view, req.IDs, req.TimeColumn, opts...)
	if err != nil {
		return nil, err
	}
	args := req.Args
	if req.Title != "" {
		args = withTitle(args, req.Title)
	}
	fig := buildCoverageFigure(summary, args, applyOptions(opts))
	return &Result{
		Type:      "chart",
		Kind:      KindCoverage,
		Title:     req.Title,
		Figure:    fig,
		TableData: BuildCoverageTable(summary),
		Data:      summary,
	}, nil
}

func executeCross(req Request, view RecordView, opts []Option) (*Result, error) {
	axis, err := ParseCrossAxis(req.Axis)
	if err != nil {
		return nil, err
	}
	table, err := TabulateCrossImportance(view, req.IDs, req.IDs2, req.Measure, opts...)
	if err != nil {
		return nil, err
	}
	return &Result{
		Type:      "chart",
		Kind:      KindCross,
		Title:     req.Title,
		Figure:    buildCrossFigure(table, axis, req.Title, applyOptions(opts)),
		TableData: BuildCrossTable(table, req.Title),
		Data:      table,
	}, nil
}

func executeLag(req Request, view RecordView) (*Result, error) {
	period, err := ParsePeriod(req.Period)
	if err != nil {
		return nil, err
	}
	lagged, err := LagTable(view, req.IDs, req.TimeColumn, req.Lagged, period)
	if err != nil {
		return nil, err
	}
	out := lagged
	if req.Join {
		if out, err = JoinLag(view, lagged, req.IDs, req.TimeColumn); err != nil {
			return nil, err
		}
	}
	title := req.Title
	if title == "" {
		title = "Lag " + period.Label()
	}
	return &Result{
		Type:      "table",
		Kind:      KindLag,
		Title:     title,
		TableData: BuildViewTable(out, title),
		Data:      out,
	}, nil
}

func executeVisualize(req Request, view RecordView, opts []Option) (*Result, error) {
	so := SeriesOptions{
		IDs:      req.Select,
		Group:    req.Group,
		TimeCol:  req.TimeColumn,
		Values:   req.Values,
		Colors:   req.Colors,
		Weekdays: req.Weekdays,
		Scatter:  req.Scatter,
	}
	if len(so.IDs) == 0 && so.Group != "" {
		so.IDs = UniqueValues(view, so.Group)
	}
	if req.SplitDate != "" {
		split, err := time.Parse("2006-01-02", req.SplitDate)
		if err != nil {
			split, err = time.Parse(time.RFC3339, req.SplitDate)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: split date %q: %v", ErrInvalidOption, req.SplitDate, err)
		}
		so.SplitDate = &split
	}

	fig, err := VisualizeSeries(view, so, opts...)
	if err != nil {
		return nil, err
	}
	if req.Title != "" {
		fig.Layout.Title = req.Title
	}

	// table: the rows of the selected identifiers, in input order
	var indices []int
	selected := toSet(so.IDs)
	for i := 0; i < view.Len(); i++ {
		if selected[view.Dimension(i, so.Group)] {
			indices = append(indices, i)
		}
	}
	rows := newSubView(view, indices)

	return &Result{
		Type:      "chart",
		Kind:      KindVisualize,
		Title:     req.Title,
		Figure:    fig,
		TableData: BuildViewTable(rows, req.Title),
		Data:      rows,
	}, nil
}

func withTitle(args map[string]interface{}, title string) map[string]interface{} {
	out := make(map[string]interface{}, len(args)+1)
	for k, v := range args {
		out[k] = v
	}
	out["title"] = title
	return out
}
