package engine

import (
	"github.com/google/uuid"
)

// ============================================================================
// CHART BUILDER — Shared Figure/Trace construction
// ============================================================================
// Every figure and trace gets a fresh uuid so front ends can diff
// re-rendered figures by uid instead of by position.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

func newFigure(title string) *Figure {
	return &Figure{
		ID:   uuid.NewString(),
		Data: []Trace{},
		Layout: Layout{
			Title: title,
		},
	}
}

func newTrace(kind, mode, name string) Trace {
	return Trace{
		UID:  uuid.NewString(),
		Type: kind,
		Mode: mode,
		Name: name,
		X:    []interface{}{},
		Y:    []interface{}{},
	}
}

// colorAt cycles through colors, falling back to the palette.
func colorAt(colors []string, i int) string {
	if len(colors) == 0 {
		colors = defaultColors
	}
	return colors[i%len(colors)]
}

func boolPtr(b bool) *bool { return &b }
