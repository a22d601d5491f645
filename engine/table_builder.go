package engine

import (
	"fmt"
	"time"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from derived tables
// ============================================================================
// Every summary converts to the Record model first, so one builder renders
// them all. Column order: dimensions, times, measures.
// ============================================================================

// BuildViewTable renders every row of view as strings.
func BuildViewTable(view RecordView, title string) *TableData {
	dimKeys := view.DimensionKeys()
	timeKeys := view.TimeKeys()
	mesKeys := view.MeasureKeys()

	columns := make([]Column, 0, len(dimKeys)+len(timeKeys)+len(mesKeys))
	for _, key := range dimKeys {
		columns = append(columns, Column{Key: key, Label: LabelForDimension(key), Type: "text", Align: "left"})
	}
	for _, key := range timeKeys {
		columns = append(columns, Column{Key: key, Label: LabelForDimension(key), Type: "time", Align: "left"})
	}
	for _, key := range mesKeys {
		columns = append(columns, Column{Key: key, Label: LabelForDimension(key), Type: "number", Align: "right"})
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(columns))
		for _, key := range dimKeys {
			row = append(row, view.Dimension(i, key))
		}
		for _, key := range timeKeys {
			row = append(row, FormatTime(view.Time(i, key)))
		}
		for _, key := range mesKeys {
			row = append(row, FormatNumber(view.Measure(i, key)))
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
	}
}

// BuildCoverageTable renders a coverage summary.
func BuildCoverageTable(s *CoverageSummary) *TableData {
	table := BuildViewTable(s.Records(), "Coverage by "+JoinLabel(s.IDColumns, DefaultDelimiter))
	table.Summary = &Summary{
		Label: fmt.Sprintf("%d ids, %d cells", len(s.Labels), len(s.Rows)),
		Values: map[string]string{
			CoverageLabelColumn: fmt.Sprintf("%d", len(s.Labels)),
		},
	}
	return table
}

// BuildImportanceTable renders a ranking in rank order.
func BuildImportanceTable(r *ImportanceRanking) *TableData {
	table := BuildViewTable(r.Records(), "Cumulative importance of "+r.Measure)
	table.Summary = &Summary{
		Label: fmt.Sprintf("Total (%d groups)", len(r.Rows)),
		Values: map[string]string{
			SumColumn: FormatNumber(r.Total),
		},
	}
	return table
}

// BuildCrossTable renders a cross-importance table.
func BuildCrossTable(t *CrossTable, title string) *TableData {
	if title == "" {
		title = "Cross importance of " + t.Weight
	}
	return BuildViewTable(t.Records(), title)
}

// FormatTime prints dates without a clock part as 2006-01-02.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
