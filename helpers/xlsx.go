package helpers

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/idscope/engine"
)

// ============================================================================
// XLSX HELPER — Writes TableData into a workbook, one sheet per table
// ============================================================================

const maxSheetName = 31

// WriteXLSX writes every table to its own sheet. Number columns are
// written as numeric cells so spreadsheets can sum them.
func WriteXLSX(w io.Writer, tables ...*engine.TableData) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	used := make(map[string]bool)
	for n, table := range tables {
		name := sheetName(table.Title, n, used)
		if n == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("xlsx: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx: new sheet %q: %w", name, err)
		}

		if err := writeSheet(f, name, table, headerStyle); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, table *engine.TableData, headerStyle int) error {
	for c, col := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col.Key); err != nil {
			return fmt.Errorf("xlsx: header %s: %w", cell, err)
		}
		if err := f.SetColWidth(sheet, columnLetter(c), columnLetter(c), columnWidth(col, table.Rows, c)); err != nil {
			return fmt.Errorf("xlsx: column width: %w", err)
		}
	}
	if len(table.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(table.Columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("xlsx: header style: %w", err)
		}
	}

	for r, row := range table.Rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			var value interface{} = val
			if c < len(table.Columns) && table.Columns[c].Type == "number" {
				if num, err := strconv.ParseFloat(val, 64); err == nil {
					value = num
				}
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("xlsx: cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

// sheetName derives a unique, valid sheet name from a table title.
func sheetName(title string, n int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = fmt.Sprintf("Table %d", n+1)
	}
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	base := name
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		runes := []rune(base)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		name = string(runes) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func columnLetter(c int) string {
	name, _ := excelize.ColumnNumberToName(c + 1)
	return name
}

// columnWidth fits the widest cell, clamped to [10, 60].
func columnWidth(col engine.Column, rows [][]string, c int) float64 {
	width := len(col.Key)
	for _, row := range rows {
		if c < len(row) && len(row[c]) > width {
			width = len(row[c])
		}
	}
	switch {
	case width < 10:
		width = 10
	case width > 60:
		width = 60
	}
	return float64(width + 2)
}
