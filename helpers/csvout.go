package helpers

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spektr-org/idscope/engine"
)

// WriteTableCSV writes a header row of column keys followed by every
// table row. Ready for Sheets/Excel.
func WriteTableCSV(w io.Writer, table *engine.TableData) error {
	cw := csv.NewWriter(w)

	headers := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		headers[i] = col.Key
	}
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
