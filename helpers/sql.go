package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/idscope/engine"
	"github.com/spektr-org/idscope/schema"
)

// ============================================================================
// SQL HELPER — Loads a query result into an engine.SliceView
// ============================================================================
// Works over any database/sql driver; the CLI registers sqlite3 and
// postgres. Column roles come from the schema when one is given, else
// from the driver's column type, else from the Go type of the first
// non-null value.
// ============================================================================

// LoadSQL runs query and converts every row to a Record.
// sch may be nil.
func LoadSQL(ctx context.Context, db *sql.DB, query string, sch *schema.Config, args ...interface{}) (*engine.SliceView, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	var raw [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(colTypes))
		ptrs := make([]interface{}, len(colTypes))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		raw = append(raw, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	mappings := make([]colMapping, len(colTypes))
	for i, ct := range colTypes {
		mappings[i] = classifySQLColumn(ct, i, raw, sch)
	}

	records := make([]engine.Record, 0, len(raw))
	for _, values := range raw {
		rec := engine.NewRecord()
		for i, v := range values {
			setSQLValue(&rec, mappings[i], v)
		}
		if sch != nil {
			addSynthetic(&rec, *sch)
		}
		records = append(records, rec)
	}

	var keySchema schema.Config
	if sch != nil {
		keySchema = *sch
	}
	dims, measures, times := viewKeys(mappings, keySchema)

	log.Printf("📊 idscope: loaded %d rows from SQL (%d dimensions, %d measures, %d times)",
		len(records), len(dims), len(measures), len(times))

	return engine.NewSliceViewWithKeys(records, dims, measures, times), nil
}

// classifySQLColumn picks the role of column i.
func classifySQLColumn(ct *sql.ColumnType, i int, raw [][]interface{}, sch *schema.Config) colMapping {
	key := schema.ToKey(ct.Name())

	if sch != nil {
		return mapHeaders([]string{ct.Name()}, *sch)[0]
	}

	dbType := strings.ToUpper(ct.DatabaseTypeName())
	switch {
	case strings.Contains(dbType, "DATE") || strings.Contains(dbType, "TIME"):
		return colMapping{key: key, kind: engine.KindTime}
	case strings.Contains(dbType, "INT") || strings.Contains(dbType, "REAL") ||
		strings.Contains(dbType, "FLOAT") || strings.Contains(dbType, "DOUBLE") ||
		strings.Contains(dbType, "NUMERIC") || strings.Contains(dbType, "DECIMAL"):
		return colMapping{key: key, kind: engine.KindMeasure}
	case strings.Contains(dbType, "CHAR") || strings.Contains(dbType, "TEXT") ||
		strings.Contains(dbType, "BOOL") || strings.Contains(dbType, "UUID"):
		return colMapping{key: key, kind: engine.KindDimension}
	}

	// Untyped expression column: look at the first value
	for _, row := range raw {
		switch row[i].(type) {
		case nil:
			continue
		case time.Time:
			return colMapping{key: key, kind: engine.KindTime}
		case int64, float64:
			return colMapping{key: key, kind: engine.KindMeasure}
		default:
			return colMapping{key: key, kind: engine.KindDimension}
		}
	}
	return colMapping{key: key, kind: engine.KindDimension}
}

// setSQLValue converts one scanned value into rec according to m.
func setSQLValue(rec *engine.Record, m colMapping, v interface{}) {
	if v == nil {
		return
	}
	switch m.kind {
	case engine.KindDimension:
		rec.Dimensions[m.key] = sqlString(v)
	case engine.KindMeasure:
		switch x := v.(type) {
		case int64:
			rec.Measures[m.key] = float64(x)
		case float64:
			rec.Measures[m.key] = x
		case bool:
			if x {
				rec.Measures[m.key] = 1
			} else {
				rec.Measures[m.key] = 0
			}
		default:
			if f, err := strconv.ParseFloat(strings.TrimSpace(sqlString(v)), 64); err == nil {
				rec.Measures[m.key] = f
			}
		}
	case engine.KindTime:
		if t, ok := v.(time.Time); ok {
			rec.Times[m.key] = t
			return
		}
		if t, err := schema.ParseTime(sqlString(v), m.layout); err == nil {
			rec.Times[m.key] = t
		}
	}
}

func sqlString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return engine.FormatTime(x)
	default:
		return fmt.Sprint(x)
	}
}
