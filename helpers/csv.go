package helpers

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/spektr-org/idscope/engine"
	"github.com/spektr-org/idscope/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV data into an engine.SliceView
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, S3, Sheets).
// This helper converts the raw bytes into Records using the schema.
// Column order of the view follows the CSV header.
// ============================================================================

type colMapping struct {
	key  string
	kind engine.ColumnKind
	// layout of a time column ("" = try every known layout)
	layout string
}

// mapHeaders types every header through the schema. Unmapped columns get
// KindNone and are skipped.
func mapHeaders(headers []string, sch schema.Config) []colMapping {
	dimSet := make(map[string]bool)
	for _, d := range sch.Dimensions {
		dimSet[d.Key] = true
	}
	measSet := make(map[string]bool)
	for _, m := range sch.Measures {
		if !m.IsSynthetic {
			measSet[m.Key] = true
		}
	}
	timeSet := make(map[string]bool)
	for _, t := range sch.Times {
		timeSet[t.Key] = true
	}

	mappings := make([]colMapping, len(headers))
	for i, h := range headers {
		key := schema.ToKey(h)
		switch {
		case timeSet[key]:
			mappings[i] = colMapping{key: key, kind: engine.KindTime, layout: sch.TimeLayout(key)}
		case dimSet[key]:
			mappings[i] = colMapping{key: key, kind: engine.KindDimension}
		case measSet[key]:
			mappings[i] = colMapping{key: key, kind: engine.KindMeasure}
		}
	}
	return mappings
}

// viewKeys lists mapped keys per kind in header order, plus synthetic measures.
func viewKeys(mappings []colMapping, sch schema.Config) (dims, measures, times []string) {
	for _, m := range mappings {
		switch m.kind {
		case engine.KindDimension:
			dims = append(dims, m.key)
		case engine.KindMeasure:
			measures = append(measures, m.key)
		case engine.KindTime:
			times = append(times, m.key)
		}
	}
	for _, m := range sch.Measures {
		if m.IsSynthetic {
			measures = append(measures, m.Key)
		}
	}
	return dims, measures, times
}

// ParseCSV parses CSV bytes into a view using sch for classification.
// Empty and null cells leave the column unset on that row (measures read
// as 0, times as the zero time).
func ParseCSV(data []byte, sch schema.Config) (*engine.SliceView, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	mappings := mapHeaders(headers, sch)

	var records []engine.Record
	badTimes := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}

		rec := engine.NewRecord()
		for i, val := range row {
			if i >= len(mappings) {
				break
			}
			if !setCell(&rec, mappings[i], val) {
				badTimes++
			}
		}
		addSynthetic(&rec, sch)
		records = append(records, rec)
	}

	if badTimes > 0 {
		log.Printf("⚠️ idscope: %d time cells could not be parsed and were left empty", badTimes)
	}

	dims, measures, times := viewKeys(mappings, sch)
	return engine.NewSliceViewWithKeys(records, dims, measures, times), nil
}

// setCell writes one raw cell into rec. It returns false only for a
// non-empty time cell that failed to parse.
func setCell(rec *engine.Record, m colMapping, raw string) bool {
	val := strings.TrimSpace(raw)
	switch m.kind {
	case engine.KindDimension:
		rec.Dimensions[m.key] = val
	case engine.KindMeasure:
		if schema.IsNull(val) {
			return true
		}
		if f, err := strconv.ParseFloat(strings.ReplaceAll(val, ",", ""), 64); err == nil {
			rec.Measures[m.key] = f
		}
	case engine.KindTime:
		if schema.IsNull(val) {
			return true
		}
		t, err := schema.ParseTime(val, m.layout)
		if err != nil {
			return false
		}
		rec.Times[m.key] = t
	}
	return true
}

// addSynthetic sets synthetic measures (record_count = 1).
func addSynthetic(rec *engine.Record, sch schema.Config) {
	for _, m := range sch.Measures {
		if m.IsSynthetic && m.Key == schema.RecordCountKey {
			rec.Measures[m.Key] = 1
		}
	}
}

// ParseCSVAuto discovers a schema and parses with it in one step.
// Consumers can use this for quick exploration before writing a schema.
func ParseCSVAuto(data []byte, opts ...schema.DiscoverOptions) (*engine.SliceView, *schema.Config, error) {
	sch, err := schema.DiscoverFromCSV(data, opts...)
	if err != nil {
		return nil, nil, err
	}
	view, err := ParseCSV(data, *sch)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("📊 idscope: parsed %d records (%d dimensions, %d measures, %d times)",
		view.Len(), len(view.DimensionKeys()), len(view.MeasureKeys()), len(view.TimeKeys()))
	return view, sch, nil
}
