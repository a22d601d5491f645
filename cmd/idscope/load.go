package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spektr-org/idscope/engine"
	"github.com/spektr-org/idscope/helpers"
	"github.com/spektr-org/idscope/schema"
)

// ============================================================================
// LOADING — file (CSV / JSON records) or database query → RecordView
// ============================================================================

// loadSchema reads --schema when set.
func (a *app) loadSchema() (*schema.Config, error) {
	path := a.v.GetString("schema")
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	sch := &schema.Config{}
	if err := json.Unmarshal(data, sch); err != nil {
		return nil, fmt.Errorf("parse schema JSON: %w", err)
	}
	log.Printf("📋 idscope: loaded schema %s (%d dimensions, %d measures, %d times)",
		sch.Name, len(sch.Dimensions), len(sch.Measures), len(sch.Times))
	return sch, nil
}

// loadView loads the input selected by --dsn/--query or --file. The
// columns req names steer CSV auto-detect. The returned schema is the one
// given by --schema or discovered from the CSV; it is nil otherwise.
func (a *app) loadView(ctx context.Context, req engine.Request) (engine.RecordView, *schema.Config, error) {
	sch, err := a.loadSchema()
	if err != nil {
		return nil, nil, err
	}

	if dsn := a.v.GetString("dsn"); dsn != "" {
		view, err := a.loadSQL(ctx, dsn, sch)
		return view, sch, err
	}

	path := a.v.GetString("file")
	if path == "" {
		return nil, nil, fmt.Errorf("either --file or --dsn is required")
	}
	data, err := readFile(path)
	if err != nil {
		return nil, nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		df := dataframe.ReadJSON(bytes.NewReader(data))
		view, err := helpers.FromDataFrame(df, a.v.GetStringSlice("time-columns")...)
		return view, sch, err
	default:
		if sch != nil {
			view, err := helpers.ParseCSV(data, *sch)
			return view, sch, err
		}
		return helpers.ParseCSVAuto(data, a.discoverOptions(req))
	}
}

func (a *app) loadSQL(ctx context.Context, dsn string, sch *schema.Config) (engine.RecordView, error) {
	query := a.v.GetString("query")
	if query == "" {
		return nil, fmt.Errorf("--query is required with --dsn")
	}
	db, err := sql.Open(a.v.GetString("driver"), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.v.GetString("driver"), err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", a.v.GetString("driver"), err)
	}
	return helpers.LoadSQL(ctx, db, query, sch)
}

// discoverOptions forces the identifier and time columns named by req so
// auto-detect cannot mistype them.
func (a *app) discoverOptions(req engine.Request) schema.DiscoverOptions {
	opt := schema.DefaultDiscoverOptions()
	opt.SampleSize = 0
	opt.Identifiers = append(append([]string(nil), req.IDs...), req.IDs2...)
	if req.Group != "" {
		opt.Identifiers = append(opt.Identifiers, req.Group)
	}
	if req.TimeColumn != "" {
		opt.TimeColumns = append(opt.TimeColumns, req.TimeColumn)
	}
	opt.TimeColumns = append(opt.TimeColumns, a.v.GetStringSlice("time-columns")...)
	return opt
}

// filters parses repeated --filter dimension=value flags.
func (a *app) filters() (engine.Filters, error) {
	f := engine.Filters{Dimensions: map[string][]string{}}
	for _, raw := range a.v.GetStringSlice("filter") {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return f, fmt.Errorf("--filter %q: want dimension=value", raw)
		}
		key = strings.TrimSpace(key)
		f.Dimensions[key] = append(f.Dimensions[key], strings.TrimSpace(value))
	}
	return f, nil
}

// fillDefaults completes req from sch: the identifier columns, the
// default measure and the default time column, for the kinds that use them.
func fillDefaults(req *engine.Request, sch *schema.Config) {
	if sch == nil {
		return
	}
	kind := strings.ToLower(req.Kind)
	if len(req.IDs) == 0 && kind != engine.KindVisualize {
		if ids := sch.IdentifierKeys(); len(ids) > 0 {
			req.IDs = ids
			log.Printf("📋 idscope: using identifier columns %v", ids)
		}
	}
	if req.Measure == "" && (kind == engine.KindImportance || kind == engine.KindCross) {
		if m := sch.GetDefaultMeasure(); m != "" {
			req.Measure = m
			log.Printf("📋 idscope: using measure %q", m)
		}
	}
	if req.TimeColumn == "" && (kind == engine.KindCoverage || kind == engine.KindLag || kind == engine.KindVisualize) {
		if t := sch.GetDefaultTime(); t != "" {
			req.TimeColumn = t
			log.Printf("📋 idscope: using time column %q", t)
		}
	}
}

func (a *app) engineOptions() []engine.Option {
	var opts []engine.Option
	if d := a.v.GetString("delimiter"); d != "" {
		opts = append(opts, engine.WithDelimiter(d))
	}
	return opts
}
