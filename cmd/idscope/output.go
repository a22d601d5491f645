package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spektr-org/idscope/engine"
	"github.com/spektr-org/idscope/helpers"
	"github.com/spektr-org/idscope/render"
)

// ============================================================================
// OUTPUT — json, pretty, csv, xlsx, png
// ============================================================================

// writeResult encodes result in --format.
func (a *app) writeResult(result *engine.Result) error {
	format := strings.ToLower(a.v.GetString("format"))
	return a.withOutput(func(w io.Writer) error {
		switch format {
		case "json", "":
			return json.NewEncoder(w).Encode(result)
		case "pretty":
			return writeIndented(w, result)
		case "csv":
			if result.TableData == nil {
				return fmt.Errorf("%s result has no table", result.Kind)
			}
			return helpers.WriteTableCSV(w, result.TableData)
		case "xlsx":
			if result.TableData == nil {
				return fmt.Errorf("%s result has no table", result.Kind)
			}
			return helpers.WriteXLSX(w, result.TableData)
		case "png":
			if result.Figure == nil {
				return fmt.Errorf("%s result has no figure; use --format json or csv", result.Kind)
			}
			return render.PNG(w, result.Figure)
		default:
			return fmt.Errorf("unknown --format %q (want json, pretty, csv, xlsx or png)", format)
		}
	})
}

// writeJSON prints v as indented JSON.
func (a *app) writeJSON(v interface{}) error {
	return a.withOutput(func(w io.Writer) error {
		return writeIndented(w, v)
	})
}

// withOutput runs fn against --out, or stdout when unset.
func (a *app) withOutput(fn func(io.Writer) error) error {
	path := a.v.GetString("out")
	if path == "" {
		return fn(a.stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	log.Printf("📄 idscope: written to %s", path)
	return nil
}

func writeIndented(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
