package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/idscope/engine"
	"github.com/spektr-org/idscope/schema"
)

// ============================================================================
// SUBCOMMANDS — one per transform, plus discover and run
// ============================================================================

func (a *app) discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the auto-detected schema of --file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.v.GetString("file")
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			data, err := readFile(path)
			if err != nil {
				return err
			}
			opt := a.discoverOptions(engine.Request{
				IDs:        a.v.GetStringSlice("ids"),
				TimeColumn: a.v.GetString("time"),
			})
			opt.Name = a.v.GetString("name")
			opt.RecoverColumns = a.v.GetStringSlice("recover")
			sch, err := schema.DiscoverFromCSV(data, opt)
			if err != nil {
				return fmt.Errorf("auto-detect failed: %w", err)
			}
			return a.writeJSON(sch)
		},
	}
	cmd.Flags().StringSlice("ids", nil, "Columns to force as identifiers")
	cmd.Flags().String("time", "", "Column to force as time")
	cmd.Flags().StringSlice("recover", nil, "Skipped columns to keep as dimensions")
	cmd.Flags().String("name", "", "Dataset name")
	return cmd
}

func (a *app) coverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Time coverage per composite identifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, engine.Request{
				Kind:       engine.KindCoverage,
				IDs:        a.v.GetStringSlice("ids"),
				TimeColumn: a.v.GetString("time"),
				Title:      a.v.GetString("title"),
			})
		},
	}
	cmd.Flags().StringSlice("ids", nil, "Identifier columns (composite, in order)")
	cmd.Flags().String("time", "", "Time column")
	cmd.Flags().String("title", "", "Figure title")
	return cmd
}

func (a *app) importanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "importance",
		Short: "Cumulative share of a measure by identifier group",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, engine.Request{
				Kind:    engine.KindImportance,
				IDs:     a.v.GetStringSlice("ids"),
				Measure: a.v.GetString("measure"),
				Mode:    a.v.GetString("mode"),
				Title:   a.v.GetString("title"),
			})
		},
	}
	cmd.Flags().StringSlice("ids", nil, "Identifier columns")
	cmd.Flags().String("measure", "", "Measure to rank by")
	cmd.Flags().String("mode", "tab", "tab or graph")
	cmd.Flags().String("title", "", "Figure title")
	return cmd
}

func (a *app) crossCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cross",
		Short: "Share of each --ids2 partner within each --ids group",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, engine.Request{
				Kind:    engine.KindCross,
				IDs:     a.v.GetStringSlice("ids"),
				IDs2:    a.v.GetStringSlice("ids2"),
				Measure: a.v.GetString("measure"),
				Axis:    a.v.GetString("axis"),
				Title:   a.v.GetString("title"),
			})
		},
	}
	cmd.Flags().StringSlice("ids", nil, "Primary identifier columns (bars)")
	cmd.Flags().StringSlice("ids2", nil, "Partner identifier columns (segments)")
	cmd.Flags().String("measure", "", "Weight measure")
	cmd.Flags().String("axis", "pct", "pct or val")
	cmd.Flags().String("title", "", "Figure title")
	return cmd
}

func (a *app) lagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lag",
		Short: "Lag table: columns shifted forward by a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, engine.Request{
				Kind:       engine.KindLag,
				IDs:        a.v.GetStringSlice("ids"),
				TimeColumn: a.v.GetString("time"),
				Lagged:     a.v.GetStringSlice("lagged"),
				Period:     a.v.GetString("period"),
				Join:       a.v.GetBool("join"),
				Title:      a.v.GetString("title"),
			})
		},
	}
	cmd.Flags().StringSlice("ids", nil, "Identifier columns")
	cmd.Flags().String("time", "", "Time column")
	cmd.Flags().StringSlice("lagged", nil, "Columns to lag")
	cmd.Flags().String("period", "1D", "Lag period, e.g. 1D, 2W, 6h")
	cmd.Flags().Bool("join", false, "Join the lag columns back onto the input rows")
	cmd.Flags().String("title", "", "Table title")
	return cmd
}

func (a *app) visualizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Multi-series time plot with an identifier dropdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, engine.Request{
				Kind:       engine.KindVisualize,
				Group:      a.v.GetString("group"),
				Select:     a.v.GetStringSlice("select"),
				TimeColumn: a.v.GetString("time"),
				Values:     a.v.GetStringSlice("values"),
				Colors:     a.v.GetStringSlice("colors"),
				SplitDate:  a.v.GetString("split-date"),
				Weekdays:   a.v.GetBool("weekdays"),
				Scatter:    a.v.GetBool("scatter"),
				Title:      a.v.GetString("title"),
			})
		},
	}
	cmd.Flags().String("group", "", "Identifier column")
	cmd.Flags().StringSlice("select", nil, "Identifiers to plot (default: all)")
	cmd.Flags().String("time", "", "Time column")
	cmd.Flags().StringSlice("values", nil, "Measures to draw")
	cmd.Flags().StringSlice("colors", nil, "One color per value column")
	cmd.Flags().String("split-date", "", "Start of the shaded held-out band (YYYY-MM-DD)")
	cmd.Flags().Bool("weekdays", false, "Add weekday-colored markers")
	cmd.Flags().Bool("scatter", false, "Add markers on top of the lines")
	cmd.Flags().String("title", "", "Figure title")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute the request stored under \"request\" in --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.v.IsSet("request") {
				return fmt.Errorf("config has no \"request\" section")
			}
			var req engine.Request
			if err := a.v.UnmarshalKey("request", &req); err != nil {
				return fmt.Errorf("decode request: %w", err)
			}
			return a.execute(cmd, req)
		},
	}
}

// execute loads the input, runs req and writes the result.
func (a *app) execute(cmd *cobra.Command, req engine.Request) error {
	view, sch, err := a.loadView(cmd.Context(), req)
	if err != nil {
		return err
	}
	fillDefaults(&req, sch)

	f, err := a.filters()
	if err != nil {
		return err
	}
	if !f.IsEmpty() {
		req.Filters = f
	}

	result, err := engine.Execute(req, view, a.engineOptions()...)
	if err != nil {
		return err
	}
	return a.writeResult(result)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
