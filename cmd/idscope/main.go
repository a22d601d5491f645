package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ============================================================================
// IDSCOPE CLI — Coverage, importance, cross importance, lags and series
// ============================================================================
// Settings merge in this order (last wins): config file, IDSCOPE_* env
// (a .env file in the working directory is loaded first), flags.
// ============================================================================

const version = "0.3.0"

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ idscope: .env not loaded: %v", err)
	}

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the per-invocation state shared by every subcommand.
type app struct {
	v      *viper.Viper
	stdout io.Writer
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout}

	root := &cobra.Command{
		Use:   "idscope",
		Short: "Exploratory summaries of identifier-keyed time series",
		Long: `idscope — exploratory summaries of identifier-keyed time series

Examples:
  idscope discover --file sales.csv --format pretty
  idscope coverage --file sales.csv --ids store,item --time date --format png --out coverage.png
  idscope importance --file sales.csv --ids store --measure sales --format csv
  idscope cross --file sales.csv --ids store --ids2 item --measure sales --axis val
  idscope lag --file sales.csv --ids store --time date --lagged sales --period 7D --join
  idscope visualize --file sales.csv --group store --time date --values sales --split-date 2023-03-01
  idscope run --config request.yaml --format xlsx --out report.xlsx`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (yaml, json or toml)")
	pf.String("file", "", "Input data file (.csv or .json records)")
	pf.String("schema", "", "Schema JSON for the input file (skips auto-detect)")
	pf.String("driver", "sqlite3", "database/sql driver: sqlite3 or postgres")
	pf.String("dsn", "", "Database DSN; loads --query instead of --file")
	pf.String("query", "", "SQL query to load")
	pf.String("format", "json", "Output format: json, pretty, csv, xlsx, png")
	pf.String("out", "", "Write output to file instead of stdout")
	pf.String("delimiter", " - ", "Composite identifier delimiter")
	pf.StringSlice("filter", nil, "Keep rows where dimension=value (repeatable)")
	pf.StringSlice("time-columns", nil, "Extra columns to parse as times")

	root.AddCommand(
		a.discoverCmd(),
		a.coverageCmd(),
		a.importanceCmd(),
		a.crossCmd(),
		a.lagCmd(),
		a.visualizeCmd(),
		a.runCmd(),
	)
	return root
}

// initConfig binds flags and env, then reads the optional config file.
func (a *app) initConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("IDSCOPE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.InheritedFlags()} {
		if err := a.v.BindPFlags(fs); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		log.Printf("📋 idscope: loaded config %s", a.v.ConfigFileUsed())
	}
	return nil
}
