// Package main provides the entry point for the tablecheck validation tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/tablecheck/config"
	"github.com/TFMV/tablecheck/integrations"
	"github.com/TFMV/tablecheck/logger"
	"github.com/TFMV/tablecheck/metrics"
	"github.com/TFMV/tablecheck/pkg/normalize"
	"github.com/TFMV/tablecheck/pkg/readers"
	"github.com/TFMV/tablecheck/version"
)

// errMismatch is returned when --fail-on-mismatch is set and a validation
// found mismatches.
var errMismatch = errors.New("validation found mismatches")

// rootOptions holds flags shared by every command and the state built from
// them before a command runs.
type rootOptions struct {
	ConfigPath  string
	LogLevel    string
	LogFile     string
	SourceType  string
	SourcePath  string
	TargetType  string
	TargetPath  string
	RowLimit    int
	Fallthrough string

	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.PrometheusMetricsCollector
}

// Main entry point for the tablecheck tool
func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "tablecheck",
		Short: "tablecheck compares schemas and data between two tabular sources",
		Long: `tablecheck compares schema definitions and row-level data between two
tabular sources: SQL Server, PostgreSQL or Snowflake tables, any ADBC driver,
Parquet and Arrow files, or a CSV column-mapping document. It produces a
row-by-row, column-by-column match report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a YAML config file")
	pf.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.LogFile, "log-file", "", "JSON log file; empty disables file logging")
	pf.StringVar(&opts.SourceType, "source-type", "", "Source type (csv, parquet, arrow, mssql, postgres, snowflake, adbc)")
	pf.StringVar(&opts.SourcePath, "source-path", "", "Source file path for file sources")
	pf.StringVar(&opts.TargetType, "target-type", "", "Target type (csv, parquet, arrow, mssql, postgres, snowflake, adbc)")
	pf.StringVar(&opts.TargetPath, "target-path", "", "Target file path for file sources")
	pf.IntVar(&opts.RowLimit, "row-limit", 0, "Maximum rows fetched per side for data validation; 0 means uncapped")
	pf.StringVar(&opts.Fallthrough, "fallthrough", "", "Normalizer policy for unmatched strings (null, string)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of tablecheck",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tablecheck v%s (%s)\n", version.GetVersion(), version.GetBuildDate())
		},
	})

	rootCmd.AddCommand(
		newSchemaCommand(opts),
		newDataCommand(opts),
		newTablesCommand(opts),
		newNormalizeCommand(opts),
		newServeCommand(opts),
	)
	return rootCmd
}

// load reads the config, applies flag overrides and sets up logging.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.LogLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = o.LogFile
	}
	if flags.Changed("source-type") {
		cfg.Source.Type = o.SourceType
	}
	if flags.Changed("source-path") {
		cfg.Source.Path = o.SourcePath
	}
	if flags.Changed("target-type") {
		cfg.Target.Type = o.TargetType
	}
	if flags.Changed("target-path") {
		cfg.Target.Path = o.TargetPath
	}
	if flags.Changed("row-limit") {
		cfg.Validation.RowLimit = o.RowLimit
	}
	if flags.Changed("fallthrough") {
		cfg.Validation.Fallthrough = o.Fallthrough
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.File); err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = logger.GetLogger()
	if o.metrics == nil {
		o.metrics = metrics.NewPrometheusMetricsCollector()
	}
	integrations.Register(readers.DefaultFactory,
		integrations.WithContext(cmd.Context()),
		integrations.WithLogger(o.logger))
	return nil
}

// openPair opens the configured source and target.
func (o *rootOptions) openPair() (*integrations.SourcePair, error) {
	if err := o.cfg.RequireSources(); err != nil {
		return nil, err
	}
	return integrations.OpenSourcePair(readers.DefaultFactory, o.cfg.Source, o.cfg.Target)
}

func (o *rootOptions) normalizer() (*normalize.Normalizer, error) {
	p, err := o.cfg.Validation.Policy()
	if err != nil {
		return nil, err
	}
	return normalize.New(p), nil
}
