package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/TFMV/tablecheck/metrics"
	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/writers"
	"github.com/TFMV/tablecheck/report"
	"github.com/TFMV/tablecheck/validation"
)

// OutputOptions control how a validation result is rendered and saved.
type OutputOptions struct {
	Format         string
	OutputPath     string
	ExportPath     string
	Compression    string
	SummaryPath    string
	FailOnMismatch bool
}

func (o *OutputOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Format, "format", "f", "json", "Report format (json, html, csv)")
	cmd.Flags().StringVarP(&o.OutputPath, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&o.ExportPath, "export", "", "Export the report table to a .parquet, .arrow, .jsonl or .csv file")
	cmd.Flags().StringVar(&o.Compression, "compression", "snappy", "Parquet compression for --export (snappy, zstd, gzip, none)")
	cmd.Flags().StringVar(&o.SummaryPath, "summary-out", "", "Append a JSON run summary to this file")
	cmd.Flags().BoolVar(&o.FailOnMismatch, "fail-on-mismatch", false, "Exit non-zero when any record mismatches")
}

// emit renders the result, writes the optional export and summary, and
// reports mismatches when asked to.
func (o *OutputOptions) emit(ctx context.Context, cmd *cobra.Command, res validation.Result, source, target string, start time.Time) error {
	gen, err := report.NewGenerator(o.Format)
	if err != nil {
		return err
	}
	rep := res.Report(source, target)

	if o.OutputPath != "" {
		if err := gen.SaveReportToFile(rep, o.OutputPath); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
	} else {
		data, err := gen.GenerateValidationReport(rep)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(append(data, '\n')); err != nil {
			return err
		}
	}

	if o.ExportPath != "" {
		rec, err := report.ToRecord(memory.NewGoAllocator(), res.Table)
		if err != nil {
			return err
		}
		defer rec.Release()
		cfg := core.WriterConfig{Path: o.ExportPath, Compression: o.Compression}
		if err := writers.DefaultFactory.Export(ctx, cfg, rec); err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
	}

	if o.SummaryPath != "" {
		store := &metrics.JSONMetricsStore{FilePath: o.SummaryPath}
		run := metrics.Run{
			Source:    source,
			Target:    target,
			StartTime: start,
			EndTime:   start.Add(res.Duration),
			Duration:  res.Duration,
			Summary:   res.Summary,
		}
		if err := store.SaveWithContext(ctx, run); err != nil {
			return fmt.Errorf("failed to save summary: %w", err)
		}
	}

	if o.FailOnMismatch && !res.Summary.Passed() {
		if alert, err := gen.GenerateAlertNotification(rep); err == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), string(alert))
		}
		return errMismatch
	}
	return nil
}

// startSpinner shows progress on stderr while datasets are fetched. The
// spinner stays silent when stderr is not a terminal.
func startSpinner(msg string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + msg
	s.Start()
	return s
}

// parsePairs parses "source:target" index pairs, e.g. "1:0,2:1".
func parsePairs(values []string) (core.ColumnSelection, error) {
	sel := make(core.ColumnSelection, 0, len(values))
	for _, v := range values {
		src, tgt, ok := strings.Cut(strings.TrimSpace(v), ":")
		if !ok {
			return nil, fmt.Errorf("invalid pair %q: want source:target", v)
		}
		s, err := strconv.Atoi(src)
		if err != nil {
			return nil, fmt.Errorf("invalid source index in %q: %w", v, err)
		}
		t, err := strconv.Atoi(tgt)
		if err != nil {
			return nil, fmt.Errorf("invalid target index in %q: %w", v, err)
		}
		if s < 0 || t < 0 {
			return nil, fmt.Errorf("invalid pair %q: indices must not be negative", v)
		}
		sel = append(sel, core.ColumnPair{Source: s, Target: t})
	}
	return sel, nil
}

// describe names a source for report headers.
func describe(sc core.SourceConfig, table string) string {
	loc := sc.Path
	if loc == "" {
		loc = sc.Database
	}
	name := sc.Type
	if loc != "" {
		name += ":" + loc
	}
	if table != "" {
		name += "/" + table
	}
	return name
}
