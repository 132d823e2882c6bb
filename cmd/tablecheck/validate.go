package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/validation"
)

// SchemaOptions represents the options for the schema command.
type SchemaOptions struct {
	SourceTable string
	TargetTable string
	Pairs       []string
	Variant     string
	Output      OutputOptions
}

// newSchemaCommand creates a new schema command.
func newSchemaCommand(root *rootOptions) *cobra.Command {
	options := &SchemaOptions{}

	cmd := &cobra.Command{
		Use:   "schema --pairs S:T[,S:T...] [flags]",
		Short: "Compare column metadata between the source and the target",
		Long: `Compare metadata row by row over the selected column pairs.

With a CSV source the comparison runs in mapping mode: each row of the
mapping document is checked against the same row of the target's column
metadata. Otherwise the two systems' metadata are compared directly. Values
are normalized before comparison (yes/no, true/false, null spellings,
whole-number strings).`,
		Example: `  tablecheck schema --source-type csv --source-path mapping.csv \
    --target-table CUSTOMERS --pairs 1:0,2:1 -c tablecheck.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, root, options)
		},
	}

	cmd.Flags().StringVar(&options.SourceTable, "source-table", "", "Source table (ignored for CSV mapping documents)")
	cmd.Flags().StringVar(&options.TargetTable, "target-table", "", "Target table")
	cmd.Flags().StringSliceVar(&options.Pairs, "pairs", nil, "Metadata column index pairs as source:target")
	cmd.Flags().StringVar(&options.Variant, "variant", "", "Comparison variant (mapping, metadata); defaults from the source type")
	options.Output.addFlags(cmd)
	_ = cmd.MarkFlagRequired("pairs")

	return cmd
}

func runSchema(cmd *cobra.Command, root *rootOptions, options *SchemaOptions) error {
	ctx := cmd.Context()
	sel, err := parsePairs(options.Pairs)
	if err != nil {
		return err
	}
	variant := core.RecordKind(strings.ToLower(options.Variant))

	pair, err := root.openPair()
	if err != nil {
		return err
	}
	defer pair.Close()

	n, err := root.normalizer()
	if err != nil {
		return err
	}
	v := validation.NewValidator(pair, n, root.logger)
	v.Metrics = root.metrics
	v.RowLimit = root.cfg.Validation.RowLimit

	start := time.Now()
	sp := startSpinner("Fetching metadata...")
	res, err := v.ValidateSchema(ctx, validation.SchemaRequest{
		SourceTable: options.SourceTable,
		TargetTable: options.TargetTable,
		Selection:   sel,
		Variant:     variant,
	})
	sp.Stop()
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	root.logger.Info("Schema validation finished",
		zap.String("kind", string(res.Kind)),
		zap.Int("records", res.Summary.Total),
		zap.Int("mismatched", res.Summary.Mismatched))

	return options.Output.emit(ctx, cmd, res,
		describe(root.cfg.Source, options.SourceTable),
		describe(root.cfg.Target, options.TargetTable),
		start)
}

// DataOptions represents the options for the data command.
type DataOptions struct {
	SourceTable   string
	TargetTable   string
	SourceColumns []int
	TargetColumns []int
	Limit         int
	Output        OutputOptions
}

// newDataCommand creates a new data command.
func newDataCommand(root *rootOptions) *cobra.Command {
	options := &DataOptions{}

	cmd := &cobra.Command{
		Use:   "data --source-columns I[,I...] --target-columns I[,I...] [flags]",
		Short: "Compare row data between the source and the target",
		Long: `Compare row data over the selected columns. Source column i pairs with
target column i; both lists must have the same length. Rows are aligned by
position and the comparison stops at the shorter side. Values are compared
exactly as the sources return them.`,
		Example: `  tablecheck data --source-table dbo.customers --target-table CUSTOMERS \
    --source-columns 0,1 --target-columns 0,3 --row-limit 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runData(cmd, root, options)
		},
	}

	cmd.Flags().StringVar(&options.SourceTable, "source-table", "", "Source table")
	cmd.Flags().StringVar(&options.TargetTable, "target-table", "", "Target table")
	cmd.Flags().IntSliceVar(&options.SourceColumns, "source-columns", nil, "Source column positions")
	cmd.Flags().IntSliceVar(&options.TargetColumns, "target-columns", nil, "Target column positions")
	cmd.Flags().IntVar(&options.Limit, "limit", 0, "Row cap for this run; overrides --row-limit")
	options.Output.addFlags(cmd)
	_ = cmd.MarkFlagRequired("source-columns")
	_ = cmd.MarkFlagRequired("target-columns")

	return cmd
}

func runData(cmd *cobra.Command, root *rootOptions, options *DataOptions) error {
	ctx := cmd.Context()
	if len(options.SourceColumns) != len(options.TargetColumns) {
		return &core.LengthMismatchError{Source: len(options.SourceColumns), Target: len(options.TargetColumns)}
	}

	pair, err := root.openPair()
	if err != nil {
		return err
	}
	defer pair.Close()

	v := validation.NewValidator(pair, nil, root.logger)
	v.Metrics = root.metrics
	v.RowLimit = root.cfg.Validation.RowLimit

	start := time.Now()
	sp := startSpinner("Fetching rows...")
	res, err := v.ValidateData(ctx, validation.DataRequest{
		SourceTable:   options.SourceTable,
		TargetTable:   options.TargetTable,
		SourceColumns: options.SourceColumns,
		TargetColumns: options.TargetColumns,
		Limit:         options.Limit,
	})
	sp.Stop()
	if err != nil {
		return fmt.Errorf("data validation failed: %w", err)
	}

	root.logger.Info("Data validation finished",
		zap.Int("records", res.Summary.Total),
		zap.Int("mismatched", res.Summary.Mismatched))

	return options.Output.emit(ctx, cmd, res,
		describe(root.cfg.Source, options.SourceTable),
		describe(root.cfg.Target, options.TargetTable),
		start)
}
