// Package validation fetches datasets from a source pair and runs the schema
// and data comparators over them.
package validation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/tablecheck/integrations"
	"github.com/TFMV/tablecheck/metrics"
	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/diff"
	"github.com/TFMV/tablecheck/pkg/normalize"
	"github.com/TFMV/tablecheck/pkg/readers"
	"github.com/TFMV/tablecheck/report"
)

// Validator manages the configuration and validation logic.
type Validator struct {
	// Pair supplies the two datasets. For mapping validation the source is
	// the mapping document.
	Pair *integrations.SourcePair

	// Normalizer canonicalizes schema values. Nil uses FallthroughNull.
	Normalizer *normalize.Normalizer

	// Logger for structured logging.
	Logger *zap.Logger

	// Metrics records completed and failed validations. Optional.
	Metrics *metrics.PrometheusMetricsCollector

	// RowLimit caps data fetches; 0 means uncapped.
	RowLimit int
}

// NewValidator constructs a Validator with the default row limit.
func NewValidator(pair *integrations.SourcePair, n *normalize.Normalizer, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		Pair:       pair,
		Normalizer: n,
		Logger:     logger,
		RowLimit:   core.DefaultRowLimit,
	}
}

// SchemaRequest selects the tables and metadata columns to compare.
type SchemaRequest struct {
	SourceTable string
	TargetTable string
	Selection   core.ColumnSelection

	// Variant is core.MappingSchema or core.MetadataSchema. Empty picks
	// mapping when the source is a CSV document, metadata otherwise.
	Variant core.RecordKind
}

// DataRequest selects the tables and data columns to compare. Source and
// target column lists must have the same length.
type DataRequest struct {
	SourceTable   string
	TargetTable   string
	SourceColumns []int
	TargetColumns []int

	// Limit overrides the validator's RowLimit when positive.
	Limit int
}

// Result is the outcome of one validation.
type Result struct {
	Kind     core.RecordKind
	Records  core.ValidationReport
	Table    report.Table
	Summary  metrics.Summary
	Duration time.Duration
}

// Report wraps the result for the report generators.
func (r Result) Report(source, target string) report.Report {
	return report.Report{
		Source:      source,
		Target:      target,
		GeneratedAt: time.Now().UTC(),
		Summary:     r.Summary,
		Table:       r.Table,
	}
}

// -----------------------------
// Source-backed validations
// -----------------------------

// ValidateSchema fetches both metadata datasets concurrently and compares
// the selected columns row by row.
func (v *Validator) ValidateSchema(ctx context.Context, req SchemaRequest) (Result, error) {
	start := time.Now()
	kind := req.Variant
	if kind == "" {
		kind = v.defaultVariant()
	}
	if kind != core.MappingSchema && kind != core.MetadataSchema {
		return Result{}, fmt.Errorf("unsupported schema variant %q", kind)
	}

	log := v.logger().With(
		zap.String("kind", string(kind)),
		zap.String("source_table", req.SourceTable),
		zap.String("target_table", req.TargetTable))
	log.Info("Starting schema validation")

	var expected, actual *core.Dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ds, err := v.Pair.Source.Metadata(gctx, req.SourceTable)
		if err != nil {
			return fmt.Errorf("source metadata: %w", err)
		}
		expected = ds
		return nil
	})
	g.Go(func() error {
		ds, err := v.Pair.Target.Metadata(gctx, req.TargetTable)
		if err != nil {
			return fmt.Errorf("target metadata: %w", err)
		}
		actual = ds
		return nil
	})
	if err := g.Wait(); err != nil {
		v.recordFailure(kind, "fetch")
		log.Error("Schema fetch failed", zap.Error(err))
		return Result{}, err
	}

	res, err := v.CompareSchema(kind, expected, actual, req.Selection)
	if err != nil {
		v.recordFailure(kind, "prepare")
		return Result{}, err
	}
	res.Duration = time.Since(start)
	v.record(res)

	log.Info("Schema validation complete",
		zap.Int("records", res.Summary.Total),
		zap.Int("mismatched", res.Summary.Mismatched),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// ValidateData fetches both data datasets concurrently, reduces them to the
// selected columns and compares them cell by cell.
func (v *Validator) ValidateData(ctx context.Context, req DataRequest) (Result, error) {
	start := time.Now()
	log := v.logger().With(
		zap.String("kind", string(core.Data)),
		zap.String("source_table", req.SourceTable),
		zap.String("target_table", req.TargetTable))

	// Checked before fetching so a bad request never touches the databases.
	if len(req.SourceColumns) != len(req.TargetColumns) {
		v.recordFailure(core.Data, "prepare")
		return Result{}, &core.LengthMismatchError{Source: len(req.SourceColumns), Target: len(req.TargetColumns)}
	}

	limit := v.RowLimit
	if req.Limit > 0 {
		limit = req.Limit
	}
	log.Info("Starting data validation", zap.Int("row_limit", limit))

	var source, target *core.Dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ds, err := v.Pair.Source.Data(gctx, req.SourceTable, limit)
		if err != nil {
			return fmt.Errorf("source data: %w", err)
		}
		source = ds
		return nil
	})
	g.Go(func() error {
		ds, err := v.Pair.Target.Data(gctx, req.TargetTable, limit)
		if err != nil {
			return fmt.Errorf("target data: %w", err)
		}
		target = ds
		return nil
	})
	if err := g.Wait(); err != nil {
		v.recordFailure(core.Data, "fetch")
		log.Error("Data fetch failed", zap.Error(err))
		return Result{}, err
	}

	res, err := v.CompareData(source, target, req.SourceColumns, req.TargetColumns)
	if err != nil {
		v.recordFailure(core.Data, "prepare")
		return Result{}, err
	}
	res.Duration = time.Since(start)
	v.record(res)

	log.Info("Data validation complete",
		zap.Int("source_rows", source.Len()),
		zap.Int("target_rows", target.Len()),
		zap.Int("mismatched", res.Summary.Mismatched),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// -----------------------------
// In-memory validations
// -----------------------------

// CompareSchema compares two already-materialized metadata datasets. Every
// selected index must be a valid column position of its dataset; rows that
// are shorter than that, or missing on the actual side, produce
// out-of-range records rather than an error.
func (v *Validator) CompareSchema(kind core.RecordKind, expected, actual *core.Dataset, sel core.ColumnSelection) (Result, error) {
	if err := sel.ValidateAgainst(expected, actual); err != nil {
		return Result{}, err
	}
	expectedIdx, actualIdx := sel.Split()
	records := diff.NewSchemaDiffer(v.Normalizer, v.logger()).
		Compare(kind, expected.Rows, actual.Rows, expectedIdx, actualIdx)
	return newResult(kind, records), nil
}

// CompareData compares two already-materialized datasets over the selected
// columns. Lists of different lengths return *core.LengthMismatchError.
func (v *Validator) CompareData(source, target *core.Dataset, sourceIdx, targetIdx []int) (Result, error) {
	src, tgt, err := diff.PrepareData(source, target, sourceIdx, targetIdx)
	if err != nil {
		return Result{}, err
	}
	records := diff.NewDataDiffer(v.logger()).Compare(src.Rows, tgt.Rows, src.Columns, tgt.Columns)
	return newResult(core.Data, records), nil
}

func newResult(kind core.RecordKind, records core.ValidationReport) Result {
	return Result{
		Kind:    kind,
		Records: records,
		Table:   report.Build(kind, records),
		Summary: report.Summarize(kind, records),
	}
}

func (v *Validator) defaultVariant() core.RecordKind {
	if v.Pair != nil {
		if _, ok := v.Pair.Source.(*readers.CSVSource); ok {
			return core.MappingSchema
		}
	}
	return core.MetadataSchema
}

func (v *Validator) logger() *zap.Logger {
	if v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}

func (v *Validator) record(res Result) {
	if v.Metrics != nil {
		v.Metrics.RecordValidation(res.Summary, res.Duration)
	}
}

func (v *Validator) recordFailure(kind core.RecordKind, stage string) {
	if v.Metrics != nil {
		v.Metrics.RecordFailure(string(kind), stage)
	}
}
