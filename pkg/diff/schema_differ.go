// Package diff implements the schema and data comparators.
package diff

import (
	"go.uber.org/zap"

	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/normalize"
)

// SchemaDiffer compares metadata rows position by position after
// normalizing both sides.
type SchemaDiffer struct {
	normalizer *normalize.Normalizer
	logger     *zap.Logger
}

// NewSchemaDiffer creates a schema differ. A nil normalizer uses the default
// policy and a nil logger discards output.
func NewSchemaDiffer(n *normalize.Normalizer, logger *zap.Logger) *SchemaDiffer {
	if n == nil {
		n = normalize.New(normalize.FallthroughNull)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaDiffer{normalizer: n, logger: logger}
}

// CompareMappingSchema compares a mapping document against target metadata.
func (d *SchemaDiffer) CompareMappingSchema(mapping, metadata [][]core.Scalar, mappingIdx, metadataIdx []int) core.ValidationReport {
	return d.Compare(core.MappingSchema, mapping, metadata, mappingIdx, metadataIdx)
}

// CompareMetadataSchema compares metadata from two live systems.
func (d *SchemaDiffer) CompareMetadataSchema(source, target [][]core.Scalar, sourceIdx, targetIdx []int) core.ValidationReport {
	return d.Compare(core.MetadataSchema, source, target, sourceIdx, targetIdx)
}

// Compare aligns expected and actual rows by position and compares the cells
// named by each zipped (expectedIdx[i], actualIdx[i]) pair. Index lists of
// different lengths are truncated to the shorter one. A row or column that
// the actual side lacks yields a record whose actual value is
// core.IndexOutOfRange and whose match flag is false.
func (d *SchemaDiffer) Compare(kind core.RecordKind, expected, actual [][]core.Scalar, expectedIdx, actualIdx []int) core.ValidationReport {
	pairs := min(len(expectedIdx), len(actualIdx))
	if len(expectedIdx) != len(actualIdx) {
		d.logger.Warn("Index lists differ in length; extra indices ignored",
			zap.String("kind", string(kind)),
			zap.Int("expected_indices", len(expectedIdx)),
			zap.Int("actual_indices", len(actualIdx)))
	}

	out := make(core.ValidationReport, 0, len(expected)*pairs)
	outOfRange := 0
	for r := range expected {
		for p := 0; p < pairs; p++ {
			e, a := expectedIdx[p], actualIdx[p]
			rec := core.ValidationRecord{
				Kind:          kind,
				Row:           r,
				ExpectedIndex: e,
				ActualIndex:   a,
			}

			ev, eok := core.CellAt(expected, r, e)
			rec.Expected = d.normalizer.Normalize(ev)

			av, aok := core.CellAt(actual, r, a)
			if !eok || !aok {
				rec.Actual = core.String(core.IndexOutOfRange)
				rec.OutOfRange = true
				outOfRange++
			} else {
				rec.Actual = d.normalizer.Normalize(av)
				rec.Match = rec.Expected.Equal(rec.Actual)
			}
			out = append(out, rec)
		}
	}

	d.logger.Debug("Schema comparison complete",
		zap.String("kind", string(kind)),
		zap.Int("rows", len(expected)),
		zap.Int("pairs", pairs),
		zap.Int("records", len(out)),
		zap.Int("out_of_range", outOfRange))
	return out
}
