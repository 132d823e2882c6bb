package diff

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/TFMV/tablecheck/pkg/core"
)

// DataDiffer compares row data cell by cell without normalization.
type DataDiffer struct {
	logger *zap.Logger
}

// NewDataDiffer creates a data differ. A nil logger discards output.
func NewDataDiffer(logger *zap.Logger) *DataDiffer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataDiffer{logger: logger}
}

// Compare zips source and target rows by position, stopping at the shorter
// side, and compares each zipped (sourceCols[i], targetCols[i]) column pair
// with raw equality. Column names resolve to their first occurrence, so a
// duplicated name always reads the leftmost column.
func (d *DataDiffer) Compare(sourceRows, targetRows [][]core.Scalar, sourceCols, targetCols []string) core.ValidationReport {
	rows := min(len(sourceRows), len(targetRows))
	pairs := min(len(sourceCols), len(targetCols))
	if len(sourceRows) != len(targetRows) {
		d.logger.Info("Row counts differ; comparing the common prefix",
			zap.Int("source_rows", len(sourceRows)),
			zap.Int("target_rows", len(targetRows)),
			zap.Int("compared_rows", rows))
	}

	// Positions are resolved once; they do not depend on the row.
	srcPos := make([]int, pairs)
	tgtPos := make([]int, pairs)
	for p := 0; p < pairs; p++ {
		srcPos[p] = core.IndexOf(sourceCols, sourceCols[p])
		tgtPos[p] = core.IndexOf(targetCols, targetCols[p])
	}

	out := make(core.ValidationReport, 0, rows*pairs)
	for r := 0; r < rows; r++ {
		for p := 0; p < pairs; p++ {
			sv, sok := core.CellAt(sourceRows, r, srcPos[p])
			tv, tok := core.CellAt(targetRows, r, tgtPos[p])
			out = append(out, core.ValidationRecord{
				Kind:         core.Data,
				Row:          r,
				SourceColumn: sourceCols[p],
				TargetColumn: targetCols[p],
				Expected:     sv,
				Actual:       tv,
				Match:        sok && tok && sv.Equal(tv),
			})
		}
	}

	d.logger.Debug("Data comparison complete",
		zap.Int("rows", rows),
		zap.Int("pairs", pairs),
		zap.Int("records", len(out)))
	return out
}

// SelectColumns reduces a dataset to the given column positions, in order.
// Cells past the end of a ragged row become Missing.
func SelectColumns(ds *core.Dataset, idx []int) (*core.Dataset, error) {
	cols := make([]string, len(idx))
	for i, c := range idx {
		if c < 0 || c >= ds.Width() {
			return nil, fmt.Errorf("column index %d out of range [0,%d)", c, ds.Width())
		}
		cols[i] = ds.Columns[c]
	}
	rows := make([][]core.Scalar, len(ds.Rows))
	for r := range ds.Rows {
		row := make([]core.Scalar, len(idx))
		for i, c := range idx {
			row[i], _ = ds.Cell(r, c)
		}
		rows[r] = row
	}
	return core.NewDataset(cols, rows), nil
}

// PrepareData reduces both datasets to their selected columns so that source
// column i pairs with target column i. Index lists of different lengths are
// rejected with a *core.LengthMismatchError before any comparison runs.
func PrepareData(source, target *core.Dataset, sourceIdx, targetIdx []int) (*core.Dataset, *core.Dataset, error) {
	if len(sourceIdx) != len(targetIdx) {
		return nil, nil, &core.LengthMismatchError{Source: len(sourceIdx), Target: len(targetIdx)}
	}
	src, err := SelectColumns(source, sourceIdx)
	if err != nil {
		return nil, nil, fmt.Errorf("source: %w", err)
	}
	tgt, err := SelectColumns(target, targetIdx)
	if err != nil {
		return nil, nil, fmt.Errorf("target: %w", err)
	}
	return src, tgt, nil
}
