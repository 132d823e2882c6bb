package readers

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/TFMV/tablecheck/pkg/core"
)

// ColumnNames returns the field names of a schema in order.
func ColumnNames(s *arrow.Schema) []string {
	names := make([]string, s.NumFields())
	for i, f := range s.Fields() {
		names[i] = f.Name
	}
	return names
}

// AppendRows converts up to limit rows of rec into scalars and appends them
// to rows. limit <= 0 means all rows.
func AppendRows(rows [][]core.Scalar, rec arrow.Record, limit int) ([][]core.Scalar, error) {
	n := int(rec.NumRows())
	if limit > 0 && limit-len(rows) < n {
		n = max(limit-len(rows), 0)
	}
	cols := rec.Columns()
	for i := 0; i < n; i++ {
		row := make([]core.Scalar, len(cols))
		for c, col := range cols {
			v, err := ValueAt(col, i)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", rec.ColumnName(c), i, err)
			}
			row[c] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ValueAt converts one Arrow array element into a scalar. Types without a
// direct scalar equivalent are rendered with the array's string form.
func ValueAt(arr arrow.Array, i int) (core.Scalar, error) {
	if arr.IsNull(i) {
		return core.Null(), nil
	}
	switch a := arr.(type) {
	case *array.String:
		return core.String(a.Value(i)), nil
	case *array.LargeString:
		return core.String(a.Value(i)), nil
	case *array.Binary:
		return core.String(string(a.Value(i))), nil
	case *array.Boolean:
		return core.Boolean(a.Value(i)), nil
	case *array.Int8:
		return core.Integer(int64(a.Value(i))), nil
	case *array.Int16:
		return core.Integer(int64(a.Value(i))), nil
	case *array.Int32:
		return core.Integer(int64(a.Value(i))), nil
	case *array.Int64:
		return core.Integer(a.Value(i)), nil
	case *array.Uint8:
		return core.Integer(int64(a.Value(i))), nil
	case *array.Uint16:
		return core.Integer(int64(a.Value(i))), nil
	case *array.Uint32:
		return core.Integer(int64(a.Value(i))), nil
	case *array.Uint64:
		return core.FromAny(a.Value(i))
	case *array.Float32:
		return core.Float(float64(a.Value(i))), nil
	case *array.Float64:
		return core.Float(a.Value(i)), nil
	case *array.Decimal128, *array.Decimal256:
		f, err := strconv.ParseFloat(arr.ValueStr(i), 64)
		if err != nil {
			return core.Scalar{}, err
		}
		return core.Float(f), nil
	case *array.Null:
		return core.Null(), nil
	default:
		return core.String(arr.ValueStr(i)), nil
	}
}
