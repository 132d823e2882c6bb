// Package schema describes Arrow schemas as column metadata datasets.
package schema

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/TFMV/tablecheck/pkg/core"
)

// Metadata columns, named after INFORMATION_SCHEMA.COLUMNS so that file
// sources line up with database sources.
const (
	ColumnName      = "COLUMN_NAME"
	DataType        = "DATA_TYPE"
	IsNullable      = "IS_NULLABLE"
	OrdinalPosition = "ORDINAL_POSITION"
)

// MetadataColumns lists the columns produced by MetadataFromArrow.
var MetadataColumns = []string{ColumnName, DataType, IsNullable, OrdinalPosition}

// MetadataFromArrow returns one row per field of the schema.
func MetadataFromArrow(s *arrow.Schema) *core.Dataset {
	rows := make([][]core.Scalar, 0, s.NumFields())
	for i, f := range s.Fields() {
		nullable := "NO"
		if f.Nullable {
			nullable = "YES"
		}
		rows = append(rows, []core.Scalar{
			core.String(f.Name),
			core.String(TypeName(f.Type)),
			core.String(nullable),
			core.Integer(int64(i + 1)),
		})
	}
	return core.NewDataset(append([]string(nil), MetadataColumns...), rows)
}

// TypeName renders an Arrow type the way SQL catalogs spell types.
func TypeName(t arrow.DataType) string {
	switch t.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return "VARCHAR"
	case arrow.INT8:
		return "TINYINT"
	case arrow.INT16:
		return "SMALLINT"
	case arrow.INT32:
		return "INT"
	case arrow.INT64:
		return "BIGINT"
	case arrow.FLOAT32:
		return "REAL"
	case arrow.FLOAT64:
		return "FLOAT"
	case arrow.BOOL:
		return "BOOLEAN"
	case arrow.DATE32, arrow.DATE64:
		return "DATE"
	case arrow.TIMESTAMP:
		return "TIMESTAMP"
	case arrow.DECIMAL128, arrow.DECIMAL256:
		return "DECIMAL"
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY:
		return "BINARY"
	default:
		return strings.ToUpper(t.Name())
	}
}
