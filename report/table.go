package report

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/tablecheck/metrics"
	"github.com/TFMV/tablecheck/pkg/core"
)

// Row is one report line keyed by column name.
type Row map[string]any

// Table is a validation report shaped for tabular rendering. Every row of a
// table carries exactly the keys listed in Columns.
type Table struct {
	Kind    core.RecordKind `json:"kind"`
	Columns []string        `json:"columns"`
	Rows    []Row           `json:"rows"`
}

var columnsByKind = map[core.RecordKind][]string{
	core.MappingSchema: {
		"row_index", "mapping_index", "metadata_index",
		"expected_value", "actual_value", "match",
	},
	core.MetadataSchema: {
		"row_index", "source_metadata_index", "target_metadata_index",
		"expected_value", "actual_value", "match",
	},
	core.Data: {
		"row_index", "source_column", "target_column",
		"source_value", "target_value", "match",
	},
}

// Columns returns the column names used for a record kind.
func Columns(kind core.RecordKind) []string {
	return append([]string(nil), columnsByKind[kind]...)
}

// Build flattens a comparator's records into a table. Records are neither
// reordered nor dropped.
func Build(kind core.RecordKind, records core.ValidationReport) Table {
	t := Table{
		Kind:    kind,
		Columns: Columns(kind),
		Rows:    make([]Row, 0, len(records)),
	}
	for _, rec := range records {
		t.Rows = append(t.Rows, flatten(kind, rec))
	}
	return t
}

func flatten(kind core.RecordKind, rec core.ValidationRecord) Row {
	switch kind {
	case core.MappingSchema:
		return Row{
			"row_index":      rec.Row,
			"mapping_index":  rec.ExpectedIndex,
			"metadata_index": rec.ActualIndex,
			"expected_value": rec.Expected.Interface(),
			"actual_value":   rec.Actual.Interface(),
			"match":          rec.Match,
		}
	case core.MetadataSchema:
		return Row{
			"row_index":             rec.Row,
			"source_metadata_index": rec.ExpectedIndex,
			"target_metadata_index": rec.ActualIndex,
			"expected_value":        rec.Expected.Interface(),
			"actual_value":          rec.Actual.Interface(),
			"match":                 rec.Match,
		}
	default:
		return Row{
			"row_index":     rec.Row,
			"source_column": rec.SourceColumn,
			"target_column": rec.TargetColumn,
			"source_value":  rec.Expected.Interface(),
			"target_value":  rec.Actual.Interface(),
			"match":         rec.Match,
		}
	}
}

// Summarize counts matches, mismatches and out-of-range records.
func Summarize(kind core.RecordKind, records core.ValidationReport) metrics.Summary {
	s := metrics.Summary{Kind: string(kind), Total: len(records)}
	for _, rec := range records {
		switch {
		case rec.Match:
			s.Matched++
		case rec.OutOfRange:
			s.OutOfRange++
			s.Mismatched++
		default:
			s.Mismatched++
		}
	}
	if s.Total > 0 {
		s.MatchRate = float64(s.Matched) / float64(s.Total)
	}
	return s
}

// ToRecord converts a table into an Arrow record: index columns are int64,
// match is boolean and everything else is a nullable string.
func ToRecord(mem memory.Allocator, t Table) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	fields := make([]arrow.Field, len(t.Columns))
	for i, name := range t.Columns {
		fields[i] = arrow.Field{Name: name, Type: columnType(name), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for _, row := range t.Rows {
		for i, name := range t.Columns {
			v := row[name]
			switch fb := b.Field(i).(type) {
			case *array.Int64Builder:
				n, err := toInt64(v)
				if err != nil {
					return nil, fmt.Errorf("column %s: %w", name, err)
				}
				fb.Append(n)
			case *array.BooleanBuilder:
				flag, _ := v.(bool)
				fb.Append(flag)
			case *array.StringBuilder:
				if v == nil {
					fb.AppendNull()
					continue
				}
				s, err := core.FromAny(v)
				if err != nil {
					return nil, fmt.Errorf("column %s: %w", name, err)
				}
				fb.Append(s.String())
			}
		}
	}
	return b.NewRecord(), nil
}

func columnType(name string) arrow.DataType {
	switch {
	case name == "match":
		return arrow.FixedWidthTypes.Boolean
	case strings.HasSuffix(name, "_index"):
		return arrow.PrimitiveTypes.Int64
	default:
		return arrow.BinaryTypes.String
	}
}

// toInt64 accepts ints from Build and float64s from decoded JSON.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}
