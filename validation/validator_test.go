package validation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/tablecheck/integrations"
	"github.com/TFMV/tablecheck/metrics"
	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/normalize"
	"github.com/TFMV/tablecheck/pkg/readers"
)

// memSource serves fixed datasets and counts fetches.
type memSource struct {
	metadata *core.Dataset
	data     *core.Dataset
	err      error
	fetches  atomic.Int32
	limits   []int
}

func (m *memSource) Tables(ctx context.Context) ([]string, error) { return []string{"t"}, nil }

func (m *memSource) Metadata(ctx context.Context, table string) (*core.Dataset, error) {
	m.fetches.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.metadata, nil
}

func (m *memSource) Data(ctx context.Context, table string, limit int) (*core.Dataset, error) {
	m.fetches.Add(1)
	m.limits = append(m.limits, limit)
	if m.err != nil {
		return nil, m.err
	}
	return m.data.Head(limit), nil
}

func (m *memSource) Close() error { return nil }

func dataset(t *testing.T, cols []string, rows ...[]any) *core.Dataset {
	t.Helper()
	ds, err := core.DatasetFromValues(cols, rows)
	require.NoError(t, err)
	return ds
}

func mappingSource(t *testing.T) core.DatasetSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.csv")
	doc := "source_column,target_column,data_type,nullable\n" +
		"CustomerID,CUSTOMERID,INT,No\n" +
		"Active,ACTIVE,BIT,Yes\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	src, err := readers.NewCSVSource(core.SourceConfig{Type: "csv", Path: path})
	require.NoError(t, err)
	return src
}

func snowflakeMetadata(t *testing.T) *memSource {
	return &memSource{metadata: dataset(t, []string{"name", "type", "null?"},
		[]any{"CUSTOMERID", "NUMBER", "N"},
		[]any{"ACTIVE", "BOOLEAN", "Y"},
	)}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metric:
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestValidateSchemaMappingDefaultsFromCSV(t *testing.T) {
	tgt := snowflakeMetadata(t)
	v := NewValidator(integrations.NewSourcePair(mappingSource(t), tgt), nil, nil)

	res, err := v.ValidateSchema(context.Background(), SchemaRequest{
		SourceTable: "mapping",
		TargetTable: "CUSTOMERS",
		Selection:   core.ColumnSelection{{Source: 1, Target: 0}, {Source: 2, Target: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, core.MappingSchema, res.Kind)
	require.Len(t, res.Records, 4)
	assert.Equal(t, []string{"row_index", "mapping_index", "metadata_index", "expected_value", "actual_value", "match"}, res.Table.Columns)
	// Unmatched strings normalize to null on both sides under the default policy.
	assert.Equal(t, 4, res.Summary.Matched)
	assert.True(t, res.Summary.Passed())
}

func TestValidateSchemaIntVersusNumberStringPolicy(t *testing.T) {
	tgt := snowflakeMetadata(t)
	v := NewValidator(integrations.NewSourcePair(mappingSource(t), tgt), normalize.New(normalize.FallthroughString), nil)

	res, err := v.ValidateSchema(context.Background(), SchemaRequest{
		Selection: core.ColumnSelection{{Source: 1, Target: 0}, {Source: 2, Target: 1}},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 4)

	assert.True(t, res.Records[0].Match)
	assert.Equal(t, core.String("customerid"), res.Records[0].Expected)
	assert.False(t, res.Records[1].Match)
	assert.Equal(t, core.String("int"), res.Records[1].Expected)
	assert.Equal(t, core.String("number"), res.Records[1].Actual)
	assert.Equal(t, 2, res.Summary.Mismatched)
}

func TestValidateSchemaMetadataVariant(t *testing.T) {
	src := &memSource{metadata: dataset(t, []string{"COLUMN_NAME", "IS_NULLABLE"},
		[]any{"id", "NO"},
		[]any{"active", "YES"},
		[]any{"extra", "YES"},
	)}
	tgt := &memSource{metadata: dataset(t, []string{"name", "null?"},
		[]any{"ID", "No"},
		[]any{"ACTIVE", "yes"},
	)}
	v := NewValidator(integrations.NewSourcePair(src, tgt), nil, nil)

	res, err := v.ValidateSchema(context.Background(), SchemaRequest{
		Selection: core.ColumnSelection{{Source: 1, Target: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, core.MetadataSchema, res.Kind)
	require.Len(t, res.Records, 3)
	assert.True(t, res.Records[0].Match)
	assert.True(t, res.Records[1].Match)

	// The third source row has no counterpart.
	assert.False(t, res.Records[2].Match)
	assert.Equal(t, core.String(core.IndexOutOfRange), res.Records[2].Actual)
	assert.Equal(t, 1, res.Summary.OutOfRange)
	assert.Equal(t, "source_metadata_index", res.Table.Columns[1])
}

func TestValidateSchemaRejectsBadSelection(t *testing.T) {
	tgt := snowflakeMetadata(t)
	v := NewValidator(integrations.NewSourcePair(mappingSource(t), tgt), nil, nil)

	_, err := v.ValidateSchema(context.Background(), SchemaRequest{
		Selection: core.ColumnSelection{{Source: 9, Target: 0}},
	})
	assert.Error(t, err)

	_, err = v.ValidateSchema(context.Background(), SchemaRequest{Variant: "data"})
	assert.Error(t, err)
}

func TestValidateSchemaFetchFailure(t *testing.T) {
	boom := &core.ConnectivityError{Source: "snowflake", Op: "describe", Err: errors.New("auth")}
	src := &memSource{metadata: dataset(t, []string{"a"})}
	tgt := &memSource{err: boom}

	c := metrics.NewPrometheusMetricsCollector()
	v := NewValidator(integrations.NewSourcePair(src, tgt), nil, nil)
	v.Metrics = c

	_, err := v.ValidateSchema(context.Background(), SchemaRequest{Selection: core.ColumnSelection{{Source: 0, Target: 0}}})
	require.Error(t, err)
	assert.True(t, core.IsConnectivityError(err))
	assert.Equal(t, 1.0, counterValue(t, c.Registry(), "tablecheck_validation_errors_total",
		map[string]string{"kind": "metadata", "stage": "fetch"}))
}

func TestValidateData(t *testing.T) {
	src := &memSource{data: dataset(t, []string{"id", "flag", "name"},
		[]any{int64(1), "Yes", "ann"},
		[]any{int64(2), "No", "bob"},
		[]any{int64(3), "Yes", "cy"},
	)}
	tgt := &memSource{data: dataset(t, []string{"ID", "FLAG"},
		[]any{int64(1), "Yes"},
		[]any{int64(2), "N"},
	)}

	c := metrics.NewPrometheusMetricsCollector()
	v := NewValidator(integrations.NewSourcePair(src, tgt), nil, nil)
	v.Metrics = c

	res, err := v.ValidateData(context.Background(), DataRequest{
		SourceColumns: []int{0, 1},
		TargetColumns: []int{0, 1},
	})
	require.NoError(t, err)

	// Rows zip to the shorter side.
	require.Len(t, res.Records, 4)
	assert.Equal(t, "id", res.Records[0].SourceColumn)
	assert.Equal(t, "ID", res.Records[0].TargetColumn)
	assert.True(t, res.Records[1].Match)
	assert.False(t, res.Records[3].Match, "no normalization on data values")
	assert.Equal(t, 3, res.Summary.Matched)
	assert.Equal(t, []int{core.DefaultRowLimit}, src.limits)

	assert.Equal(t, 1.0, counterValue(t, c.Registry(), "tablecheck_validations_total",
		map[string]string{"kind": "data", "outcome": "fail"}))
}

func TestValidateDataLimitOverride(t *testing.T) {
	src := &memSource{data: dataset(t, []string{"a"}, []any{"x"}, []any{"y"})}
	tgt := &memSource{data: dataset(t, []string{"a"}, []any{"x"}, []any{"y"})}
	v := NewValidator(integrations.NewSourcePair(src, tgt), nil, nil)

	res, err := v.ValidateData(context.Background(), DataRequest{SourceColumns: []int{0}, TargetColumns: []int{0}, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, []int{1}, tgt.limits)
}

func TestValidateDataLengthMismatch(t *testing.T) {
	src := &memSource{data: dataset(t, []string{"a", "b"})}
	tgt := &memSource{data: dataset(t, []string{"a"})}
	v := NewValidator(integrations.NewSourcePair(src, tgt), nil, nil)

	_, err := v.ValidateData(context.Background(), DataRequest{SourceColumns: []int{0, 1}, TargetColumns: []int{0}})
	require.Error(t, err)
	assert.True(t, core.IsLengthMismatch(err))
	assert.Equal(t, int32(0), src.fetches.Load(), "mismatch is reported before fetching")
	assert.Equal(t, int32(0), tgt.fetches.Load())
}

func TestValidateDataOutOfBoundsColumn(t *testing.T) {
	src := &memSource{data: dataset(t, []string{"a"}, []any{"x"})}
	tgt := &memSource{data: dataset(t, []string{"a"}, []any{"x"})}
	v := NewValidator(integrations.NewSourcePair(src, tgt), nil, nil)

	_, err := v.ValidateData(context.Background(), DataRequest{SourceColumns: []int{0}, TargetColumns: []int{4}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column index 4")
}

func TestCompareInMemory(t *testing.T) {
	v := &Validator{}

	res, err := v.CompareData(
		dataset(t, []string{"flag"}, []any{"Yes"}),
		dataset(t, []string{"flag"}, []any{"Y"}),
		[]int{0}, []int{0},
	)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.False(t, res.Records[0].Match)

	res, err = v.CompareSchema(core.MappingSchema,
		dataset(t, []string{"nullable"}, []any{"Yes"}),
		dataset(t, []string{"IS_NULLABLE"}, []any{"YES"}),
		core.ColumnSelection{{Source: 0, Target: 0}},
	)
	require.NoError(t, err)
	assert.True(t, res.Records[0].Match)

	rep := res.Report("mapping.csv", "snowflake")
	assert.Equal(t, "mapping.csv", rep.Source)
	assert.Equal(t, res.Summary, rep.Summary)
}
