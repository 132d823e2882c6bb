package integrations

import (
	"context"
	"errors"
	"testing"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/tablecheck/pkg/core"
)

// fakeConn implements the parts of adbc.Connection the source uses.
type fakeConn struct {
	adbc.Connection
	schema  *arrow.Schema
	records []arrow.Record
	queries []string
	err     error
	closed  bool
}

func (c *fakeConn) GetTableSchema(ctx context.Context, catalog, dbSchema *string, table string) (*arrow.Schema, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.schema, nil
}

func (c *fakeConn) NewStatement() (adbc.Statement, error) {
	return &fakeStmt{conn: c}, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeStmt struct {
	adbc.Statement
	conn  *fakeConn
	query string
}

func (s *fakeStmt) SetSqlQuery(q string) error {
	s.query = q
	s.conn.queries = append(s.conn.queries, q)
	return nil
}

func (s *fakeStmt) ExecuteQuery(ctx context.Context) (array.RecordReader, int64, error) {
	if s.conn.err != nil {
		return nil, -1, s.conn.err
	}
	rdr, err := array.NewRecordReader(s.conn.schema, s.conn.records)
	return rdr, -1, err
}

func (s *fakeStmt) Close() error { return nil }

func newFakeConn(t *testing.T) *fakeConn {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "table_name", Type: arrow.BinaryTypes.String},
		{Name: "n", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"customers", "orders", "items"}, nil)
	b.Field(1).(*array.Int32Builder).AppendValues([]int32{1, 2, 3}, []bool{true, false, true})
	rec := b.NewRecord()
	t.Cleanup(rec.Release)

	return &fakeConn{schema: schema, records: []arrow.Record{rec, rec}}
}

func TestADBCSourceMetadata(t *testing.T) {
	conn := newFakeConn(t)
	src := NewADBCSource(conn, "main", nil)

	meta, err := src.Metadata(context.Background(), "customers")
	require.NoError(t, err)
	require.Equal(t, 2, meta.Len())
	v, _ := meta.Cell(1, 1)
	assert.Equal(t, core.String("INT"), v)

	_, err = src.Metadata(context.Background(), "bad name")
	assert.Error(t, err)
}

func TestADBCSourceData(t *testing.T) {
	conn := newFakeConn(t)
	src := NewADBCSource(conn, "", nil)

	ds, err := src.Data(context.Background(), "customers", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"table_name", "n"}, ds.Columns)
	require.Equal(t, 4, ds.Len())
	v, _ := ds.Cell(1, 1)
	assert.True(t, v.IsNull())
	v, _ = ds.Cell(3, 0)
	assert.Equal(t, core.String("customers"), v)
	assert.Equal(t, "SELECT * FROM customers LIMIT 4", conn.queries[0])

	all, err := src.Data(context.Background(), "customers", 0)
	require.NoError(t, err)
	assert.Equal(t, 6, all.Len())
}

func TestADBCSourceTables(t *testing.T) {
	conn := newFakeConn(t)
	src := NewADBCSource(conn, "main", nil)

	tables, err := src.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders", "items", "customers", "orders", "items"}, tables)
	assert.Contains(t, conn.queries[0], "table_schema = 'main'")

	require.NoError(t, src.Close())
	assert.True(t, conn.closed)
}

func TestADBCSourceFailure(t *testing.T) {
	conn := newFakeConn(t)
	conn.err = errors.New("driver unavailable")
	src := NewADBCSource(conn, "", nil)

	_, err := src.Data(context.Background(), "customers", 1)
	assert.True(t, core.IsConnectivityError(err))
	_, err = src.Metadata(context.Background(), "customers")
	assert.True(t, core.IsConnectivityError(err))
}

func TestOpenADBCSourceRequiresDriver(t *testing.T) {
	_, err := OpenADBCSource(context.Background(), core.SourceConfig{Type: "adbc"}, nil)
	assert.Error(t, err)
}
