package integrations

import (
	"context"
	"fmt"

	"github.com/apache/arrow-adbc/go/adbc"
	"go.uber.org/zap"

	"github.com/TFMV/tablecheck/internal/adapters"
	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/readers"
	"github.com/TFMV/tablecheck/pkg/schema"
)

// ADBCSource reads through an Arrow Database Connectivity driver. Metadata
// comes from the driver's table schema and rows arrive as Arrow batches.
type ADBCSource struct {
	conn   adbc.Connection
	closer func() error
	schema string
	logger *zap.Logger
}

// OpenADBCSource loads the configured driver and opens a connection.
func OpenADBCSource(ctx context.Context, cfg core.SourceConfig, logger *zap.Logger) (*ADBCSource, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("adbc: driver is required")
	}
	driverPath := cfg.DriverPath
	if driverPath == "" {
		var err error
		if driverPath, err = adapters.DefaultDriverPath(cfg.Driver); err != nil {
			return nil, err
		}
	}

	c, err := adapters.NewADBCConnection(ctx, driverPath, adapters.DriverOptions(cfg.Driver, cfg.DSN, cfg.Path))
	if err != nil {
		return nil, &core.ConnectivityError{Source: "adbc:" + cfg.Driver, Op: "connect", Err: err}
	}
	src := NewADBCSource(c.Conn, cfg.Schema, logger)
	src.closer = c.Close
	return src, nil
}

// NewADBCSource wraps an open connection. An empty schema means the
// driver's default.
func NewADBCSource(conn adbc.Connection, dbSchema string, logger *zap.Logger) *ADBCSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ADBCSource{
		conn:   conn,
		closer: conn.Close,
		schema: dbSchema,
		logger: logger.With(zap.String("source", "adbc")),
	}
}

// Tables lists tables from information_schema.
func (s *ADBCSource) Tables(ctx context.Context) ([]string, error) {
	query := "SELECT table_name FROM information_schema.tables WHERE table_type = 'BASE TABLE'"
	if s.schema != "" {
		if err := ValidateIdentifier(s.schema); err != nil {
			return nil, err
		}
		query += fmt.Sprintf(" AND table_schema = '%s'", s.schema)
	}
	ds, err := s.execute(ctx, "list tables", query+" ORDER BY table_name", 0)
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, ds.Len())
	for r := range ds.Rows {
		v, _ := ds.Cell(r, 0)
		tables = append(tables, v.String())
	}
	return tables, nil
}

// Metadata describes the table's Arrow schema.
func (s *ADBCSource) Metadata(ctx context.Context, table string) (*core.Dataset, error) {
	if err := ValidateIdentifier(table); err != nil {
		return nil, err
	}
	var dbSchema *string
	if s.schema != "" {
		dbSchema = &s.schema
	}
	sc, err := s.conn.GetTableSchema(ctx, nil, dbSchema, table)
	if err != nil {
		return nil, &core.ConnectivityError{Source: "adbc", Op: "describe " + table, Err: err}
	}
	return schema.MetadataFromArrow(sc), nil
}

// Data streams up to limit rows of the table.
func (s *ADBCSource) Data(ctx context.Context, table string, limit int) (*core.Dataset, error) {
	if err := ValidateIdentifier(table); err != nil {
		return nil, err
	}
	query := "SELECT * FROM " + table
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	return s.execute(ctx, "select "+table, query, limit)
}

// Close closes the connection.
func (s *ADBCSource) Close() error {
	return s.closer()
}

func (s *ADBCSource) execute(ctx context.Context, op, query string, limit int) (*core.Dataset, error) {
	stmt, err := s.conn.NewStatement()
	if err != nil {
		return nil, &core.ConnectivityError{Source: "adbc", Op: op, Err: err}
	}
	defer stmt.Close()

	if err := stmt.SetSqlQuery(query); err != nil {
		return nil, &core.ConnectivityError{Source: "adbc", Op: op, Err: err}
	}
	rdr, _, err := stmt.ExecuteQuery(ctx)
	if err != nil {
		return nil, &core.ConnectivityError{Source: "adbc", Op: op, Err: err}
	}
	defer rdr.Release()

	var rows [][]core.Scalar
	for rdr.Next() {
		if limit > 0 && len(rows) >= limit {
			break
		}
		if rows, err = readers.AppendRows(rows, rdr.Record(), limit); err != nil {
			return nil, fmt.Errorf("adbc: %s: %w", op, err)
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, &core.ConnectivityError{Source: "adbc", Op: op, Err: err}
	}

	s.logger.Debug("Query complete", zap.String("op", op), zap.Int("rows", len(rows)))
	return core.NewDataset(readers.ColumnNames(rdr.Schema()), rows), nil
}
