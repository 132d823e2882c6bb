package integrations

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TFMV/tablecheck/pkg/core"
)

// Dialect supplies the driver name, connection string and catalog queries of
// one SQL database family.
type Dialect interface {
	// Name is the source type this dialect registers under.
	Name() string
	// DriverName is the database/sql driver name.
	DriverName() string
	// DSN builds a connection string from discrete config fields.
	DSN(cfg core.SourceConfig) (string, error)
	// TablesQuery lists base tables.
	TablesQuery(cfg core.SourceConfig) (query string, args []any)
	// TableColumn names the result column holding table names; empty means
	// the first column.
	TableColumn() string
	// MetadataQuery returns one row per column of the table.
	MetadataQuery(cfg core.SourceConfig, table string) (query string, args []any)
	// DataQuery selects up to limit rows; limit <= 0 means all rows.
	DataQuery(table string, limit int) string
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*){0,2}$`)

// ValidateIdentifier rejects table names that are not plain, optionally
// dotted, SQL identifiers. Table names are interpolated into queries, so
// nothing else is accepted.
func ValidateIdentifier(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid table identifier %q", name)
	}
	return nil
}

// splitQualified splits a validated identifier into its schema and table
// parts. A leading database part is dropped; catalog views are per database.
func splitQualified(name string) (schema, table string) {
	parts := strings.Split(name, ".")
	table = parts[len(parts)-1]
	if len(parts) > 1 {
		schema = parts[len(parts)-2]
	}
	return schema, table
}

// SQLSource reads metadata and rows through database/sql.
type SQLSource struct {
	db      *sql.DB
	dialect Dialect
	cfg     core.SourceConfig
	logger  *zap.Logger
}

// OpenSQLSource connects with the dialect's driver and pings the database.
func OpenSQLSource(ctx context.Context, d Dialect, cfg core.SourceConfig, logger *zap.Logger) (*SQLSource, error) {
	dsn := cfg.DSN
	if dsn == "" {
		var err error
		dsn, err = d.DSN(cfg)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, &core.ConnectivityError{Source: d.Name(), Op: "open", Err: err}
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &core.ConnectivityError{Source: d.Name(), Op: "ping", Err: err}
	}
	return NewSQLSource(db, d, cfg, logger), nil
}

// NewSQLSource wraps an open database handle.
func NewSQLSource(db *sql.DB, d Dialect, cfg core.SourceConfig, logger *zap.Logger) *SQLSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLSource{
		db:      db,
		dialect: d,
		cfg:     cfg,
		logger:  logger.With(zap.String("source", d.Name())),
	}
}

// Tables lists base tables.
func (s *SQLSource) Tables(ctx context.Context) ([]string, error) {
	query, args := s.dialect.TablesQuery(s.cfg)
	ds, err := s.query(ctx, "list tables", query, args...)
	if err != nil {
		return nil, err
	}

	col := 0
	if name := s.dialect.TableColumn(); name != "" {
		if col = ds.ColumnIndex(name); col < 0 {
			return nil, &core.ConnectivityError{
				Source: s.dialect.Name(),
				Op:     "list tables",
				Err:    fmt.Errorf("result has no %q column", name),
			}
		}
	}

	tables := make([]string, 0, ds.Len())
	for r := range ds.Rows {
		v, _ := ds.Cell(r, col)
		tables = append(tables, v.String())
	}
	return tables, nil
}

// Metadata returns the catalog's column description of the table.
func (s *SQLSource) Metadata(ctx context.Context, table string) (*core.Dataset, error) {
	if err := ValidateIdentifier(table); err != nil {
		return nil, err
	}
	query, args := s.dialect.MetadataQuery(s.cfg, table)
	return s.query(ctx, "describe "+table, query, args...)
}

// Data returns up to limit rows of the table.
func (s *SQLSource) Data(ctx context.Context, table string, limit int) (*core.Dataset, error) {
	if err := ValidateIdentifier(table); err != nil {
		return nil, err
	}
	return s.query(ctx, "select "+table, s.dialect.DataQuery(table, limit))
}

// Close closes the database handle.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// query materializes a result set. Any failure discards the partial result.
func (s *SQLSource) query(ctx context.Context, op, query string, args ...any) (*core.Dataset, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.ConnectivityError{Source: s.dialect.Name(), Op: op, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &core.ConnectivityError{Source: s.dialect.Name(), Op: op, Err: err}
	}

	var values [][]any
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &core.ConnectivityError{Source: s.dialect.Name(), Op: op, Err: err}
		}
		values = append(values, dest)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.ConnectivityError{Source: s.dialect.Name(), Op: op, Err: err}
	}

	ds, err := core.DatasetFromValues(cols, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", s.dialect.Name(), op, err)
	}

	s.logger.Debug("Query complete",
		zap.String("op", op),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", ds.Width()),
		zap.Duration("elapsed", time.Since(start)))
	return ds, nil
}
