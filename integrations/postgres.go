package integrations

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/TFMV/tablecheck/pkg/core"
)

// Postgres is the PostgreSQL dialect, served by pgx through database/sql.
type Postgres struct{}

func (Postgres) Name() string        { return "postgres" }
func (Postgres) DriverName() string  { return "pgx" }
func (Postgres) TableColumn() string { return "table_name" }

// DSN builds a postgres:// URL. sslmode defaults to prefer.
func (Postgres) DSN(cfg core.SourceConfig) (string, error) {
	if cfg.Host == "" {
		return "", errors.New("postgres: host or dsn is required")
	}
	host := cfg.Host
	if cfg.Port > 0 {
		host = host + ":" + strconv.Itoa(cfg.Port)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host,
		Path:     "/" + cfg.Database,
		RawQuery: "sslmode=prefer",
	}
	return u.String(), nil
}

func pgSchema(cfg core.SourceConfig) string {
	if cfg.Schema == "" {
		return "public"
	}
	return cfg.Schema
}

func (Postgres) TablesQuery(cfg core.SourceConfig) (string, []any) {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name",
		[]any{pgSchema(cfg)}
}

// MetadataQuery uses the name's own schema when it is qualified.
func (Postgres) MetadataQuery(cfg core.SourceConfig, table string) (string, []any) {
	schema, name := splitQualified(table)
	if schema == "" {
		schema = pgSchema(cfg)
	}
	return "SELECT * FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position",
		[]any{schema, name}
}

func (Postgres) DataQuery(table string, limit int) string {
	if limit > 0 {
		return fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit)
	}
	return "SELECT * FROM " + table
}
