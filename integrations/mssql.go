package integrations

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/TFMV/tablecheck/pkg/core"
)

// MSSQL is the SQL Server dialect, served by go-mssqldb.
type MSSQL struct{}

func (MSSQL) Name() string        { return "mssql" }
func (MSSQL) DriverName() string  { return "sqlserver" }
func (MSSQL) TableColumn() string { return "TABLE_NAME" }

// DSN builds a sqlserver:// URL.
func (MSSQL) DSN(cfg core.SourceConfig) (string, error) {
	if cfg.Host == "" {
		return "", errors.New("mssql: host or dsn is required")
	}
	host := cfg.Host
	if cfg.Port > 0 {
		host = host + ":" + strconv.Itoa(cfg.Port)
	}
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   host,
	}
	if cfg.Database != "" {
		q := url.Values{}
		q.Set("database", cfg.Database)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (MSSQL) TablesQuery(cfg core.SourceConfig) (string, []any) {
	return "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME", nil
}

// MetadataQuery filters on TABLE_SCHEMA when the name is qualified or a
// schema is configured.
func (MSSQL) MetadataQuery(cfg core.SourceConfig, table string) (string, []any) {
	schema, name := splitQualified(table)
	if schema == "" {
		schema = cfg.Schema
	}
	if schema == "" {
		return "SELECT * FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = @p1 ORDER BY ORDINAL_POSITION", []any{name}
	}
	return "SELECT * FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 ORDER BY ORDINAL_POSITION",
		[]any{schema, name}
}

func (MSSQL) DataQuery(table string, limit int) string {
	if limit > 0 {
		return fmt.Sprintf("SELECT TOP (%d) * FROM %s", limit, table)
	}
	return "SELECT * FROM " + table
}
