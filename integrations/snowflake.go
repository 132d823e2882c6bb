package integrations

import (
	"errors"
	"fmt"

	"github.com/snowflakedb/gosnowflake"

	"github.com/TFMV/tablecheck/pkg/core"
)

// Snowflake is the Snowflake dialect, served by gosnowflake.
type Snowflake struct{}

func (Snowflake) Name() string        { return "snowflake" }
func (Snowflake) DriverName() string  { return "snowflake" }
func (Snowflake) TableColumn() string { return "name" }

// DSN builds a connection string with gosnowflake's own encoder.
func (Snowflake) DSN(cfg core.SourceConfig) (string, error) {
	if cfg.Account == "" {
		return "", errors.New("snowflake: account or dsn is required")
	}
	return gosnowflake.DSN(&gosnowflake.Config{
		Account:     cfg.Account,
		User:        cfg.User,
		Password:    cfg.Password,
		Database:    cfg.Database,
		Schema:      cfg.Schema,
		Warehouse:   cfg.Warehouse,
		Role:        cfg.Role,
		Application: "tablecheck",
	})
}

// TablesQuery runs SHOW TABLES; the table name is in the "name" column.
func (Snowflake) TablesQuery(cfg core.SourceConfig) (string, []any) {
	return "SHOW TABLES", nil
}

func (Snowflake) MetadataQuery(cfg core.SourceConfig, table string) (string, []any) {
	return "DESC TABLE " + table, nil
}

func (Snowflake) DataQuery(table string, limit int) string {
	if limit > 0 {
		return fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, limit)
	}
	return "SELECT * FROM " + table
}
