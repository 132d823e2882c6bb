package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/TFMV/tablecheck/integrations"
	"github.com/TFMV/tablecheck/pkg/core"
)

// checkSource lists tables and, when TABLECHECK_IT_TABLE is set, fetches
// that table's metadata and a few rows.
func checkSource(t *testing.T, ctx context.Context, src core.DatasetSource) {
	t.Helper()

	tables, err := src.Tables(ctx)
	require.NoError(t, err)
	t.Logf("Found %d tables", len(tables))

	table := os.Getenv("TABLECHECK_IT_TABLE")
	if table == "" {
		return
	}
	md, err := src.Metadata(ctx, table)
	require.NoError(t, err)
	require.NotZero(t, md.Len(), "no column metadata for %s", table)

	data, err := src.Data(ctx, table, 5)
	require.NoError(t, err)
	require.LessOrEqual(t, data.Len(), 5)
}

func openSQL(t *testing.T, envVar string, d integrations.Dialect) {
	dsn := os.Getenv(envVar)
	if dsn == "" {
		t.Skipf("%s environment variable is not set", envVar)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	src, err := integrations.OpenSQLSource(ctx, d, core.SourceConfig{Type: d.Name(), DSN: dsn}, zaptest.NewLogger(t))
	require.NoError(t, err, "failed to connect to %s", d.Name())
	defer src.Close()

	checkSource(t, ctx, src)
}

func TestPostgresConnectivity(t *testing.T) {
	openSQL(t, "POSTGRES_URL", integrations.Postgres{})
}

func TestMSSQLConnectivity(t *testing.T) {
	openSQL(t, "MSSQL_URL", integrations.MSSQL{})
}

func TestSnowflakeConnectivity(t *testing.T) {
	openSQL(t, "SNOWFLAKE_DSN", integrations.Snowflake{})
}

func TestADBCConnectivity(t *testing.T) {
	driverPath := os.Getenv("ADBC_DRIVER_PATH")
	if driverPath == "" {
		t.Skip("ADBC_DRIVER_PATH environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := core.SourceConfig{
		Type:       "adbc",
		Driver:     os.Getenv("ADBC_DRIVER"),
		DriverPath: driverPath,
		DSN:        os.Getenv("ADBC_URI"),
	}
	if cfg.Driver == "" {
		cfg.Driver = "duckdb"
	}

	src, err := integrations.OpenADBCSource(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer src.Close()

	checkSource(t, ctx, src)
}
