// Package adapters opens ADBC connections through the driver manager.
package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/drivermgr"
)

// ADBCConnection is an open connection and the database it came from.
type ADBCConnection struct {
	Conn adbc.Connection
	db   adbc.Database
}

// NewADBCConnection establishes a new ADBC connection with the provided driver and options.
// The options map is not modified.
func NewADBCConnection(ctx context.Context, driverPath string, options map[string]string) (*ADBCConnection, error) {
	opts := make(map[string]string, len(options)+1)
	for k, v := range options {
		opts[k] = v
	}
	opts["driver"] = driverPath

	drv := drivermgr.Driver{}
	db, err := drv.NewDatabase(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ADBC database: %w", err)
	}

	conn, err := db.Open(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open ADBC connection: %w", err)
	}

	return &ADBCConnection{Conn: conn, db: db}, nil
}

// Close closes the connection and its database.
func (c *ADBCConnection) Close() error {
	err := c.Conn.Close()
	if c.db != nil {
		if dbErr := c.db.Close(); dbErr != nil && err == nil {
			err = dbErr
		}
	}
	return err
}

// libraries maps a driver name to its shared library base name.
var libraries = map[string]string{
	"duckdb":     "duckdb",
	"postgresql": "adbc_driver_postgresql",
	"snowflake":  "adbc_driver_snowflake",
	"sqlite":     "adbc_driver_sqlite",
}

// DefaultDriverPath guesses where a driver's shared library is installed.
func DefaultDriverPath(driver string) (string, error) {
	lib, ok := libraries[driver]
	if !ok {
		return "", fmt.Errorf("unknown ADBC driver %q", driver)
	}
	switch runtime.GOOS {
	case "darwin":
		return "/usr/local/lib/lib" + lib + ".dylib", nil
	case "windows":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, lib+".dll"), nil
	default:
		return "/usr/local/lib/lib" + lib + ".so", nil
	}
}

// DriverOptions returns the database options a driver needs beyond its
// path. DuckDB ships its ADBC entrypoint inside libduckdb and takes a file
// path; the other drivers take a URI.
func DriverOptions(driver, uri, path string) map[string]string {
	opts := map[string]string{}
	switch driver {
	case "duckdb":
		opts["entrypoint"] = "duckdb_adbc_init"
		if path != "" {
			opts["path"] = path
		}
	default:
		if uri != "" {
			opts[adbc.OptionKeyURI] = uri
		}
	}
	return opts
}
