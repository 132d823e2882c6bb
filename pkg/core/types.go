// Package core provides the core types and interfaces for the tablecheck
// validation tool.
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// IndexOutOfRange is the actual value recorded when a schema comparison
// addresses a row or column the actual dataset does not have.
const IndexOutOfRange = "Index out of range"

// DefaultRowLimit caps data fetches when no explicit limit is configured.
const DefaultRowLimit = 1000

// RecordKind identifies which comparator produced a record.
type RecordKind string

const (
	// MappingSchema compares a mapping document against target metadata.
	MappingSchema RecordKind = "mapping"
	// MetadataSchema compares metadata from two live systems.
	MetadataSchema RecordKind = "metadata"
	// Data compares row data.
	Data RecordKind = "data"
)

// ValidationRecord is one comparison outcome. Schema records carry
// ExpectedIndex/ActualIndex; data records carry SourceColumn/TargetColumn.
type ValidationRecord struct {
	Kind          RecordKind `json:"kind"`
	Row           int        `json:"row_index"`
	ExpectedIndex int        `json:"expected_index"`
	ActualIndex   int        `json:"actual_index"`
	SourceColumn  string     `json:"source_column,omitempty"`
	TargetColumn  string     `json:"target_column,omitempty"`
	Expected      Scalar     `json:"expected_value"`
	Actual        Scalar     `json:"actual_value"`
	Match         bool       `json:"match"`

	// OutOfRange is set when Actual holds the IndexOutOfRange sentinel.
	OutOfRange bool `json:"-"`
}

// ValidationReport is the ordered output of a comparator: row-major, then
// column-pair order.
type ValidationReport []ValidationRecord

// Matched returns the number of matching records.
func (r ValidationReport) Matched() int {
	n := 0
	for _, rec := range r {
		if rec.Match {
			n++
		}
	}
	return n
}

// DatasetSource produces datasets for a table: its column metadata (one row
// per column) and its row data.
type DatasetSource interface {
	// Tables lists the tables the source can describe.
	Tables(ctx context.Context) ([]string, error)

	// Metadata returns one row per column of the table.
	Metadata(ctx context.Context, table string) (*Dataset, error)

	// Data returns up to limit rows of the table. limit <= 0 means no cap.
	Data(ctx context.Context, table string, limit int) (*Dataset, error)

	// Close releases the source's connections or file handles.
	Close() error
}

// SourceConfig describes how to open a dataset source.
type SourceConfig struct {
	// Type selects the source implementation (csv, parquet, arrow, mssql,
	// postgres, snowflake, adbc).
	Type string `mapstructure:"type" json:"type"`

	// Path is the file path for file-backed sources.
	Path string `mapstructure:"path" json:"path,omitempty"`

	// DSN is a full connection string; when set it wins over the discrete fields.
	DSN string `mapstructure:"dsn" json:"dsn,omitempty"`

	Host      string `mapstructure:"host" json:"host,omitempty"`
	Port      int    `mapstructure:"port" json:"port,omitempty"`
	User      string `mapstructure:"user" json:"user,omitempty"`
	Password  string `mapstructure:"password" json:"-"`
	Database  string `mapstructure:"database" json:"database,omitempty"`
	Schema    string `mapstructure:"schema" json:"schema,omitempty"`
	Account   string `mapstructure:"account" json:"account,omitempty"`
	Warehouse string `mapstructure:"warehouse" json:"warehouse,omitempty"`
	Role      string `mapstructure:"role" json:"role,omitempty"`

	// Driver names the ADBC driver (duckdb, postgresql, snowflake, sqlite).
	Driver string `mapstructure:"driver" json:"driver,omitempty"`

	// DriverPath locates the native driver library for ADBC sources.
	DriverPath string `mapstructure:"driver_path" json:"driver_path,omitempty"`

	// BatchSize is the number of rows per Arrow batch for file sources.
	BatchSize int64 `mapstructure:"batch_size" json:"batch_size,omitempty"`
}

// DatasetWriter defines an interface for writing report records to various destinations.
type DatasetWriter interface {
	// Write writes a record to the destination.
	Write(ctx context.Context, record arrow.Record) error

	// Close closes the writer and flushes any pending data.
	Close() error
}

// WriterConfig provides configuration for creating a writer.
type WriterConfig struct {
	// Type is the type of the writer.
	Type string

	// Path is the path to the output file.
	Path string

	// Compression names the Parquet codec (snappy, zstd, gzip, none).
	Compression string
}

// ParseError reports an empty or malformed input document.
type ParseError struct {
	Source string
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Source, e.Msg, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Source, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConnectivityError reports a connection or query failure in a dataset source.
type ConnectivityError struct {
	Source string
	Op     string
	Err    error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// LengthMismatchError reports selected column lists of different lengths.
type LengthMismatchError struct {
	Source int
	Target int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("the number of selected columns must be the same: source has %d, target has %d", e.Source, e.Target)
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsConnectivityError reports whether err is or wraps a ConnectivityError.
func IsConnectivityError(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// IsLengthMismatch reports whether err is or wraps a LengthMismatchError.
func IsLengthMismatch(err error) bool {
	var le *LengthMismatchError
	return errors.As(err, &le)
}
