package readers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/schema"
)

// ParquetSource serves a single Parquet file as one table.
type ParquetSource struct {
	name        string
	schema      *arrow.Schema
	fileReader  *file.Reader
	arrowReader *pqarrow.FileReader
	batchSize   int64
	file        *os.File
}

// NewParquetSource opens the Parquet file at config.Path.
func NewParquetSource(config core.SourceConfig) (core.DatasetSource, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet source")
	}

	// Set default batch size if not specified
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 10000
	}

	f, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}

	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Parquet file reader: %w", err)
	}

	arrowProps := pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: batchSize,
	}
	arrowReader, err := pqarrow.NewFileReader(parquetReader, arrowProps, memory.NewGoAllocator())
	if err != nil {
		parquetReader.Close()
		f.Close()
		return nil, fmt.Errorf("failed to create Arrow reader: %w", err)
	}

	sc, err := arrowReader.Schema()
	if err != nil {
		parquetReader.Close()
		f.Close()
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	return &ParquetSource{
		name:        tableName(config.Path),
		schema:      sc,
		fileReader:  parquetReader,
		arrowReader: arrowReader,
		batchSize:   batchSize,
		file:        f,
	}, nil
}

// Tables returns the file's base name.
func (s *ParquetSource) Tables(ctx context.Context) ([]string, error) {
	return []string{s.name}, nil
}

// Metadata returns one row per field of the file's schema.
func (s *ParquetSource) Metadata(ctx context.Context, table string) (*core.Dataset, error) {
	return schema.MetadataFromArrow(s.schema), nil
}

// Data reads up to limit rows, batch by batch.
func (s *ParquetSource) Data(ctx context.Context, table string, limit int) (*core.Dataset, error) {
	tbl, err := s.arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read Parquet table: %w", err)
	}
	defer tbl.Release()

	tr := array.NewTableReader(tbl, s.batchSize)
	defer tr.Release()

	var rows [][]core.Scalar
	for tr.Next() {
		if limit > 0 && len(rows) >= limit {
			break
		}
		rows, err = AppendRows(rows, tr.Record(), limit)
		if err != nil {
			return nil, err
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("error reading from table: %w", err)
	}
	return core.NewDataset(ColumnNames(s.schema), rows), nil
}

// Close closes the reader and releases resources.
func (s *ParquetSource) Close() error {
	var err error
	if s.fileReader != nil {
		err = s.fileReader.Close()
		s.fileReader = nil
	}
	if s.file != nil {
		if closeErr := s.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		s.file = nil
	}
	return err
}
