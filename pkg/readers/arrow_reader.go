package readers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/schema"
)

// ArrowSource serves a single Arrow IPC file as one table.
type ArrowSource struct {
	name   string
	schema *arrow.Schema
	reader *ipc.FileReader
	file   *os.File
}

// NewArrowSource opens the Arrow IPC file at config.Path.
func NewArrowSource(config core.SourceConfig) (core.DatasetSource, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow source")
	}

	f, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Arrow file: %w", err)
	}

	reader, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Arrow file reader: %w", err)
	}

	return &ArrowSource{
		name:   tableName(config.Path),
		schema: reader.Schema(),
		reader: reader,
		file:   f,
	}, nil
}

// Tables returns the file's base name.
func (s *ArrowSource) Tables(ctx context.Context) ([]string, error) {
	return []string{s.name}, nil
}

// Metadata returns one row per field of the file's schema.
func (s *ArrowSource) Metadata(ctx context.Context, table string) (*core.Dataset, error) {
	return schema.MetadataFromArrow(s.schema), nil
}

// Data reads record batches until limit rows have been collected.
func (s *ArrowSource) Data(ctx context.Context, table string, limit int) (*core.Dataset, error) {
	var rows [][]core.Scalar
	for i := 0; i < s.reader.NumRecords(); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if limit > 0 && len(rows) >= limit {
			break
		}

		rec, err := s.reader.Record(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read record batch %d: %w", i, err)
		}
		rows, err = AppendRows(rows, rec, limit)
		if err != nil {
			return nil, err
		}
	}
	return core.NewDataset(ColumnNames(s.schema), rows), nil
}

// Close closes the reader and the file.
func (s *ArrowSource) Close() error {
	var err error
	if s.reader != nil {
		err = s.reader.Close()
		s.reader = nil
	}
	if s.file != nil {
		if closeErr := s.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		s.file = nil
	}
	return err
}
