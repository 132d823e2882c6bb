package writers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/readers"
)

// JSONWriter writes one JSON object per row (JSON Lines).
type JSONWriter struct {
	file    *os.File
	buf     *bufio.Writer
	encoder *json.Encoder
}

// NewJSONWriter creates a new JSON Lines writer.
func NewJSONWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for JSON writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON file: %w", err)
	}

	buf := bufio.NewWriter(file)
	return &JSONWriter{
		file:    file,
		buf:     buf,
		encoder: json.NewEncoder(buf),
	}, nil
}

// Write writes every row of the record as a JSON object keyed by field name.
func (w *JSONWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	numRows := int(record.NumRows())
	numCols := int(record.NumCols())
	for i := 0; i < numRows; i++ {
		row := make(map[string]interface{}, numCols)
		for j := 0; j < numCols; j++ {
			v, err := readers.ValueAt(record.Column(j), i)
			if err != nil {
				return fmt.Errorf("column %s row %d: %w", record.ColumnName(j), i, err)
			}
			row[record.ColumnName(j)] = v.Interface()
		}
		if err := w.encoder.Encode(row); err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (w *JSONWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.buf.Flush()
	if closeErr := w.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	w.file = nil
	return err
}
