package readers

import (
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/tablecheck/pkg/core"
)

// Messages surfaced to users for unreadable mapping documents.
const (
	MsgEmptyDocument     = "The uploaded file is empty."
	MsgMalformedDocument = "The uploaded file could not be parsed as CSV."
)

// CSVSource serves a mapping document. Every cell is read as a string; the
// document is both the source's metadata and its data.
type CSVSource struct {
	name string
	doc  *core.Dataset
}

// NewCSVSource loads the mapping document at config.Path.
func NewCSVSource(config core.SourceConfig) (core.DatasetSource, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV source")
	}

	data, err := os.ReadFile(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}

	doc, err := ParseMappingDocument(config.Path, data, int(config.BatchSize))
	if err != nil {
		return nil, err
	}
	return &CSVSource{name: tableName(config.Path), doc: doc}, nil
}

// ParseMappingDocument parses CSV text with a header row into a dataset of
// strings. An empty document or malformed CSV yields a *core.ParseError.
func ParseMappingDocument(name string, data []byte, chunk int) (*core.Dataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &core.ParseError{Source: name, Msg: MsgEmptyDocument}
	}

	header, err := stdcsv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, &core.ParseError{Source: name, Msg: MsgMalformedDocument, Err: err}
	}

	fields := make([]arrow.Field, len(header))
	for i, h := range header {
		fields[i] = arrow.Field{Name: strings.TrimSpace(h), Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	if chunk <= 0 {
		chunk = 10000
	}
	r := csv.NewReader(
		bytes.NewReader(data),
		schema,
		csv.WithHeader(true),
		csv.WithChunk(chunk),
		csv.WithAllocator(memory.NewGoAllocator()),
	)
	defer r.Release()

	var rows [][]core.Scalar
	for r.Next() {
		rows, err = AppendRows(rows, r.Record(), 0)
		if err != nil {
			return nil, &core.ParseError{Source: name, Msg: MsgMalformedDocument, Err: err}
		}
	}
	if err := r.Err(); err != nil {
		return nil, &core.ParseError{Source: name, Msg: MsgMalformedDocument, Err: err}
	}

	return core.NewDataset(ColumnNames(schema), rows), nil
}

// Tables returns the document's name.
func (s *CSVSource) Tables(ctx context.Context) ([]string, error) {
	return []string{s.name}, nil
}

// Metadata returns the whole document.
func (s *CSVSource) Metadata(ctx context.Context, table string) (*core.Dataset, error) {
	return s.doc, nil
}

// Data returns up to limit rows of the document.
func (s *CSVSource) Data(ctx context.Context, table string, limit int) (*core.Dataset, error) {
	return s.doc.Head(limit), nil
}

// Close is a no-op; the document is held in memory.
func (s *CSVSource) Close() error {
	return nil
}

func tableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
