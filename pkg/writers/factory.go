// Package writers exports validation reports, as Arrow records, to files.
package writers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/TFMV/tablecheck/pkg/core"
)

// Factory creates a writer based on the given configuration.
type Factory struct {
	// registered writers by type
	writers map[string]Creator
}

// Creator is a function that creates a writer from a configuration.
type Creator func(config core.WriterConfig) (core.DatasetWriter, error)

// NewFactory creates a new writer factory.
func NewFactory() *Factory {
	return &Factory{
		writers: make(map[string]Creator),
	}
}

// Register registers a creator for a writer type.
func (f *Factory) Register(typ string, creator Creator) {
	f.writers[typ] = creator
}

// Create creates a writer based on the given configuration. An empty type is
// inferred from the path's extension.
func (f *Factory) Create(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Type == "" {
		config.Type = TypeFromPath(config.Path)
	}
	creator, ok := f.writers[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported writer type: %s", config.Type)
	}
	return creator(config)
}

// TypeFromPath maps a file extension to a writer type.
func TypeFromPath(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jsonl", ".ndjson":
		return "json"
	case ".arrow", ".ipc", ".feather":
		return "arrow"
	default:
		return strings.TrimPrefix(ext, ".")
	}
}

// Export writes a single record with a writer from f and closes it.
func (f *Factory) Export(ctx context.Context, config core.WriterConfig, record arrow.Record) error {
	w, err := f.Create(config)
	if err != nil {
		return err
	}
	if err := w.Write(ctx, record); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// DefaultFactory is the default writer factory with built-in writer types.
var DefaultFactory = NewFactory()

// init registers built-in writer types.
func init() {
	DefaultFactory.Register("parquet", NewParquetWriter)
	DefaultFactory.Register("arrow", NewArrowWriter)
	DefaultFactory.Register("json", NewJSONWriter)
	DefaultFactory.Register("csv", NewCSVWriter)
}
