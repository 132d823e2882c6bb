// Package readers provides dataset sources for files: CSV mapping documents,
// Parquet and Arrow IPC. Database sources register themselves from the
// integrations package.
package readers

import (
	"fmt"
	"sort"

	"github.com/TFMV/tablecheck/pkg/core"
)

// Factory creates a source based on the given configuration.
type Factory struct {
	// registered sources by type
	sources map[string]Creator
}

// Creator is a function that creates a source from a configuration.
type Creator func(config core.SourceConfig) (core.DatasetSource, error)

// NewFactory creates a new source factory.
func NewFactory() *Factory {
	return &Factory{
		sources: make(map[string]Creator),
	}
}

// Register registers a creator for a source type.
func (f *Factory) Register(typ string, creator Creator) {
	f.sources[typ] = creator
}

// Create creates a source based on the given configuration.
func (f *Factory) Create(config core.SourceConfig) (core.DatasetSource, error) {
	creator, ok := f.sources[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}
	return creator(config)
}

// Types lists the registered source types in sorted order.
func (f *Factory) Types() []string {
	types := make([]string, 0, len(f.sources))
	for t := range f.sources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory is the default source factory with built-in file types.
var DefaultFactory = NewFactory()

// init registers built-in source types.
func init() {
	DefaultFactory.Register("csv", NewCSVSource)
	DefaultFactory.Register("parquet", NewParquetSource)
	DefaultFactory.Register("arrow", NewArrowSource)
}
