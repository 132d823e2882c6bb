// Package integrations connects the validator to live databases and pairs
// two dataset sources for comparison.
package integrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/readers"
)

// SourcePair holds the two sides of a validation. For mapping validation the
// source is the mapping document and the target is the system it describes.
type SourcePair struct {
	Source core.DatasetSource
	Target core.DatasetSource
}

// NewSourcePair pairs two sources.
func NewSourcePair(source, target core.DatasetSource) *SourcePair {
	return &SourcePair{Source: source, Target: target}
}

// OpenSourcePair creates both sources from f. If the target fails to open,
// the already-opened source is closed.
func OpenSourcePair(f *readers.Factory, source, target core.SourceConfig) (*SourcePair, error) {
	src, err := f.Create(source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	tgt, err := f.Create(target)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("target: %w", err)
	}
	return NewSourcePair(src, tgt), nil
}

// Close closes both sources.
func (p *SourcePair) Close() error {
	return errors.Join(p.Source.Close(), p.Target.Close())
}

// Options configure how database sources are opened.
type Options struct {
	// Context bounds connection setup.
	Context context.Context

	// ConnectTimeout caps connection setup when Context has no deadline.
	ConnectTimeout time.Duration

	// Logger receives per-query debug logs.
	Logger *zap.Logger
}

// Option is a functional config approach
type Option func(*Options)

// WithContext sets the context used to open connections.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

// WithConnectTimeout sets the connection setup timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ConnectTimeout = d
	}
}

// WithLogger sets the logger handed to each source.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Register adds the database source types (mssql, postgres, snowflake,
// adbc) to f.
func Register(f *readers.Factory, options ...Option) {
	opts := Options{ConnectTimeout: 30 * time.Second}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	connectCtx := func() (context.Context, context.CancelFunc) {
		if _, ok := opts.Context.Deadline(); ok || opts.ConnectTimeout <= 0 {
			return context.WithCancel(opts.Context)
		}
		return context.WithTimeout(opts.Context, opts.ConnectTimeout)
	}

	for _, d := range []Dialect{MSSQL{}, Postgres{}, Snowflake{}} {
		d := d
		f.Register(d.Name(), func(cfg core.SourceConfig) (core.DatasetSource, error) {
			ctx, cancel := connectCtx()
			defer cancel()
			src, err := OpenSQLSource(ctx, d, cfg, opts.Logger)
			if err != nil {
				return nil, err
			}
			return src, nil
		})
	}
	f.Register("adbc", func(cfg core.SourceConfig) (core.DatasetSource, error) {
		ctx, cancel := connectCtx()
		defer cancel()
		src, err := OpenADBCSource(ctx, cfg, opts.Logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	})
}
