// Package api serves normalization and in-memory validation over HTTP.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TFMV/tablecheck/metrics"
	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/normalize"
	"github.com/TFMV/tablecheck/pkg/readers"
	"github.com/TFMV/tablecheck/validation"
	"github.com/TFMV/tablecheck/version"
)

// ServerOptions configure the HTTP server.
type ServerOptions struct {
	Port    string
	Prefork bool

	// Fallthrough is the default normalizer policy; requests may override it.
	Fallthrough normalize.FallthroughPolicy

	// Logger receives server and validation logs. Nil discards them.
	Logger *zap.Logger

	// Metrics is exposed on /metrics. Nil creates a private collector.
	Metrics *metrics.PrometheusMetricsCollector

	// AccessLog enables the per-request access log middleware.
	AccessLog bool
}

// Server holds the Fiber app instance
type Server struct {
	app     *fiber.App
	opts    ServerOptions
	logger  *zap.Logger
	metrics *metrics.PrometheusMetricsCollector
}

// NewServer initializes a new Fiber instance with the validation routes.
func NewServer(opts ServerOptions) *Server {
	if opts.Port == "" {
		opts.Port = "8080"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewPrometheusMetricsCollector()
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:           10 * time.Second,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		Prefork:               opts.Prefork,
		BodyLimit:             16 * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}

	s := &Server{app: app, opts: opts, logger: opts.Logger, metrics: opts.Metrics}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Tablecheck API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Metrics.Registry(), promhttp.HandlerOpts{})))

	v1 := app.Group("/v1")
	v1.Post("/normalize", s.handleNormalize)
	v1.Post("/validate/schema", s.handleValidateSchema)
	v1.Post("/validate/data", s.handleValidateData)

	return s
}

// GetApp returns the Fiber app, mainly for tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start listens on the configured port until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Tablecheck API is running", zap.String("port", s.opts.Port))
		errCh <- s.app.Listen(":" + s.opts.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Received shutdown signal, stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("Server shutdown successfully")
	return nil
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// -----------------------------
// Requests and responses
// -----------------------------

type normalizeRequest struct {
	Values      []core.Scalar `json:"values"`
	Fallthrough string        `json:"fallthrough,omitempty"`
}

type normalizeResponse struct {
	Values []core.Scalar `json:"values"`
}

// schemaRequest carries the expected side either as a dataset or as the
// raw text of a CSV mapping document.
type schemaRequest struct {
	Variant     core.RecordKind      `json:"variant,omitempty"`
	Expected    *core.Dataset        `json:"expected,omitempty"`
	MappingCSV  string               `json:"mapping_csv,omitempty"`
	Actual      *core.Dataset        `json:"actual"`
	Selection   core.ColumnSelection `json:"selection"`
	Fallthrough string               `json:"fallthrough,omitempty"`
}

type dataRequest struct {
	Source        *core.Dataset `json:"source"`
	Target        *core.Dataset `json:"target"`
	SourceColumns []int         `json:"source_columns"`
	TargetColumns []int         `json:"target_columns"`
	Limit         int           `json:"limit,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// -----------------------------
// Handlers
// -----------------------------

func (s *Server) handleNormalize(c *fiber.Ctx) error {
	var req normalizeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	n, err := s.normalizer(req.Fallthrough)
	if err != nil {
		return err
	}
	out := make([]core.Scalar, len(req.Values))
	for i, v := range req.Values {
		out[i] = n.Normalize(v)
	}
	return c.JSON(normalizeResponse{Values: out})
}

func (s *Server) handleValidateSchema(c *fiber.Ctx) error {
	start := time.Now()
	var req schemaRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}

	expected := req.Expected
	if req.MappingCSV != "" {
		doc, err := readers.ParseMappingDocument("mapping_csv", []byte(req.MappingCSV), 0)
		if err != nil {
			return err
		}
		expected = doc
		if req.Variant == "" {
			req.Variant = core.MappingSchema
		}
	}
	if expected == nil || req.Actual == nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected (or mapping_csv) and actual datasets are required")
	}
	if req.Variant == "" {
		req.Variant = core.MetadataSchema
	}
	if req.Variant != core.MappingSchema && req.Variant != core.MetadataSchema {
		return fiber.NewError(fiber.StatusBadRequest, "variant must be mapping or metadata")
	}

	n, err := s.normalizer(req.Fallthrough)
	if err != nil {
		return err
	}
	v := &validation.Validator{Normalizer: n, Logger: s.logger}
	res, err := v.CompareSchema(req.Variant, expected, req.Actual, req.Selection)
	if err != nil {
		s.metrics.RecordFailure(string(req.Variant), "prepare")
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return s.respond(c, res, start)
}

func (s *Server) handleValidateData(c *fiber.Ctx) error {
	start := time.Now()
	var req dataRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.Source == nil || req.Target == nil {
		return fiber.NewError(fiber.StatusBadRequest, "source and target datasets are required")
	}

	source, target := req.Source, req.Target
	if req.Limit > 0 {
		source, target = source.Head(req.Limit), target.Head(req.Limit)
	}

	v := &validation.Validator{Logger: s.logger}
	res, err := v.CompareData(source, target, req.SourceColumns, req.TargetColumns)
	if err != nil {
		s.metrics.RecordFailure(string(core.Data), "prepare")
		if core.IsLengthMismatch(err) {
			return err
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return s.respond(c, res, start)
}

func (s *Server) respond(c *fiber.Ctx, res validation.Result, start time.Time) error {
	res.Duration = time.Since(start)
	s.metrics.RecordValidation(res.Summary, res.Duration)
	return c.JSON(res.Report("request", "request"))
}

func (s *Server) normalizer(policy string) (*normalize.Normalizer, error) {
	if policy == "" {
		return normalize.New(s.opts.Fallthrough), nil
	}
	p, err := normalize.ParsePolicy(policy)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return normalize.New(p), nil
}

// errorHandler renders errors as JSON. Parse and length mismatch errors are
// client errors.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case core.IsParseError(err), core.IsLengthMismatch(err):
		code = fiber.StatusBadRequest
	}
	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}
