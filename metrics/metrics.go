package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// -----------------------------
// Validation Result Types
// -----------------------------

// Summary condenses a validation report into counts.
type Summary struct {
	Kind       string  `json:"kind"`
	Total      int     `json:"total"`
	Matched    int     `json:"matched"`
	Mismatched int     `json:"mismatched"`
	OutOfRange int     `json:"out_of_range"`
	MatchRate  float64 `json:"match_rate"`
}

// Passed reports whether every record matched. An empty report passes.
func (s Summary) Passed() bool {
	return s.Mismatched == 0
}

// Run captures one validation run for storage.
type Run struct {
	Source    string        `json:"source"`
	Target    string        `json:"target"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Summary   Summary       `json:"summary"`
}

// -----------------------------
// Metrics Storage
// -----------------------------

// MetricsStore abstracts validation run storage.
type MetricsStore interface {
	Save(run Run) error
	SaveWithContext(ctx context.Context, run Run) error
}

// JSONMetricsStore stores runs as JSON. An empty FilePath prints to stdout.
type JSONMetricsStore struct {
	FilePath string
}

func (j *JSONMetricsStore) Save(run Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	if j.FilePath != "" {
		return os.WriteFile(j.FilePath, data, 0644)
	}
	fmt.Println(string(data))
	return nil
}

func (j *JSONMetricsStore) SaveWithContext(ctx context.Context, run Run) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return j.Save(run)
	}
}

// -----------------------------
// Prometheus
// -----------------------------

// PrometheusMetricsCollector records validation outcomes on its own registry.
type PrometheusMetricsCollector struct {
	registry    *prometheus.Registry
	validations *prometheus.CounterVec
	records     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewPrometheusMetricsCollector creates a collector with a private registry.
func NewPrometheusMetricsCollector() *PrometheusMetricsCollector {
	reg := prometheus.NewRegistry()

	validations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablecheck_validations_total",
			Help: "Total number of completed validations, partitioned by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablecheck_records_total",
			Help: "Total number of compared records, partitioned by kind and status.",
		},
		[]string{"kind", "status"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tablecheck_validation_errors_total",
			Help: "Total number of validations that failed before producing a report.",
		},
		[]string{"kind", "stage"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tablecheck_validation_duration_seconds",
			Help:    "Validation duration including dataset fetches.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	reg.MustRegister(validations, records, failures, duration)

	return &PrometheusMetricsCollector{
		registry:    reg,
		validations: validations,
		records:     records,
		failures:    failures,
		duration:    duration,
	}
}

// Registry exposes the collector's registry for scraping.
func (p *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return p.registry
}

// RecordValidation records a completed validation.
func (p *PrometheusMetricsCollector) RecordValidation(s Summary, d time.Duration) {
	outcome := "pass"
	if !s.Passed() {
		outcome = "fail"
	}
	p.validations.WithLabelValues(s.Kind, outcome).Inc()
	p.records.WithLabelValues(s.Kind, "matched").Add(float64(s.Matched))
	p.records.WithLabelValues(s.Kind, "mismatched").Add(float64(s.Mismatched - s.OutOfRange))
	p.records.WithLabelValues(s.Kind, "out_of_range").Add(float64(s.OutOfRange))
	p.duration.WithLabelValues(s.Kind).Observe(d.Seconds())
}

// RecordFailure records a validation that failed at the given stage
// (fetch, prepare).
func (p *PrometheusMetricsCollector) RecordFailure(kind, stage string) {
	p.failures.WithLabelValues(kind, stage).Inc()
}
