package metrics

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryPassed(t *testing.T) {
	assert.True(t, Summary{}.Passed())
	assert.True(t, Summary{Total: 3, Matched: 3}.Passed())
	assert.False(t, Summary{Total: 3, Matched: 2, Mismatched: 1}.Passed())
}

// TestJSONMetricsStore ensures that runs are written to a file as JSON.
func TestJSONMetricsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	store := &JSONMetricsStore{FilePath: path}

	run := Run{
		Source:    "mssql:dbo.customers",
		Target:    "snowflake:CUSTOMERS",
		StartTime: time.Now().UTC(),
		Duration:  2 * time.Second,
		Summary:   Summary{Kind: "data", Total: 10, Matched: 9, Mismatched: 1, MatchRate: 0.9},
	}
	require.NoError(t, store.Save(run))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Run
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, run.Summary, got.Summary)
	assert.Equal(t, run.Source, got.Source)
	assert.Equal(t, run.Duration, got.Duration)
}

func TestJSONMetricsStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &JSONMetricsStore{FilePath: filepath.Join(t.TempDir(), "run.json")}
	err := store.SaveWithContext(ctx, Run{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrometheusMetricsCollector(t *testing.T) {
	c := NewPrometheusMetricsCollector()

	c.RecordValidation(Summary{Kind: "mapping", Total: 4, Matched: 2, Mismatched: 2, OutOfRange: 1}, 150*time.Millisecond)
	c.RecordValidation(Summary{Kind: "mapping", Total: 1, Matched: 1}, 10*time.Millisecond)
	c.RecordFailure("data", "fetch")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.validations.WithLabelValues("mapping", "fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.validations.WithLabelValues("mapping", "pass")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.records.WithLabelValues("mapping", "matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.records.WithLabelValues("mapping", "mismatched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.records.WithLabelValues("mapping", "out_of_range")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failures.WithLabelValues("data", "fetch")))

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tablecheck_validation_duration_seconds")
}
