package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/normalize"
)

const sampleYAML = `
source:
  type: csv
  path: mapping.csv
target:
  type: snowflake
  account: acme-xy
  user: loader
  database: SALES
  warehouse: WH
validation:
  row_limit: 250
  fallthrough: string
server:
  port: 9090
log:
  level: debug
  file: ""
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tablecheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "csv", cfg.Source.Type)
	assert.Equal(t, "mapping.csv", cfg.Source.Path)
	assert.Equal(t, "snowflake", cfg.Target.Type)
	assert.Equal(t, "WH", cfg.Target.Warehouse)
	assert.Equal(t, 250, cfg.Validation.RowLimit)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.Log.File)

	p, err := cfg.Validation.Policy()
	require.NoError(t, err)
	assert.Equal(t, normalize.FallthroughString, p)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.RequireSources())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, core.DefaultRowLimit, cfg.Validation.RowLimit)
	assert.Equal(t, "null", cfg.Validation.Fallthrough)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
	assert.Error(t, cfg.RequireSources())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TABLECHECK_TARGET_PASSWORD", "s3cret")
	t.Setenv("TABLECHECK_VALIDATION_ROW_LIMIT", "0")
	t.Setenv("TABLECHECK_SOURCE_PORT", "1433")

	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Target.Password)
	assert.Equal(t, 0, cfg.Validation.RowLimit)
	assert.Equal(t, 1433, cfg.Source.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := &Config{
		Source:     core.SourceConfig{Type: "mssql", Host: "db"},
		Target:     core.SourceConfig{Type: "adbc", Driver: "duckdb"},
		Validation: ValidationConfig{RowLimit: 10},
		Server:     ServerConfig{Port: 8080},
		Log:        LogConfig{Level: "info"},
	}
	assert.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"unknown source type": func(c *Config) { c.Source.Type = "oracle" },
		"mssql without host":  func(c *Config) { c.Source.Host = "" },
		"adbc without driver": func(c *Config) { c.Target.Driver = "" },
		"negative row limit":  func(c *Config) { c.Validation.RowLimit = -1 },
		"bad fallthrough":     func(c *Config) { c.Validation.Fallthrough = "empty" },
		"bad port":            func(c *Config) { c.Server.Port = 70000 },
		"bad log level":       func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := *valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateSource(t *testing.T) {
	assert.NoError(t, ValidateSource(core.SourceConfig{Type: "parquet", Path: "x.parquet"}))
	assert.Error(t, ValidateSource(core.SourceConfig{Type: "arrow"}))
	assert.NoError(t, ValidateSource(core.SourceConfig{Type: "postgres", DSN: "postgres://x"}))
	assert.NoError(t, ValidateSource(core.SourceConfig{Type: "snowflake", Account: "a"}))
	assert.Error(t, ValidateSource(core.SourceConfig{Type: "snowflake"}))
}
