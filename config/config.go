// Package config loads tablecheck settings from a YAML file and TABLECHECK_*
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/TFMV/tablecheck/pkg/core"
	"github.com/TFMV/tablecheck/pkg/normalize"
)

// EnvPrefix prefixes environment overrides, e.g. TABLECHECK_SOURCE_HOST.
const EnvPrefix = "TABLECHECK"

// --- Configuration Structs ---

type ValidationConfig struct {
	// RowLimit caps data fetches; 0 means uncapped.
	RowLimit int `mapstructure:"row_limit"`
	// Fallthrough is the normalizer policy for unmatched strings: null or string.
	Fallthrough string `mapstructure:"fallthrough"`
}

type ServerConfig struct {
	Port    int  `mapstructure:"port"`
	Prefork bool `mapstructure:"prefork"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Config struct {
	Source     core.SourceConfig `mapstructure:"source"`
	Target     core.SourceConfig `mapstructure:"target"`
	Validation ValidationConfig  `mapstructure:"validation"`
	Server     ServerConfig      `mapstructure:"server"`
	Log        LogConfig         `mapstructure:"log"`
}

// sourceKeys are the SourceConfig fields settable from the environment.
var sourceKeys = []string{
	"type", "path", "dsn", "host", "port", "user", "password", "database",
	"schema", "account", "warehouse", "role", "driver", "driver_path", "batch_size",
}

// --- Load Configuration ---

// LoadConfig reads configPath (skipped when empty) and applies environment
// overrides on top of the defaults.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Unmarshal only sees environment variables for keys viper knows about.
	for _, side := range []string{"source", "target"} {
		for _, k := range sourceKeys {
			v.SetDefault(side+"."+k, nil)
		}
	}
	v.SetDefault("validation.row_limit", core.DefaultRowLimit)
	v.SetDefault("validation.fallthrough", string(normalize.FallthroughNull))
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.prefork", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "tablecheck.log")
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

// Validate checks every section. Sources are checked only when a type is
// set; commands that need them call RequireSources.
func (c *Config) Validate() error {
	if c.Source.Type != "" {
		if err := ValidateSource(c.Source); err != nil {
			return fmt.Errorf("source validation failed: %w", err)
		}
	}
	if c.Target.Type != "" {
		if err := ValidateSource(c.Target); err != nil {
			return fmt.Errorf("target validation failed: %w", err)
		}
	}
	if err := c.Validation.Validate(); err != nil {
		return fmt.Errorf("validation section: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server section: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log section: %w", err)
	}
	return nil
}

// RequireSources fails unless both source and target are configured.
func (c *Config) RequireSources() error {
	if err := validate(c.Source.Type != "", "source type is required"); err != nil {
		return err
	}
	return validate(c.Target.Type != "", "target type is required")
}

// ValidateSource checks the fields each source type needs.
func ValidateSource(sc core.SourceConfig) error {
	switch sc.Type {
	case "csv", "parquet", "arrow":
		return validate(sc.Path != "", "path is required for %s sources", sc.Type)
	case "mssql", "postgres":
		return validate(sc.DSN != "" || sc.Host != "", "host or dsn is required for %s sources", sc.Type)
	case "snowflake":
		return validate(sc.DSN != "" || sc.Account != "", "account or dsn is required for snowflake sources")
	case "adbc":
		return validate(sc.Driver != "", "driver is required for adbc sources")
	default:
		return fmt.Errorf("unknown source type %q", sc.Type)
	}
}

func (vc *ValidationConfig) Validate() error {
	if err := validate(vc.RowLimit >= 0, "row_limit must not be negative"); err != nil {
		return err
	}
	_, err := vc.Policy()
	return err
}

// Policy returns the configured fallthrough policy.
func (vc *ValidationConfig) Policy() (normalize.FallthroughPolicy, error) {
	return normalize.ParsePolicy(vc.Fallthrough)
}

func (sc *ServerConfig) Validate() error {
	return validate(sc.Port > 0 && sc.Port < 65536, "port %d out of range", sc.Port)
}

func (lc *LogConfig) Validate() error {
	_, err := zapcore.ParseLevel(lc.Level)
	return err
}
