// Package config loads process configuration for OCN tooling from an
// optional YAML file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvCommonRoot  = "OCN_COMMON_ROOT"
	EnvLogLevel    = "OCN_LOG_LEVEL"
	EnvLogFormat   = "OCN_LOG_FORMAT"
	EnvServiceName = "OCN_SERVICE_NAME"
)

// Config is the root configuration
type Config struct {
	Service ServiceConfig `yaml:"service" json:"service"`
	Schemas SchemaConfig  `yaml:"schemas" json:"schemas"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ServiceConfig identifies the process in logs and metrics
type ServiceConfig struct {
	Name string `yaml:"name" json:"name"`
}

// SchemaConfig locates the schema tree
type SchemaConfig struct {
	// Root is the directory containing common/. Empty means auto-detect.
	Root string `yaml:"root" json:"root"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug | info | warn | error
	Format string `yaml:"format" json:"format"` // text | json
}

// MetricsConfig toggles Prometheus collection
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Service: ServiceConfig{Name: "ocn-common"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path when non-empty, then applies environment overrides.
// A missing file is an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Schemas.Root = envOrDefault(EnvCommonRoot, c.Schemas.Root)
	c.Log.Level = envOrDefault(EnvLogLevel, c.Log.Level)
	c.Log.Format = envOrDefault(EnvLogFormat, c.Log.Format)
	c.Service.Name = envOrDefault(EnvServiceName, c.Service.Name)
}

// Validate checks enumerated fields
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog.Level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
	}
}

// NewLogger builds the process logger described by c, writing to w
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(c.Log.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", c.Service.Name)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
