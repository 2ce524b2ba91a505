// Package config loads the service configuration from YAML and the environment.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvAddr         = "COLLAGE_ADDR"
	EnvOutputFolder = "OUTPUT_FOLDER"
	EnvLogLevel     = "COLLAGE_LOG_LEVEL"
	EnvWorkers      = "COLLAGE_WORKERS"
)

// Config is the service configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// OutputFolder receives a copy of every collage. Empty disables
	// persistence.
	OutputFolder string `yaml:"output_folder"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Workers bounds segment tasks per image. 0 means one per logical CPU.
	Workers int `yaml:"workers"`

	// MaxUploadBytes limits the size of a whole /process request body.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// AccentColor is the hex colour of segment frames, e.g. "#FF0000".
	AccentColor string `yaml:"accent_color"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		OutputFolder:    "results",
		LogLevel:        "info",
		Workers:         0,
		MaxUploadBytes:  32 << 20,
		AccentColor:     "#FF0000",
		ShutdownTimeout: 15 * time.Second,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and then environment overrides, and validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Addr = v
	}
	// OUTPUT_FOLDER may be set to an empty string to disable persistence.
	if v, ok := lookup(EnvOutputFolder); ok {
		c.OutputFolder = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if _, err := c.Accent(); err != nil {
		return err
	}
	return nil
}

// Accent parses AccentColor into an opaque colour.
func (c *Config) Accent() (color.NRGBA, error) {
	parsed, err := colorful.Hex(c.AccentColor)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid accent_color %q: %w", c.AccentColor, err)
	}
	r, g, b := parsed.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}
