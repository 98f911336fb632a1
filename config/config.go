// Package config loads perfio settings from a YAML file overlaid by
// PERFIO_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/neehar-mavuduru/perfio/archive"
	"github.com/neehar-mavuduru/perfio/logging"
	"github.com/neehar-mavuduru/perfio/logio"
)

// EnvPrefix prefixes every environment override, e.g. PERFIO_SINK_PATH.
const EnvPrefix = "PERFIO"

// Config is the full perfio configuration.
type Config struct {
	Sink    SinkConfig     `yaml:"sink"`
	Archive archive.Config `yaml:"archive"`
	Logging logging.Config `yaml:"logging"`

	// MetricsAddr serves prometheus metrics when set, e.g. ":9102".
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
}

// SinkConfig configures the FileWritable a measurement process logs to.
type SinkConfig struct {
	Path           string        `yaml:"path" envconfig:"SINK_PATH"` // "-" for stdout
	Compress       bool          `yaml:"compress" envconfig:"SINK_COMPRESS"`
	Truncate       bool          `yaml:"truncate" envconfig:"SINK_TRUNCATE"`
	CompressorPath string        `yaml:"compressor_path" envconfig:"SINK_COMPRESSOR"` // explicit xz binary
	WriterPath     string        `yaml:"writer_path" envconfig:"SINK_WRITER"`         // explicit dd binary
	RotateInterval time.Duration `yaml:"rotate_interval" envconfig:"SINK_ROTATE_INTERVAL"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Sink: SinkConfig{
			Path:           logio.StdioPath,
			RotateInterval: 24 * time.Hour,
		},
		Archive: archive.DefaultConfig("", ""),
		Logging: logging.DefaultConfig(),
	}
}

// Load reads path (optional), applies environment overrides and validates
// the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply further
// overrides such as command-line flags.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadYAML loads configuration from a YAML file into target.
func LoadYAML(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return nil
}

// SaveYAML writes cfg to path. Credentials may be included, so the file is
// created 0600.
func SaveYAML(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with PERFIO_* variables. Unset variables leave
// the current values alone.
func ApplyEnv(cfg *Config) error {
	top := struct {
		MetricsAddr string `envconfig:"METRICS_ADDR"`
	}{MetricsAddr: cfg.MetricsAddr}

	for _, target := range []any{&cfg.Sink, &cfg.Archive, &cfg.Logging, &top} {
		if err := envconfig.Process(EnvPrefix, target); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
	}
	cfg.MetricsAddr = top.MetricsAddr
	return nil
}

// Validate checks the configuration and applies defaults where needed.
func (c *Config) Validate() error {
	if c.Sink.Path == "" {
		c.Sink.Path = logio.StdioPath
	}
	if c.Sink.RotateInterval < 0 {
		return fmt.Errorf("rotate interval must not be negative")
	}
	if c.Sink.Path == logio.StdioPath && c.Archive.Enabled() {
		return fmt.Errorf("archive upload requires a file sink")
	}
	if err := c.Archive.Validate(); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if len(c.Logging.OutputPaths) == 0 {
		c.Logging.OutputPaths = []string{"stderr"}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return nil
}

// FileOptions converts the sink settings to logio options.
func (s SinkConfig) FileOptions() logio.FileOptions {
	opts := logio.FileOptions{
		Compress:     s.Compress,
		Truncate:     s.Truncate,
		WriterBinary: s.WriterPath,
	}
	if s.CompressorPath != "" {
		codec := logio.XZ
		codec.Binary = s.CompressorPath
		opts.Codec = &codec
	}
	return opts
}
