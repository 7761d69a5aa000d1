package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Output formats for the parameters file.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrInvalidConfig is wrapped by every validation failure in Load.
var ErrInvalidConfig = errors.New("invalid configuration")

// BatchConfig controls manifest-driven batch conversion.
type BatchConfig struct {
	Jobs int `mapstructure:"jobs"`
}

// NotebookConfig controls the generated RocketPy notebook.
type NotebookConfig struct {
	RocketPyRequirement string  `mapstructure:"rocketpy_requirement"`
	MaxTime             float64 `mapstructure:"max_time"`
}

// Config holds all runtime configuration for a rocketserializer run.
// Values are populated from .rocketserializer.yaml, ROCKETSERIALIZER_* env
// vars, and CLI flags.
type Config struct {
	OutputDir  string         `mapstructure:"output_dir"`
	Format     string         `mapstructure:"format"`
	Encoding   string         `mapstructure:"encoding"`
	LogFile    string         `mapstructure:"log_file"`
	Verbose    bool           `mapstructure:"verbose"`
	LedgerPath string         `mapstructure:"ledger_path"`
	Batch      BatchConfig    `mapstructure:"batch"`
	Notebook   NotebookConfig `mapstructure:"notebook"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("output_dir", "")
	viper.SetDefault("format", FormatJSON)
	viper.SetDefault("encoding", "utf-8")
	viper.SetDefault("log_file", "serializer.log")
	viper.SetDefault("verbose", false)
	viper.SetDefault("ledger_path", ".rocketserializer/runs.db")
	viper.SetDefault("batch.jobs", runtime.NumCPU())
	viper.SetDefault("notebook.rocketpy_requirement", "rocketpy<=2.0")
	viper.SetDefault("notebook.max_time", 600.0)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be expressed as defaults.
func (c Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("config: format %q must be %q or %q: %w", c.Format, FormatJSON, FormatYAML, ErrInvalidConfig)
	}
	switch strings.ToLower(strings.ReplaceAll(c.Encoding, "_", "-")) {
	case "utf-8", "utf8":
	default:
		return fmt.Errorf("config: encoding %q is not supported, only utf-8: %w", c.Encoding, ErrInvalidConfig)
	}
	if c.Batch.Jobs < 1 {
		return fmt.Errorf("config: batch.jobs must be at least 1, got %d: %w", c.Batch.Jobs, ErrInvalidConfig)
	}
	if c.Notebook.MaxTime <= 0 {
		return fmt.Errorf("config: notebook.max_time must be positive, got %v: %w", c.Notebook.MaxTime, ErrInvalidConfig)
	}
	return nil
}
