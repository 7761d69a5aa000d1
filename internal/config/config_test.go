package config

import (
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"OutputDir", cfg.OutputDir, ""},
		{"Format", cfg.Format, "json"},
		{"Encoding", cfg.Encoding, "utf-8"},
		{"LogFile", cfg.LogFile, "serializer.log"},
		{"Verbose", cfg.Verbose, false},
		{"LedgerPath", cfg.LedgerPath, ".rocketserializer/runs.db"},
		{"Batch.Jobs", cfg.Batch.Jobs, runtime.NumCPU()},
		{"Notebook.RocketPyRequirement", cfg.Notebook.RocketPyRequirement, "rocketpy<=2.0"},
		{"Notebook.MaxTime", cfg.Notebook.MaxTime, 600.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "output_dir",
			envKey: "ROCKETSERIALIZER_OUTPUT_DIR",
			envVal: "/tmp/out",
			field:  func(c Config) any { return c.OutputDir },
			want:   "/tmp/out",
		},
		{
			name:   "format",
			envKey: "ROCKETSERIALIZER_FORMAT",
			envVal: "yaml",
			field:  func(c Config) any { return c.Format },
			want:   "yaml",
		},
		{
			name:   "verbose",
			envKey: "ROCKETSERIALIZER_VERBOSE",
			envVal: "true",
			field:  func(c Config) any { return c.Verbose },
			want:   true,
		},
		{
			name:   "batch.jobs",
			envKey: "ROCKETSERIALIZER_BATCH_JOBS",
			envVal: "3",
			field:  func(c Config) any { return c.Batch.Jobs },
			want:   3,
		},
		{
			name:   "notebook.max_time",
			envKey: "ROCKETSERIALIZER_NOTEBOOK_MAX_TIME",
			envVal: "120.5",
			field:  func(c Config) any { return c.Notebook.MaxTime },
			want:   120.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			// Map ROCKETSERIALIZER_* env vars, including nested keys, to config keys.
			viper.SetEnvPrefix("ROCKETSERIALIZER")
			viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
			viper.AutomaticEnv()
			t.Setenv(tt.envKey, tt.envVal)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key string
		val any
	}{
		{"format", "xml"},
		{"encoding", "latin-1"},
		{"batch.jobs", 0},
		{"notebook.max_time", -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			resetViper()
			viper.Set(tt.key, tt.val)

			_, err := Load()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
