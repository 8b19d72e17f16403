package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Export    ExportConfig    `yaml:"export"`
	Output    OutputConfig    `yaml:"output"`
	Convert   ConvertConfig   `yaml:"convert"`
	Timeline  TimelineConfig  `yaml:"timeline"`
	State     StateConfig     `yaml:"state"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
}

type ExportConfig struct {
	// Dir is the root of an unpacked Samsung Health export.
	Dir string `yaml:"dir" env:"SHEALTH2TCX_EXPORT_DIR"`
}

type OutputConfig struct {
	Dir       string `yaml:"dir" env:"SHEALTH2TCX_OUTPUT_DIR"`
	Overwrite bool   `yaml:"overwrite" env:"SHEALTH2TCX_OUTPUT_OVERWRITE"`
}

type ConvertConfig struct {
	ExerciseTypes []string `yaml:"exercise_types" env:"SHEALTH2TCX_CONVERT_EXERCISE_TYPES" envSeparator:","`
	Workers       int      `yaml:"workers" env:"SHEALTH2TCX_CONVERT_WORKERS"`
}

type TimelineConfig struct {
	// DumpDir receives one parquet file per merged timeline. Empty disables dumps.
	DumpDir string `yaml:"dump_dir" env:"SHEALTH2TCX_TIMELINE_DUMP_DIR"`
}

type StateConfig struct {
	Dir string `yaml:"dir" env:"SHEALTH2TCX_STATE_DIR"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"SHEALTH2TCX_SERVER_HOST"`
	Port int    `yaml:"port" env:"SHEALTH2TCX_SERVER_PORT"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key" env:"SHEALTH2TCX_AUTH_API_KEY"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled" env:"SHEALTH2TCX_TAILSCALE_ENABLED"`
	Hostname string `yaml:"hostname" env:"SHEALTH2TCX_TAILSCALE_HOSTNAME"`
	StateDir string `yaml:"state_dir" env:"SHEALTH2TCX_TAILSCALE_STATE_DIR"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"SHEALTH2TCX_LOG_LEVEL"`
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns a Config with every optional key set to its default.
func Default() *Config {
	stateDir := ".shealth2tcx"
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ".shealth2tcx")
	}
	return &Config{
		Output:    OutputConfig{Dir: "exports"},
		Convert:   ConvertConfig{ExerciseTypes: []string{"1002"}, Workers: 1},
		State:     StateConfig{Dir: stateDir},
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8080},
		Tailscale: TailscaleConfig{Hostname: "shealth2tcx"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load starts from Default, reads the YAML file at path (skipped when path
// is empty), then applies environment variable overrides. Env vars use the
// prefix SHEALTH2TCX_ and underscore-separated paths:
//
//	SHEALTH2TCX_EXPORT_DIR, SHEALTH2TCX_OUTPUT_DIR, SHEALTH2TCX_OUTPUT_OVERWRITE,
//	SHEALTH2TCX_CONVERT_EXERCISE_TYPES (comma-separated), SHEALTH2TCX_CONVERT_WORKERS,
//	SHEALTH2TCX_TIMELINE_DUMP_DIR, SHEALTH2TCX_STATE_DIR,
//	SHEALTH2TCX_SERVER_HOST, SHEALTH2TCX_SERVER_PORT, SHEALTH2TCX_AUTH_API_KEY,
//	SHEALTH2TCX_TAILSCALE_ENABLED, SHEALTH2TCX_TAILSCALE_HOSTNAME,
//	SHEALTH2TCX_TAILSCALE_STATE_DIR, SHEALTH2TCX_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks keys shared by both binaries. export.dir is checked by
// the converter after command-line flags are applied.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if len(c.Convert.ExerciseTypes) == 0 {
		return fmt.Errorf("convert.exercise_types must not be empty")
	}
	if c.Convert.Workers < 1 {
		return fmt.Errorf("convert.workers must be at least 1, got %d", c.Convert.Workers)
	}
	if c.State.Dir == "" {
		return fmt.Errorf("state.dir is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}
