package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// ============================================================================
// CONFIGURATION — YAML file overlaid by EDUSCOPE_* environment variables
// ============================================================================
// Precedence, lowest to highest: built-in defaults, YAML file, environment.
// ============================================================================

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Dataset DatasetConfig `yaml:"dataset"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"EDUSCOPE_SERVER_HOST"`
	Port            int           `yaml:"port" envconfig:"EDUSCOPE_SERVER_PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"EDUSCOPE_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"EDUSCOPE_SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"EDUSCOPE_SERVER_SHUTDOWN_TIMEOUT"`
}

// DatasetConfig locates the survey table.
type DatasetConfig struct {
	Path string `yaml:"path" envconfig:"EDUSCOPE_DATASET_PATH" validate:"required"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"EDUSCOPE_LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"EDUSCOPE_LOG_FORMAT" validate:"oneof=json text"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Dataset: DatasetConfig{
			Path: "data/ai_education_survey.csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables apply; a named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// Environment wins over the file.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
