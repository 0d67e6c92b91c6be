// Package config provides configuration structures and loading logic for the
// replay facade and its command-line host.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/polisai/polis-replay/pkg/domain"
)

// Config holds the global configuration for the replay facade.
type Config struct {
	Replay    ReplayConfig    `yaml:"replay"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ReplayConfig identifies the application to the replay SDK.
type ReplayConfig struct {
	AppID   string `yaml:"app_id" env:"REPLAY_APP_ID"`
	Release string `yaml:"release" env:"REPLAY_RELEASE"`
	Dist    string `yaml:"dist" env:"REPLAY_DIST"`
	// SDK selects the adapter: "otel" or "log".
	SDK string `yaml:"sdk" env:"REPLAY_SDK"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"REPLAY_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"REPLAY_LOG_PRETTY"`
}

// TelemetryConfig holds configuration for OpenTelemetry export.
type TelemetryConfig struct {
	ServiceName  string            `yaml:"service_name" env:"REPLAY_SERVICE_NAME"`
	OTLPEndpoint string            `yaml:"otlp_endpoint" env:"REPLAY_OTLP_ENDPOINT"`
	Insecure     bool              `yaml:"insecure" env:"REPLAY_OTLP_INSECURE"`
	Environment  string            `yaml:"environment" env:"REPLAY_ENVIRONMENT"`
	Headers      map[string]string `yaml:"headers" env:"REPLAY_OTLP_HEADERS"`
	// RedactUserFields lists user data keys (e.g. userEmail) to mask before
	// they are attached to spans.
	RedactUserFields []string `yaml:"redact_user_fields" env:"REPLAY_REDACT_USER_FIELDS"`
}

// MetricsConfig controls the Prometheus endpoint served by long-running hosts.
type MetricsConfig struct {
	Address string `yaml:"address" env:"REPLAY_METRICS_ADDR"`
}

// Supported SDK adapters.
const (
	SDKOTel = "otel"
	SDKLog  = "log"
)

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Replay: ReplayConfig{
			AppID: domain.PlaceholderAppID,
			SDK:   SDKOTel,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName:      "polis-replay",
			RedactUserFields: []string{"userEmail"},
		},
		Metrics: MetricsConfig{
			Address: ":9464",
		},
	}
}

// Load reads configuration from a file and applies environment variable overrides.
// An empty path yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // Config file path is controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse expands ${VAR} references in data and decodes the YAML into cfg.
func Parse(data []byte, cfg *Config) error {
	expanded := []byte(os.ExpandEnv(string(data)))
	return yaml.Unmarshal(expanded, cfg)
}

// Validate checks the configuration for invalid values. A missing or
// placeholder app id is not an error: the facade stays inert instead.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	switch c.Replay.SDK {
	case "", SDKOTel, SDKLog:
	default:
		errs = append(errs, fmt.Errorf("replay.sdk %q is not one of %s, %s", c.Replay.SDK, SDKOTel, SDKLog))
	}

	if c.Metrics.Address != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			errs = append(errs, fmt.Errorf("metrics.address %q: %w", c.Metrics.Address, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfigInvalid, errors.Join(errs...))
	}
	return nil
}

// AppIDConfigured reports whether the app id is set to a real value.
func (c *Config) AppIDConfigured() bool {
	return domain.CheckAppID(c.Replay.AppID) == nil
}

// InitOptions returns the SDK init options derived from the replay section.
func (c *Config) InitOptions() domain.InitOptions {
	return domain.InitOptions{
		Release: c.Replay.Release,
		Dist:    c.Replay.Dist,
	}
}
