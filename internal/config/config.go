// Package config loads configuration for the console and the development
// API server from defaults, an optional YAML file and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. Nested keys use a double
// underscore: INCIDENT_API__BASE_URL sets api.base_url.
const EnvPrefix = "INCIDENT_"

// Config is the full configuration. Each binary reads the sections it needs.
type Config struct {
	API     APIConfig     `koanf:"api"`
	Console ConsoleConfig `koanf:"console"`
	Server  ServerConfig  `koanf:"server"`
	CORS    CORSConfig    `koanf:"cors"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// APIConfig configures the incident API client.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	RateLimit float64       `koanf:"rate_limit" validate:"gte=0"`
}

// ConsoleConfig configures the interactive console.
type ConsoleConfig struct {
	// PageSize stays at its default of 10 in shipped configs; other values
	// are for embedding and tests.
	PageSize       int           `koanf:"page_size" validate:"min=1,max=100"`
	SearchDebounce time.Duration `koanf:"search_debounce" validate:"gte=0"`
	Locale         string        `koanf:"locale"`
	AltScreen      bool          `koanf:"alt_screen"`
}

// ServerConfig configures the development API server.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port" validate:"required"`
	MetricsPort       string        `koanf:"metrics_port" validate:"required"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	Seed              bool          `koanf:"seed"`
}

// CORSConfig lists origins allowed to call the development API server.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// LogConfig configures logging. File is only used by the console, whose
// terminal is owned by the UI; empty discards console logs.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
	File   string `koanf:"file"`
}

// MetricsConfig configures the console's optional metrics listener.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Console: ConsoleConfig{
			PageSize:       10,
			SearchDebounce: 300 * time.Millisecond,
			AltScreen:      true,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			Seed:              true,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. Later sources win: defaults, then the YAML
// file at path (skipped when path is empty), then INCIDENT_* variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Unmarshal over the defaults so that only keys present in a source change.
	out := Defaults()
	if err := k.Unmarshal("", &out); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// envKey maps INCIDENT_API__BASE_URL to api.base_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
