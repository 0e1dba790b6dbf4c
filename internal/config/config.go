// ABOUTME: Configuration loading and parsing for the chat portal client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete chat-portal client configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	QueryLog QueryLogConfig `yaml:"querylog"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the backend API location and request timing
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`

	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`
}

// SessionConfig holds session behavior tunables
type SessionConfig struct {
	// MaxMessageLength caps user message size before any network call
	MaxMessageLength int `yaml:"max_message_length"`

	// TitleWindowMin/Max are the inclusive message-count bounds that arm
	// the deferred auto-title refresh after a successful send
	TitleWindowMin int `yaml:"title_window_min"`
	TitleWindowMax int `yaml:"title_window_max"`

	TitleRefreshDelayRaw string        `yaml:"title_refresh_delay"`
	TitleRefreshDelay    time.Duration `yaml:"-"`
}

// QueryLogConfig holds the local query history database configuration
type QueryLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration that works with zero setup against a
// local backend.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8000/api",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			MaxMessageLength:  4000,
			TitleWindowMin:    4,
			TitleWindowMax:    6,
			TitleRefreshDelay: 2 * time.Second,
		},
		QueryLog: QueryLogConfig{
			Enabled: true,
			Path:    defaultQueryLogPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config merged over the defaults. Environment variables in the format
// ${VAR_NAME} are expanded. Duration strings are parsed into time.Duration
// values. A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseDurations converts the raw duration strings into time.Duration
// values, leaving the defaults in place when a field is absent.
func parseDurations(cfg *Config) error {
	var err error
	if cfg.Server.TimeoutRaw != "" {
		cfg.Server.Timeout, err = time.ParseDuration(cfg.Server.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("server.timeout: %w", err)
		}
	}
	if cfg.Session.TitleRefreshDelayRaw != "" {
		cfg.Session.TitleRefreshDelay, err = time.ParseDuration(cfg.Session.TitleRefreshDelayRaw)
		if err != nil {
			return fmt.Errorf("session.title_refresh_delay: %w", err)
		}
	}
	return nil
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Session.MaxMessageLength <= 0 {
		return fmt.Errorf("session.max_message_length must be positive")
	}
	if c.Session.TitleWindowMin <= 0 || c.Session.TitleWindowMax < c.Session.TitleWindowMin {
		return fmt.Errorf("session title window bounds are invalid")
	}
	if c.QueryLog.Enabled && c.QueryLog.Path == "" {
		return fmt.Errorf("querylog.path is required when querylog is enabled")
	}
	return nil
}

// defaultQueryLogPath places the local query history under the user's
// config directory, falling back to the working directory.
func defaultQueryLogPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "portal-queries.db"
	}
	return filepath.Join(dir, "chat-portal", "queries.db")
}
