// ABOUTME: Configuration loading and parsing for fold-login
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/2389/fold-login/internal/backend"
)

// Config represents the complete fold-login configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Backends BackendsConfig `yaml:"backends"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// RequestTokenSecret signs the anti-forgery request tokens appended to
	// the default logout URL.
	RequestTokenSecret string `yaml:"request_token_secret"`

	// RemoteUserHeader names the header a trusted reverse proxy uses to
	// assert the authenticated user. Empty disables header trust.
	RemoteUserHeader string `yaml:"remote_user_header"`
	// RemoteSecretHeader optionally forwards the user's credential.
	RemoteSecretHeader string `yaml:"remote_secret_header"`

	// PublicPrefixes lists URL path prefixes served anonymously
	// (public links). Requests under them run incognito.
	PublicPrefixes []string `yaml:"public_prefixes"`

	RequestTokenTTL time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	RequestTokenTTLRaw string `yaml:"request_token_ttl"`
}

// BackendsConfig declares the authentication backends to activate.
type BackendsConfig struct {
	// UseDefault controls whether the built-in database backend is
	// registered. Explicitly setting it to false clears the defaults.
	UseDefault *bool `yaml:"use_default"`

	// Extra maps declared keys to backend driver specs. Setup is
	// idempotent per key.
	Extra map[string]backend.Spec `yaml:"extra"`
}

// DefaultEnabled reports whether the default backend set applies.
func (b *BackendsConfig) DefaultEnabled() bool {
	return b.UseDefault == nil || *b.UseDefault
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.RequestTokenSecret == "" {
		return fmt.Errorf("auth.request_token_secret is required")
	}

	for key, spec := range c.Backends.Extra {
		if spec.Driver == "" {
			return fmt.Errorf("backends.extra.%s.driver is required", key)
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.RequestTokenTTLRaw != "" {
		cfg.Auth.RequestTokenTTL, err = time.ParseDuration(cfg.Auth.RequestTokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing request_token_ttl %q: %w", cfg.Auth.RequestTokenTTLRaw, err)
		}
	}
	if cfg.Auth.RequestTokenTTL == 0 {
		cfg.Auth.RequestTokenTTL = time.Hour
	}

	return nil
}
