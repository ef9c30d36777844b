// Package config provides YAML configuration parsing for the release dashboard.
//
// This package enables running the dashboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Thunderbird Release Dashboard
//	port: 8080
//	refresh_interval: 60s
//
//	service:
//	  name: pollbot
//	  url: ${POLLBOT_URL:-https://pollbot.services.mozilla.com/v1}
//	  timeout: 10s
//
//	start: "#pollbot/thunderbird/60.0"
//
//	log:
//	  level: info
//	  format: json
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/releaseboard/internal/logging"
	"github.com/jpalmerr/releaseboard/internal/ratelimit"
	"github.com/jpalmerr/releaseboard/internal/router"
	"github.com/jpalmerr/releaseboard/internal/state"
)

const (
	// minRefreshInterval is the minimum allowed auto refresh interval.
	// This prevents accidental hammering of the status service.
	minRefreshInterval = 1 * time.Second

	defaultPort            = 8080
	defaultRefreshInterval = 60 * time.Second
	defaultServiceName     = "pollbot"
	defaultServiceURL      = "https://pollbot.services.mozilla.com/v1"
	defaultServiceTimeout  = 10 * time.Second
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultRateRPS         = 20
	defaultRateBurst       = 40

	// dotEnvFile is loaded before the configuration is parsed.
	dotEnvFile = ".env"
)

// Config is the root configuration structure for the release dashboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "Release Dashboard" at render time.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Service describes the status service.
	Service ServiceConfig `yaml:"service"`

	// RefreshInterval is the time between automatic re-probes of incomplete
	// releases. Accepts duration strings like "30s", "1m". Defaults to 60s.
	RefreshInterval Duration `yaml:"refresh_interval"`

	// Products limits channel version lookups. Defaults to every supported product.
	Products []string `yaml:"products"`

	// Start is an optional deep link opened on startup, e.g. "#pollbot/thunderbird/60.0".
	Start string `yaml:"start"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`

	// RateLimit throttles the dashboard API.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// AllowedOrigins are the CORS and WebSocket origins. Defaults to any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ServiceConfig defines the status service endpoint.
type ServiceConfig struct {
	// Name is the service segment of deep links. Defaults to "pollbot".
	Name string `yaml:"name"`

	// URL is the versioned API root.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`
}

// LogConfig configures logging. When File is set, logs are written there
// and rotated.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// RateLimitConfig configures the API token bucket. A zero RPS uses the
// default; a negative RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`

	// TrustedProxies are the reverse proxies, as CIDR ranges or addresses,
	// allowed to name the client in X-Forwarded-For.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// serviceNamePattern keeps service names usable in deep links.
var serviceNamePattern = regexp.MustCompile(`^\w+$`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// LoadDotEnv loads ".env" from the directory of configPath and from the
// working directory, in that order. Variables already present in the
// environment are never overridden. Missing files are skipped. It returns
// the files that were loaded.
func LoadDotEnv(configPath string) ([]string, error) {
	candidates := []string{filepath.Join(filepath.Dir(configPath), dotEnvFile), dotEnvFile}

	var loaded []string
	seen := make(map[string]bool, len(candidates))
	for _, path := range candidates {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true

		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("failed to load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// Load reads and parses a YAML configuration file.
//
// A ".env" file next to the configuration or in the working directory is
// loaded first (see [LoadDotEnv]). Environment variables in the file are
// expanded before validation. Returns an error if the file cannot be read
// or parsed.
func Load(path string) (*Config, error) {
	if _, err := LoadDotEnv(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the service URL, header values,
// the start fragment and the log file path. Defaults are applied before
// validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = Duration(defaultRefreshInterval)
	}
	if c.Service.Name == "" {
		c.Service.Name = defaultServiceName
	}
	if c.Service.URL == "" {
		c.Service.URL = defaultServiceURL
	}
	if c.Service.Timeout == 0 {
		c.Service.Timeout = Duration(defaultServiceTimeout)
	}
	if len(c.Products) == 0 {
		c.Products = append([]string(nil), state.Products...)
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = defaultRateRPS
		if c.RateLimit.Burst == 0 {
			c.RateLimit.Burst = defaultRateBurst
		}
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = max(1, int(2*c.RateLimit.RPS))
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.RefreshInterval.Duration() < minRefreshInterval {
		return fmt.Errorf("refresh_interval must be at least %s, got %s", minRefreshInterval, c.RefreshInterval.Duration())
	}

	if err := c.Service.expandAndValidate(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Products))
	for i, p := range c.Products {
		if !state.IsProduct(p) {
			return fmt.Errorf("products[%d]: unsupported product %q (supported: %v)", i, p, state.Products)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("products[%d]: duplicate product %q", i, p)
		}
		seen[p] = struct{}{}
	}

	if c.Start != "" {
		expanded, err := expandEnvVars(c.Start)
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		c.Start = expanded
		if _, ok := router.Parse(c.Start); !ok {
			return fmt.Errorf("start: %q must have the form #<service>/<product>/<version> with a supported product", c.Start)
		}
	}

	if err := c.Log.expandAndValidate(); err != nil {
		return err
	}

	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1, got %d", c.RateLimit.Burst)
	}
	if _, err := ratelimit.ParsePrefixes(c.RateLimit.TrustedProxies...); err != nil {
		return fmt.Errorf("rate_limit.trusted_proxies: %w", err)
	}

	return nil
}

func (s *ServiceConfig) expandAndValidate() error {
	if !serviceNamePattern.MatchString(s.Name) {
		return fmt.Errorf("service.name: %q may only contain letters, digits and underscores", s.Name)
	}

	expanded, err := expandEnvVars(s.URL)
	if err != nil {
		return fmt.Errorf("service.url: %w", err)
	}
	s.URL = expanded

	parsedURL, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("service.url: invalid url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return errors.New("service.url: url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("service.url: url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("service.url: url must have a host")
	}

	if s.Timeout.Duration() < 0 {
		return fmt.Errorf("service.timeout: cannot be negative, got %s", s.Timeout.Duration())
	}
	if s.Timeout.Duration() < time.Second {
		return fmt.Errorf("service.timeout: must be at least 1s, got %s", s.Timeout.Duration())
	}

	for k, v := range s.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("service.headers[%s]: %w", k, err)
		}
		s.Headers[k] = expanded
	}
	return nil
}

func (l *LogConfig) expandAndValidate() error {
	if _, err := logging.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log.format: must be json or text, got %q", l.Format)
	}
	if l.File != "" {
		expanded, err := expandEnvVars(l.File)
		if err != nil {
			return fmt.Errorf("log.file: %w", err)
		}
		l.File = expanded
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return errors.New("log: max_size_mb, max_backups and max_age_days cannot be negative")
	}
	return nil
}
