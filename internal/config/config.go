package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultFreshFor = 60 * time.Second
)

var (
	ErrBaseURLUnset     = errors.New("api base url is not configured")
	ErrBaseURLMalformed = errors.New("api base url must start with http:// or https://")
)

type Config struct {
	API         APIConfig     `yaml:"api"`
	Session     SessionConfig `yaml:"session"`
	Cache       CacheConfig   `yaml:"cache"`
	Log         LogConfig     `yaml:"log"`
	ReasonsPath string        `yaml:"reasons_path"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Path string `yaml:"path"`
}

type CacheConfig struct {
	FreshFor time.Duration `yaml:"fresh_for"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the file-level settings. A missing base URL is not an error
// here; the client reports it on first use.
func (c Config) Validate() error {
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.Cache.FreshFor < 0 {
		return fmt.Errorf("cache.fresh_for must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// WithEnv overlays GATE_* environment values on top of the file settings.
func (c Config) WithEnv(getenv func(string) string) Config {
	c.API.BaseURL = firstNonEmpty(getenv("GATE_API_BASE_URL"), c.API.BaseURL)
	c.Session.Path = firstNonEmpty(getenv("GATE_SESSION_PATH"), c.Session.Path)
	c.Log.Level = firstNonEmpty(getenv("GATE_LOG_LEVEL"), c.Log.Level)
	c.ReasonsPath = firstNonEmpty(getenv("GATE_REASONS_PATH"), c.ReasonsPath)
	return c
}

// WithDefaults fills unset values.
func (c Config) WithDefaults() Config {
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultTimeout
	}
	if c.Cache.FreshFor == 0 {
		c.Cache.FreshFor = DefaultFreshFor
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Session.Path == "" {
		c.Session.Path = DefaultSessionPath()
	}
	return c
}

// DefaultSessionPath is the per-user session file location.
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".gate", "session.yaml")
	}
	return filepath.Join(dir, "gate", "session.yaml")
}

// ValidateBaseURL normalizes raw by trimming whitespace and trailing slashes.
// It distinguishes an unset value from a malformed one.
func ValidateBaseURL(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", ErrBaseURLUnset
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "", fmt.Errorf("%w: %q", ErrBaseURLMalformed, raw)
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrBaseURLMalformed, raw)
	}
	return trimmed, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
