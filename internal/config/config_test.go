package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gate.yaml")

	t.Setenv("GATE_TEST_API", "https://arise.example.com/")

	data := `
api:
  base_url: "${GATE_TEST_API}"
  timeout: 3s
cache:
  fresh_for: 30s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "https://arise.example.com/" {
		t.Fatalf("expected expanded base url, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Cache.FreshFor != 30*time.Second {
		t.Fatalf("expected 30s freshness, got %s", cfg.Cache.FreshFor)
	}
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := Config{Log: LogConfig{Level: "loud"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateRejectsNegativeTimeout(t *testing.T) {
	cfg := Config{API: APIConfig{Timeout: -time.Second}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateAllowsMissingBaseURL(t *testing.T) {
	if err := (Config{}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWithEnvOverridesFile(t *testing.T) {
	env := map[string]string{
		"GATE_API_BASE_URL": "http://localhost:9000",
		"GATE_LOG_LEVEL":    "info",
	}
	cfg := Config{API: APIConfig{BaseURL: "https://file.example.com"}, Session: SessionConfig{Path: "/tmp/s.yaml"}}

	got := cfg.WithEnv(func(k string) string { return env[k] })
	if got.API.BaseURL != "http://localhost:9000" {
		t.Fatalf("env should win, got %q", got.API.BaseURL)
	}
	if got.Session.Path != "/tmp/s.yaml" {
		t.Fatalf("file value should survive, got %q", got.Session.Path)
	}
	if got.Log.Level != "info" {
		t.Fatalf("expected info level, got %q", got.Log.Level)
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := (Config{}).WithDefaults()
	if cfg.API.Timeout != DefaultTimeout {
		t.Fatalf("timeout = %s", cfg.API.Timeout)
	}
	if cfg.Cache.FreshFor != DefaultFreshFor {
		t.Fatalf("fresh_for = %s", cfg.Cache.FreshFor)
	}
	if cfg.Session.Path == "" {
		t.Fatalf("expected a session path")
	}
}

func TestValidateBaseURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		err  error
	}{
		{"https://arise.example.com", "https://arise.example.com", nil},
		{"  http://localhost:8080///  ", "http://localhost:8080", nil},
		{"", "", ErrBaseURLUnset},
		{"   ", "", ErrBaseURLUnset},
		{"///", "", ErrBaseURLUnset},
		{"arise.example.com", "", ErrBaseURLMalformed},
		{"ftp://arise.example.com", "", ErrBaseURLMalformed},
		{"http://", "", ErrBaseURLMalformed},
	}

	for _, tc := range cases {
		got, err := ValidateBaseURL(tc.raw)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("ValidateBaseURL(%q) err = %v, want %v", tc.raw, err, tc.err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ValidateBaseURL(%q) unexpected error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ValidateBaseURL(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
