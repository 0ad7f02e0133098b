package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/davidahmann/gate/internal/config"
	"github.com/davidahmann/gate/internal/gateclient"
	"github.com/davidahmann/gate/internal/logging"
	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/internal/querycache"
	"github.com/davidahmann/gate/internal/session"
)

type globalFlags struct {
	configPath  string
	apiBaseURL  string
	sessionPath string
	logLevel    string
}

// app is the state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	getenv func(string) string

	flags globalFlags

	cfg       config.Config
	logger    *zap.Logger
	session   *session.Session
	client    *gateclient.Client
	proposals *querycache.Proposals
	reasons   policy.ReasonCatalog
}

func (a *app) setup(_ context.Context) error {
	cfg := config.Config{}
	path := firstNonEmpty(a.flags.configPath, a.getenv("GATE_CONFIG"))
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg = cfg.WithEnv(a.getenv)
	cfg.API.BaseURL = firstNonEmpty(a.flags.apiBaseURL, cfg.API.BaseURL)
	cfg.Session.Path = firstNonEmpty(a.flags.sessionPath, cfg.Session.Path)
	cfg.Log.Level = firstNonEmpty(a.flags.logLevel, cfg.Log.Level)
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return usagef("config: %v", err)
	}
	a.cfg = cfg

	logger, err := a.newLogger(cfg.Log.Level)
	if err != nil {
		return usagef("log level: %v", err)
	}
	a.logger = logger

	a.reasons = policy.DefaultReasons()
	if cfg.ReasonsPath != "" {
		catalog, err := policy.LoadReasons(cfg.ReasonsPath)
		if err != nil {
			return fmt.Errorf("load reasons: %w", err)
		}
		a.reasons = catalog
	}

	a.session = session.New(session.NewFileStorage(cfg.Session.Path), session.WithLogger(logger.Named("session")))
	a.client = gateclient.New(cfg.API.BaseURL, a.session,
		gateclient.WithTimeout(cfg.API.Timeout),
		gateclient.WithLogger(logger.Named("gateclient")),
	)
	a.proposals = querycache.NewProposals(a.client, querycache.New(cfg.Cache.FreshFor))
	return nil
}

// newLogger logs to the process stderr through the zap production config and
// falls back to a plain writer when stderr is redirected, as in tests.
func (a *app) newLogger(level string) (*zap.Logger, error) {
	if f, ok := a.stderr.(*os.File); ok && f == os.Stderr {
		return logging.New(level)
	}
	return logging.NewWriter(a.stderr, level)
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// requireAPI prints the not-configured banner and fails when there is no
// usable base URL.
func (a *app) requireAPI() error {
	if err := a.client.Configured(); err != nil {
		fmt.Fprintln(a.stderr, "Gate API is not configured.")
		fmt.Fprintln(a.stderr, "Set GATE_API_BASE_URL, pass --api, or set api.base_url in gate.yaml.")
		fmt.Fprintf(a.stderr, "detail: %v\n", err)
		return &exitError{code: 1}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
