// Package gateclient talks to the Gate review API.
package gateclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/davidahmann/gate/internal/auth"
	"github.com/davidahmann/gate/internal/config"
	"github.com/davidahmann/gate/internal/normalize"
	"github.com/davidahmann/gate/internal/policy"
	"github.com/davidahmann/gate/pkg/types"
)

const (
	DefaultTimeout = 10 * time.Second
	MetricsTimeout = 5 * time.Second

	maxBodyBytes = 32 << 20
)

type Client struct {
	baseURL    string
	configErr  error
	httpClient *http.Client
	identity   auth.Identity
	timeout    time.Duration
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout overrides the per-call timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a client. An unset or malformed baseURL does not fail here;
// every call returns a *ConfigurationError instead.
func New(baseURL string, identity auth.Identity, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		identity:   identity,
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
	}
	c.baseURL, c.configErr = config.ValidateBaseURL(baseURL)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns nil when the client can issue requests.
func (c *Client) Configured() error {
	if c.configErr != nil {
		return &ConfigurationError{Err: c.configErr}
	}
	return nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) CheckHealth(ctx context.Context) (*types.HealthResponse, error) {
	body, err := c.do(ctx, "health", http.MethodGet, "/api/health", nil, c.timeout)
	if err != nil {
		return nil, err
	}
	return decodeJSON[types.HealthResponse]("health", body)
}

// ListProposals returns the proposals at stage. A response in an unexpected
// shape yields an empty list.
func (c *Client) ListProposals(ctx context.Context, stage policy.Stage) ([]types.ProposalSummary, error) {
	q := url.Values{}
	q.Set("stage", string(stage))
	body, err := c.do(ctx, "list proposals", http.MethodGet, "/api/gate/proposals?"+q.Encode(), nil, c.timeout)
	if err != nil {
		return nil, err
	}
	raw, err := decodeJSON[any]("list proposals", body)
	if err != nil {
		return nil, err
	}
	return normalize.ProposalList(*raw), nil
}

func (c *Client) GetProposal(ctx context.Context, proposalID string) (*types.ProposalDetail, error) {
	if strings.TrimSpace(proposalID) == "" {
		return nil, ErrMissingProposalID
	}
	body, err := c.do(ctx, "get proposal", http.MethodGet, "/api/gate/proposals/"+url.PathEscape(proposalID), nil, c.timeout)
	if err != nil {
		return nil, err
	}
	raw, err := decodeJSON[any]("get proposal", body)
	if err != nil {
		return nil, err
	}
	detail, ok := normalize.ProposalDetail(*raw)
	if !ok {
		return nil, &DecodeError{Op: "get proposal", Err: errors.New("proposal is not an object")}
	}
	if detail.ProposalID == "" {
		detail.ProposalID = proposalID
	}
	return &detail, nil
}

// SubmitDecision posts a decision. A 409 comes back as *StageConflictError.
func (c *Client) SubmitDecision(ctx context.Context, proposalID string, payload types.DecisionPayload) (*types.DecisionResult, error) {
	if strings.TrimSpace(proposalID) == "" {
		return nil, ErrMissingProposalID
	}
	if payload.Reasons == nil {
		payload.Reasons = []string{}
	}
	path := "/api/gate/proposals/" + url.PathEscape(proposalID) + "/decision"
	body, err := c.do(ctx, "submit decision", http.MethodPost, path, payload, c.timeout)
	if err != nil {
		return nil, err
	}
	return decodeJSON[types.DecisionResult]("submit decision", body)
}

// FetchMetrics is best effort: the metrics endpoint may not exist, so any
// failure returns nil without an error.
func (c *Client) FetchMetrics(ctx context.Context, period string) *types.Metrics {
	if c.configErr != nil {
		return nil
	}
	if period == "" {
		period = "month"
	}
	q := url.Values{}
	q.Set("period", period)
	timeout := MetricsTimeout
	if c.timeout < timeout {
		timeout = c.timeout
	}
	body, err := c.do(ctx, "metrics", http.MethodGet, "/api/gate/metrics?"+q.Encode(), nil, timeout)
	if err != nil {
		c.logger.Debug("metrics unavailable", zap.Error(err))
		return nil
	}
	raw, err := decodeJSON[any]("metrics", body)
	if err != nil {
		c.logger.Debug("metrics unavailable", zap.Error(err))
		return nil
	}
	return normalize.ParseMetrics(*raw)
}

func (c *Client) do(ctx context.Context, op, method, path string, in any, timeout time.Duration) ([]byte, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if err := auth.Apply(req, c.identity); err != nil {
		return nil, fmt.Errorf("%s: reviewer identity: %w", op, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, reqCtx, op, method, path, timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.transportError(ctx, reqCtx, op, method, path, timeout, err)
	}

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		c.logger.Warn("gate api stage conflict", fields...)
		return nil, &StageConflictError{Op: op, Body: strings.TrimSpace(string(body))}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Warn("gate api error", fields...)
		return nil, &HTTPError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	c.logger.Debug("gate api call", fields...)
	return body, nil
}

func (c *Client) transportError(parent, reqCtx context.Context, op, method, path string, timeout time.Duration, err error) error {
	fields := []zap.Field{zap.String("method", method), zap.String("path", path), zap.Error(err)}
	switch {
	case parent.Err() != nil && errors.Is(parent.Err(), context.Canceled):
		return fmt.Errorf("%s: %w", op, parent.Err())
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		c.logger.Warn("gate api timeout", fields...)
		return &TimeoutError{Op: op, Timeout: timeout}
	default:
		c.logger.Warn("gate api unreachable", fields...)
		return &NetworkError{Op: op, Err: err}
	}
}

func decodeJSON[T any](op string, body []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return &out, nil
}
