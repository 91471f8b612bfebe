// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/huythanhnguyen/phongthuyso-cli/internal/config"
)

// DefaultBaseURL is used until a base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// Call is what the client reports to a Recorder after every request.
// It never carries bodies, query strings or credentials.
type Call struct {
	Time     time.Time
	Method   string
	Path     string
	Status   int // 0 when no reply was received
	Duration time.Duration
	Err      string
}

// Recorder receives one Call per request attempt.
type Recorder interface {
	RecordCall(ctx context.Context, call Call) error
}

// Client is the API facade. It is safe for concurrent use.
type Client struct {
	store        config.Store
	baseOverride string
	endpoints    Endpoints
	httpClient   *http.Client
	streamClient *http.Client
	timeout      time.Duration
	userAgent    string
	limiter      *rate.Limiter
	recorder     Recorder
	log          *zap.Logger

	streamMu sync.Mutex
	stream   *StreamSession
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for regular and streaming calls.
// A nil client keeps the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
			c.streamClient = hc
		}
	}
}

// WithTimeout bounds non-streaming calls. Streams are bounded only by
// their context. The order relative to WithHTTPClient does not matter.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRecorder reports every call to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithRateLimit throttles outgoing calls to rps requests per second.
// Calls wait for a slot; nothing is dropped or retried. rps <= 0 disables.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithEndpoints selects the endpoint map.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) { c.endpoints = e }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithBaseURL overrides the stored base URL for this client only; the
// store is not modified. The URL must pass the same checks as Configure.
func WithBaseURL(raw string) Option {
	return func(c *Client) { c.baseOverride = raw }
}

// New creates a Client backed by store. An invalid WithBaseURL override is
// reported by NewChecked; New ignores it.
func New(store config.Store, opts ...Option) *Client {
	c, err := NewChecked(store, opts...)
	if err != nil {
		c.baseOverride = ""
	}
	return c
}

// NewChecked is New but fails with ErrInvalidConfig on a bad base URL override.
func NewChecked(store config.Store, opts ...Option) (*Client, error) {
	c := &Client{
		store:        store,
		endpoints:    DefaultEndpoints(),
		httpClient:   &http.Client{},
		streamClient: &http.Client{},
		userAgent:    "ptso/" + config.Version,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		// Streams share the caller's client; bound a copy.
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	if c.baseOverride != "" {
		normalized, err := validateBaseURL(c.baseOverride)
		if err != nil {
			return c, err
		}
		c.baseOverride = normalized
	}
	return c, nil
}

// Endpoints returns the endpoint map in use.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Configure validates and persists a new base URL. On failure the stored
// URL is left untouched and no request is made.
func (c *Client) Configure(raw string) error {
	normalized, err := validateBaseURL(raw)
	if err != nil {
		return err
	}
	if err := c.store.Set(config.KeyAPIURL, normalized); err != nil {
		return fmt.Errorf("failed to save API URL: %w", err)
	}
	c.log.Info("API URL updated", zap.String("url", normalized))
	return nil
}

// BaseURL returns the base URL in effect.
func (c *Client) BaseURL() string {
	if c.baseOverride != "" {
		return c.baseOverride
	}
	if u, ok := c.store.Get(config.KeyAPIURL); ok && u != "" {
		return u
	}
	return DefaultBaseURL
}

// token returns the stored bearer token, or "".
func (c *Client) token() string {
	t, _ := c.store.Get(config.KeyAccessToken)
	return t
}

// IsAuthenticated reports whether a token is stored.
func (c *Client) IsAuthenticated() bool {
	return c.token() != ""
}

func validateBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a URL: %v", ErrInvalidConfig, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q must use http or https", ErrInvalidConfig, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidConfig, raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("%w: %q must not contain a query or fragment", ErrInvalidConfig, raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// =============================================================================
// REQUEST EXECUTION
// =============================================================================

// Do performs one API call. See the package documentation for the error
// taxonomy. There are no retries.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	token := c.token()
	if r.Auth == AuthRequired && token == "" {
		return nil, fmt.Errorf("%w: %s %s requires authentication", ErrUnauthenticated, r.Method, r.Endpoint)
	}

	req, err := c.newRequest(ctx, r, token)
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	start := time.Now()
	c.logRequest(req)
	resp, err := c.httpClient.Do(req)

	// SECURITY: drop the credential before anything else can observe req.
	req.Header.Del("Authorization")

	if err != nil {
		// url.Error embeds the full URL, query included; record the kind only.
		c.record(ctx, req, 0, start, ErrNetwork)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, r.Method, r.Endpoint, err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		c.record(ctx, req, resp.StatusCode, start, ErrNetwork)
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	c.logResponse(req, resp, time.Since(start))

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := apiError(resp.StatusCode, contentType, body)
		c.record(ctx, req, resp.StatusCode, start, apiErr)
		return nil, apiErr
	}

	out, err := newResponse(resp.StatusCode, contentType, body)
	c.record(ctx, req, resp.StatusCode, start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, r Request, token string) (*http.Request, error) {
	target := c.BaseURL() + r.Endpoint
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var (
		body        io.Reader
		contentType = "application/json"
	)
	if r.Body != nil {
		reader, ct, err := r.Body.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = reader, ct
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidConfig, err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" && (r.Auth == AuthRequired || r.Auth == AuthOptional) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// =============================================================================
// LOGGING AND RECORDING
// =============================================================================

// logRequest logs method and path only. Headers carry the token and
// query strings carry phone numbers.
func (c *Client) logRequest(req *http.Request) {
	c.log.Debug("api request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path))
}

func (c *Client) logResponse(req *http.Request, resp *http.Response, d time.Duration) {
	c.log.Debug("api response",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", d))
}

func (c *Client) record(ctx context.Context, req *http.Request, status int, start time.Time, callErr error) {
	if c.recorder == nil {
		return
	}
	call := Call{
		Time:     start,
		Method:   req.Method,
		Path:     req.URL.Path,
		Status:   status,
		Duration: time.Since(start),
	}
	if callErr != nil {
		call.Err = callErr.Error()
	}
	// A failing journal must never fail the call itself.
	if err := c.recorder.RecordCall(context.WithoutCancel(ctx), call); err != nil {
		c.log.Warn("failed to record call", zap.String("path", call.Path), zap.Error(err))
	}
}
