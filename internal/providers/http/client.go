package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent is sent when the config does not name one
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

// Client wraps resty.Client with retry logic and timeout handling.
// It keeps a second resty client that never follows redirects so callers
// can read Location headers.
type Client struct {
	resty      *resty.Client
	noRedirect *resty.Client
	maxRetries int
	timeout    time.Duration
	userAgent  string
	debug      bool
	logger     *slog.Logger
}

// ClientConfig holds configuration for the HTTP client
type ClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
	Debug      bool
	Logger     *slog.Logger

	// Transport replaces the default round tripper (tests route through it)
	Transport http.RoundTripper
}

// DefaultClientConfig returns sensible defaults for HTTP client
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		UserAgent:  DefaultUserAgent,
	}
}

// NewClient creates a new HTTP client with the given configuration
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	client := &Client{
		maxRetries: config.MaxRetries,
		timeout:    config.Timeout,
		userAgent:  config.UserAgent,
		debug:      config.Debug,
		logger:     config.Logger,
	}

	client.resty = client.newResty(config)
	client.noRedirect = client.newResty(config).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))

	return client
}

func (c *Client) newResty(config ClientConfig) *resty.Client {
	restyClient := resty.New().
		SetTimeout(config.Timeout).
		SetRetryCount(config.MaxRetries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", config.UserAgent).
		SetHeader("Accept", "application/json, text/html, */*").
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	if config.Transport != nil {
		restyClient.SetTransport(config.Transport)
	}

	// Add retry conditions
	restyClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		// Retry on network errors
		if err != nil {
			return true
		}
		// Retry on 5xx server errors and 429 rate limiting
		return r.StatusCode() >= 500 || r.StatusCode() == 429
	})

	// Enable debug logging if requested
	if config.Debug && config.Logger != nil {
		restyClient.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			c.logRequest(r)
			return nil
		})
		restyClient.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
			c.logResponse(r)
			return nil
		})
	}

	return restyClient
}

// Get performs a GET request with context support, following redirects
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.get(ctx, c.resty, url, headers)
}

// GetNoRedirect performs a GET request but returns 3xx responses as-is so
// the caller can inspect the Location header
func (c *Client) GetNoRedirect(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.get(ctx, c.noRedirect, url, headers)
}

// GetJSON performs a GET request and decodes the body into out
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	resp, err := c.Get(ctx, url, headers)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", url, err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, rc *resty.Client, url string, headers map[string]string) (*resty.Response, error) {
	req := rc.R().SetContext(ctx)

	// Set custom headers
	for key, value := range headers {
		req.SetHeader(key, value)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET request failed for %s: %w", url, err)
	}

	// Check for HTTP errors
	if resp.StatusCode() >= 400 {
		return resp, fmt.Errorf("HTTP error %d for %s: %s", resp.StatusCode(), url, truncate(resp.String(), 200))
	}

	return resp, nil
}

// GetTimeout returns the configured timeout
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// GetMaxRetries returns the configured max retries
func (c *Client) GetMaxRetries() int {
	return c.maxRetries
}

// UserAgent returns the User-Agent sent with every request
func (c *Client) UserAgent() string {
	return c.userAgent
}

// logRequest logs HTTP request details
func (c *Client) logRequest(r *resty.Request) {
	if c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Request",
		"method", r.Method,
		"url", r.URL,
		"headers", r.Header,
	)
}

// logResponse logs HTTP response details
func (c *Client) logResponse(r *resty.Response) {
	if c.logger == nil {
		return
	}

	c.logger.Debug("HTTP Response",
		"status", r.StatusCode(),
		"status_text", r.Status(),
		"url", r.Request.URL,
		"headers", r.Header(),
		"time", r.Time(),
	)

	c.logger.Debug("Response Body",
		"body", truncate(r.String(), 1000),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}
