// Package adapters holds protocol plumbing shared by HTTP-backed connectors.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"databreaker/internal/broker/connectors"
)

// DefaultTimeout bounds a single connector HTTP call.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent when a connector does not pick its own.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

const maxBodyBytes = 10 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClientConfig configures an HTTPClient.
type HTTPClientConfig struct {
	ConnectorID string
	Timeout     time.Duration
	UserAgent   string
	// RequestsPerMinute throttles outgoing calls. Zero disables throttling.
	RequestsPerMinute int
	HTTPClient        HTTPDoer
}

// HTTPClient issues requests on behalf of one connector and classifies
// failures into the connector error taxonomy.
type HTTPClient struct {
	id        string
	client    HTTPDoer
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
}

// Response is a successful (2xx) HTTP exchange.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// NewHTTPClient creates a client with defaults applied.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	c := &HTTPClient{
		id:        cfg.ConnectorID,
		client:    cfg.HTTPClient,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return c
}

// Get performs a GET request against rawURL with the given query parameters.
// Non-2xx answers are returned as connector errors.
func (c *HTTPClient) Get(ctx context.Context, rawURL string, params url.Values, accept string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, connectors.NewError(connectors.ErrorRateLimited, c.id, "local rate limit wait aborted", err)
		}
	}

	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, connectors.NewError(connectors.ErrorInternal, c.id, "failed to create request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return nil, connectors.NewError(connectors.ErrorTimeout, c.id, "request timeout", err)
		}
		return nil, connectors.NewError(connectors.ErrorTransport, c.id, "failed to execute request", err)
	}
	defer resp.Body.Close() //nolint:errcheck // body fully read below

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, connectors.NewError(connectors.ErrorTransport, c.id, "failed to read response", err)
	}

	if err := classifyStatus(c.id, resp.StatusCode); err != nil {
		return nil, err
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func classifyStatus(id string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return connectors.NewError(connectors.ErrorRateLimited, id, "rate limit exceeded", nil)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return connectors.NewError(connectors.ErrorTransport, id, fmt.Sprintf("access denied: %d", status), nil)
	case status == http.StatusGatewayTimeout:
		return connectors.NewError(connectors.ErrorTimeout, id, "upstream timeout", nil)
	default:
		return connectors.NewError(connectors.ErrorTransport, id, fmt.Sprintf("unexpected status: %d", status), nil)
	}
}
