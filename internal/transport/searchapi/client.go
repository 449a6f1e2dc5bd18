// Package searchapi is a client for the paginated multi-table record search API.
package searchapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/investigo/internal/domain"
	"github.com/kailas-cloud/investigo/internal/domain/page"
	"github.com/kailas-cloud/investigo/internal/metrics"
)

const maxBodyBytes = 32 << 20

// Config holds the search API client settings.
type Config struct {
	BaseURL string
	Token   string
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// RateLimit is requests per second; zero disables throttling.
	RateLimit      float64
	Burst          int
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// StatusError is a non-200 response from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("searchapi: unexpected status %d: %s", e.Code, e.Body)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client implements fetch.Searcher over HTTP.
type Client struct {
	base           *url.URL
	token          string
	http           *http.Client
	limiter        *rate.Limiter
	maxRetries     uint64
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *zap.Logger
}

// New creates a search API client.
func New(cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, eris.New("searchapi: base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "searchapi: parse base url")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 250 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		base:  base,
		token: cfg.Token,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.Burst, 1))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search fetches one page for req. Transport errors, 429 and 5xx are retried
// with exponential backoff; other failures return immediately.
// Every error wraps domain.ErrBackendUnavailable.
func (c *Client) Search(ctx context.Context, req page.Request) (page.Page, error) {
	u := c.searchURL(req)

	var body []byte
	op := func() error {
		if err := c.wait(ctx); err != nil {
			return backoff.Permanent(eris.Wrap(err, "searchapi: rate limit"))
		}
		b, err := c.get(ctx, u)
		if err != nil {
			return err
		}
		body = b
		return nil
	}
	notify := func(err error, d time.Duration) {
		c.logger.Debug("Retrying search request",
			zap.String("term", req.Term),
			zap.Duration("backoff", d),
			zap.Error(err))
	}
	if err := backoff.RetryNotify(op, c.newBackOff(ctx), notify); err != nil {
		return page.Page{}, unavailable(err)
	}

	p, err := parsePage(body)
	if err != nil {
		return page.Page{}, unavailable(err)
	}
	return p, nil
}

// Ping checks that the API answers and accepts the token.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "searchapi: rate limit")
	}
	_, err := c.get(ctx, c.base.JoinPath("health").String())
	var se *StatusError
	if errors.As(err, &se) && se.Code < 500 && se.Code != http.StatusUnauthorized && se.Code != http.StatusForbidden {
		// reachable, the API just has no health route
		return nil
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (c *Client) searchURL(req page.Request) string {
	u := c.base.JoinPath("search")
	q := url.Values{}
	q.Set("q", req.Term)
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// wait blocks until the rate limiter allows one request, or ctx is cancelled.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.maxBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
}

// get performs one attempt. Errors that must not be retried are marked permanent.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(eris.Wrap(err, "searchapi: create request"))
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.BackendRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("transport_error").Inc()
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, eris.Wrap(err, "searchapi: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.BackendRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "searchapi: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		serr := &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 256)}
		if retryableStatus(resp.StatusCode) {
			return nil, serr
		}
		return nil, backoff.Permanent(serr)
	}
	return body, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
