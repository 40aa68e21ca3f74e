package integrations

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/marketlink/pkg/buildinfo"
	"github.com/matzehuels/marketlink/pkg/errors"
	"github.com/matzehuels/marketlink/pkg/httputil"
	"github.com/matzehuels/marketlink/pkg/observability"
	"github.com/matzehuels/marketlink/pkg/ratelimit"
)

// Client provides shared HTTP functionality for all upstream data sources.
// It handles rate limiting, retries, status mapping and common headers.
//
// Every outbound request consumes one token from the source's bucket in
// the shared limiter first. An empty bucket fails with RATE_LIMITED and
// performs no I/O.
type Client struct {
	http    *http.Client
	source  string
	limiter *ratelimit.Limiter
	limit   ratelimit.Config
	headers map[string]string
	retry   httputil.Policy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests use the one
// from httptest.Server).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http = NewHTTPClient(d)
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(p httputil.Policy) ClientOption {
	return func(c *Client) { c.retry = p }
}

// NewClient creates a Client for source. Tokens are drawn from limiter
// under the source name using limit. Headers are applied to all requests.
// A nil limiter disables local rate limiting.
func NewClient(source string, limiter *ratelimit.Limiter, limit ratelimit.Config, headers map[string]string, opts ...ClientOption) *Client {
	c := &Client{
		http:    NewHTTPClient(DefaultTimeout),
		source:  source,
		limiter: limiter,
		limit:   limit,
		headers: headers,
		retry:   httputil.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the name the client draws tokens under.
func (c *Client) Source() string { return c.source }

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers and handles retries automatically.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	return c.GetWithHeaders(ctx, rawURL, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	return c.retry.Do(ctx, func(int) error {
		body, err := c.doRequest(ctx, rawURL, headers)
		if err != nil {
			return err
		}
		defer body.Close()
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return errors.Wrap(errors.ErrCodeNetwork, err, "%s: decode response", c.source)
		}
		return nil
	})
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	if c.limiter != nil && !c.limiter.Consume(c.source, c.limit) {
		return nil, errors.New(errors.ErrCodeRateLimited, "%s: local rate limit reached", c.source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s: build request", c.source)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		err = redactURL(err, req.Method, host, path)
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "%s: request cancelled", c.source)
		}
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "%s: request failed", c.source)}
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := c.checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// checkStatus maps an upstream HTTP status to a failure code.
// Only 5xx responses are retried; 429 is reported so the router can fall
// back instead of waiting.
func (c *Client) checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s: resource not found", c.source)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "%s: access denied (status %d)", c.source, code)
	case code == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeRateLimited, "%s: upstream rate limit reached", c.source)
	case code >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "%s: status %d", c.source, code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "%s: unexpected status %d", c.source, code)
	}
}

// hostPath splits u for observability hooks and error messages. The
// query is dropped so API keys never leave the client.
func hostPath(u *url.URL) (string, string) {
	return u.Host, u.Path
}

// redactURL replaces the full request URL that net/http puts into
// transport errors with the method, host and path.
func redactURL(err error, method, host, path string) error {
	var ue *url.Error
	if !stderrors.As(err, &ue) {
		return err
	}
	return &redactedError{desc: method + " " + host + path, err: ue.Err}
}

type redactedError struct {
	desc string
	err  error
}

func (e *redactedError) Error() string { return e.desc + ": " + e.err.Error() }
func (e *redactedError) Unwrap() error { return e.err }
