package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/balancecheck/pkg/retrier"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 5
	defaultRetryDelay = 1 * time.Second
	maxErrorBody      = 512
)

// Signer authenticates a prepared request. body is the exact payload that will be sent.
type Signer interface {
	Sign(req *http.Request, body []byte) error
}

// StatusError non-2xx response.
type StatusError struct {
	Code int
	Body string
	// Wait requested through Retry-After, zero when absent.
	Wait time.Duration
}

// RetryAfter lets the retrier honor rate limit hints.
func (e *StatusError) RetryAfter() time.Duration {
	return e.Wait
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status is worth retrying (rate limit or server side).
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// IsRetryable classifies errors returned by RESTClient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var decodeErr *decodeError
	return !errors.As(err, &decodeErr)
}

// IsRateLimited only 429 responses. Requests that must not be repeated once the
// server may have acted on them retry on this alone.
func IsRateLimited(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// Request a single call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	Header http.Header
}

// RESTClient small JSON-over-HTTP client with optional request signing and
// exponential backoff on rate limits and transient failures.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
	signer     Signer
	retrier    *retrier.Retrier
	retryIf    func(error) bool
	logger     *zap.Logger
}

// RESTOption configures a RESTClient.
type RESTOption func(*RESTClient)

// WithSigner signs every request.
func WithSigner(s Signer) RESTOption {
	return func(c *RESTClient) { c.signer = s }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) RESTOption {
	return func(c *RESTClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) RESTOption {
	return func(c *RESTClient) { c.httpClient = h }
}

// WithRetrier replaces the retry policy.
func WithRetrier(r *retrier.Retrier) RESTOption {
	return func(c *RESTClient) { c.retrier = r }
}

// WithRetryIf replaces IsRetryable in the default retrier.
func WithRetryIf(fn func(error) bool) RESTOption {
	return func(c *RESTClient) { c.retryIf = fn }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *zap.Logger) RESTOption {
	return func(c *RESTClient) { c.logger = l }
}

// NewRESTClient creates a client for baseURL.
func NewRESTClient(baseURL string, opts ...RESTOption) *RESTClient {
	c := &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retryIf == nil {
		c.retryIf = IsRetryable
	}
	if c.retrier == nil {
		c.retrier = retrier.New(
			retrier.WithMaxRetries(defaultMaxRetries),
			retrier.WithInitialInterval(defaultRetryDelay),
			retrier.WithRetryIf(c.retryIf),
			retrier.WithOnRetry(func(attempt int, wait time.Duration, err error) {
				c.logger.Debug("retrying request",
					zap.String("base_url", c.baseURL), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
			}),
		)
	}
	return c
}

// Get issues a GET and decodes the JSON response into out.
func (c *RESTClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// PostJSON marshals payload and POSTs it; the response is decoded into out when out is not nil.
func (c *RESTClient) PostJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Header: header}, out)
}

// Do sends the request with retries and decodes the JSON response into out when out is not nil.
func (c *RESTClient) Do(ctx context.Context, r Request, out any) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.send(ctx, r, out)
	})
}

func (c *RESTClient) send(ctx context.Context, r Request, out any) error {
	target := c.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var reader io.Reader
	if len(r.Body) > 0 {
		reader = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	if c.signer != nil {
		if err := c.signer.Sign(req, r.Body); err != nil {
			return errors.Wrap(err, "failed to sign request")
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &StatusError{Code: resp.StatusCode, Body: string(body), Wait: retryAfter(resp.Header.Get("Retry-After"))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

// retryAfter parses the delay-seconds form of Retry-After. HTTP dates are
// not used by the exchanges and are ignored.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
