// Package confluence is a stateless client for the Confluence REST API.
// Every call takes a context, retries transient failures with exponential
// backoff and reports failures as *APIError values classified by Kind.
package confluence

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

	"github.com/charmbracelet/x/ansi"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/version"
)

const (
	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 15 * time.Second
	// DefaultRetries is the number of extra attempts for transient failures.
	DefaultRetries = 3
	// DefaultBackoff is the delay before the first retry; it doubles each time.
	DefaultBackoff = 500 * time.Millisecond
	// maxRetryAfter caps a server supplied Retry-After.
	maxRetryAfter = 30 * time.Second
	// MaxPageSize is the largest limit the API accepts.
	MaxPageSize = 100
	// DefaultPageSize is used when no page_size is configured.
	DefaultPageSize = 25
)

// Client is the gateway the rest of the application depends on.
type Client interface {
	SpaceHomepage(ctx context.Context, spaceKey string) (Page, error)
	GetPage(ctx context.Context, id string) (Page, error)
	// RenderedBody returns HTML for display. export selects the export view,
	// which resolves macros more completely than the plain view.
	RenderedBody(ctx context.Context, id string, export bool) (string, error)
	ListChildren(ctx context.Context, id string, limit, start int) (PageList, error)
	ListAllChildren(ctx context.Context, id string) ([]PageSummary, error)
	ListSpace(ctx context.Context, spaceKey string, opts ListOptions) (PageList, error)
	Search(ctx context.Context, cql string, limit, start int) (PageList, error)
	FindPageByTitle(ctx context.Context, spaceKey, title, parentID string) (Page, error)
	CreatePage(ctx context.Context, req CreateRequest) (Page, error)
	UpdatePage(ctx context.Context, req UpdateRequest) (Page, error)
	AddLabels(ctx context.Context, id string, labels []string) error
	BaseURL() string
}

// DefaultClient implements Client over net/http.
type DefaultClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	backoff    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

var _ Client = (*DefaultClient)(nil)

// ClientOption configures a DefaultClient.
type ClientOption func(*DefaultClient)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *DefaultClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRetries sets how many times a transient failure is retried.
func WithRetries(retries int) ClientOption {
	return func(c *DefaultClient) {
		if retries >= 0 {
			c.retries = retries
		}
	}
}

// WithBackoff sets the initial retry delay.
func WithBackoff(backoff time.Duration) ClientOption {
	return func(c *DefaultClient) {
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *DefaultClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// withSleep replaces the backoff sleeper in tests.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *DefaultClient) {
		c.sleep = sleep
	}
}

// NewDefaultClient creates a client for baseURL authenticated with a personal
// access token.
func NewDefaultClient(baseURL, token string, opts ...ClientOption) (*DefaultClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must be an absolute http(s) URL", baseURL)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("personal access token is empty")
	}
	c := &DefaultClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		retries:    DefaultRetries,
		backoff:    DefaultBackoff,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *DefaultClient) BaseURL() string {
	return c.baseURL
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffFor returns the delay before retry number attempt (1-based).
func (c *DefaultClient) backoffFor(attempt int) time.Duration {
	return c.backoff * time.Duration(1<<(attempt-1))
}

// do sends a request and decodes a JSON response into out (if non-nil).
// Transient failures are retried; the last failure is returned as *APIError.
func (c *DefaultClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = data
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr *APIError
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.backoffFor(attempt)
			if lastErr != nil && lastErr.RetryAfter > delay {
				delay = lastErr.RetryAfter
			}
			if err := c.sleep(ctx, delay); err != nil {
				return &APIError{Kind: KindTransient, Method: method, Path: path, Err: err}
			}
		}
		start := time.Now()
		colors.StructuredDebug("confluence", "request", "started", nil, "", colors.Fields("method", method, "path", path, "attempt", attempt+1))

		apiErr := c.attempt(ctx, method, path, endpoint, payload, out)
		fields := colors.Fields("method", method, "path", path, "attempt", attempt+1, "duration_seconds", time.Since(start).Seconds())
		if apiErr == nil {
			colors.StructuredDebug("confluence", "request", "completed", nil, "", fields)
			return nil
		}
		lastErr = apiErr
		if ctx.Err() != nil || !apiErr.retryable() {
			colors.StructuredWarn("confluence", "request", "failed", apiErr, "", fields)
			return apiErr
		}
		colors.StructuredDebug("confluence", "request", "retrying", apiErr, "", fields)
	}
	colors.StructuredWarn("confluence", "request", "exhausted", lastErr, "", colors.Fields("method", method, "path", path))
	return lastErr
}

func (e *APIError) retryable() bool {
	if e.StatusCode != 0 {
		return retryableStatus(e.StatusCode)
	}
	return e.Kind == KindTransient
}

func (c *DefaultClient) attempt(ctx context.Context, method, path, endpoint string, payload []byte, out any) *APIError {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, reader)
	if err != nil {
		return &APIError{Kind: KindValidation, Method: method, Path: path, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := KindTransient
		if ctx.Err() != nil && !isNetworkError(ctx.Err()) {
			kind = KindUnknown
		}
		return &APIError{Kind: kind, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return &APIError{Kind: KindTransient, Method: method, Path: path, Err: err}
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			Kind:       kindForStatus(resp.StatusCode),
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Kind: KindUnknown, Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// maxErrorWidth bounds a raw error body quoted in an APIError, in cells.
const maxErrorWidth = 200

func errorMessage(data []byte) string {
	var body errorBodyJSON
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Reason != "" {
			return body.Reason
		}
	}
	msg := strings.TrimSpace(string(data))
	if ansi.StringWidth(msg) > maxErrorWidth {
		msg = ansi.Truncate(msg, maxErrorWidth, "...")
	}
	return msg
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		d = time.Until(at)
	}
	if d < 0 {
		return 0
	}
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

// clampLimit keeps a page size within what the API accepts.
func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func clampStart(start int) int {
	if start < 0 {
		return 0
	}
	return start
}
