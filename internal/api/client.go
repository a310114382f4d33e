package api

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
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Default client settings, overridable at build time with
// -ldflags "-X github.com/felixgeelhaar/vedic/internal/api.DefaultBaseURL=..."
var (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = "30000"
)

// Config holds the client settings.
type Config struct {
	// BaseURL is the backend root, without a trailing slash.
	BaseURL string

	// Timeout bounds every request. A timed-out call surfaces as ErrNetwork.
	Timeout time.Duration

	// UserAgent is sent on every request when non-empty.
	UserAgent string

	// RateLimit paces outgoing requests (requests per second). Zero disables pacing.
	RateLimit float64

	// Burst is the limiter burst size; defaults to 1 when RateLimit is set.
	Burst int
}

// DefaultConfig returns the client configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: ParseTimeout(DefaultTimeout, 30*time.Second),
	}
}

// ParseTimeout interprets s as milliseconds ("30000") or a Go duration ("30s").
// It returns fallback when s is empty or unparsable.
func ParseTimeout(s string, fallback time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

// TokenSource supplies the bearer token for outgoing requests.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// AuthExpiredFunc is invoked once for every response rejected with 401.
type AuthExpiredFunc func()

// Observer receives one observation per completed request.
type Observer interface {
	ObserveRequest(endpoint, method string, status int, duration time.Duration, err error)
}

// Client is the backend API client
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
	validate   *validator.Validate

	mu            sync.RWMutex
	tokens        TokenSource
	onAuthExpired AuthExpiredFunc
	observer      Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its timeout is left untouched.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithObserver sets the request observer (metrics).
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp.Tracer("github.com/felixgeelhaar/vedic/internal/api")
	}
}

// NewClient creates a new backend API client
func NewClient(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tracer:   otel.Tracer("github.com/felixgeelhaar/vedic/internal/api"),
		validate: newValidator(),
	}

	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenSource sets the token source after construction.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// SetAuthExpiredHandler registers the single listener for authentication rejections.
// A later call replaces the earlier listener.
func (c *Client) SetAuthExpiredHandler(fn AuthExpiredFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAuthExpired = fn
}

// SetObserver sets the request observer after construction.
func (c *Client) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

func (c *Client) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

// Do performs a request and decodes a 2xx JSON body into out (when out is non-nil).
//
// Errors are one of: *ValidationError (nothing was sent), *NetworkError
// (transport failure or timeout, matches ErrNetwork), *APIError (non-2xx;
// a 401 matches ErrAuthExpired and has already been reported to the
// registered listener).
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := routeTemplate(path)
	ctx, span := c.tracer.Start(ctx, "api."+method+" "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", endpoint),
		),
	)
	defer span.End()

	start := time.Now()
	status, err := c.do(ctx, method, path, query, body, out, span)
	c.observe(endpoint, method, status, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, span trace.Span) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, &NetworkError{Op: method + " " + path, Err: err}
		}
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	span.SetAttributes(attribute.String("http.request.id", requestID))

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized {
		apiErr := parseError(resp)
		c.authExpired()
		return resp.StatusCode, apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, parseError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

func (c *Client) authExpired() {
	c.mu.RLock()
	fn := c.onAuthExpired
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) observe(endpoint, method string, status int, d time.Duration, err error) {
	c.mu.RLock()
	o := c.observer
	c.mu.RUnlock()
	if o != nil {
		o.ObserveRequest(endpoint, method, status, d, err)
	}
}

// errorBody is the union of error shapes the backend produces.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// parseError converts a non-2xx response into an *APIError.
func parseError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}

	apiErr.Detail = detailString(eb.Detail)
	apiErr.Message = eb.Message
	if apiErr.Message == "" {
		apiErr.Message = eb.Error
	}
	return apiErr
}

// detailString renders a FastAPI "detail" value for display. A string is
// returned as-is; structured details are serialized as compact JSON.
func detailString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// routeTemplate collapses resource ids so metrics and span names stay low-cardinality.
func routeTemplate(path string) string {
	const prefix = "/api/profiles/"
	if strings.HasPrefix(path, prefix) {
		switch rest := strings.TrimPrefix(path, prefix); rest {
		case "list", "save":
			return path
		default:
			return prefix + "{id}"
		}
	}
	return path
}
