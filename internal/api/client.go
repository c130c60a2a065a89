// Package api is the typed client for the marketplace REST backend. Every
// response uses the {success, data, message, code} envelope; failures come back
// as *apperr.Error.
package api

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

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/logging"
)

const (
	// DefaultTimeout matches the mobile client's request watchdog.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes    = 4 << 20
	requestIDHeader = "X-Request-ID"
)

// TokenSource yields the bearer token for the next call. An empty token means
// the call goes out unauthenticated.
type TokenSource func(ctx context.Context) (string, error)

// UnauthorizedHook runs whenever any call comes back auth-rejected.
type UnauthorizedHook func(ctx context.Context, err error)

type Client struct {
	baseURL        string
	http           *http.Client
	timeout        time.Duration
	tokens         TokenSource
	onUnauthorized UnauthorizedHook
	limiter        *rate.Limiter
	logger         *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithUnauthorizedHook(h UnauthorizedHook) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

// WithRateLimit paces outgoing calls. Waiting counts against the call's
// timeout.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New builds a client for baseURL, e.g. "https://host/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource swaps the token source after construction. The session
// manager and the client reference each other, so one side is wired late.
func (c *Client) SetTokenSource(ts TokenSource) { c.tokens = ts }

// SetUnauthorizedHook swaps the auth-rejected hook after construction.
func (c *Client) SetUnauthorizedHook(h UnauthorizedHook) { c.onUnauthorized = h }

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any

	// bearer overrides the token source for this call.
	bearer string
	// skipAuthHook keeps auth failures of this call from forcing a sign-out.
	skipAuthHook bool
}

// Empty is the data type of endpoints whose payload is ignored.
type Empty struct{}

// do runs one request and decodes the envelope's data into T.
func do[T any](ctx context.Context, c *Client, op string, r request) (T, error) {
	var zero T

	raw, err := c.send(ctx, op, r)
	if err != nil {
		if apperr.IsAuth(err) && !r.skipAuthHook && c.onUnauthorized != nil {
			c.onUnauthorized(ctx, err)
		}
		return zero, err
	}

	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, &apperr.Error{Kind: apperr.KindServer, Code: apperr.CodeServerError,
			Op: op, Message: "malformed response data", Err: err}
	}
	return out, nil
}

func (c *Client) send(parent context.Context, op string, r request) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if parent.Err() != nil {
				return nil, c.transportError(parent, ctx, op, err)
			}
			return nil, &apperr.Error{Kind: apperr.KindTimeout, Code: apperr.CodeTimeout,
				Op: op, Message: "rate limit wait exceeds the request deadline", Err: err}
		}
	}

	req, err := c.newRequest(ctx, op, r)
	if err != nil {
		return nil, err
	}

	requestID := req.Header.Get(requestIDHeader)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(parent, ctx, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.transportError(parent, ctx, op, err)
	}

	// A reply that lands after the watchdog fired, or after the caller gave up,
	// is dropped without being interpreted.
	if ctx.Err() != nil {
		return nil, c.transportError(parent, ctx, op, ctx.Err())
	}

	c.logger.Debug("api call",
		zap.String("op", op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestID))

	var env envelope
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			if resp.StatusCode >= 400 {
				return nil, apperr.FromResponse(op, resp.StatusCode, "", http.StatusText(resp.StatusCode))
			}
			return nil, &apperr.Error{Kind: apperr.KindServer, Code: apperr.CodeServerError,
				Op: op, Message: "malformed response envelope", Err: err}
		}
	} else if resp.StatusCode < 300 {
		env.Success = true
	}

	if resp.StatusCode >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if msg == "" {
			msg = "Request failed"
		}
		e := apperr.FromResponse(op, resp.StatusCode, env.Code, msg)
		if e.Kind == apperr.KindServer {
			c.logger.Warn("api server error",
				zap.String("op", op),
				zap.Int("status", resp.StatusCode),
				zap.String("code", e.Code),
				zap.String("request_id", requestID))
		}
		return nil, e
	}
	return env.Data, nil
}

func (c *Client) newRequest(ctx context.Context, op string, r request) (*http.Request, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeValidationError,
				Op: op, Message: "request body could not be encoded", Err: err}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindNetwork, Code: apperr.CodeNetworkError,
			Op: op, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, uuid.NewString())

	token := r.bearer
	if token == "" && c.tokens != nil {
		t, err := c.tokens(ctx)
		if err != nil {
			return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Code: apperr.CodeAuthRequired,
				Op: op, Message: "could not read auth token", Err: err}
		}
		token = t
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// transportError distinguishes the watchdog firing, the caller abandoning the
// call, and a plain network failure.
func (c *Client) transportError(parent, ctx context.Context, op string, err error) error {
	switch {
	case parent.Err() != nil:
		return &apperr.Error{Kind: apperr.KindTimeout, Code: apperr.CodeCancelled,
			Op: op, Message: "request abandoned", Err: parent.Err()}
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &apperr.Error{Kind: apperr.KindTimeout, Code: apperr.CodeTimeout,
			Op: op, Message: "Request timeout", Err: err}
	}
	return &apperr.Error{Kind: apperr.KindNetwork, Code: apperr.CodeNetworkError,
		Op: op, Message: "Network error", Err: err}
}

func pageQuery(q url.Values, page, limit int) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}
