// Package api is the storefront's REST client. Every call goes through one
// round-trip function that attaches auth, decodes the {code,msg,data}
// envelope and turns every failure into an *Error.
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
)

// DefaultTimeout applies when no *http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// TokenSource returns the current bearer token, or "" when signed out.
type TokenSource func() string

// Client talks to one storefront backend.
type Client struct {
	base      *url.URL
	http      *http.Client
	token     TokenSource
	log       *zap.Logger
	limiter   *rate.Limiter
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRateLimit caps outgoing requests per second. A non-positive rps
// disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New builds a client for baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", baseURL)
	}

	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: DefaultTimeout},
		token:     func() string { return "" },
		log:       zap.NewNop(),
		userAgent: "shop-cli",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.token == nil {
		c.token = func() string { return "" }
	}
	return c, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.base.String() }

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = u.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs one JSON round trip. out may be nil, *json.RawMessage or any
// value encoding/json can decode into.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindDecode, Message: "could not encode request", cause: err}
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, query, reader, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &Error{Kind: KindTransport, Message: "request cancelled", cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return &Error{Kind: KindTransport, Message: "could not build request", cause: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return &Error{Kind: KindTransport, Message: "network error, please check your connection", cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", reqID),
		zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Message: "network error while reading response", cause: err}
	}

	var env envelope
	envErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{Kind: KindBackend, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if envErr == nil && env.Msg != "" {
			e.Code = env.Code
			e.Message = env.Msg
		}
		if e.Message == "" {
			e.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return e
	}

	if envErr != nil {
		return &Error{Kind: KindDecode, Status: resp.StatusCode, Message: "malformed response from server", cause: envErr}
	}
	if env.Code != 0 {
		msg := env.Msg
		if msg == "" {
			msg = fmt.Sprintf("request rejected (code %d)", env.Code)
		}
		return &Error{Kind: KindBackend, Status: resp.StatusCode, Code: env.Code, Message: msg}
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *json.RawMessage:
		*dst = env.Data
		return nil
	default:
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return nil
		}
		if err := json.Unmarshal(env.Data, dst); err != nil {
			return &Error{Kind: KindDecode, Status: resp.StatusCode, Message: "malformed response from server", cause: err}
		}
		return nil
	}
}

// Kind classifies an *Error.
type Kind int

const (
	// KindTransport is a network-level failure: no response was received.
	KindTransport Kind = iota + 1
	// KindBackend is a non-2xx status or a non-zero envelope code.
	KindBackend
	// KindDecode is a response that could not be decoded.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBackend:
		return "backend"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// Error is the only error type returned by Client calls.
type Error struct {
	Kind    Kind
	Status  int
	Code    int
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// IsTransport reports a network-level failure.
func IsTransport(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindTransport
}

// IsBackend reports a failure signalled by the backend.
func IsBackend(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindBackend
}

// IsUnauthorized reports a 401 from the backend.
func IsUnauthorized(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindBackend && e.Status == http.StatusUnauthorized
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindBackend && e.Status == http.StatusNotFound
}
