// Package apiclient is the REST binding to the MediBook booking API.
//
// Every call is a single request/response: nothing is retried and no timeout
// is applied beyond the one configured on the underlying *http.Client.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "http://localhost:5020/api"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// TokenSource supplies the bearer token for authenticated requests. An empty
// token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// Observer is notified of every completed call. It may be nil.
type Observer interface {
	ObserveAPICall(op string, status int)
}

// Client talks to the booking API.
type Client struct {
	base     string
	http     *http.Client
	tokens   TokenSource
	observer Observer
	logger   *slog.Logger
}

// Config is the *Client configuration.
type Config struct {
	// HTTP is the transport. http.DefaultClient is used when nil.
	HTTP *http.Client

	// Tokens supplies the bearer token. It may be nil.
	Tokens TokenSource

	// Observer receives call outcomes. It may be nil.
	Observer Observer

	// Logger is used for debug logging. slog.Default is used when nil.
	Logger *slog.Logger

	// BaseURL is the API root, e.g. "http://localhost:5020/api".
	BaseURL string
}

// New returns a new properly initialized *Client.
func New(conf Config) *Client {
	c := &Client{
		base:     strings.TrimRight(conf.BaseURL, "/"),
		http:     conf.HTTP,
		tokens:   conf.Tokens,
		observer: conf.Observer,
		logger:   conf.Logger,
	}
	if c.base == "" {
		c.base = DefaultBaseURL
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base
}

// call describes one request.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	in     any
	out    any

	// token overrides the TokenSource when non-empty.
	token string
}

func (c *Client) do(ctx context.Context, cl call) error {
	u := c.base + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(cl.in); err != nil {
			return fmt.Errorf("%s: encode request: %w", cl.op, err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())

	token := cl.token
	if token == "" && c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(cl.op, 0)
		return fmt.Errorf("%s: %w", cl.op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.observe(cl.op, resp.StatusCode)
	c.logger.DebugContext(ctx, "API call",
		"op", cl.op,
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(RequestIDHeader),
	)

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(cl.op, resp.StatusCode, b)
	}

	if cl.out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty body: %w", cl.op, ErrMalformedResponse)
		}
		return fmt.Errorf("%s: decode response: %w: %w", cl.op, ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) observe(op string, status int) {
	if c.observer != nil {
		c.observer.ObserveAPICall(op, status)
	}
}
