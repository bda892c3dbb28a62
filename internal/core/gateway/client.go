// Package gateway is the single chokepoint for calls to the CRM backend.
// It injects the session's bearer token on every send and forces a logout
// when the backend rejects that token.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "leadrider"
	maxErrorBody     = 64 << 10

	// RequestIDHeader carries a per-request id that the backend can log.
	RequestIDHeader = "X-Request-ID"
)

// Credentials is the narrow view of the session the gateway needs.
type Credentials interface {
	// Token returns the current bearer token, or "" when logged out.
	Token() string
	// Revoke drops the session if token is still the current one. Called when
	// the backend rejects a request that carried token.
	Revoke(token string) error
}

// Request is one logical call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded unless Form is set.
	Body any
	Form url.Values
	// Anonymous requests (login, register) carry no bearer token and never force a logout.
	Anonymous bool
}

// Response carries what callers may need beyond the decoded body.
type Response struct {
	StatusCode int
	Header     http.Header
}

// Client sends requests to the CRM backend.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	log       logrus.FieldLogger

	mu    sync.RWMutex
	creds Credentials
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger. Requests are logged at debug.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: defaultUserAgent,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetCredentials binds the session whose token is attached to requests.
func (c *Client) SetCredentials(creds Credentials) {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
}

func (c *Client) credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// Get decodes the response of GET path into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.Send(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
	return err
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	_, err := c.Send(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
	return err
}

// PostForm sends form URL-encoded.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	_, err := c.Send(ctx, Request{Method: http.MethodPost, Path: path, Form: form}, out)
	return err
}

// Put sends body as JSON.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	_, err := c.Send(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
	return err
}

// Delete issues DELETE path. out may be nil.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	_, err := c.Send(ctx, Request{Method: http.MethodDelete, Path: path}, out)
	return err
}

// Send performs req and decodes a 2xx JSON body into out (when out is non-nil).
// Any other outcome is returned as *Error.
func (c *Client) Send(ctx context.Context, req Request, out any) (*Response, error) {
	start := time.Now()
	httpReq, carried, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, &Error{Method: req.Method, Path: req.Path, Err: err}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"method":     req.Method,
			"path":       req.Path,
			"request_id": httpReq.Header.Get(RequestIDHeader),
		}).WithError(err).Debug("request failed")
		return nil, &Error{Method: req.Method, Path: req.Path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.WithFields(logrus.Fields{
		"method":     req.Method,
		"path":       req.Path,
		"status":     resp.StatusCode,
		"duration":   time.Since(start).Round(time.Millisecond),
		"request_id": httpReq.Header.Get(RequestIDHeader),
	}).Debug("request")

	result := &Response{StatusCode: resp.StatusCode, Header: resp.Header}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		gwErr := &Error{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(body),
		}
		if gwErr.Unauthorized() && carried != "" {
			c.forceLogout(gwErr, carried)
		}
		return result, gwErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return result, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return result, &Error{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return result, nil
}

// newHTTPRequest builds the outgoing request. The token is read here, at send time,
// and returned so a rejection can be matched to it.
func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, string, error) {
	u := c.resolve(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, "", err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	httpReq.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	token := ""
	if !req.Anonymous {
		if creds := c.credentials(); creds != nil {
			token = creds.Token()
		}
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, token, nil
}

func (c *Client) resolve(path string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return &u
}

func (c *Client) forceLogout(cause *Error, token string) {
	creds := c.credentials()
	if creds == nil {
		return
	}
	c.log.WithFields(logrus.Fields{
		"method": cause.Method,
		"path":   cause.Path,
		"status": cause.StatusCode,
	}).Warn("backend rejected credentials, logging out")
	if err := creds.Revoke(token); err != nil {
		c.log.WithError(err).Warn("forced logout did not clear the stored token")
	}
}
