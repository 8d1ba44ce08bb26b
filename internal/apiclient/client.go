package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client talks to the Heimdall backend. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client for baseURL. An empty base URL is a
// *ConfigurationError.
//
// The base URL is used as given: resource endpoints are built as
// baseURL + "/api/" + endpoint and control endpoints as baseURL + endpoint.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, &ConfigurationError{Reason: "Missing baseUrl"}
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// isControlEndpoint reports whether endpoint lives outside /api/.
func isControlEndpoint(endpoint string) bool {
	return endpoint == "connect" ||
		strings.HasPrefix(endpoint, "connect/") ||
		endpoint == "disconnect"
}

// URL returns the full URL for an endpoint such as "devices/7" or "disconnect".
func (c *Client) URL(endpoint string) string {
	if isControlEndpoint(endpoint) {
		return c.baseURL + endpoint
	}
	return c.baseURL + "/api/" + endpoint
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	errorText string
}

// WithErrorText sets the message of the *HTTPError returned when the
// backend answers with a non-2xx status. Envelope-level failures always
// carry the backend's own message. An empty text selects the generic
// message for the request method.
func WithErrorText(text string) CallOption {
	return func(o *callOptions) {
		o.errorText = text
	}
}

func resolveOptions(defaultText string, opts []CallOption) callOptions {
	o := callOptions{errorText: defaultText}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func defaultErrorText(method string) string {
	switch method {
	case http.MethodPost:
		return msgPostingData
	case http.MethodPut:
		return msgPutRequest
	case http.MethodDelete:
		return msgDeleteReq
	default:
		return msgFetchingData
	}
}

// do performs one request and returns the raw data field of a successful
// envelope (possibly empty). body is JSON-encoded when non-nil.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, o callOptions) (json.RawMessage, error) {
	url := c.URL(endpoint)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s request: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s request: %w", method, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "url", url)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes)) //nolint:errcheck // Drain for connection reuse
		msg := o.errorText
		if msg == "" {
			msg = defaultErrorText(method)
		}
		c.logger.Warn("api request failed", "method", method, "url", url, "status", resp.StatusCode)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", method, url, err)
	}

	raw, err := decodeEnvelope(data)
	if err != nil {
		c.logger.Debug("api envelope rejected", "method", method, "url", url, "error", err)
		return nil, err
	}
	return raw, nil
}
