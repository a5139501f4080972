// Package httpclient is the transport used to reach the test
// backend. It sends body-less requests, returns raw response
// bodies and turns every non-2xx status into a *StatusError.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"digital.vasic.testconsole/pkg/logging"
)

// previewLimit bounds the response body copied into API logs.
const previewLimit = 512

// ClientOption configures an APIClient via functional options.
type ClientOption func(*APIClient)

// APIClient wraps net/http.Client for the backend's plain JSON
// API. It imposes no timeout of its own; see WithTimeout.
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logging.Logger
	requestID  func() string
}

// NewAPIClient creates a client for the given backend origin.
func NewAPIClient(baseURL string, opts ...ClientOption) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logging.NullLogger{},
		requestID:  uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithTimeout sets a transport-level timeout. Zero means none.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *APIClient) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *APIClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger receiving API request and response
// records.
func WithLogger(l logging.Logger) ClientOption {
	return func(c *APIClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithToken sends "Authorization: Bearer <token>" on every
// request. Backends behind an auth proxy need it.
func WithToken(token string) ClientOption {
	return func(c *APIClient) { c.token = token }
}

// WithRequestIDFunc overrides request ID generation.
func WithRequestIDFunc(fn func() string) ClientOption {
	return func(c *APIClient) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// BaseURL returns the backend origin without a trailing slash.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// Response is a successful (2xx) backend response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	RequestID   string
}

// Get performs a GET request.
func (c *APIClient) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path)
}

// Post performs a POST request without a body.
func (c *APIClient) Post(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path)
}

// Do sends a body-less request. A non-2xx response is returned
// as *StatusError without interpreting the body.
func (c *APIClient) Do(ctx context.Context, method, path string) (*Response, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	action := ActionFrom(ctx)
	c.logger.LogAPIRequest(logging.APIRequestLog{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		RequestID: requestID,
		Action:    action,
		Method:    method,
		URL:       url,
		Headers:   flattenHeaders(req.Header),
	})

	start := time.Now()
	respLog := logging.APIResponseLog{RequestID: requestID, Action: action}
	defer func() {
		respLog.Timestamp = time.Now().Format(time.RFC3339Nano)
		respLog.ResponseTimeMs = time.Since(start).Milliseconds()
		c.logger.LogAPIResponse(respLog)
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		respLog.Error = err.Error()
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respLog.StatusCode = resp.StatusCode
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		respLog.Error = err.Error()
		return nil, fmt.Errorf("read response of %s %s: %w", method, path, err)
	}
	respLog.BodyLength = len(data)
	respLog.BodyPreview = preview(data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
		RequestID:   requestID,
	}, nil
}

func preview(data []byte) string {
	if len(data) > previewLimit {
		return string(data[:previewLimit])
	}
	return string(data)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
