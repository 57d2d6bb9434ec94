package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"sentiment-panel/internal/logger"
)

// Client wraps http.Client with rate limiting, retries and shared headers.
// Only the fetch stages use it; everything downstream of the raw CSVs is
// strictly succeed-or-abort with no retry.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	headers    map[string]string
	maxElapsed time.Duration
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL sets the base URL for all requests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHeader sets a default header for all requests
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithRequestsPerSec bounds the request rate against the provider
func WithRequestsPerSec(n int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(time.Second), n)
	}
}

// WithMaxRetryElapsed bounds the total time spent retrying one request
func WithMaxRetryElapsed(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxElapsed = d
	}
}

// NewClient creates a new client with the given options
func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 5),
		headers:    make(map[string]string),
		maxElapsed: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// ParseJSON parses the response body as JSON into the given struct
func (r *Response) ParseJSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// HTTPStatusError is returned for non-2xx responses.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// GET performs a GET request with rate limiting and exponential retry.
func (c *Client) GET(ctx context.Context, url string, headers ...map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, headers...)
}

// POST performs a POST request with a JSON body.
func (c *Client) POST(ctx context.Context, url string, body interface{}, headers ...map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, body, headers...)
}

func (c *Client) do(ctx context.Context, method, url string, body interface{}, headers ...map[string]string) (*Response, error) {
	if c.baseURL != "" {
		url = c.baseURL + url
	}

	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *Response
	operation := func() error {
		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return backoff.Permanent(err)
		}
		for key, value := range c.headers {
			httpReq.Header.Set(key, value)
		}
		if len(headers) > 0 {
			for key, value := range headers[0] {
				httpReq.Header.Set(key, value)
			}
		}
		if jsonBody != nil && httpReq.Header.Get("Content-Type") == "" {
			httpReq.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			logger.Warn(ctx, "HTTP request failed, will retry", "method", method, "url", url, "error", err)
			return err
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return err
		}

		logger.Debug(ctx, "HTTP response",
			"method", method,
			"url", url,
			"status", httpResp.StatusCode,
			"duration", time.Since(start),
			"bodySize", len(respBody))

		if httpResp.StatusCode >= 400 {
			statusErr := &HTTPStatusError{StatusCode: httpResp.StatusCode, Body: string(respBody)}
			if httpResp.StatusCode < 500 {
				// Client errors will not heal on retry.
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}

		resp = &Response{
			StatusCode: httpResp.StatusCode,
			Body:       respBody,
			Headers:    httpResp.Header,
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		logger.ErrorWithErr(ctx, "HTTP request exhausted retries", err, "method", method, "url", url)
		return nil, err
	}
	return resp, nil
}

// BrowserHeaders returns common browser headers to mimic a real browser request
func BrowserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
	}
}

// FeedHeaders returns headers for the market-data feed endpoints
func FeedHeaders(apiKey string) map[string]string {
	h := map[string]string{
		"Accept": "application/json",
	}
	if apiKey != "" {
		h["Authorization"] = "Bearer " + apiKey
	}
	return h
}
