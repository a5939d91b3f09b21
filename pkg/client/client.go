// Package client talks JSON to the consoled REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"devconsole/pkg/log"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultTimeout = 10 * time.Second
	// cap on error bodies read into StatusError
	maxErrorBody = 4096
)

// StatusError is returned when the server answered with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// Options tune request behaviour.
type Options struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client sends JSON requests relative to a base URL.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	timeout time.Duration
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    CreateRetryableClient(opts.RetryMax, opts.RetryWaitMin, opts.RetryWaitMax),
		timeout: timeout,
	}
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// EventsURL returns the websocket URL of the change event stream.
func (c *Client) EventsURL() string {
	switch {
	case strings.HasPrefix(c.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.baseURL, "https://") + "/api/events"
	case strings.HasPrefix(c.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://") + "/api/events"
	default:
		return c.baseURL + "/api/events"
	}
}

// Do sends body (JSON encoded, may be nil) to path and decodes the response
// into out (may be nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload interface{}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(reqCtx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", path).Msg("Failed to close response body")
		}
	}()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("API request")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return readStatusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return statusErr
	}

	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		statusErr.Message = body.Error
	} else {
		statusErr.Message = strings.TrimSpace(string(data))
	}
	return statusErr
}

// CreateRetryableClient creates a retryable HTTP client. Only connection
// failures are retried; HTTP error responses are returned as they are.
func CreateRetryableClient(retryMax int, retryWaitMin, retryWaitMax time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	if retryWaitMin > 0 {
		client.RetryWaitMin = retryWaitMin
	}
	if retryWaitMax > 0 {
		client.RetryWaitMax = retryWaitMax
	}
	client.Logger = nil
	client.CheckRetry = connectionRetryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// connectionRetryPolicy retries only when no response was received.
func connectionRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if resp != nil {
		return false, nil
	}

	if err != nil {
		return isTimeoutOrConnectionError(err), nil
	}

	return false, nil
}

func isTimeoutOrConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
