// Package reviewapi is the HTTP client the admin poll loop uses to talk to
// the review API: the unseen count endpoint and the acknowledge endpoint.
package reviewapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/scholarhub/scholarship-review/pkg/circuitbreaker"
	"github.com/scholarhub/scholarship-review/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

const (
	countPath = "/api/v1/admin/notifications/count"
	ackPath   = "/api/v1/admin/notifications/ack"
)

// ClientConfig contains configuration for the review API client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. http://localhost:8080
	BaseURL string

	// Token is an admin bearer token.
	Token string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	Logger *slog.Logger
	Debug  bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL, token string) ClientConfig {
	return ClientConfig{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Timeout: 3 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrUnauthorized - the token was missing, expired or invalid.
	ErrUnauthorized = errors.New("reviewapi: unauthorized")

	// ErrForbidden - the token does not carry the admin role.
	ErrForbidden = errors.New("reviewapi: forbidden")

	// ErrMalformedResponse - the server answered with something unexpected.
	ErrMalformedResponse = errors.New("reviewapi: malformed response")
)

// StatusError is a non-2xx answer that is not an auth failure.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reviewapi: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the call may succeed if repeated.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// CountResult is one poll answer.
type CountResult struct {
	Count int

	// Degraded is set when the server could not reach its store and
	// answered 0 as a fallback.
	Degraded bool
}

// Client talks to the review API. Safe for concurrent use.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuitbreaker.CircuitBreaker
	retrier    *retry.Retrier
}

// NewClient creates a client. A nil breaker gets the default review-api breaker.
func NewClient(config ClientConfig, breaker *circuitbreaker.CircuitBreaker) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	log := config.Logger
	if breaker == nil {
		breaker = circuitbreaker.AdminAPIBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		})
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     log,
		breaker:    breaker,
		retrier: retry.New(
			retry.WithMaxAttempts(3),
			retry.WithInitialDelay(200*time.Millisecond),
			retry.WithMaxDelay(2*time.Second),
			retry.WithJitter(0.2),
			retry.WithRetryIf(isTemporary),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				log.Warn("retrying acknowledge", "attempt", attempt, "delay", delay.String(), "error", err)
			}),
		),
	}
}

// Count fetches the unseen qualified pending count. It is not retried:
// the next poll tick is the retry.
func (c *Client) Count(ctx context.Context) (CountResult, error) {
	return circuitbreaker.ExecuteWithData(ctx, c.breaker, func(ctx context.Context) (CountResult, error) {
		body, header, err := c.do(ctx, http.MethodGet, countPath)
		if err != nil {
			return CountResult{}, err
		}

		n, err := strconv.Atoi(strings.TrimSpace(string(body)))
		if err != nil || n < 0 {
			return CountResult{}, fmt.Errorf("%w: count %q", ErrMalformedResponse, truncate(string(body)))
		}
		return CountResult{Count: n, Degraded: header.Get("X-Degraded") == "true"}, nil
	})
}

// acknowledgeResponse mirrors the server's ack body.
type acknowledgeResponse struct {
	Success      bool   `json:"success"`
	UpdatedCount int64  `json:"updated_count"`
	Error        string `json:"error,omitempty"`
}

// Acknowledge marks every currently counted application as seen and returns
// how many rows changed. Temporary failures are retried.
func (c *Client) Acknowledge(ctx context.Context) (int64, error) {
	return retry.DoWithData(ctx, c.retrier, func(ctx context.Context) (int64, error) {
		return circuitbreaker.ExecuteWithData(ctx, c.breaker, func(ctx context.Context) (int64, error) {
			body, _, err := c.do(ctx, http.MethodPost, ackPath)

			var statusErr *StatusError
			if err != nil && !errors.As(err, &statusErr) {
				return 0, err
			}
			if statusErr != nil {
				body = []byte(statusErr.Body)
			}

			var resp acknowledgeResponse
			if jsonErr := json.Unmarshal(body, &resp); jsonErr != nil {
				if err != nil {
					return 0, err
				}
				return 0, fmt.Errorf("%w: %v", ErrMalformedResponse, jsonErr)
			}
			if !resp.Success {
				if err != nil {
					return 0, err
				}
				return 0, fmt.Errorf("%w: %s", ErrMalformedResponse, resp.Error)
			}
			return resp.UpdatedCount, nil
		})
	})
}

// do performs one request and returns the body of a 2xx answer.
// Non-2xx answers come back as ErrUnauthorized, ErrForbidden or *StatusError.
func (c *Client) do(ctx context.Context, method, path string) ([]byte, http.Header, error) {
	var reqBody io.Reader
	if method == http.MethodPost {
		reqBody = bytes.NewReader([]byte("{}"))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.config.Debug {
		c.logger.Debug("review api request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, resp.Header, ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return nil, resp.Header, ErrForbidden
	case resp.StatusCode >= 300:
		return nil, resp.Header, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, resp.Header, nil
}

// isTemporary decides which acknowledge failures are worth another attempt.
func isTemporary(err error) bool {
	if circuitbreaker.IsRejected(err) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
