// Package upstream is the shared HTTP plumbing for the geocoding and weather
// adapters: identifying headers, per-provider timeouts, JSON decoding, and
// request metrics.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/observability"
)

// maxErrorBody bounds how much of a non-200 body is kept in error messages.
const maxErrorBody = 512

// Client issues GET requests that decode JSON responses.
type Client struct {
	httpClient *http.Client
	userAgent  string
	metrics    *observability.Metrics
}

// NewClient creates a client whose requests time out after timeout.
func NewClient(timeout time.Duration, userAgent string, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		metrics:    metrics,
	}
}

// GetJSON fetches url and decodes the body into v. Every failure is returned
// as a *domain.UpstreamError tagged with provider; callers decide which
// status codes mean "not found".
func (c *Client) GetJSON(ctx context.Context, provider, url, accept string, v any) (err error) {
	start := time.Now()
	defer func() {
		c.observe(provider, start, err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &domain.UpstreamError{Provider: provider, Err: fmt.Errorf("create request: %w", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.UpstreamError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.UpstreamError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &domain.UpstreamError{Provider: provider, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) observe(provider string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	outcome := domain.OutcomeOf(err)
	if IsStatus(err, http.StatusNotFound) {
		outcome = domain.OutcomeNotFound
	}
	c.metrics.UpstreamRequests.WithLabelValues(provider, string(outcome)).Inc()
}

// IsStatus reports whether err is an upstream error carrying status code.
func IsStatus(err error, code int) bool {
	var ue *domain.UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == code
}
