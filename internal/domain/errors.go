package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for empty or malformed queries.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the provider answered but had no match.
	ErrNotFound = errors.New("not found")

	// ErrNotConfigured means a channel is disabled or still holds placeholder credentials.
	ErrNotConfigured = errors.New("not configured")
)

// UpstreamError records a transport, status, or decode failure from an external provider.
type UpstreamError struct {
	Provider   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Outcome labels the result of an upstream call for logs and metrics.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeUpstreamFailure Outcome = "upstream_failure"
	OutcomeNotConfigured   Outcome = "not_configured"
	OutcomeInvalidInput    Outcome = "invalid_input"
)

// OutcomeOf classifies err. A nil error is a success; unrecognized errors
// count as upstream failures.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrNotConfigured):
		return OutcomeNotConfigured
	case errors.Is(err, ErrInvalidInput):
		return OutcomeInvalidInput
	default:
		return OutcomeUpstreamFailure
	}
}
