// Package errors defines the unified error taxonomy for dispatcher calls.
// Every provider-specific failure is mapped onto one of three outcome
// kinds so the rotation logic never has to inspect provider details.
package errors

import (
	"errors"
	"fmt"
)

// ErrExhausted is returned when no provider/key combination is usable,
// even after the global cooldown-reset wait and a second selection pass.
var ErrExhausted = errors.New("all providers and keys exhausted")

// Kind classifies a call failure for the rotation logic.
type Kind string

const (
	// KindRateLimited means the provider signaled quota or rate exhaustion.
	// The key is cooled down for the rate-limit window and rotation continues.
	KindRateLimited Kind = "rate_limited"

	// KindServerError means a transient server-side failure (5xx or transport).
	// The key is cooled down for the short window and rotation continues.
	KindServerError Kind = "server_error"

	// KindRejected means the request itself was refused (bad payload,
	// revoked credential). Rotation would not help; the error surfaces
	// to the caller unchanged.
	KindRejected Kind = "rejected"
)

// CallError is a standardized failure from a provider invocation.
type CallError struct {
	Kind       Kind   `json:"kind"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("[%s] %s (provider=%s, model=%s, code=%d)",
		e.Kind, e.Message, e.Provider, e.Model, e.StatusCode)
}

// NewRateLimitError creates a rate-limit outcome (429/quota class).
func NewRateLimitError(provider, model, message string) *CallError {
	return &CallError{
		Kind:       KindRateLimited,
		Provider:   provider,
		Model:      model,
		StatusCode: 429,
		Message:    message,
	}
}

// NewServerError creates a transient server-side outcome (5xx class).
func NewServerError(provider, model string, statusCode int, message string) *CallError {
	return &CallError{
		Kind:       KindServerError,
		Provider:   provider,
		Model:      model,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewTransportError wraps a network-level failure as a server-side
// outcome: the endpoint may recover, so the key gets the short cooldown.
func NewTransportError(provider, model string, err error) *CallError {
	return &CallError{
		Kind:     KindServerError,
		Provider: provider,
		Model:    model,
		Message:  err.Error(),
	}
}

// NewRejectedError creates a terminal outcome that rotation cannot fix.
func NewRejectedError(provider, model string, statusCode int, message string) *CallError {
	return &CallError{
		Kind:       KindRejected,
		Provider:   provider,
		Model:      model,
		StatusCode: statusCode,
		Message:    message,
	}
}

// Classify maps an HTTP status code onto an outcome kind.
// 429 is a rate limit, all 5xx are transient, everything else is terminal.
func Classify(statusCode int) Kind {
	switch {
	case statusCode == 429:
		return KindRateLimited
	case statusCode >= 500:
		return KindServerError
	default:
		return KindRejected
	}
}

// KindOf extracts the outcome kind from an error. Errors that are not
// CallErrors are treated as rejected: without a classification the
// dispatcher must not keep burning keys on them.
func KindOf(err error) Kind {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}
	return KindRejected
}

// IsRetryable reports whether the dispatcher may rotate to another key
// after this error.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindServerError:
		return true
	default:
		return false
	}
}
