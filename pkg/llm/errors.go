package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a failed API call, driving the retry decision.
type ErrorKind string

const (
	KindAuth            ErrorKind = "auth"
	KindRateLimit       ErrorKind = "rate_limit"
	KindTimeout         ErrorKind = "timeout"
	KindNetwork         ErrorKind = "network"
	KindServer          ErrorKind = "server"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindUnknown         ErrorKind = "unknown"
)

// APIError is a classified provider failure.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: %s: %s", e.Kind, e.Message)
}

// Retryable reports whether another attempt can plausibly succeed. Auth
// failures and malformed responses will not improve on retry.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindTimeout, KindNetwork, KindServer:
		return true
	}
	return false
}

// kindFromStatus maps an HTTP status to an error kind.
func kindFromStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// classifyTransportError wraps a failed round trip into an APIError.
func classifyTransportError(err error) *APIError {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &APIError{Kind: kind, Message: err.Error()}
}

// IsRetryable reports whether err is an APIError worth retrying. Unclassified
// errors are not retried.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
