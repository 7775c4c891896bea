package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork matches every *NetworkError.
	ErrNetwork = errors.New("network error")

	// ErrRetryExhausted matches every *RetryExhaustedError.
	ErrRetryExhausted = errors.New("retries exhausted")

	// ErrBodyTooLarge is wrapped by a NetworkError when a response body
	// exceeds the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// NetworkError describes a failed request.
type NetworkError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status of an unsuccessful response, or 0 when
	// no response was received.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements error.
func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// RetryExhaustedError is returned when every attempt of FetchWithRetry failed.
type RetryExhaustedError struct {
	URL      string
	Attempts int

	// Last is the error of the final attempt.
	Last error
}

// Error implements error.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("giving up on %s after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

// Unwrap returns the error of the final attempt.
func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

// Is reports whether target is ErrRetryExhausted.
func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}
