package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var errNoCredential = errors.New("API key is not configured")

// ErrAuthentication indicates a missing or rejected credential. Never retried.
type ErrAuthentication struct {
	StatusCode int // 0 when the key was missing locally
	Err        error
}

func (e *ErrAuthentication) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *ErrAuthentication) Unwrap() error { return e.Err }

// ErrTransient covers network failures, timeouts and non-auth HTTP errors.
// The gateway retries these.
type ErrTransient struct {
	StatusCode int // 0 for network errors and timeouts
	Err        error
}

func (e *ErrTransient) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model API error (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model API unavailable: %v", e.Err)
}

func (e *ErrTransient) Unwrap() error { return e.Err }

// ErrMalformedResponse indicates a successful HTTP response whose body could
// not be decoded or lacked the expected text. Never retried.
type ErrMalformedResponse struct {
	Body string
	Err  error
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *ErrMalformedResponse) Unwrap() error { return e.Err }

// ErrRetriesExhausted wraps the last error after every attempt failed.
type ErrRetriesExhausted struct {
	Attempts int
	Err      error
}

func (e *ErrRetriesExhausted) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ErrRetriesExhausted) Unwrap() error { return e.Err }

// statusError maps a non-2xx HTTP status to the error taxonomy.
func statusError(status int, err error) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ErrAuthentication{StatusCode: status, Err: err}
	}
	return &ErrTransient{StatusCode: status, Err: err}
}

// retryable reports whether the gateway may try again after err.
func retryable(err error) bool {
	var auth *ErrAuthentication
	if errors.As(err, &auth) {
		return false
	}
	var malformed *ErrMalformedResponse
	if errors.As(err, &malformed) {
		return false
	}
	// Everything else, including untyped network errors, is transient.
	return true
}
