package rerank

import (
	"errors"
	"fmt"
)

// Sentinel errors for invalid local input. These are caller bugs, not
// service failures, and are never retried.
var (
	// ErrNilContext is returned when a nil context is passed to Rerank.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrEmptyQuery is returned when the query is empty or whitespace.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidTopK is returned when topK is negative.
	ErrInvalidTopK = errors.New("topK cannot be negative")
)

// ServiceError indicates a failure of the remote scoring service:
// unreachable endpoint, authentication failure, or a malformed or
// incomplete response. The caller decides whether to retry, fall back to
// the unranked order, or abort.
type ServiceError struct {
	// StatusCode is the HTTP status of the failed response, or 0 for
	// transport and response-validation failures.
	StatusCode int

	Err error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rerank service error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("rerank service error: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// retryableError marks a failure as transient: transport failures,
// rate limiting, and 5xx responses.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
