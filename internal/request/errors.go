package request

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-thermal/internal/correlation"
)

// Error kinds. Use errors.Is() against a returned *Error to classify it.
var (
	// ErrNetwork is a transport-level failure (connection refused, timeout, reset).
	ErrNetwork = errors.New("request: network failure")

	// ErrProtocol is a response that arrived but is not acceptable:
	// non-200 status, wrong content type or malformed JSON.
	ErrProtocol = errors.New("request: protocol failure")

	// ErrCancelled is returned by Call.Wait when the call was cancelled.
	// It is never delivered as a Result.
	ErrCancelled = errors.New("request: cancelled")
)

// Error describes a failed request.
type Error struct {
	// ID is the correlation ID of the failed request.
	ID correlation.ID
	// Endpoint is the name of the endpoint that was called.
	Endpoint string
	// Attempts is how many times the request was sent.
	Attempts int
	// Kind is ErrNetwork or ErrProtocol.
	Kind error
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s [%s] after %d attempt(s): %v", e.Kind, e.Endpoint, e.ID, e.Attempts, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
