package spotify

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/desertthunder/spotapi/internal/shared"
	"golang.org/x/oauth2"
)

// Outcome classifies how a call finished.
type Outcome int

const (
	// Present means the response decoded into the expected shape.
	Present Outcome = iota
	// TransportFailure covers connection errors, DNS failures, timeouts and cancellation.
	// Callers may retry these.
	TransportFailure
	// StatusFailure means the server answered with a non-2xx status.
	StatusFailure
	// DecodeFailure means the body could not be parsed into the expected shape. Not retryable.
	DecodeFailure
)

func (o Outcome) String() string {
	switch o {
	case Present:
		return "present"
	case TransportFailure:
		return "transport failure"
	case StatusFailure:
		return "status failure"
	case DecodeFailure:
		return "decode failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is either a decoded value or an absence that remembers why.
//
// Absence is not an error: each caller picks its own fallback with [Result.Or] or [Result.Get].
type Result[T any] struct {
	value   T
	outcome Outcome
	status  int
	err     error
}

func present[T any](v T, status int) Result[T] {
	return Result[T]{value: v, outcome: Present, status: status}
}

func absent[T any](o Outcome, status int, err error) Result[T] {
	return Result[T]{outcome: o, status: status, err: err}
}

// Get returns the value and whether it is present.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.outcome == Present
}

// OK reports whether the value is present.
func (r Result[T]) OK() bool { return r.outcome == Present }

// Or returns the value when present, otherwise fallback.
func (r Result[T]) Or(fallback T) T {
	if r.outcome == Present {
		return r.value
	}
	return fallback
}

func (r Result[T]) Outcome() Outcome { return r.outcome }

// StatusCode is the HTTP status of the response, or 0 when none was received.
func (r Result[T]) StatusCode() int { return r.status }

// Err returns the cause of an absent result, nil when present.
func (r Result[T]) Err() error { return r.err }

// Retryable reports whether a caller-driven retry could plausibly succeed.
func (r Result[T]) Retryable() bool { return r.outcome == TransportFailure }

// classifyTokenError maps an [oauth2] token retrieval error onto an [Outcome].
//
// oauth2 returns [*url.Error] from the transport, [*oauth2.RetrieveError] for non-2xx responses,
// and plain errors for bodies it cannot parse or that lack an access_token.
func classifyTokenError(err error) (Outcome, int, error) {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return TransportFailure, 0, fmt.Errorf("%w: %w", shared.ErrTransport, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return StatusFailure, status, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	return DecodeFailure, 0, fmt.Errorf("%w: %w", shared.ErrDecode, err)
}
