package recovery

import (
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen is returned when a call is rejected because the source's
// circuit breaker is open. It is permanent for the current batch and does not
// consume any retry budget.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// TransportError is a network or HTTP-level failure (timeout, 5xx, connection
// reset). Transport errors are retryable and count toward the circuit breaker.
type TransportError struct {
	Err        error
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitError is a throttling response (429). Retryable; when RetryAfter
// is set the retry loop honors it instead of the backoff ladder.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// ParseError marks an input that cannot be parsed (malformed report file or
// API payload). Permanent for the given input: never retried, never counted
// against the circuit, and quarantined exactly once.
type ParseError struct {
	// Input names the offending input, e.g. the storage object key.
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MaxRetriesError reports that a source call failed on every attempt of the
// retry sequence. The reconciler reacts by degrading to single-source mode.
type MaxRetriesError struct {
	Source   string
	Attempts int
	Err      error
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("source %s: max retries exceeded after %d attempts: %v", e.Source, e.Attempts, e.Err)
}

func (e *MaxRetriesError) Unwrap() error { return e.Err }

// IsRetryable reports whether the error may succeed on a later attempt
// (transport failures and rate limiting).
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// retryAfterHint extracts a server-provided delay from the error chain, or 0.
func retryAfterHint(err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	return 0
}
