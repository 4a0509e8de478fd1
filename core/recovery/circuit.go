package recovery

import (
	"context"
	"sync"
	"time"
)

// Circuit state values as persisted in the ledger.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

// State is the persisted circuit breaker state for one source. It is the only
// recovery state carried between batches.
type State struct {
	State               string
	ConsecutiveFailures int
	OpenedAt            time.Time
}

// StateStore persists circuit state across batches. Implementations must be
// safe for concurrent use; the controller serializes access per source.
type StateStore interface {
	LoadState(ctx context.Context, source string) (State, error)
	SaveState(ctx context.Context, source string, state State) error
}

// breaker holds the live circuit state for one source. All transitions are
// owned by the Controller.
type breaker struct {
	mu    sync.Mutex
	state State
}

// allow reports whether a call may proceed. An open circuit transitions to
// half-open once the cooldown has elapsed, admitting a single probe.
func (b *breaker) allow(now time.Time, cooldown time.Duration) (ok, changed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state.State {
	case StateOpen:
		if now.Sub(b.state.OpenedAt) >= cooldown {
			b.state.State = StateHalfOpen
			return true, true
		}
		return false, false
	default:
		// Closed, half-open, and fresh (zero-value) states admit the call.
		return true, false
	}
}

// recordSuccess resets the failure count and closes the circuit after a
// successful half-open probe.
func (b *breaker) recordSuccess() (changed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	changed = b.state.State == StateHalfOpen || b.state.ConsecutiveFailures > 0
	b.state.State = StateClosed
	b.state.ConsecutiveFailures = 0
	return changed
}

// recordFailure counts a transport-level failure and opens the circuit at the
// threshold. A failed half-open probe reopens immediately.
func (b *breaker) recordFailure(now time.Time, threshold int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.ConsecutiveFailures++
	switch b.state.State {
	case StateHalfOpen:
		b.state.State = StateOpen
		b.state.OpenedAt = now
	default:
		if b.state.State != StateOpen && b.state.ConsecutiveFailures >= threshold {
			b.state.State = StateOpen
			b.state.OpenedAt = now
		}
	}
}

// snapshot returns a copy of the current state.
func (b *breaker) snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
