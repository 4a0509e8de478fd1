package reconcile

import (
	"errors"
	"sync"
)

// ErrBatchInProgress is returned when a batch is requested for a source pair
// that already has a batch running. Two concurrent batches would race to
// write the same identities with different outcomes.
var ErrBatchInProgress = errors.New("a reconciliation batch is already running for this source pair")

// runGuard is an advisory in-process lock keyed by source pair.
type runGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newRunGuard() *runGuard {
	return &runGuard{active: make(map[string]struct{})}
}

func (g *runGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.active[key]; held {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

func (g *runGuard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, key)
}

func guardKey(a, b Source) string {
	return string(a) + "::" + string(b)
}
