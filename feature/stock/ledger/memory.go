package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"stocksync/core/normalize"
	"stocksync/core/reconcile"
	"stocksync/core/recovery"
	"stocksync/feature/stock/models"
)

type identityKey struct {
	warehouse string
	sku       string
}

type ruleKey struct {
	original   string
	sourceType string
}

// MemoryStore is an in-memory Store for tests and local experiments.
type MemoryStore struct {
	mu       sync.Mutex
	batches  map[string]models.ReconcileBatch
	outcomes map[identityKey]models.StockOutcome
	rules    map[ruleKey]normalize.Rule
	circuits map[string]recovery.State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches:  make(map[string]models.ReconcileBatch),
		outcomes: make(map[identityKey]models.StockOutcome),
		rules:    make(map[ruleKey]normalize.Rule),
		circuits: make(map[string]recovery.State),
	}
}

func (s *MemoryStore) CreateBatch(_ context.Context, batch reconcile.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.batches[batch.ID]; exists {
		return fmt.Errorf("batch %s already exists", batch.ID)
	}
	s.batches[batch.ID] = batchToRow(batch)
	return nil
}

func (s *MemoryStore) UpdateBatch(_ context.Context, batch reconcile.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.batches[batch.ID]; !exists {
		return fmt.Errorf("batch %s not found", batch.ID)
	}
	s.batches[batch.ID] = batchToRow(batch)
	return nil
}

func (s *MemoryStore) WriteOutcome(_ context.Context, batchID string, identity reconcile.Identity, outcome reconcile.Outcome) (bool, error) {
	row, err := outcomeToRow(batchID, identity, outcome)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identityKey{warehouse: identity.Warehouse, sku: identity.SKU}
	_, exists := s.outcomes[key]
	s.outcomes[key] = row
	return !exists, nil
}

func (s *MemoryStore) LookupRule(_ context.Context, originalName, sourceType string) (*normalize.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rule, ok := s.rules[ruleKey{original: originalName, sourceType: sourceType}]; ok {
		r := rule
		return &r, nil
	}
	return nil, nil
}

func (s *MemoryStore) UpsertRule(_ context.Context, rule normalize.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ruleKey{original: rule.OriginalName, sourceType: rule.SourceType}
	// First writer wins, matching the database unique index semantics.
	if _, exists := s.rules[key]; !exists {
		s.rules[key] = rule
	}
	return nil
}

func (s *MemoryStore) LoadState(_ context.Context, source string) (recovery.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.circuits[source]; ok {
		return st, nil
	}
	return recovery.State{State: recovery.StateClosed}, nil
}

func (s *MemoryStore) SaveState(_ context.Context, source string, state recovery.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circuits[source] = state
	return nil
}

func (s *MemoryStore) GetBatch(_ context.Context, id string) (*models.ReconcileBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.batches[id]; ok {
		r := row
		return &r, nil
	}
	return nil, nil
}

func (s *MemoryStore) ListBatches(_ context.Context, limit int) ([]models.ReconcileBatch, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]models.ReconcileBatch, 0, len(s.batches))
	for _, row := range s.batches {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartedAt.After(rows[j].StartedAt) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *MemoryStore) ListOutcomes(_ context.Context, q OutcomeQuery) ([]models.StockOutcome, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]models.StockOutcome, 0, len(s.outcomes))
	for _, row := range s.outcomes {
		if q.Status != "" && row.Status != q.Status {
			continue
		}
		if q.Warehouse != "" && row.Warehouse != q.Warehouse {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Warehouse != rows[j].Warehouse {
			return rows[i].Warehouse < rows[j].Warehouse
		}
		return rows[i].SKU < rows[j].SKU
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *MemoryStore) CircuitStates(_ context.Context) ([]models.SourceCircuitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]models.SourceCircuitState, 0, len(s.circuits))
	for source, st := range s.circuits {
		rows = append(rows, models.SourceCircuitState{
			Source:              source,
			State:               st.State,
			ConsecutiveFailures: st.ConsecutiveFailures,
			OpenedAt:            st.OpenedAt,
			UpdatedAt:           time.Now(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Source < rows[j].Source })
	return rows, nil
}

// FailedSourcesOf splits the stored comma-joined failed source list, for
// assertions and display.
func FailedSourcesOf(row models.ReconcileBatch) []string {
	if row.FailedSources == "" {
		return nil
	}
	return strings.Split(row.FailedSources, ",")
}
