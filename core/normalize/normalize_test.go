package normalize_test

import (
	"context"
	"sync"
	"testing"

	"stocksync/core/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRuleStore is an in-memory RuleStore that counts upserts.
type stubRuleStore struct {
	mu      sync.Mutex
	rules   map[string]normalize.Rule
	upserts int
}

func newStubRuleStore() *stubRuleStore {
	return &stubRuleStore{rules: make(map[string]normalize.Rule)}
}

func (s *stubRuleStore) key(original, sourceType string) string {
	return sourceType + "/" + original
}

func (s *stubRuleStore) LookupRule(_ context.Context, originalName, sourceType string) (*normalize.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rule, ok := s.rules[s.key(originalName, sourceType)]; ok {
		r := rule
		return &r, nil
	}
	return nil, nil
}

func (s *stubRuleStore) UpsertRule(_ context.Context, rule normalize.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	key := s.key(rule.OriginalName, rule.SourceType)
	if _, exists := s.rules[key]; !exists {
		s.rules[key] = rule
	}
	return nil
}

func TestNormalizeWarehouse(t *testing.T) {
	ctx := context.Background()

	t.Run("DerivesAndPersistsRule", func(t *testing.T) {
		store := newStubRuleStore()
		n := normalize.New(store)

		got, err := n.NormalizeWarehouse(ctx, "  main warehouse ", "api")
		require.NoError(t, err)
		assert.Equal(t, "MAIN_WH", got)
		assert.Equal(t, 1, store.upserts)

		rule, err := store.LookupRule(ctx, "MAIN WAREHOUSE", "api")
		require.NoError(t, err)
		require.NotNil(t, rule)
		assert.Equal(t, "MAIN_WH", rule.NormalizedName)
		assert.Equal(t, 1.0, rule.Confidence)
	})

	t.Run("SecondCallUsesPersistedRule", func(t *testing.T) {
		store := newStubRuleStore()
		n := normalize.New(store)

		first, err := n.NormalizeWarehouse(ctx, "ALPHA DISTRIBUTION CENTER", "report")
		require.NoError(t, err)
		second, err := n.NormalizeWarehouse(ctx, "alpha distribution center", "report")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, store.upserts, "derivation must happen exactly once")
	})

	t.Run("SourcesKeepSeparateRules", func(t *testing.T) {
		store := newStubRuleStore()
		n := normalize.New(store)

		_, err := n.NormalizeWarehouse(ctx, "MAIN WAREHOUSE", "api")
		require.NoError(t, err)
		_, err = n.NormalizeWarehouse(ctx, "MAIN WAREHOUSE", "report")
		require.NoError(t, err)

		assert.Equal(t, 2, store.upserts)
	})

	t.Run("EmptyNameRejected", func(t *testing.T) {
		n := normalize.New(newStubRuleStore())

		_, err := n.NormalizeWarehouse(ctx, "   ", "api")
		assert.ErrorIs(t, err, normalize.ErrInvalidIdentity)
	})

	t.Run("ConcurrentDerivationIsSingleFlight", func(t *testing.T) {
		store := newStubRuleStore()
		n := normalize.New(store)

		var wg sync.WaitGroup
		results := make([]string, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got, err := n.NormalizeWarehouse(ctx, "NORTH FULFILLMENT CENTER", "api")
				assert.NoError(t, err)
				results[i] = got
			}(i)
		}
		wg.Wait()

		for _, got := range results {
			assert.Equal(t, "NORTH_FC", got)
		}
	})
}

func TestNormalizeSKU(t *testing.T) {
	n := normalize.New(newStubRuleStore())

	t.Run("TrimsWhitespace", func(t *testing.T) {
		got, err := n.NormalizeSKU("  SKU-001 ")
		require.NoError(t, err)
		assert.Equal(t, "SKU-001", got)
	})

	t.Run("EmptyRejected", func(t *testing.T) {
		_, err := n.NormalizeSKU(" ")
		assert.ErrorIs(t, err, normalize.ErrInvalidIdentity)
	})
}
