package normalize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"
)

// ErrInvalidIdentity is returned when a raw identifier cannot form a valid
// inventory identity (empty SKU or warehouse name). It fails the single
// identity, never the whole batch.
var ErrInvalidIdentity = errors.New("invalid identity: empty identifier")

// Rule is a persisted mapping from a raw source name to its canonical form.
type Rule struct {
	// OriginalName is the cleaned (trimmed, upper-cased) raw name.
	OriginalName string

	// SourceType identifies which source produced the raw name ("api", "report").
	SourceType string

	// NormalizedName is the canonical name for this original.
	NormalizedName string

	// Confidence is the trust in this mapping in [0,1]. Derived rules are 1.0;
	// lower values are reserved for manually curated fuzzy mappings.
	Confidence float64
}

// RuleStore persists normalization rules across batches.
//
// UpsertRule must be race-safe: two concurrent batches deriving the same rule
// must not error, and the loser must observe the winner's row on the next
// lookup (INSERT ... ON CONFLICT or equivalent).
type RuleStore interface {
	LookupRule(ctx context.Context, originalName, sourceType string) (*Rule, error)
	UpsertRule(ctx context.Context, rule Rule) error
}

// Normalizer resolves raw identifiers to canonical ones, backed by a rule store.
type Normalizer struct {
	store RuleStore
	sf    singleflight.Group
}

// New creates a Normalizer on top of the given rule store.
func New(store RuleStore) *Normalizer {
	return &Normalizer{store: store}
}

// NormalizeWarehouse resolves a raw warehouse name from the given source type
// to its canonical form. Deterministic and idempotent for the lifetime of the
// rule table: the first call derives and persists a rule, subsequent calls
// return the persisted mapping.
func (n *Normalizer) NormalizeWarehouse(ctx context.Context, rawName, sourceType string) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(rawName))
	if cleaned == "" {
		return "", fmt.Errorf("warehouse name %q: %w", rawName, ErrInvalidIdentity)
	}

	rule, err := n.store.LookupRule(ctx, cleaned, sourceType)
	if err != nil {
		return "", fmt.Errorf("failed to look up normalization rule: %w", err)
	}
	if rule != nil {
		return rule.NormalizedName, nil
	}

	// Unseen name: derive and persist exactly once, even if concurrent batches
	// hit the same raw name at the same moment.
	v, err, _ := n.sf.Do(sourceType+"\x00"+cleaned, func() (any, error) {
		derived := Rewrite(cleaned)
		newRule := Rule{
			OriginalName:   cleaned,
			SourceType:     sourceType,
			NormalizedName: derived,
			Confidence:     1.0,
		}
		if err := n.store.UpsertRule(ctx, newRule); err != nil {
			return "", fmt.Errorf("failed to persist normalization rule: %w", err)
		}
		return derived, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// NormalizeSKU resolves a raw SKU. SKUs are already machine identifiers, so
// only surrounding whitespace is removed. Empty SKUs are rejected.
func (n *Normalizer) NormalizeSKU(rawSKU string) (string, error) {
	sku := strings.TrimSpace(rawSKU)
	if sku == "" {
		return "", fmt.Errorf("sku %q: %w", rawSKU, ErrInvalidIdentity)
	}
	return sku, nil
}
