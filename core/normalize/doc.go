// Package normalize maps raw warehouse and SKU identifiers from any stock
// source into their canonical form.
//
// Warehouse names arrive in wildly inconsistent shapes depending on the source
// ("Moscow Fulfillment Center", "MOSCOW_FC ", "moscow-fulfillment center").
// The normalizer resolves each (raw name, source type) pair to a single
// canonical name and remembers the mapping as a persisted rule so that the
// same input always yields the same output across batches.
//
// # Resolution order
//
//  1. Trim and upper-case the input.
//  2. Look up a persisted rule for (cleaned, sourceType); return it if found.
//  3. Otherwise derive a name through the structural rewrite pipeline
//     (whitespace collapsing, character stripping, suffix canonicalization)
//     and persist it as a new rule with confidence 1.0.
//
// Derivation of a new rule is wrapped in a singleflight group keyed by
// (sourceType, cleaned) so concurrent batches racing on the same unseen name
// persist exactly one rule; the store upsert must tolerate a concurrent
// winner and read its row back.
//
// SKU normalization is deliberately minimal: trim only. An empty SKU or
// warehouse name is rejected with ErrInvalidIdentity; it must never become
// a valid inventory identity.
package normalize
