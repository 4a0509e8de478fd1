// Package ledger persists the reconciliation feature's durable state:
// batches, authoritative stock outcomes, learned normalization rules, and
// circuit breaker states.
//
// The GORM-backed implementation is the production store; the in-memory
// implementation backs unit tests and local experiments. Both satisfy the
// Store interface, which bundles the narrow interfaces consumed by the
// reconcile engine, the normalizer, and the recovery controller together
// with the read methods the operator endpoints need.
package ledger
