// Package stock implements the inventory reconciliation feature.
//
// It wires the core reconcile engine to its concrete collaborators: the
// marketplace stock API, the UI-exported report files in object storage, the
// GORM-backed ledger, and the recovery policy. Each run produces a batch that
// extracts stock facts from both sources, normalizes their identities,
// compares them, and persists one authoritative row per (warehouse, SKU).
//
// # Components
//
//   - Service: Owns the reconciler and exposes batch runs plus read access.
//   - Handler: Exposes HTTP endpoints for triggering runs and inspecting results.
//   - Feature: Registers the feature with the application loader.
//
// # HTTP Endpoints
//
//   - POST /stock/reconcile        : Run one reconciliation batch.
//   - GET  /stock/batches          : List recent batches.
//   - GET  /stock/batches/:id      : Get one batch.
//   - GET  /stock/outcomes         : List authoritative stock rows (filterable).
//   - GET  /stock/circuits         : Circuit breaker state per source.
package stock
