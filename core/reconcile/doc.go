// Package reconcile builds a single authoritative stock view per
// (warehouse, SKU) pair from two independent, unreliable sources: the live
// marketplace API and periodically uploaded UI-exported reports.
//
// The engine runs one batch per invocation:
//
//  1. Extract raw facts from each source, every call wrapped by the recovery
//     controller (retry, circuit breaking, quarantine of malformed files).
//  2. Normalize warehouse names and SKUs into canonical identities.
//  3. Build the union of identities across both fact sets and compare the
//     facts for each identity, producing an outcome with a quality score.
//  4. Persist every outcome to the ledger and classify the batch.
//
// # Failure isolation
//
// Failure of one source after the retry budget does not abort the batch: the
// engine degrades to single-source mode (all outcomes become api_only or
// ui_only) and the batch finishes as partial. Only simultaneous failure of
// both sources, or an internal invariant violation, fails the batch. Errors
// local to one identity (invalid identifiers, a ledger write failure) are
// counted and logged, never fatal: one bad row must not block thousands of
// good ones.
//
// # Resolution policy
//
// The API is the live source of truth. UI reports exist to fill API gaps and
// to detect drift, never to override a fresh API reading, so the chosen fact
// is always the API fact whenever the API reported. Disagreement beyond the
// conflict threshold is flagged for manual review but does not block the
// batch; the next run simply overwrites the row.
//
// # Concurrency
//
// Comparison and persistence fan out across a bounded worker pool, since
// comparison is CPU-bound and persistence is I/O-bound, while each identity
// is handled sequentially. At most one batch runs per source pair at a time,
// enforced by an in-process keyed guard.
package reconcile
