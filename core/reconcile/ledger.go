package reconcile

import "context"

// Ledger is the durable record of batches and per-identity outcomes. The
// engine only needs this narrow write interface; richer read access for the
// operator endpoints is a concern of the implementing feature.
//
// WriteOutcome upserts the authoritative stock row for the identity and
// reports whether a new row was created (as opposed to refreshing an
// existing one), which feeds the batch's inserted/updated counters.
type Ledger interface {
	CreateBatch(ctx context.Context, batch Batch) error
	UpdateBatch(ctx context.Context, batch Batch) error
	WriteOutcome(ctx context.Context, batchID string, identity Identity, outcome Outcome) (created bool, err error)
}
