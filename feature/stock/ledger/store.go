package ledger

import (
	"context"

	"stocksync/core/normalize"
	"stocksync/core/reconcile"
	"stocksync/core/recovery"
	"stocksync/feature/stock/models"
)

// OutcomeQuery filters the authoritative stock rows returned by ListOutcomes.
type OutcomeQuery struct {
	// Status filters on outcome status when non-empty.
	Status string
	// Warehouse filters on canonical warehouse name when non-empty.
	Warehouse string
	// Limit caps the number of returned rows; 0 means the default of 100.
	Limit int
}

// Store is the full persistence surface of the stock feature. The write half
// is consumed by the reconcile engine and its collaborators; the read half by
// the operator endpoints.
type Store interface {
	reconcile.Ledger
	normalize.RuleStore
	recovery.StateStore

	GetBatch(ctx context.Context, id string) (*models.ReconcileBatch, error)
	ListBatches(ctx context.Context, limit int) ([]models.ReconcileBatch, error)
	ListOutcomes(ctx context.Context, q OutcomeQuery) ([]models.StockOutcome, error)
	CircuitStates(ctx context.Context) ([]models.SourceCircuitState, error)
}
