package stock

import (
	"context"

	"stocksync/core/normalize"
	"stocksync/core/reconcile"
	"stocksync/core/recovery"
	"stocksync/core/storage"
	"stocksync/feature/stock/ledger"
	"stocksync/feature/stock/models"
	"stocksync/feature/stock/source"

	"go.uber.org/zap"
)

// Service owns the reconciler and its collaborators for the stock feature.
type Service struct {
	store      ledger.Store
	reconciler *reconcile.Reconciler
	api        reconcile.SourceAdapter
	report     reconcile.SourceAdapter
	logger     *zap.Logger
}

// NewService assembles the reconciliation pipeline: source adapters against
// the configured marketplace API and report bucket, the normalizer and
// recovery policy backed by the store, and the engine on top.
func NewService(store ledger.Store, client storage.Client, bucket string, cfg Config, recoveryCfg recovery.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	api := source.NewAPISource(nil, cfg.API.BaseURL, cfg.API.APIKey, cfg.API.PageSize)
	report := source.NewReportSource(client, bucket, cfg.Report.Prefix)
	mover := source.NewQuarantineMover(client, bucket, cfg.Report.QuarantinePrefix, logger)

	reconciler := reconcile.New(normalize.New(store), store, logger, reconcile.Options{
		Workers:       cfg.Workers,
		Recovery:      recoveryCfg,
		CircuitStates: store,
		Quarantiner:   mover,
	})

	return &Service{
		store:      store,
		reconciler: reconciler,
		api:        api,
		report:     report,
		logger:     logger,
	}
}

// RunBatch executes one reconciliation batch against both sources.
func (s *Service) RunBatch(ctx context.Context) (*reconcile.Batch, error) {
	return s.reconciler.Run(ctx, s.api, s.report)
}

// GetBatch returns one batch by ID, or nil when unknown.
func (s *Service) GetBatch(ctx context.Context, id string) (*models.ReconcileBatch, error) {
	return s.store.GetBatch(ctx, id)
}

// ListBatches returns recent batches, newest first.
func (s *Service) ListBatches(ctx context.Context, limit int) ([]models.ReconcileBatch, error) {
	return s.store.ListBatches(ctx, limit)
}

// ListOutcomes returns authoritative stock rows matching the query.
func (s *Service) ListOutcomes(ctx context.Context, q ledger.OutcomeQuery) ([]models.StockOutcome, error) {
	return s.store.ListOutcomes(ctx, q)
}

// CircuitStates returns the persisted circuit state of every source.
func (s *Service) CircuitStates(ctx context.Context) ([]models.SourceCircuitState, error) {
	return s.store.CircuitStates(ctx)
}
