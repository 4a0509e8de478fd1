package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stocksync/core/normalize"
	"stocksync/core/recovery"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options bundles the collaborators and tuning knobs of a Reconciler.
type Options struct {
	// Workers bounds the comparison/persistence pool. Default 8.
	Workers int

	// Recovery is the retry/circuit policy applied to every adapter call.
	Recovery recovery.Config

	// CircuitStates persists circuit breaker state across batches.
	CircuitStates recovery.StateStore

	// Quarantiner moves malformed report inputs aside; may be nil.
	Quarantiner recovery.Quarantiner

	// Clock is injected for tests; nil means the system clock.
	Clock recovery.Clock
}

// Reconciler drives one end-to-end reconciliation batch at a time per source
// pair: extract, normalize, compare, persist, classify.
type Reconciler struct {
	normalizer *normalize.Normalizer
	ledger     Ledger
	logger     *zap.Logger
	opts       Options
	guard      *runGuard

	// newID and now are injectable for deterministic tests.
	newID func() string
	now   func() time.Time
}

// New creates a Reconciler.
func New(normalizer *normalize.Normalizer, ledger Ledger, logger *zap.Logger, opts Options) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.Clock == nil {
		opts.Clock = recovery.RealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		normalizer: normalizer,
		ledger:     ledger,
		logger:     logger,
		opts:       opts,
		guard:      newRunGuard(),
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Run executes one batch against the two source adapters. It returns the
// finished batch together with a non-nil error only when the batch could not
// produce any authoritative data (both sources down, invariant violation,
// cancellation). Single-source degradation finishes as a partial batch with
// a nil error.
func (r *Reconciler) Run(ctx context.Context, api, report SourceAdapter) (*Batch, error) {
	key := guardKey(api.Source(), report.Source())
	if !r.guard.acquire(key) {
		return nil, ErrBatchInProgress
	}
	defer r.guard.release(key)

	batch := &Batch{ID: r.newID(), StartedAt: r.now(), Status: BatchRunning}
	if err := r.ledger.CreateBatch(ctx, *batch); err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	l := r.logger.With(zap.String("batch_id", batch.ID))
	ctl := recovery.NewController(r.recoveryConfigFor(batch), r.opts.CircuitStates, r.opts.Clock, r.opts.Quarantiner, l)

	if err := r.checkpoint(ctx, batch, PhaseExtractingAPI, l); err != nil {
		return batch, err
	}
	apiFacts, apiErr := r.extract(ctx, ctl, api, l)

	if err := r.checkpoint(ctx, batch, PhaseExtractingReport, l); err != nil {
		return batch, err
	}
	reportFacts, reportErr := r.extract(ctx, ctl, report, l)

	if apiErr != nil {
		batch.FailedSources = append(batch.FailedSources, string(api.Source()))
	}
	if reportErr != nil {
		batch.FailedSources = append(batch.FailedSources, string(report.Source()))
	}
	if apiErr != nil && reportErr != nil {
		r.finalize(ctx, batch, BatchFailed, l)
		return batch, fmt.Errorf("all sources failed: api: %v; report: %v", apiErr, reportErr)
	}

	apiSet := r.normalizeSet(ctx, apiFacts, batch, l)
	reportSet := r.normalizeSet(ctx, reportFacts, batch, l)

	if err := r.checkpoint(ctx, batch, PhaseComparing, l); err != nil {
		return batch, err
	}
	outcomes, err := r.compareAll(apiSet, reportSet, batch)
	if err != nil {
		r.finalize(ctx, batch, BatchFailed, l)
		return batch, err
	}

	if err := r.checkpoint(ctx, batch, PhasePersisting, l); err != nil {
		return batch, err
	}
	r.persistAll(ctx, batch, outcomes, l)

	status := BatchSuccess
	if apiErr != nil || reportErr != nil {
		status = BatchPartial
	}
	r.finalize(ctx, batch, status, l)
	return batch, nil
}

// checkpoint is a cooperative cancellation point between state transitions.
func (r *Reconciler) checkpoint(ctx context.Context, batch *Batch, phase Phase, l *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		l.Warn("batch cancelled", zap.String("phase", string(phase)))
		r.finalize(ctx, batch, BatchFailed, l)
		return err
	}
	l.Debug("entering phase", zap.String("phase", string(phase)))
	return nil
}

// extract pulls all facts from one source through the recovery controller.
func (r *Reconciler) extract(ctx context.Context, ctl *recovery.Controller, adapter SourceAdapter, l *zap.Logger) ([]RawFact, error) {
	source := string(adapter.Source())
	facts, err := recovery.ExecuteVal(ctx, ctl, source, adapter.FetchStock)
	if err != nil {
		l.Warn("source extraction failed, degrading to remaining source",
			zap.String("source", source),
			zap.Error(err),
		)
		return nil, err
	}
	l.Info("source extraction complete",
		zap.String("source", source),
		zap.Int("facts", len(facts)),
	)
	return facts, nil
}

// normalizeSet canonicalizes a fact list into an identity-keyed set. Facts
// with invalid identifiers fail individually; when one source reports the
// same identity twice, the newer observation wins.
func (r *Reconciler) normalizeSet(ctx context.Context, facts []RawFact, batch *Batch, l *zap.Logger) map[Identity]*Fact {
	set := make(map[Identity]*Fact, len(facts))
	for i := range facts {
		f := facts[i]
		warehouse, err := r.normalizer.NormalizeWarehouse(ctx, f.RawWarehouseName, string(f.Source))
		if err != nil {
			batch.Counters.Failed++
			l.Warn("skipping fact: unusable warehouse name",
				zap.String("raw_warehouse", f.RawWarehouseName),
				zap.Error(err),
			)
			continue
		}
		sku, err := r.normalizer.NormalizeSKU(f.RawSKU)
		if err != nil {
			batch.Counters.Failed++
			l.Warn("skipping fact: unusable sku",
				zap.String("raw_sku", f.RawSKU),
				zap.Error(err),
			)
			continue
		}

		id := Identity{Warehouse: warehouse, SKU: sku}
		if existing, ok := set[id]; ok && existing.ObservedAt.After(f.ObservedAt) {
			continue
		}
		set[id] = &Fact{Identity: id, RawFact: f}
	}
	return set
}

type identityOutcome struct {
	id      Identity
	outcome Outcome
}

// compareAll builds the identity union across both sets and compares each
// pair on the worker pool. Identities with no data are skipped. A comparator
// error is an invariant violation and fatal to the batch.
func (r *Reconciler) compareAll(apiSet, reportSet map[Identity]*Fact, batch *Batch) ([]identityOutcome, error) {
	union := make(map[Identity]struct{}, len(apiSet)+len(reportSet))
	for id := range apiSet {
		union[id] = struct{}{}
	}
	for id := range reportSet {
		union[id] = struct{}{}
	}

	ids := make([]Identity, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	batch.Counters.Processed = len(ids)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		sem      = make(chan struct{}, r.opts.Workers)
		outcomes = make([]identityOutcome, 0, len(ids))
		fatal    error
	)
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id Identity) {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := Compare(apiSet[id], reportSet[id])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if fatal == nil {
					fatal = fmt.Errorf("comparator invariant violation for %s: %w", id, err)
				}
				return
			}
			if out.Status == StatusNoData {
				return
			}
			outcomes = append(outcomes, identityOutcome{id: id, outcome: out})
		}(id)
	}
	wg.Wait()

	if fatal != nil {
		return nil, fatal
	}
	return outcomes, nil
}

// persistAll writes every outcome to the ledger on the worker pool. A failed
// write counts the identity as failed and moves on; one bad row must not
// block the rest.
func (r *Reconciler) persistAll(ctx context.Context, batch *Batch, outcomes []identityOutcome, l *zap.Logger) {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.opts.Workers)
	)
	for _, io := range outcomes {
		wg.Add(1)
		sem <- struct{}{}
		go func(io identityOutcome) {
			defer wg.Done()
			defer func() { <-sem }()

			created, err := r.ledger.WriteOutcome(ctx, batch.ID, io.id, io.outcome)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Counters.Failed++
				l.Error("failed to persist outcome",
					zap.String("identity", io.id.String()),
					zap.Error(err),
				)
				return
			}
			if created {
				batch.Counters.Inserted++
			} else {
				batch.Counters.Updated++
			}
		}(io)
	}
	wg.Wait()
}

// finalize writes the terminal batch record. A terminal batch is never
// re-entered; the write survives cancellation of the batch context.
func (r *Reconciler) finalize(ctx context.Context, batch *Batch, status BatchStatus, l *zap.Logger) {
	if batch.CompletedAt != nil {
		return
	}
	completed := r.now()
	batch.CompletedAt = &completed
	batch.Status = status

	if err := r.ledger.UpdateBatch(context.WithoutCancel(ctx), *batch); err != nil {
		l.Error("failed to write terminal batch state", zap.Error(err))
	}
	l.Info("batch finished",
		zap.String("status", string(status)),
		zap.Int("processed", batch.Counters.Processed),
		zap.Int("inserted", batch.Counters.Inserted),
		zap.Int("updated", batch.Counters.Updated),
		zap.Int("failed", batch.Counters.Failed),
		zap.Int("retries", batch.Counters.RetryCount),
		zap.Strings("failed_sources", batch.FailedSources),
	)
}

// recoveryConfigFor charges retries against the running batch.
func (r *Reconciler) recoveryConfigFor(batch *Batch) recovery.Config {
	cfg := r.opts.Recovery
	prev := cfg.OnRetry
	cfg.OnRetry = func(source string, attempt int, err error) {
		batch.Counters.RetryCount++
		if prev != nil {
			prev(source, attempt, err)
		}
	}
	return cfg
}
