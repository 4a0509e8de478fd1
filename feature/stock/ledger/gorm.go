package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stocksync/core/normalize"
	"stocksync/core/reconcile"
	"stocksync/core/recovery"
	"stocksync/feature/stock/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the MySQL-backed Store implementation.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a live database connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the feature's tables.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.ReconcileBatch{},
		&models.StockOutcome{},
		&models.NormalizationRule{},
		&models.SourceCircuitState{},
	)
}

// CreateBatch inserts the initial running batch row.
func (s *GormStore) CreateBatch(ctx context.Context, batch reconcile.Batch) error {
	row := batchToRow(batch)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create batch row: %w", err)
	}
	return nil
}

// UpdateBatch overwrites the batch row, typically with its terminal state.
func (s *GormStore) UpdateBatch(ctx context.Context, batch reconcile.Batch) error {
	row := batchToRow(batch)
	res := s.db.WithContext(ctx).Model(&models.ReconcileBatch{}).
		Where("id = ?", row.ID).
		Select("*").Omit("id").
		Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("failed to update batch row: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("batch %s not found", row.ID)
	}
	return nil
}

// WriteOutcome upserts the authoritative stock row for one identity and
// reports whether a new row was created. The run guard keeps batches for one
// source pair serial, so a read-then-write transaction is sufficient here.
func (s *GormStore) WriteOutcome(ctx context.Context, batchID string, identity reconcile.Identity, outcome reconcile.Outcome) (bool, error) {
	row, err := outcomeToRow(batchID, identity, outcome)
	if err != nil {
		return false, err
	}

	created := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.StockOutcome
		err := tx.Where("warehouse = ? AND sku = ?", identity.Warehouse, identity.SKU).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}
		row.ID = existing.ID
		return tx.Model(&models.StockOutcome{}).
			Where("id = ?", existing.ID).
			Select("*").Omit("id").
			Updates(&row).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to write outcome for %s: %w", identity, err)
	}
	return created, nil
}

// LookupRule returns the persisted rule for a cleaned name, or nil when the
// name has not been seen yet.
func (s *GormStore) LookupRule(ctx context.Context, originalName, sourceType string) (*normalize.Rule, error) {
	var row models.NormalizationRule
	err := s.db.WithContext(ctx).
		Where("original_name = ? AND source_type = ?", originalName, sourceType).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up rule: %w", err)
	}
	return &normalize.Rule{
		OriginalName:   row.OriginalName,
		SourceType:     row.SourceType,
		NormalizedName: row.NormalizedName,
		Confidence:     row.Confidence,
	}, nil
}

// UpsertRule persists a derived rule. Concurrent derivation of the same rule
// resolves through the unique index: the first writer wins, later writers
// are no-ops.
func (s *GormStore) UpsertRule(ctx context.Context, rule normalize.Rule) error {
	row := models.NormalizationRule{
		OriginalName:   rule.OriginalName,
		SourceType:     rule.SourceType,
		NormalizedName: rule.NormalizedName,
		Confidence:     rule.Confidence,
		CreatedAt:      time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "original_name"}, {Name: "source_type"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert rule: %w", err)
	}
	return nil
}

// LoadState returns the persisted circuit state for a source; a source never
// seen before starts closed.
func (s *GormStore) LoadState(ctx context.Context, source string) (recovery.State, error) {
	var row models.SourceCircuitState
	err := s.db.WithContext(ctx).Where("source = ?", source).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return recovery.State{State: recovery.StateClosed}, nil
	}
	if err != nil {
		return recovery.State{}, fmt.Errorf("failed to load circuit state: %w", err)
	}
	return recovery.State{
		State:               row.State,
		ConsecutiveFailures: row.ConsecutiveFailures,
		OpenedAt:            row.OpenedAt,
	}, nil
}

// SaveState upserts the circuit state row for a source.
func (s *GormStore) SaveState(ctx context.Context, source string, state recovery.State) error {
	row := models.SourceCircuitState{
		Source:              source,
		State:               state.State,
		ConsecutiveFailures: state.ConsecutiveFailures,
		OpenedAt:            state.OpenedAt,
		UpdatedAt:           time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "consecutive_failures", "opened_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save circuit state: %w", err)
	}
	return nil
}

// GetBatch returns one batch by ID, or nil when it does not exist.
func (s *GormStore) GetBatch(ctx context.Context, id string) (*models.ReconcileBatch, error) {
	var row models.ReconcileBatch
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return &row, nil
}

// ListBatches returns the most recent batches, newest first.
func (s *GormStore) ListBatches(ctx context.Context, limit int) ([]models.ReconcileBatch, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.ReconcileBatch
	err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return rows, nil
}

// ListOutcomes returns authoritative stock rows matching the query.
func (s *GormStore) ListOutcomes(ctx context.Context, q OutcomeQuery) ([]models.StockOutcome, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	tx := s.db.WithContext(ctx).Order("warehouse, sku").Limit(limit)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Warehouse != "" {
		tx = tx.Where("warehouse = ?", q.Warehouse)
	}
	var rows []models.StockOutcome
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	return rows, nil
}

// CircuitStates returns the persisted circuit state of every known source.
func (s *GormStore) CircuitStates(ctx context.Context) ([]models.SourceCircuitState, error) {
	var rows []models.SourceCircuitState
	if err := s.db.WithContext(ctx).Order("source").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list circuit states: %w", err)
	}
	return rows, nil
}

func batchToRow(batch reconcile.Batch) models.ReconcileBatch {
	return models.ReconcileBatch{
		ID:            batch.ID,
		Status:        string(batch.Status),
		StartedAt:     batch.StartedAt,
		CompletedAt:   batch.CompletedAt,
		Processed:     batch.Counters.Processed,
		Inserted:      batch.Counters.Inserted,
		Updated:       batch.Counters.Updated,
		Failed:        batch.Counters.Failed,
		RetryCount:    batch.Counters.RetryCount,
		FailedSources: strings.Join(batch.FailedSources, ","),
	}
}

func outcomeToRow(batchID string, identity reconcile.Identity, outcome reconcile.Outcome) (models.StockOutcome, error) {
	chosen := outcome.ChosenFact
	if chosen == nil {
		return models.StockOutcome{}, fmt.Errorf("outcome for %s has no chosen fact", identity)
	}
	row := models.StockOutcome{
		Warehouse:          identity.Warehouse,
		SKU:                identity.SKU,
		BatchID:            batchID,
		Status:             string(outcome.Status),
		QualityScore:       outcome.QualityScore,
		DiscrepancyPercent: outcome.DiscrepancyPercent,
		ChosenSource:       string(chosen.Source),
		Available:          chosen.Available,
		Reserved:           chosen.Reserved,
		ObservedAt:         chosen.ObservedAt,
		UpdatedAt:          time.Now(),
	}
	if outcome.AlternateFact != nil {
		alt := outcome.AlternateFact.Available
		row.AlternateAvailable = &alt
	}
	return row, nil
}
