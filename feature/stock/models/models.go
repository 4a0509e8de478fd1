package models

import (
	"time"
)

// ReconcileBatch represents the 'reconcile_batches' table: one row per
// reconciliation run, terminal once CompletedAt is set.
type ReconcileBatch struct {
	ID            string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	Status        string     `gorm:"column:status;size:16;index" json:"status"`
	StartedAt     time.Time  `gorm:"column:started_at" json:"started_at"`
	CompletedAt   *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Processed     int        `gorm:"column:processed" json:"processed"`
	Inserted      int        `gorm:"column:inserted" json:"inserted"`
	Updated       int        `gorm:"column:updated" json:"updated"`
	Failed        int        `gorm:"column:failed" json:"failed"`
	RetryCount    int        `gorm:"column:retry_count" json:"retry_count"`
	FailedSources string     `gorm:"column:failed_sources;size:64" json:"failed_sources,omitempty"`
}

// TableName overrides the table name.
func (ReconcileBatch) TableName() string {
	return "reconcile_batches"
}

// StockOutcome represents the 'stock_outcomes' table: the authoritative
// stock row per (warehouse, sku) identity, refreshed by each batch that
// observes the identity.
type StockOutcome struct {
	ID                 uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Warehouse          string    `gorm:"column:warehouse;size:128;uniqueIndex:idx_identity" json:"warehouse"`
	SKU                string    `gorm:"column:sku;size:128;uniqueIndex:idx_identity" json:"sku"`
	BatchID            string    `gorm:"column:batch_id;size:36;index" json:"batch_id"`
	Status             string    `gorm:"column:status;size:16;index" json:"status"`
	QualityScore       int       `gorm:"column:quality_score" json:"quality_score"`
	DiscrepancyPercent *float64  `gorm:"column:discrepancy_percent" json:"discrepancy_percent,omitempty"`
	ChosenSource       string    `gorm:"column:chosen_source;size:16" json:"chosen_source"`
	Available          int       `gorm:"column:available" json:"available"`
	Reserved           int       `gorm:"column:reserved" json:"reserved"`
	AlternateAvailable *int      `gorm:"column:alternate_available" json:"alternate_available,omitempty"`
	ObservedAt         time.Time `gorm:"column:observed_at" json:"observed_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name.
func (StockOutcome) TableName() string {
	return "stock_outcomes"
}

// NormalizationRule represents the 'normalization_rules' table: the learned
// mapping from a raw source warehouse name to its canonical form. The
// composite unique index makes concurrent derivation an upsert, not an error.
type NormalizationRule struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	OriginalName   string    `gorm:"column:original_name;size:255;uniqueIndex:idx_rule" json:"original_name"`
	SourceType     string    `gorm:"column:source_type;size:16;uniqueIndex:idx_rule" json:"source_type"`
	NormalizedName string    `gorm:"column:normalized_name;size:128" json:"normalized_name"`
	Confidence     float64   `gorm:"column:confidence" json:"confidence"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the table name.
func (NormalizationRule) TableName() string {
	return "normalization_rules"
}

// SourceCircuitState represents the 'source_circuit_states' table: the
// circuit breaker state carried between batches, one row per source.
type SourceCircuitState struct {
	Source              string    `gorm:"column:source;primaryKey;size:16" json:"source"`
	State               string    `gorm:"column:state;size:16" json:"state"`
	ConsecutiveFailures int       `gorm:"column:consecutive_failures" json:"consecutive_failures"`
	OpenedAt            time.Time `gorm:"column:opened_at" json:"opened_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name.
func (SourceCircuitState) TableName() string {
	return "source_circuit_states"
}
