package reconcile

import "time"

// Source identifies which collaborator produced a raw stock fact.
type Source string

const (
	// SourceAPI is the live marketplace API.
	SourceAPI Source = "api"
	// SourceReport is the periodically uploaded UI-exported report.
	SourceReport Source = "report"
)

// RawFact is one source's report of stock for one warehouse/SKU at one point
// in time. Immutable once produced by an adapter.
type RawFact struct {
	Source           Source    `json:"source"`
	RawWarehouseName string    `json:"raw_warehouse_name"`
	RawSKU           string    `json:"raw_sku"`
	Available        int       `json:"available"`
	Reserved         int       `json:"reserved"`
	ObservedAt       time.Time `json:"observed_at"`
}

// Identity is the canonical (warehouse, SKU) key. Two facts with equal
// Identity describe the same inventory position regardless of source.
type Identity struct {
	Warehouse string `json:"warehouse"`
	SKU       string `json:"sku"`
}

func (id Identity) String() string {
	return id.Warehouse + "/" + id.SKU
}

// Fact is a raw fact bound to its canonical identity.
type Fact struct {
	Identity Identity
	RawFact
}

// Status classifies the comparison outcome for one identity.
type Status string

const (
	// StatusNoData means neither source reported; the identity is skipped.
	StatusNoData Status = "no_data"
	// StatusAPIOnly means only the API reported.
	StatusAPIOnly Status = "api_only"
	// StatusUIOnly means only the report reported.
	StatusUIOnly Status = "ui_only"
	// StatusValidated means both sources agree within the warning threshold.
	StatusValidated Status = "validated"
	// StatusWarning means the sources drift apart but below the conflict threshold.
	StatusWarning Status = "warning"
	// StatusConflict means the sources disagree beyond the conflict threshold;
	// flagged for manual review, the API fact still wins.
	StatusConflict Status = "conflict"
)

// Outcome is the comparison result for one identity in one batch.
type Outcome struct {
	Status Status `json:"status"`

	// DiscrepancyPercent is set only when both sources reported.
	DiscrepancyPercent *float64 `json:"discrepancy_percent,omitempty"`

	// QualityScore is the 0-100 confidence in the chosen fact.
	QualityScore int `json:"quality_score"`

	// ChosenFact is the fact selected as authoritative. Nil only for no_data.
	ChosenFact *RawFact `json:"chosen_fact,omitempty"`

	// AlternateFact is the losing fact, retained for audit on warning/conflict.
	AlternateFact *RawFact `json:"alternate_fact,omitempty"`
}

// BatchStatus is the terminal (or running) classification of one batch.
type BatchStatus string

const (
	BatchRunning BatchStatus = "running"
	BatchSuccess BatchStatus = "success"
	// BatchPartial means one source was unavailable and the batch degraded
	// to single-source mode.
	BatchPartial BatchStatus = "partial"
	BatchFailed  BatchStatus = "failed"
)

// BatchCounters aggregates per-identity results for one batch.
type BatchCounters struct {
	Processed  int `json:"processed"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Failed     int `json:"failed"`
	RetryCount int `json:"retry_count"`
}

// Batch is one reconciliation run. Mutated only by the reconciler (and, for
// the retry counter, the recovery controller); immutable once CompletedAt is set.
type Batch struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Status      BatchStatus   `json:"status"`
	Counters    BatchCounters `json:"counters"`

	// FailedSources records which sources were unavailable, so an operator
	// can decide whether to re-run.
	FailedSources []string `json:"failed_sources,omitempty"`
}

// Phase names the reconciler's position in the per-batch state machine.
// Cancellation is honored cooperatively between phase transitions.
type Phase string

const (
	PhaseCreated          Phase = "created"
	PhaseExtractingAPI    Phase = "extracting_api"
	PhaseExtractingReport Phase = "extracting_report"
	PhaseComparing        Phase = "comparing"
	PhasePersisting       Phase = "persisting"
)
