package reconcile_test

import (
	"testing"
	"time"

	"stocksync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fact(source reconcile.Source, warehouse, sku string, available int) *reconcile.Fact {
	return &reconcile.Fact{
		Identity: reconcile.Identity{Warehouse: warehouse, SKU: sku},
		RawFact: reconcile.RawFact{
			Source:           source,
			RawWarehouseName: warehouse,
			RawSKU:           sku,
			Available:        available,
			ObservedAt:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestCompare(t *testing.T) {
	t.Run("NoData", func(t *testing.T) {
		out, err := reconcile.Compare(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, reconcile.StatusNoData, out.Status)
		assert.Equal(t, 0, out.QualityScore)
		assert.Nil(t, out.ChosenFact)
	})

	t.Run("APIOnly", func(t *testing.T) {
		api := fact(reconcile.SourceAPI, "MAIN_WH", "SKU-1", 42)

		out, err := reconcile.Compare(api, nil)
		require.NoError(t, err)
		assert.Equal(t, reconcile.StatusAPIOnly, out.Status)
		assert.Equal(t, 100, out.QualityScore)
		require.NotNil(t, out.ChosenFact)
		assert.Equal(t, 42, out.ChosenFact.Available)
		assert.Nil(t, out.DiscrepancyPercent)
	})

	t.Run("UIOnly", func(t *testing.T) {
		report := fact(reconcile.SourceReport, "MAIN_WH", "SKU-1", 17)

		out, err := reconcile.Compare(nil, report)
		require.NoError(t, err)
		assert.Equal(t, reconcile.StatusUIOnly, out.Status)
		assert.Equal(t, 80, out.QualityScore)
		require.NotNil(t, out.ChosenFact)
		assert.Equal(t, reconcile.SourceReport, out.ChosenFact.Source)
	})

	t.Run("ExactMatchValidated", func(t *testing.T) {
		api := fact(reconcile.SourceAPI, "MAIN_WH", "SKU-1", 100)
		report := fact(reconcile.SourceReport, "MAIN_WH", "SKU-1", 100)

		out, err := reconcile.Compare(api, report)
		require.NoError(t, err)
		assert.Equal(t, reconcile.StatusValidated, out.Status)
		assert.Equal(t, 100, out.QualityScore)
		require.NotNil(t, out.DiscrepancyPercent)
		assert.Equal(t, 0.0, *out.DiscrepancyPercent)
		assert.Nil(t, out.AlternateFact)
	})

	t.Run("WarningThresholdBoundaryIsValidated", func(t *testing.T) {
		// Exactly 5% stays within agreement.
		api := fact(reconcile.SourceAPI, "MAIN_WH", "SKU-1", 100)
		report := fact(reconcile.SourceReport, "MAIN_WH", "SKU-1", 95)

		out, err := reconcile.Compare(api, report)
		require.NoError(t, err)
		assert.Equal(t, reconcile.StatusValidated, out.Status)
		assert.Equal(t, 5.0, *out.DiscrepancyPercent)
	})

	t.Run("DriftAboveWarningThreshold", func(t *testing.T) {
		api := fact(reconcile.SourceAPI, "MAIN_WH", "SKU-1", 100)
		report := fact(reconcile.SourceReport, "MAIN_WH", "SKU-1", 94)

		out, err := reconcile.Compare(api, report)
		require.NoError(t, err)
		assert.Equal(t, reconcile.StatusWarning, out.Status)
		assert.Equal(t, 85, out.QualityScore)
		assert.Equal(t, 6.0, *out.DiscrepancyPercent)
		// The API fact still wins; the report fact is kept for audit.
		assert.Equal(t, reconcile.SourceAPI, out.ChosenFact.Source)
		require.NotNil(t, out.AlternateFact)
		assert.Equal(t, 94, out.AlternateFact.Available)
	})

	t.Run("ConflictThresholdBoundaryIsWarning", func(t *testing.T) {
		api := fact(reconcile.SourceAPI, "MAIN_WH", "SKU-1", 100)
		report := fact(reconcile.SourceReport, "MAIN_WH", "SKU-1", 85)

		out, err := reconcile.Compare(api, report)
		require.NoError(t, err)
		assert.Equal(t, reconcile.StatusWarning, out.Status)
		assert.Equal(t, 15.0, *out.DiscrepancyPercent)
	})

	t.Run("ConflictBeyondThreshold", func(t *testing.T) {
		api := fact(reconcile.SourceAPI, "MAIN_WH", "SKU-1", 100)
		report := fact(reconcile.SourceReport, "MAIN_WH", "SKU-1", 84)

		out, err := reconcile.Compare(api, report)
		require.NoError(t, err)
		assert.Equal(t, reconcile.StatusConflict, out.Status)
		assert.Equal(t, 60, out.QualityScore)
		assert.Equal(t, 16.0, *out.DiscrepancyPercent)
		assert.Equal(t, reconcile.SourceAPI, out.ChosenFact.Source)
	})

	t.Run("ZeroAPIQuantityDoesNotDivideByZero", func(t *testing.T) {
		api := fact(reconcile.SourceAPI, "MAIN_WH", "SKU-1", 0)
		report := fact(reconcile.SourceReport, "MAIN_WH", "SKU-1", 5)

		out, err := reconcile.Compare(api, report)
		require.NoError(t, err)
		assert.Equal(t, reconcile.StatusConflict, out.Status)
		assert.Equal(t, 500.0, *out.DiscrepancyPercent)
	})

	t.Run("IdentityMismatchIsError", func(t *testing.T) {
		api := fact(reconcile.SourceAPI, "MAIN_WH", "SKU-1", 10)
		report := fact(reconcile.SourceReport, "MAIN_WH", "SKU-2", 10)

		_, err := reconcile.Compare(api, report)
		assert.Error(t, err)
	})
}
