package stock_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"stocksync/core/reconcile"
	"stocksync/core/recovery"
	"stocksync/core/storage/mocks"
	"stocksync/feature/stock"
	"stocksync/feature/stock/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, store ledger.Store) *fiber.App {
	t.Helper()

	svc := stock.NewService(store, &mocks.Client{}, "stock-reports", stock.Config{
		API:    stock.APIConfig{BaseURL: "http://localhost:0", PageSize: 100},
		Report: stock.ReportConfig{Prefix: "reports/", QuarantinePrefix: "quarantine/"},
	}, recovery.Config{}, nil)

	app := fiber.New()
	stock.NewHandler(svc).RegisterRoutes(app)
	return app
}

func seedStore(t *testing.T) *ledger.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := ledger.NewMemoryStore()

	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(time.Minute)
	require.NoError(t, store.CreateBatch(ctx, reconcile.Batch{
		ID: "batch-1", StartedAt: started, Status: reconcile.BatchRunning,
	}))
	require.NoError(t, store.UpdateBatch(ctx, reconcile.Batch{
		ID: "batch-1", StartedAt: started, CompletedAt: &completed,
		Status:   reconcile.BatchSuccess,
		Counters: reconcile.BatchCounters{Processed: 2, Inserted: 2},
	}))

	chosen := reconcile.RawFact{Source: reconcile.SourceAPI, Available: 100, ObservedAt: started}
	discrepancy := 6.0
	alt := chosen
	alt.Source = reconcile.SourceReport
	alt.Available = 94
	_, err := store.WriteOutcome(ctx, "batch-1",
		reconcile.Identity{Warehouse: "MAIN_WH", SKU: "SKU-1"},
		reconcile.Outcome{
			Status:             reconcile.StatusWarning,
			QualityScore:       85,
			DiscrepancyPercent: &discrepancy,
			ChosenFact:         &chosen,
			AlternateFact:      &alt,
		})
	require.NoError(t, err)
	_, err = store.WriteOutcome(ctx, "batch-1",
		reconcile.Identity{Warehouse: "EAST_DC", SKU: "SKU-2"},
		reconcile.Outcome{Status: reconcile.StatusAPIOnly, QualityScore: 100, ChosenFact: &chosen})
	require.NoError(t, err)

	require.NoError(t, store.SaveState(ctx, "api", recovery.State{
		State: recovery.StateOpen, ConsecutiveFailures: 5, OpenedAt: started,
	}))
	return store
}

func TestHandler_ListBatches(t *testing.T) {
	app := newTestApp(t, seedStore(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/stock/batches", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Batches []struct {
			ID        string `json:"id"`
			Status    string `json:"status"`
			Processed int    `json:"processed"`
		} `json:"batches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Batches, 1)
	assert.Equal(t, "batch-1", body.Batches[0].ID)
	assert.Equal(t, "success", body.Batches[0].Status)
	assert.Equal(t, 2, body.Batches[0].Processed)
}

func TestHandler_GetBatch(t *testing.T) {
	app := newTestApp(t, seedStore(t))

	t.Run("Found", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/stock/batches/batch-1", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("Missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/stock/batches/ghost", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestHandler_ListOutcomes(t *testing.T) {
	app := newTestApp(t, seedStore(t))

	t.Run("All", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/stock/outcomes", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			Outcomes []struct {
				Warehouse    string `json:"warehouse"`
				SKU          string `json:"sku"`
				Status       string `json:"status"`
				QualityScore int    `json:"quality_score"`
			} `json:"outcomes"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(t, body.Outcomes, 2)
	})

	t.Run("FilteredByStatus", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/stock/outcomes?status=warning", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			Outcomes []struct {
				SKU    string `json:"sku"`
				Status string `json:"status"`
			} `json:"outcomes"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Outcomes, 1)
		assert.Equal(t, "SKU-1", body.Outcomes[0].SKU)
	})
}

func TestHandler_CircuitStates(t *testing.T) {
	app := newTestApp(t, seedStore(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/stock/circuits", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Circuits []struct {
			Source              string `json:"source"`
			State               string `json:"state"`
			ConsecutiveFailures int    `json:"consecutive_failures"`
		} `json:"circuits"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Circuits, 1)
	assert.Equal(t, "api", body.Circuits[0].Source)
	assert.Equal(t, "open", body.Circuits[0].State)
	assert.Equal(t, 5, body.Circuits[0].ConsecutiveFailures)
}
