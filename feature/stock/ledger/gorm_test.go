package ledger_test

import (
	"context"
	"testing"
	"time"

	"stocksync/core/reconcile"
	"stocksync/core/recovery"
	"stocksync/feature/stock/ledger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*ledger.GormStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return ledger.NewGormStore(gdb), mock
}

func TestGormStore_CreateBatch(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `reconcile_batches`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.CreateBatch(context.Background(), reconcile.Batch{
		ID:        "batch-1",
		StartedAt: time.Now(),
		Status:    reconcile.BatchRunning,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UpdateBatch(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `reconcile_batches`").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.UpdateBatch(context.Background(), reconcile.Batch{
			ID:     "batch-1",
			Status: reconcile.BatchSuccess,
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `reconcile_batches`").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := store.UpdateBatch(context.Background(), reconcile.Batch{ID: "ghost"})
		assert.Error(t, err)
	})
}

func TestGormStore_WriteOutcome(t *testing.T) {
	identity := reconcile.Identity{Warehouse: "MAIN_WH", SKU: "SKU-1"}
	chosen := reconcile.RawFact{Source: reconcile.SourceAPI, Available: 10, ObservedAt: time.Now()}
	outcome := reconcile.Outcome{
		Status:       reconcile.StatusAPIOnly,
		QualityScore: 100,
		ChosenFact:   &chosen,
	}

	t.Run("InsertsNewIdentity", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT \\* FROM `stock_outcomes`").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec("INSERT INTO `stock_outcomes`").
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectCommit()

		created, err := store.WriteOutcome(context.Background(), "batch-1", identity, outcome)

		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdatesExistingIdentity", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT \\* FROM `stock_outcomes`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "warehouse", "sku"}).
				AddRow(7, "MAIN_WH", "SKU-1"))
		mock.ExpectExec("UPDATE `stock_outcomes`").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		created, err := store.WriteOutcome(context.Background(), "batch-2", identity, outcome)

		require.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RejectsOutcomeWithoutChosenFact", func(t *testing.T) {
		store, _ := newMockStore(t)

		_, err := store.WriteOutcome(context.Background(), "batch-1", identity,
			reconcile.Outcome{Status: reconcile.StatusNoData})
		assert.Error(t, err)
	})
}

func TestGormStore_LookupRule(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT \\* FROM `normalization_rules`").
			WillReturnRows(sqlmock.NewRows([]string{"id", "original_name", "source_type", "normalized_name", "confidence"}).
				AddRow(1, "MAIN WAREHOUSE", "api", "MAIN_WH", 1.0))

		rule, err := store.LookupRule(context.Background(), "MAIN WAREHOUSE", "api")

		require.NoError(t, err)
		require.NotNil(t, rule)
		assert.Equal(t, "MAIN_WH", rule.NormalizedName)
		assert.Equal(t, 1.0, rule.Confidence)
	})

	t.Run("NotFoundIsNil", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT \\* FROM `normalization_rules`").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		rule, err := store.LookupRule(context.Background(), "UNKNOWN", "api")

		require.NoError(t, err)
		assert.Nil(t, rule)
	})
}

func TestGormStore_CircuitState(t *testing.T) {
	t.Run("UnknownSourceStartsClosed", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT \\* FROM `source_circuit_states`").
			WillReturnRows(sqlmock.NewRows([]string{"source"}))

		st, err := store.LoadState(context.Background(), "api")

		require.NoError(t, err)
		assert.Equal(t, recovery.StateClosed, st.State)
		assert.Equal(t, 0, st.ConsecutiveFailures)
	})

	t.Run("SaveStateUpserts", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `source_circuit_states`").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.SaveState(context.Background(), "api", recovery.State{
			State:               recovery.StateOpen,
			ConsecutiveFailures: 5,
			OpenedAt:            time.Now(),
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
