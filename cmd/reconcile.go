package cmd

import (
	"context"
	"fmt"

	"stocksync/core/config"
	"stocksync/core/database"
	"stocksync/core/logger"
	"stocksync/core/storage"
	"stocksync/feature/stock"
	"stocksync/feature/stock/ledger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// reconcileCmd is the parent command for all reconcile operations.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run inventory reconciliation without the HTTP server",
}

// runReconcileCmd executes a single reconciliation batch and exits.
var runReconcileCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reconciliation batch",
	Long: `Runs one batch end to end: extract stock from the marketplace API and the
latest uploaded report, normalize identities, compare, and persist one
authoritative row per warehouse and SKU.

Examples:
  # Run one batch with the configured sources
  stocksync reconcile run`,
	RunE: runReconcileBatch,
}

func init() {
	reconcileCmd.AddCommand(runReconcileCmd)
	RootCmd.AddCommand(reconcileCmd)
}

func runReconcileBatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	l.Info("Starting reconciliation batch")

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	store := ledger.NewGormStore(db)
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}

	// Connect to storage
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	svc := stock.NewService(store, client, cfg.Storage.Bucket, cfg.Stock, cfg.Recovery, l)

	batch, err := svc.RunBatch(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation batch failed: %w", err)
	}

	l.Info("Reconciliation batch finished",
		zap.String("batch_id", batch.ID),
		zap.String("status", string(batch.Status)),
		zap.Int("processed", batch.Counters.Processed),
		zap.Int("inserted", batch.Counters.Inserted),
		zap.Int("updated", batch.Counters.Updated),
		zap.Int("failed", batch.Counters.Failed),
		zap.Int("retries", batch.Counters.RetryCount),
		zap.Strings("failed_sources", batch.FailedSources),
	)
	return nil
}
