package stock

import (
	"stocksync/core/recovery"
	"stocksync/core/storage"
	"stocksync/feature/stock/ledger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new stock reconciliation feature.
func NewFeature(store ledger.Store, client storage.Client, bucket string, cfg Config, recoveryCfg recovery.Config, logger *zap.Logger) *Feature {
	svc := NewService(store, client, bucket, cfg, recoveryCfg, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "stock"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the underlying service, e.g. for the CLI run command.
func (f *Feature) Service() *Service {
	return f.service
}
