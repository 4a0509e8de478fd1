package source

import (
	"context"
	"fmt"
	"path"

	"stocksync/core/recovery"
	"stocksync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// QuarantineMover moves malformed report files into the quarantine prefix so
// the next batch does not trip over the same broken file.
type QuarantineMover struct {
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewQuarantineMover creates the mover used as the recovery controller's
// Quarantiner.
func NewQuarantineMover(client storage.Client, bucket, prefix string, logger *zap.Logger) *QuarantineMover {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuarantineMover{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Quarantine moves the offending object under the quarantine prefix via a
// server-side copy and delete. Parse errors from sources without a storage
// object (the API payload) only get logged; there is nothing to move.
func (m *QuarantineMover) Quarantine(ctx context.Context, source string, perr *recovery.ParseError) error {
	l := m.logger.With(
		zap.String("source", source),
		zap.String("input", perr.Input),
		zap.Error(perr.Err),
	)

	if source != "report" {
		l.Error("unparseable source payload, nothing to quarantine")
		return nil
	}

	dstKey := m.prefix + path.Base(perr.Input)
	_, err := m.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: m.bucket, Object: perr.Input},
	)
	if err != nil {
		return fmt.Errorf("failed to copy %s to quarantine: %w", perr.Input, err)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, perr.Input, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove quarantined original %s: %w", perr.Input, err)
	}

	l.Warn("report file quarantined", zap.String("quarantine_key", dstKey))
	return nil
}
