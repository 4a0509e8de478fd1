// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for the
// operations the report pipeline needs: reading UI-exported stock report
// files, listing a report prefix to find the newest export, and moving a
// malformed file into the quarantine prefix. This abstraction supports both
// AWS S3 and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it
// easier to mock storage interactions for unit testing (as seen in
// core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the target bucket.
//   - MakeBucket: Creates a new bucket if needed.
//   - PutObject: Uploads content (with size and options).
//   - GetObject: Retrieves content as a stream.
//   - ListObjects: Lists objects in a bucket (supports prefix/recursive).
//   - CopyObject / RemoveObject: Move a file, e.g. into quarantine.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	obj, err := client.GetObject(ctx, "stock-reports", "reports/latest.xlsx", minio.GetObjectOptions{})
package storage
