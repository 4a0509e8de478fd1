package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"stocksync/core/reconcile"
	"stocksync/core/recovery"
	"stocksync/core/storage"
	"stocksync/core/utils"

	"github.com/minio/minio-go/v7"
	"github.com/tealeg/xlsx/v2"
)

// reportColumns is the minimum column layout of a UI-exported stock report:
// warehouse name, SKU, available, reserved. Extra columns are ignored.
const reportColumns = 4

// ReportSource reads the newest UI-exported XLSX report from object storage.
type ReportSource struct {
	client storage.Client
	bucket string
	prefix string
}

// NewReportSource creates the report file adapter.
func NewReportSource(client storage.Client, bucket, prefix string) *ReportSource {
	return &ReportSource{client: client, bucket: bucket, prefix: prefix}
}

// Source identifies this adapter.
func (s *ReportSource) Source() reconcile.Source {
	return reconcile.SourceReport
}

// FetchStock locates the most recently uploaded report under the configured
// prefix and parses it. Storage failures are transport errors; a file that
// cannot be parsed is a ParseError carrying the object key, which the
// recovery controller quarantines instead of retrying.
func (s *ReportSource) FetchStock(ctx context.Context) ([]reconcile.RawFact, error) {
	objectName, uploadedAt, err := s.latestReport(ctx)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, &recovery.TransportError{Err: fmt.Errorf("failed to open report %s: %w", objectName, err)}
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, &recovery.TransportError{Err: fmt.Errorf("failed to read report %s: %w", objectName, err)}
	}

	facts, err := parseReport(data, objectName, uploadedAt)
	if err != nil {
		return nil, err
	}
	return facts, nil
}

// latestReport lists the report prefix and returns the newest object.
func (s *ReportSource) latestReport(ctx context.Context) (string, time.Time, error) {
	var (
		newest     string
		newestTime time.Time
	)
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return "", time.Time{}, &recovery.TransportError{Err: fmt.Errorf("failed to list reports: %w", info.Err)}
		}
		if !strings.HasSuffix(strings.ToLower(info.Key), ".xlsx") {
			continue
		}
		if newest == "" || info.LastModified.After(newestTime) {
			newest = info.Key
			newestTime = info.LastModified
		}
	}
	if newest == "" {
		// Nothing uploaded yet. Not a transport problem, so no retry: the
		// batch degrades to API-only and an operator uploads a report.
		return "", time.Time{}, fmt.Errorf("no report files found under %s/%s", s.bucket, s.prefix)
	}
	return newest, newestTime, nil
}

// parseReport extracts stock facts from the XLSX payload. The first sheet is
// the data sheet; the first row is a header and is skipped.
func parseReport(data []byte, objectName string, uploadedAt time.Time) ([]reconcile.RawFact, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, &recovery.ParseError{Input: objectName, Err: err}
	}
	if len(file.Sheets) == 0 {
		return nil, &recovery.ParseError{Input: objectName, Err: fmt.Errorf("workbook has no sheets")}
	}

	sheet := file.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, &recovery.ParseError{Input: objectName, Err: fmt.Errorf("sheet %q has no data rows", sheet.Name)}
	}

	facts := make([]reconcile.RawFact, 0, len(sheet.Rows)-1)
	for i, row := range sheet.Rows[1:] {
		if len(row.Cells) == 0 {
			continue // trailing blank rows are common in exports
		}
		if len(row.Cells) < reportColumns {
			return nil, &recovery.ParseError{
				Input: objectName,
				Err:   fmt.Errorf("row %d has %d cells, want at least %d", i+2, len(row.Cells), reportColumns),
			}
		}
		facts = append(facts, reconcile.RawFact{
			Source:           reconcile.SourceReport,
			RawWarehouseName: utils.ToString(row.Cells[0].Value),
			RawSKU:           utils.ToString(row.Cells[1].Value),
			Available:        utils.ToInt(row.Cells[2].Value),
			Reserved:         utils.ToInt(row.Cells[3].Value),
			ObservedAt:       uploadedAt,
		})
	}
	return facts, nil
}
