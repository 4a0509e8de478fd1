package reconcile

import "context"

// SourceAdapter yields the raw stock facts of one source. Implementations
// live outside the engine (marketplace HTTP client, report file reader) and
// are always invoked through the recovery controller.
//
// FetchStock returns a finite set of facts and is restartable: each call
// re-fetches from scratch, so a retried call never double-counts. Failures
// surface as the recovery package's error taxonomy (TransportError,
// RateLimitError, ParseError).
type SourceAdapter interface {
	// Source identifies the adapter ("api" or "report").
	Source() Source

	// FetchStock fetches all raw facts this source currently reports.
	FetchStock(ctx context.Context) ([]RawFact, error)
}
