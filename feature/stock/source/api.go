package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"stocksync/core/reconcile"
	"stocksync/core/recovery"
)

// apiStockItem is one row of the marketplace stock endpoint response.
type apiStockItem struct {
	WarehouseName string `json:"warehouse_name"`
	SKU           string `json:"sku"`
	Available     int    `json:"available"`
	Reserved      int    `json:"reserved"`
}

type apiStockPage struct {
	Items []apiStockItem `json:"items"`
	Total int            `json:"total"`
}

// APISource fetches stock facts from the marketplace stock API, page by page.
type APISource struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	pageSize int

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewAPISource creates the marketplace API adapter. A nil client falls back
// to http.DefaultClient; the recovery controller supplies the per-call
// timeout through the context.
func NewAPISource(client *http.Client, baseURL, apiKey string, pageSize int) *APISource {
	if client == nil {
		client = http.DefaultClient
	}
	if pageSize <= 0 {
		pageSize = 500
	}
	return &APISource{
		client:   client,
		baseURL:  baseURL,
		apiKey:   apiKey,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Source identifies this adapter.
func (s *APISource) Source() reconcile.Source {
	return reconcile.SourceAPI
}

// FetchStock pulls every stock row the API currently reports. The whole
// pagination sequence is one call from the recovery controller's point of
// view: any page failing fails the fetch, and a retry restarts from offset 0
// so a partially fetched set is never reported.
func (s *APISource) FetchStock(ctx context.Context) ([]reconcile.RawFact, error) {
	observedAt := s.now()
	var facts []reconcile.RawFact

	for offset := 0; ; offset += s.pageSize {
		page, err := s.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			facts = append(facts, reconcile.RawFact{
				Source:           reconcile.SourceAPI,
				RawWarehouseName: item.WarehouseName,
				RawSKU:           item.SKU,
				Available:        item.Available,
				Reserved:         item.Reserved,
				ObservedAt:       observedAt,
			})
		}
		if len(page.Items) < s.pageSize {
			return facts, nil
		}
	}
}

func (s *APISource) fetchPage(ctx context.Context, offset int) (*apiStockPage, error) {
	url := fmt.Sprintf("%s/v1/stock?limit=%d&offset=%d", s.baseURL, s.pageSize, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stock request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &recovery.TransportError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &recovery.RateLimitError{
			Err:        fmt.Errorf("stock api throttled request for offset %d", offset),
			RetryAfter: retryAfterOf(resp),
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &recovery.TransportError{
			Err:        fmt.Errorf("stock api returned status %d for offset %d", resp.StatusCode, offset),
			StatusCode: resp.StatusCode,
		}
	case resp.StatusCode != http.StatusOK:
		// Client-side errors (bad key, bad request) won't heal on retry.
		return nil, fmt.Errorf("stock api rejected request with status %d", resp.StatusCode)
	}

	var page apiStockPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &recovery.ParseError{Input: url, Err: err}
	}
	return &page, nil
}

// retryAfterOf reads the Retry-After header in seconds, or 0.
func retryAfterOf(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
