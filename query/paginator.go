// Package query wraps the document store's cursor-based query primitive
// into page-oriented fetches. The store only supports "fetch up to limit
// records after cursor C"; this adapter exposes page semantics on top of
// it and reports whether more pages exist.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rxpricedb/rxprice-api/entities"
	"github.com/rxpricedb/rxprice-api/interfaces"
	"github.com/rxpricedb/rxprice-api/logging"
	"github.com/rxpricedb/rxprice-api/metrics"
)

// Compile-time check to ensure Paginator implements PageFetcher
var _ interfaces.PageFetcher = (*Paginator)(nil)

// CountUnknown is returned by Count when the server-side aggregate is
// unavailable. Callers must not block on a known total.
const CountUnknown int64 = -1

// DefaultPageSize bounds one store round-trip during bulk loads.
const DefaultPageSize = 100

// FetchError is a typed store fetch failure. Count failures never produce
// one; they degrade to CountUnknown instead.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Paginator adapts a DocumentStore to page-oriented fetches.
type Paginator struct {
	store    interfaces.DocumentStore
	pageSize int
}

// NewPaginator creates a paginator over the given store. pageSize bounds
// each round-trip of FetchAll; values below 1 fall back to the default.
func NewPaginator(store interfaces.DocumentStore, pageSize int) *Paginator {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Paginator{store: store, pageSize: pageSize}
}

// Count returns the total record count, or CountUnknown when the
// aggregate fails. A count failure never propagates: the paged views
// keep working with an unknown total.
func (p *Paginator) Count(ctx context.Context) int64 {
	start := time.Now()
	total, err := p.store.Count(ctx)
	metrics.ObserveStore("count", start, err)
	if err != nil {
		logging.Warn("Record count unavailable, degrading to unknown total", "error", err)
		return CountUnknown
	}
	return total
}

// FetchPage fetches one page of up to pageSize records after the cursor.
// Ordering is by rxcui ascending and fixed for the session. HasMore is
// true iff the page filled the limit; a dataset size that is an exact
// multiple of pageSize therefore reports one spurious trailing page.
func (p *Paginator) FetchPage(ctx context.Context, pageSize int, after interfaces.Cursor) (interfaces.Page, error) {
	if pageSize < 1 {
		pageSize = p.pageSize
	}

	start := time.Now()
	page, err := p.store.FetchPage(ctx, pageSize, after)
	metrics.ObserveStore("fetch_page", start, err)
	if err != nil {
		return interfaces.Page{}, &FetchError{Op: "fetch_page", Err: err}
	}

	return page, nil
}

// FetchAll drains every page sequentially until HasMore is false,
// concatenating results. This is the bulk-load escape hatch: O(N) store
// round-trips, intended only for small-to-medium totals. onProgress, if
// non-nil, runs after each page with the loaded count and the total
// (CountUnknown when the aggregate failed).
func (p *Paginator) FetchAll(ctx context.Context, onProgress func(loaded int, total int64)) ([]entities.Medication, error) {
	total := p.Count(ctx)

	var all []entities.Medication
	var cursor interfaces.Cursor

	for {
		page, err := p.FetchPage(ctx, p.pageSize, cursor)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Records...)
		if onProgress != nil {
			onProgress(len(all), total)
		}

		if !page.HasMore {
			break
		}
		cursor = page.Cursor
	}

	logging.Debug("Bulk load complete", "record_count", len(all))
	return all, nil
}

// FetchByRxcui performs a point lookup. A missing record returns
// interfaces.ErrNotFound, which is a valid empty result rather than a
// fetch failure.
func (p *Paginator) FetchByRxcui(ctx context.Context, rxcui string) (*entities.Medication, error) {
	start := time.Now()
	med, err := p.store.GetByRxcui(ctx, rxcui)
	if errors.Is(err, interfaces.ErrNotFound) {
		metrics.ObserveStore("get_by_rxcui", start, nil)
		return nil, interfaces.ErrNotFound
	}
	metrics.ObserveStore("get_by_rxcui", start, err)
	if err != nil {
		return nil, &FetchError{Op: "get_by_rxcui", Err: err}
	}
	return med, nil
}
