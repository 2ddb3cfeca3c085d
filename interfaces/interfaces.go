// Package interfaces defines core abstractions for the rxprice API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"errors"

	"github.com/rxpricedb/rxprice-api/entities"
)

// ErrNotFound is returned by point lookups when no record carries the
// requested rxcui. It is a valid empty result, not a store failure.
var ErrNotFound = errors.New("record not found")

// Cursor is an opaque resume token issued by a document store page fetch.
// It has no semantics beyond being passed back to resume the ordering
// after the last record of the page that produced it. Callers must not
// inspect, compare or serialize it.
type Cursor any

// Page is one page of records from a cursor-paginated query.
type Page struct {
	// Records are ordered by rxcui ascending.
	Records []entities.Medication

	// Cursor resumes after the last record. Nil when the page is empty.
	Cursor Cursor

	// HasMore is true iff the page filled the requested limit. A dataset
	// whose size is an exact multiple of the limit reports one spurious
	// final page; the empty page is discovered on the next fetch.
	HasMore bool
}

// DocumentStore defines the contract for the underlying document
// database. It exposes exactly the primitives the query adapter
// consumes: an ordered cursor-paginated query, a server-side count
// aggregate, and an exact-match point lookup. No write operations.
type DocumentStore interface {
	// Count returns the total record count of the collection.
	Count(ctx context.Context) (int64, error)

	// FetchPage returns up to limit records ordered by rxcui ascending,
	// resuming after the given cursor. A nil cursor starts from the
	// beginning of the ordering.
	FetchPage(ctx context.Context, limit int, after Cursor) (Page, error)

	// GetByRxcui returns the record with the given rxcui, or ErrNotFound.
	GetByRxcui(ctx context.Context, rxcui string) (*entities.Medication, error)

	// Close releases the store session.
	Close() error
}

// PageFetcher defines the page-oriented view of the store consumed by
// the viewer controller. Implemented by query.Paginator.
type PageFetcher interface {
	// Count returns the total record count, or a negative sentinel when
	// the aggregate is unavailable. Never fails.
	Count(ctx context.Context) int64

	// FetchPage fetches one page of pageSize records after the cursor.
	FetchPage(ctx context.Context, pageSize int, after Cursor) (Page, error)

	// FetchAll drains every page sequentially. onProgress, if non-nil,
	// is invoked after each page with the loaded count and the total
	// (negative when unknown).
	FetchAll(ctx context.Context, onProgress func(loaded int, total int64)) ([]entities.Medication, error)

	// FetchByRxcui performs a point lookup, returning ErrNotFound when
	// no record matches.
	FetchByRxcui(ctx context.Context, rxcui string) (*entities.Medication, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated viewer refreshes and staleness checks.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status along with
	// data-related details and the HTTP status to serve.
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// DataValidator defines the contract for user input validation.
type DataValidator interface {
	// ValidateSearchText validates free-text search input.
	ValidateSearchText(input string) error

	// ValidateRxcui validates an rxcui path parameter, which may carry
	// the reserved unmatched prefix.
	ValidateRxcui(input string) (string, error)

	// ValidatePageNumber parses and validates a page number parameter.
	ValidatePageNumber(input string) (int, error)
}
