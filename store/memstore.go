package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rxpricedb/rxprice-api/entities"
	"github.com/rxpricedb/rxprice-api/interfaces"
)

var errFetchCursor = errors.New("cursor was not issued by this store")

// Compile-time check to ensure MemStore implements DocumentStore
var _ interfaces.DocumentStore = (*MemStore)(nil)

// memCursor resumes after the given rxcui in the sorted ordering.
type memCursor struct {
	lastRxcui string
}

// MemStore is an in-memory document store used by tests and dev mode.
// Records are held sorted by rxcui ascending. The fault fields inject
// store failures; the call counters let tests assert how many round
// trips an operation issued.
type MemStore struct {
	mu      sync.RWMutex
	records []entities.Medication

	// Fault injection for tests.
	CountErr error
	PageErr  error

	// Round-trip counters.
	CountCalls atomic.Int64
	PageCalls  atomic.Int64
	GetCalls   atomic.Int64
}

// NewMemStore creates a store holding the given records, sorted by rxcui.
func NewMemStore(records []entities.Medication) *MemStore {
	sorted := make([]entities.Medication, len(records))
	copy(sorted, records)
	for i := range sorted {
		sorted[i].Normalize()
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Rxcui < sorted[j].Rxcui
	})
	return &MemStore{records: sorted}
}

// Count returns the total record count.
func (s *MemStore) Count(ctx context.Context) (int64, error) {
	s.CountCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.CountErr != nil {
		return 0, s.CountErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// FetchPage returns up to limit records after the cursor position.
func (s *MemStore) FetchPage(ctx context.Context, limit int, after interfaces.Cursor) (interfaces.Page, error) {
	s.PageCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return interfaces.Page{}, err
	}
	if s.PageErr != nil {
		return interfaces.Page{}, s.PageErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if after != nil {
		mc, ok := after.(*memCursor)
		if !ok {
			return interfaces.Page{}, errFetchCursor
		}
		// First index strictly past the cursor rxcui.
		start = sort.Search(len(s.records), func(i int) bool {
			return s.records[i].Rxcui > mc.lastRxcui
		})
	}

	end := start + limit
	if end > len(s.records) {
		end = len(s.records)
	}

	page := interfaces.Page{
		Records: append([]entities.Medication{}, s.records[start:end]...),
		HasMore: end-start == limit,
	}
	if len(page.Records) > 0 {
		page.Cursor = &memCursor{lastRxcui: page.Records[len(page.Records)-1].Rxcui}
	}

	return page, nil
}

// GetByRxcui performs an exact-match point lookup.
func (s *MemStore) GetByRxcui(ctx context.Context, rxcui string) (*entities.Medication, error) {
	s.GetCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].Rxcui >= rxcui
	})
	if i < len(s.records) && s.records[i].Rxcui == rxcui {
		med := s.records[i]
		return &med, nil
	}

	return nil, interfaces.ErrNotFound
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error {
	return nil
}

// ResetCalls zeroes the round-trip counters.
func (s *MemStore) ResetCalls() {
	s.CountCalls.Store(0)
	s.PageCalls.Store(0)
	s.GetCalls.Store(0)
}
