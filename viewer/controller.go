// Package viewer owns the browsing session state: the loaded record
// slice, pagination cursors, filters, sort order, and derived statistics.
// The Controller is the only component allowed to mutate that state; it
// arbitrates between "jump to page N" requests and the store's
// forward-only cursor model.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rxpricedb/rxprice-api/entities"
	"github.com/rxpricedb/rxprice-api/interfaces"
	"github.com/rxpricedb/rxprice-api/logging"
	"github.com/rxpricedb/rxprice-api/metrics"
	"github.com/rxpricedb/rxprice-api/query"
)

// ErrLoadInFlight is returned when a page or bulk load is requested while
// another one is running. Requests are rejected, not queued.
var ErrLoadInFlight = errors.New("a load is already in progress")

// ErrInvalidPage is returned for page numbers below 1.
var ErrInvalidPage = errors.New("page number must be at least 1")

// DisplayMode is the presentation hint carried in viewer state.
type DisplayMode string

const (
	ModeCards DisplayMode = "cards"
	ModeTable DisplayMode = "table"
)

// State is a consistent snapshot of the viewer session.
type State struct {
	Records       []entities.Medication
	Page          int
	PageSize      int
	Total         int64
	Loading       bool
	LoadingAll    bool
	AllLoaded     bool
	Err           string
	HasMore       bool
	Filters       FilterSet
	SortKey       SortKey
	SortAscending bool
	Mode          DisplayMode
	Selected      *entities.Medication
	LastLoaded    time.Time
}

// Controller mediates all reads and mutations of the viewer session.
// Construct one instance at application start and share it; there is no
// cross-session persistence.
type Controller struct {
	fetcher  interfaces.PageFetcher
	pageSize int

	mu         sync.RWMutex
	records    []entities.Medication
	page       int
	total      int64
	errMsg     string
	hasMore    bool
	selected   *entities.Medication
	cursors    map[int]interfaces.Cursor // page index -> cursor resuming after that page
	filters    FilterSet
	sortKey    SortKey
	sortAsc    bool
	mode       DisplayMode
	allLoaded  bool
	lastLoaded time.Time
	observers  []func()

	// Single-flight guard: page loads and bulk loads are mutually
	// exclusive and non-reentrant.
	loading    atomic.Bool
	loadingAll atomic.Bool
}

// NewController creates a controller over the given fetcher. The total
// count starts unknown; Refresh or RefreshTotal populates it.
func NewController(fetcher interfaces.PageFetcher, pageSize int) *Controller {
	if pageSize < 1 {
		pageSize = query.DefaultPageSize
	}
	return &Controller{
		fetcher:  fetcher,
		pageSize: pageSize,
		page:     0,
		total:    query.CountUnknown,
		cursors:  make(map[int]interfaces.Cursor),
		sortKey:  SortByName,
		sortAsc:  true,
		mode:     ModeCards,
	}
}

// Subscribe registers an observer invoked synchronously after every state
// mutation. Observers read back through the controller's accessors, which
// always see the committed state.
func (c *Controller) Subscribe(fn func()) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.RLock()
	observers := make([]func(), len(c.observers))
	copy(observers, c.observers)
	c.mu.RUnlock()

	for _, fn := range observers {
		fn()
	}
}

// LoadPage loads page n (1-based). A cursor cached for page n-1 makes
// this a single store round-trip; otherwise the controller walks forward
// from the highest cached page below n, caching every intermediate
// cursor, so revisiting explored pages is always a cache hit.
func (c *Controller) LoadPage(ctx context.Context, n int) error {
	if n < 1 {
		return ErrInvalidPage
	}
	if !c.loading.CompareAndSwap(false, true) {
		return ErrLoadInFlight
	}
	defer c.loading.Store(false)

	cursor, startPage := c.nearestCursor(n)
	if startPage == n {
		metrics.CursorCacheHits.Inc()
	} else {
		metrics.CursorCacheMisses.Inc()
	}

	var target interfaces.Page
	for p := startPage; p <= n; p++ {
		page, err := c.fetcher.FetchPage(ctx, c.pageSize, cursor)
		if err != nil {
			c.commitError(err)
			return err
		}

		c.mu.Lock()
		c.cursors[p] = page.Cursor
		c.mu.Unlock()

		cursor = page.Cursor
		target = page

		// Walking past the end of the dataset: the bridge page came back
		// empty, so the requested page is empty too.
		if p < n && page.Cursor == nil {
			target = interfaces.Page{}
			break
		}
	}

	c.mu.Lock()
	c.records = target.Records
	if c.records == nil {
		c.records = []entities.Medication{}
	}
	c.page = n
	c.errMsg = ""
	c.hasMore = target.HasMore
	c.allLoaded = false
	c.lastLoaded = time.Now()
	c.mu.Unlock()

	c.notify()
	return nil
}

// LoadAll drains the entire dataset through the adapter's bulk-load
// escape hatch. Mutually exclusive with page loads via the same guard.
func (c *Controller) LoadAll(ctx context.Context) error {
	if !c.loading.CompareAndSwap(false, true) {
		return ErrLoadInFlight
	}
	c.loadingAll.Store(true)
	defer func() {
		c.loadingAll.Store(false)
		c.loading.Store(false)
	}()

	records, err := c.fetcher.FetchAll(ctx, func(loaded int, total int64) {
		logging.Debug("Bulk load progress", "loaded", loaded, "total", total)
	})
	if err != nil {
		c.commitError(err)
		return err
	}

	c.mu.Lock()
	c.records = records
	if c.records == nil {
		c.records = []entities.Medication{}
	}
	c.total = int64(len(records))
	c.page = 1
	c.errMsg = ""
	c.hasMore = false
	c.allLoaded = true
	c.lastLoaded = time.Now()
	c.mu.Unlock()

	c.notify()
	return nil
}

// Refresh discards every cached cursor and the bulk-load flag, refreshes
// the total estimate, then reloads page 1. This is the only operation
// that invalidates cursors: the underlying ordering or content may have
// changed since they were issued.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.cursors = make(map[int]interfaces.Cursor)
	c.allLoaded = false
	c.mu.Unlock()

	c.RefreshTotal(ctx)
	return c.LoadPage(ctx, 1)
}

// RefreshTotal re-polls the server-side count aggregate. A failed count
// degrades to an unknown total rather than an error.
func (c *Controller) RefreshTotal(ctx context.Context) {
	total := c.fetcher.Count(ctx)

	c.mu.Lock()
	c.total = total
	c.mu.Unlock()

	c.notify()
}

// Select resolves a record for the detail view: from the loaded slice
// when possible, otherwise via a point lookup. interfaces.ErrNotFound
// propagates for missing records.
func (c *Controller) Select(ctx context.Context, rxcui string) (*entities.Medication, error) {
	c.mu.RLock()
	for i := range c.records {
		if c.records[i].Rxcui == rxcui {
			med := c.records[i]
			c.mu.RUnlock()
			c.setSelected(&med)
			return &med, nil
		}
	}
	c.mu.RUnlock()

	med, err := c.fetcher.FetchByRxcui(ctx, rxcui)
	if err != nil {
		return nil, err
	}

	c.setSelected(med)
	return med, nil
}

// ClearSelection drops the detail-view selection.
func (c *Controller) ClearSelection() {
	c.setSelected(nil)
}

func (c *Controller) setSelected(med *entities.Medication) {
	c.mu.Lock()
	c.selected = med
	c.mu.Unlock()
	c.notify()
}

// ClearError dismisses the current error banner.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns a consistent copy of the viewer state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]entities.Medication, len(c.records))
	copy(records, c.records)

	return State{
		Records:       records,
		Page:          c.page,
		PageSize:      c.pageSize,
		Total:         c.total,
		Loading:       c.loading.Load(),
		LoadingAll:    c.loadingAll.Load(),
		AllLoaded:     c.allLoaded,
		Err:           c.errMsg,
		HasMore:       c.hasMore,
		Filters:       c.filters,
		SortKey:       c.sortKey,
		SortAscending: c.sortAsc,
		Mode:          c.mode,
		Selected:      c.selected,
		LastLoaded:    c.lastLoaded,
	}
}

// TotalPages returns the page count derived from the total estimate, or
// -1 while the total is unknown.
func (c *Controller) TotalPages() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.total < 0 {
		return -1
	}
	return int((c.total + int64(c.pageSize) - 1) / int64(c.pageSize))
}

// nearestCursor finds the resume point for a jump to page n: the cursor
// of the highest cached page at or below n-1. Returns a nil cursor and
// startPage 1 when nothing useful is cached.
func (c *Controller) nearestCursor(n int) (interfaces.Cursor, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	best := 0
	for p, cur := range c.cursors {
		if p <= n-1 && p > best && cur != nil {
			best = p
		}
	}
	if best == 0 {
		return nil, 1
	}
	return c.cursors[best], best + 1
}

// commitError records a fetch failure in the single current-error slot.
// Previously loaded records are retained: the view keeps showing the
// last good page.
func (c *Controller) commitError(err error) {
	c.mu.Lock()
	c.errMsg = fmt.Sprintf("load failed: %v", err)
	c.mu.Unlock()

	logging.Error("Page load failed", "error", err)
	c.notify()
}
