package query

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rxpricedb/rxprice-api/entities"
	"github.com/rxpricedb/rxprice-api/interfaces"
	"github.com/rxpricedb/rxprice-api/store"
)

func seqRecords(n int) []entities.Medication {
	records := make([]entities.Medication, n)
	for i := range records {
		records[i] = entities.Medication{
			Rxcui: fmt.Sprintf("%06d", i+1),
			Name:  fmt.Sprintf("drug %d", i+1),
		}
	}
	return records
}

func TestCount(t *testing.T) {
	p := NewPaginator(store.NewMemStore(seqRecords(42)), 10)

	if total := p.Count(context.Background()); total != 42 {
		t.Errorf("Expected 42, got %d", total)
	}
}

func TestCountDegradesToUnknown(t *testing.T) {
	mem := store.NewMemStore(seqRecords(5))
	mem.CountErr = errors.New("aggregate unavailable")
	p := NewPaginator(mem, 10)

	if total := p.Count(context.Background()); total != CountUnknown {
		t.Errorf("Expected CountUnknown, got %d", total)
	}

	// Paged fetches keep working with an unknown total
	page, err := p.FetchPage(context.Background(), 10, nil)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if len(page.Records) != 5 {
		t.Errorf("Expected 5 records, got %d", len(page.Records))
	}
}

func TestFetchPageHasMoreBoundary(t *testing.T) {
	// 250 records at pageSize 100: pages of 100, 100, 50
	mem := store.NewMemStore(seqRecords(250))
	p := NewPaginator(mem, 100)

	var cursor interfaces.Cursor
	sizes := []int{100, 100, 50}
	for i, want := range sizes {
		page, err := p.FetchPage(context.Background(), 100, cursor)
		if err != nil {
			t.Fatalf("FetchPage %d failed: %v", i+1, err)
		}
		if len(page.Records) != want {
			t.Fatalf("Page %d: expected %d records, got %d", i+1, want, len(page.Records))
		}

		wantMore := i < len(sizes)-1
		if page.HasMore != wantMore {
			t.Errorf("Page %d: expected HasMore %v, got %v", i+1, wantMore, page.HasMore)
		}
		cursor = page.Cursor
	}
}

func TestFetchPageWrapsStoreErrors(t *testing.T) {
	mem := store.NewMemStore(seqRecords(5))
	storeErr := errors.New("store unavailable")
	mem.PageErr = storeErr
	p := NewPaginator(mem, 10)

	_, err := p.FetchPage(context.Background(), 10, nil)
	if err == nil {
		t.Fatal("Expected an error")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected a FetchError, got %T", err)
	}
	if fe.Op != "fetch_page" {
		t.Errorf("Expected op fetch_page, got %s", fe.Op)
	}
	if !errors.Is(err, storeErr) {
		t.Error("FetchError should unwrap to the store error")
	}
}

func TestFetchAll(t *testing.T) {
	mem := store.NewMemStore(seqRecords(250))
	p := NewPaginator(mem, 100)

	var progress []int
	all, err := p.FetchAll(context.Background(), func(loaded int, total int64) {
		progress = append(progress, loaded)
		if total != 250 {
			t.Errorf("Expected total 250 in progress callback, got %d", total)
		}
	})
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if len(all) != 250 {
		t.Errorf("Expected 250 records, got %d", len(all))
	}

	// 3 pages: 100, 200, 250
	if len(progress) != 3 || progress[0] != 100 || progress[1] != 200 || progress[2] != 250 {
		t.Errorf("Unexpected progress sequence: %v", progress)
	}

	// 1 count + 3 page fetches
	if got := mem.PageCalls.Load(); got != 3 {
		t.Errorf("Expected 3 page round-trips, got %d", got)
	}
}

func TestFetchAllExactMultiple(t *testing.T) {
	// 200 records at pageSize 100: the spurious trailing page costs one
	// extra round-trip that comes back empty
	mem := store.NewMemStore(seqRecords(200))
	p := NewPaginator(mem, 100)

	all, err := p.FetchAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(all) != 200 {
		t.Errorf("Expected 200 records, got %d", len(all))
	}
	if got := mem.PageCalls.Load(); got != 3 {
		t.Errorf("Expected 3 page round-trips (2 full + 1 empty), got %d", got)
	}
}

func TestFetchAllEmptyStore(t *testing.T) {
	p := NewPaginator(store.NewMemStore(nil), 100)

	all, err := p.FetchAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected no records, got %d", len(all))
	}
}

func TestFetchByRxcui(t *testing.T) {
	p := NewPaginator(store.NewMemStore(seqRecords(3)), 10)

	med, err := p.FetchByRxcui(context.Background(), "000002")
	if err != nil {
		t.Fatalf("FetchByRxcui failed: %v", err)
	}
	if med.Rxcui != "000002" {
		t.Errorf("Expected 000002, got %s", med.Rxcui)
	}
}

func TestFetchByRxcuiNotFound(t *testing.T) {
	p := NewPaginator(store.NewMemStore(seqRecords(3)), 10)

	_, err := p.FetchByRxcui(context.Background(), "999999")
	if !errors.Is(err, interfaces.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// A miss is a valid empty result, not a fetch failure
	var fe *FetchError
	if errors.As(err, &fe) {
		t.Error("ErrNotFound must not be wrapped in a FetchError")
	}
}
