package viewer

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rxpricedb/rxprice-api/entities"
)

// SortKey selects the field the loaded slice is ordered by.
type SortKey string

const (
	SortByName        SortKey = "name"
	SortByRxcui       SortKey = "rxcui"
	SortByMedianPrice SortKey = "median_price"
	SortByNDCCount    SortKey = "ndc_count"
)

// ParseSortKey maps a query parameter to a sort key, defaulting to name.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(s)) {
	case SortByRxcui:
		return SortByRxcui
	case SortByMedianPrice:
		return SortByMedianPrice
	case SortByNDCCount:
		return SortByNDCCount
	default:
		return SortByName
	}
}

// SortBy selects the sort key. Re-selecting the active key toggles the
// direction; a new key resets to ascending.
func (c *Controller) SortBy(key SortKey) {
	c.mu.Lock()
	if c.sortKey == key {
		c.sortAsc = !c.sortAsc
	} else {
		c.sortKey = key
		c.sortAsc = true
	}
	c.mu.Unlock()
	c.notify()
}

// SetSort sets key and direction explicitly, without the toggle rule.
func (c *Controller) SetSort(key SortKey, ascending bool) {
	c.mu.Lock()
	c.sortKey = key
	c.sortAsc = ascending
	c.mu.Unlock()
	c.notify()
}

// sortRecords stably sorts in place. Name comparison is locale-aware and
// runs on cleaned names; price and ndc count compare numerically.
func sortRecords(records []entities.Medication, key SortKey, ascending bool) {
	var less func(a, b *entities.Medication) bool

	switch key {
	case SortByRxcui:
		less = func(a, b *entities.Medication) bool {
			return a.Rxcui < b.Rxcui
		}
	case SortByMedianPrice:
		less = func(a, b *entities.Medication) bool {
			return a.PricingStats.MedianUnitPrice < b.PricingStats.MedianUnitPrice
		}
	case SortByNDCCount:
		less = func(a, b *entities.Medication) bool {
			return a.PricingStats.NDCCount < b.PricingStats.NDCCount
		}
	default:
		col := collate.New(language.English, collate.IgnoreCase)
		less = func(a, b *entities.Medication) bool {
			return col.CompareString(a.CleanName(), b.CleanName()) < 0
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		if ascending {
			return less(&records[i], &records[j])
		}
		return less(&records[j], &records[i])
	})
}
