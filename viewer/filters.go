package viewer

import (
	"strings"

	"github.com/rxpricedb/rxprice-api/entities"
)

// MatchFilter restricts records by vocabulary linkage. The three-valued
// form makes the matched/unmatched mutual exclusion structural: setting
// one side replaces the other rather than coexisting with it.
type MatchFilter int

const (
	MatchEither MatchFilter = iota
	MatchedOnly
	UnmatchedOnly
)

// FormFilter restricts records by dose form, same tri-state rule.
type FormFilter int

const (
	FormEither FormFilter = iota
	LiquidOnly
	SolidOnly
)

// FilterSet is a conjunction of independently toggleable predicates,
// applied to the currently loaded in-memory slice (never pushed to the
// store).
type FilterSet struct {
	// SearchText matches case-insensitively against the cleaned display
	// name, the rxcui, and the ingredient name. Empty disables it.
	SearchText string

	Match MatchFilter
	Form  FormFilter

	// MinNDCCount is an inclusive lower bound on linked-code count.
	// Zero disables it.
	MinNDCCount int
}

// Matches reports whether the record satisfies every enabled predicate.
func (f FilterSet) Matches(m *entities.Medication) bool {
	if text := strings.TrimSpace(f.SearchText); text != "" {
		needle := strings.ToLower(text)
		if !strings.Contains(strings.ToLower(m.CleanName()), needle) &&
			!strings.Contains(strings.ToLower(m.Rxcui), needle) &&
			!strings.Contains(strings.ToLower(m.Classification.IngredientName), needle) {
			return false
		}
	}

	switch f.Match {
	case MatchedOnly:
		if m.IsUnmatched() {
			return false
		}
	case UnmatchedOnly:
		if !m.IsUnmatched() {
			return false
		}
	}

	switch f.Form {
	case LiquidOnly:
		if !m.Conversion.IsLiquid {
			return false
		}
	case SolidOnly:
		if m.Conversion.IsLiquid {
			return false
		}
	}

	if f.MinNDCCount > 0 && m.PricingStats.NDCCount < f.MinNDCCount {
		return false
	}

	return true
}

// SetSearchText replaces the free-text predicate.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	c.filters.SearchText = text
	c.mu.Unlock()
	c.notify()
}

// SetMatchFilter replaces the matched/unmatched predicate.
func (c *Controller) SetMatchFilter(f MatchFilter) {
	c.mu.Lock()
	c.filters.Match = f
	c.mu.Unlock()
	c.notify()
}

// SetFormFilter replaces the liquid/solid predicate.
func (c *Controller) SetFormFilter(f FormFilter) {
	c.mu.Lock()
	c.filters.Form = f
	c.mu.Unlock()
	c.notify()
}

// SetMinNDCCount replaces the linked-code lower bound. Negative values
// clamp to zero (disabled).
func (c *Controller) SetMinNDCCount(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.filters.MinNDCCount = n
	c.mu.Unlock()
	c.notify()
}

// SetFilters replaces the whole predicate set in one mutation.
func (c *Controller) SetFilters(f FilterSet) {
	if f.MinNDCCount < 0 {
		f.MinNDCCount = 0
	}
	c.mu.Lock()
	c.filters = f
	c.mu.Unlock()
	c.notify()
}

// SetDisplayMode replaces the presentation hint.
func (c *Controller) SetDisplayMode(mode DisplayMode) {
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
	c.notify()
}

// VisibleRecords returns the loaded slice with filters and sort applied:
// filtered first, then stably sorted.
func (c *Controller) VisibleRecords() []entities.Medication {
	c.mu.RLock()
	filters := c.filters
	key := c.sortKey
	asc := c.sortAsc

	visible := make([]entities.Medication, 0, len(c.records))
	for i := range c.records {
		if filters.Matches(&c.records[i]) {
			visible = append(visible, c.records[i])
		}
	}
	c.mu.RUnlock()

	sortRecords(visible, key, asc)
	return visible
}
