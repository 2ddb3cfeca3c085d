package viewer

// Stats summarizes the currently loaded slice, not the full dataset.
type Stats struct {
	// Total is the adapter's count estimate, -1 when unknown.
	Total int64 `json:"total"`

	Loaded    int `json:"loaded"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Liquid    int `json:"liquid"`
	Solid     int `json:"solid"`

	// NDCSum is the sum of linked-code counts across the slice.
	NDCSum int `json:"ndc_sum"`

	// MeanMedianPrice averages median_unit_price over records with a
	// positive median only. Records with zero or missing medians are
	// excluded from numerator and denominator alike, never counted as
	// zero. Zero when no record qualifies.
	MeanMedianPrice float64 `json:"mean_median_price"`
}

// Stats computes derived statistics over the loaded slice under a single
// consistent read of the state.
func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Total:  c.total,
		Loaded: len(c.records),
	}

	var priceSum float64
	var priced int

	for i := range c.records {
		m := &c.records[i]

		if m.IsUnmatched() {
			s.Unmatched++
		} else {
			s.Matched++
		}

		if m.Conversion.IsLiquid {
			s.Liquid++
		} else {
			s.Solid++
		}

		s.NDCSum += m.PricingStats.NDCCount

		if m.PricingStats.MedianUnitPrice > 0 {
			priceSum += m.PricingStats.MedianUnitPrice
			priced++
		}
	}

	if priced > 0 {
		s.MeanMedianPrice = priceSum / float64(priced)
	}

	return s
}
