package entities

// Selection reasons for exemplars.
const (
	ExemplarMin    = "min"
	ExemplarMedian = "median"
	ExemplarMax    = "max"
)

// Exemplar pairs a specific linked NDC with the price that made it
// representative of the distribution (minimum, median or maximum).
type Exemplar struct {
	NDC11       string  `json:"ndc11"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Reason      string  `json:"reason"`
	PackageSize float64 `json:"package_size"`
	PackageUnit string  `json:"package_unit"`
}
