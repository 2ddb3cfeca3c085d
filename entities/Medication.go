// Package entities defines the medication record data model served by the
// rxprice API. Records originate from the NADAC pricing dataset joined
// against the RxNorm vocabulary; the JSON field names mirror the upstream
// document shape exactly.
package entities

import (
	"regexp"
	"strings"
	"time"
)

// Term types classify a drug concept's specificity and packaging level.
const (
	TTYGenericClinical = "SCD"  // generic clinical drug
	TTYBrandedDrug     = "SBD"  // branded drug
	TTYGenericPack     = "GPCK" // generic pack
	TTYBrandedPack     = "BPCK" // branded pack
)

// UnmatchedPrefix marks records that could not be linked to the RxNorm
// vocabulary. Such records still carry a full pricing payload, only the
// ingredient linkage is absent.
const UnmatchedPrefix = "UNMATCHED_"

// leadingIndexRegex matches the bracketed index artifact some RxNorm pack
// names carry, e.g. "{1 amoxicillin 250 MG Oral Capsule}"
var leadingIndexRegex = regexp.MustCompile(`^\{\d+\s+(.*)\}$`)

// PricingStats summarizes the unit price distribution across all NDCs
// linked to a record.
type PricingStats struct {
	MinUnitPrice    float64 `json:"min_unit_price"`
	MedianUnitPrice float64 `json:"median_unit_price"`
	MaxUnitPrice    float64 `json:"max_unit_price"`
	PricingUnit     string  `json:"pricing_unit"`
	PricePerML      float64 `json:"price_per_ml"`
	PricePerMG      float64 `json:"price_per_mg"`
	NDCCount        int     `json:"ndc_count"`
}

// ConversionValues describes how unit prices were normalized to
// per-volume and per-mass figures.
type ConversionValues struct {
	IsLiquid     bool    `json:"is_liquid"`
	PackageSize  float64 `json:"package_size"`
	PackageUnit  string  `json:"package_unit"`
	StrengthVal  float64 `json:"strength_val"`
	StrengthUnit string  `json:"strength_unit"`
	ScdcRxcui    string  `json:"scdc_rxcui"`
	DataSource   string  `json:"data_source"`
}

// NDCLinks holds the product codes linked to a record.
type NDCLinks struct {
	NDC11All       []string `json:"ndc11_all"`
	NDC11Preferred []string `json:"ndc11_preferred"`
}

// Classification links a record to its ingredient and therapeutic classes.
type Classification struct {
	IngredientName  string   `json:"ingredient_name"`
	IngredientRxcui string   `json:"ingredient_rxcui"`
	ATCCodes        []string `json:"atc_codes"`
}

// Safety carries regulatory safety flags. Optional: records without
// safety data omit the block entirely.
type Safety struct {
	BlackBoxWarning     bool     `json:"black_box_warning"`
	ControlledSubstance bool     `json:"controlled_substance"`
	DEASchedule         string   `json:"dea_schedule,omitempty"`
	BeersCriteria       bool     `json:"beers_criteria"`
	BeersTriggers       []string `json:"beers_triggers,omitempty"`
}

// DatasetVersions records the provenance of the three source datasets.
type DatasetVersions struct {
	NadacWeek     string `json:"nadac_week"`
	RxnormVersion string `json:"rxnorm_version"`
	FDADate       string `json:"fda_date"`
}

// Medication is one record per unique drug concept, keyed by rxcui.
type Medication struct {
	Rxcui           string           `json:"rxcui"`
	Name            string           `json:"name"`
	TTY             string           `json:"tty"`
	PricingStats    PricingStats     `json:"pricing_stats"`
	Conversion      ConversionValues `json:"conversion_values"`
	NDCLinks        NDCLinks         `json:"ndc_links"`
	Exemplars       []Exemplar       `json:"exemplars"`
	Classification  Classification   `json:"classification"`
	Safety          *Safety          `json:"safety,omitempty"`
	DatasetVersions DatasetVersions  `json:"dataset_versions"`
	CreatedAt       *time.Time       `json:"created_at,omitempty"`
	UpdatedAt       *time.Time       `json:"updated_at,omitempty"`
}

// IsUnmatched reports whether the record could not be linked to the
// RxNorm vocabulary.
func (m *Medication) IsUnmatched() bool {
	return strings.HasPrefix(m.Rxcui, UnmatchedPrefix)
}

// CleanName returns the display name with the upstream bracketed index
// artifact stripped: "{1 amoxicillin 250 MG Oral Capsule}" becomes
// "amoxicillin 250 MG Oral Capsule". Names without the artifact are
// returned unchanged.
func CleanName(name string) string {
	if matches := leadingIndexRegex.FindStringSubmatch(name); len(matches) == 2 {
		return strings.TrimSpace(matches[1])
	}
	return name
}

// CleanName returns the record's cleaned display name.
func (m *Medication) CleanName() string {
	return CleanName(m.Name)
}

// Normalize replaces nil list fields with empty slices so the JSON shape
// always carries [] rather than null.
func (m *Medication) Normalize() {
	if m.NDCLinks.NDC11All == nil {
		m.NDCLinks.NDC11All = []string{}
	}
	if m.NDCLinks.NDC11Preferred == nil {
		m.NDCLinks.NDC11Preferred = []string{}
	}
	if m.Exemplars == nil {
		m.Exemplars = []Exemplar{}
	}
	if m.Classification.ATCCodes == nil {
		m.Classification.ATCCodes = []string{}
	}
}
