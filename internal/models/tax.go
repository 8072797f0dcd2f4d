// Package models defines the data structures for the tax and credit engine.
package models

import (
	"math"
	"strings"
)

// Regime selects the slab table and deduction rules used for a computation.
type Regime string

const (
	RegimeOld Regime = "old"
	RegimeNew Regime = "new"
)

// ValidRegimes returns all regime values.
func ValidRegimes() []Regime {
	return []Regime{RegimeOld, RegimeNew}
}

// IsValid checks if the regime is one of the defined variants.
func (r Regime) IsValid() bool {
	return r == RegimeOld || r == RegimeNew
}

// ParseRegime converts user input such as "OLD" or " new " to a Regime.
func ParseRegime(s string) (Regime, error) {
	r := Regime(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", NewValidationError("regime", "unknown regime %q", s)
	}
	return r, nil
}

// TaxSlab is a contiguous income band taxed at a single marginal rate.
// UpperBound is exclusive; zero on the last slab means unbounded.
type TaxSlab struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound,omitempty"`
	Rate       float64 `json:"rate"`
}

// Unbounded reports whether the slab extends to infinity.
func (s TaxSlab) Unbounded() bool {
	return s.UpperBound == 0
}

// SurchargeBand applies Rate percent of base tax once taxable income exceeds Threshold.
type SurchargeBand struct {
	Threshold float64 `json:"threshold"`
	Rate      float64 `json:"rate"`
}

// DeductionSection identifies a statutory deduction category.
type DeductionSection string

const (
	Section80C DeductionSection = "80C"
	Section80D DeductionSection = "80D"
	SectionNPS DeductionSection = "NPS"
	Section24b DeductionSection = "24b"
	SectionHRA DeductionSection = "HRA"
	Section80G DeductionSection = "80G"
	Section80E DeductionSection = "80E"
)

// DeductionSections returns every section in processing order.
func DeductionSections() []DeductionSection {
	return []DeductionSection{
		Section80C,
		Section80D,
		SectionNPS,
		Section24b,
		SectionHRA,
		Section80G,
		Section80E,
	}
}

// IsValid checks if the section is known to the engine.
func (s DeductionSection) IsValid() bool {
	for _, valid := range DeductionSections() {
		if s == valid {
			return true
		}
	}
	return false
}

// NormalizeDeductionSection maps common spellings ("80c", "sec 80D", "nps",
// "home_loan_interest") to a DeductionSection.
func NormalizeDeductionSection(raw string) DeductionSection {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimPrefix(normalized, "section")
	normalized = strings.TrimPrefix(normalized, "sec")
	normalized = strings.Trim(normalized, " _-.")

	sectionMap := map[string]DeductionSection{
		"80c":                Section80C,
		"80d":                Section80D,
		"nps":                SectionNPS,
		"80ccd":              SectionNPS,
		"80ccd(1b)":          SectionNPS,
		"80ccd1b":            SectionNPS,
		"24b":                Section24b,
		"24":                 Section24b,
		"home_loan_interest": Section24b,
		"hra":                SectionHRA,
		"80g":                Section80G,
		"donations":          Section80G,
		"80e":                Section80E,
		"education_loan":     Section80E,
	}

	if mapped, ok := sectionMap[normalized]; ok {
		return mapped
	}

	// Returned as-is so validation can reject it.
	return DeductionSection(raw)
}

// DeductionBreakdown maps a section to the amount claimed under it.
type DeductionBreakdown map[DeductionSection]float64

// Uncapped marks a section or group without a ceiling.
var Uncapped = math.Inf(1)

// DeductionGroup caps the combined claim of several sections.
type DeductionGroup struct {
	Name     string
	Sections []DeductionSection
	Cap      float64
}

// DeductionRules holds the per-section caps and combined-cap groups.
type DeductionRules struct {
	SectionCaps map[DeductionSection]float64
	Groups      []DeductionGroup
}

// Default deduction limits.
const (
	DefaultCombinedCap = 150000.0
	Default80CCap      = 150000.0
	Default80DCap      = 25000.0
	DefaultNPSCap      = 50000.0
	Default24bCap      = 200000.0
)

// DefaultDeductionRules returns the standard caps: 80C, 80D and NPS share a
// combined 150,000 ceiling, 24b is capped on its own, HRA/80G/80E pass through.
func DefaultDeductionRules() DeductionRules {
	return NewDeductionRules(DefaultCombinedCap, Default80DCap)
}

// NewDeductionRules builds the standard rules with a custom combined cap and 80D ceiling.
func NewDeductionRules(combinedCap, cap80D float64) DeductionRules {
	return DeductionRules{
		SectionCaps: map[DeductionSection]float64{
			Section80C: Default80CCap,
			Section80D: cap80D,
			SectionNPS: DefaultNPSCap,
			Section24b: Default24bCap,
			SectionHRA: Uncapped,
			Section80G: Uncapped,
			Section80E: Uncapped,
		},
		Groups: []DeductionGroup{
			{
				Name:     "80C+80D+NPS",
				Sections: []DeductionSection{Section80C, Section80D, SectionNPS},
				Cap:      combinedCap,
			},
		},
	}
}

// SectionCap returns the cap of a section, Uncapped when none is configured.
func (r DeductionRules) SectionCap(s DeductionSection) float64 {
	if c, ok := r.SectionCaps[s]; ok {
		return c
	}
	return Uncapped
}

// GroupOf returns the index of the group containing s, or -1.
func (r DeductionRules) GroupOf(s DeductionSection) int {
	for i, g := range r.Groups {
		for _, member := range g.Sections {
			if member == s {
				return i
			}
		}
	}
	return -1
}

// DeductionSummary is the capped view of a DeductionBreakdown.
type DeductionSummary struct {
	Regime      Regime                       `json:"regime"`
	Claimed     map[DeductionSection]float64 `json:"claimed"`
	GroupExcess map[string]float64           `json:"group_excess,omitempty"`
	Total       float64                      `json:"total"`
}

// TaxResult is the outcome of a single-regime tax computation.
type TaxResult struct {
	Regime         Regime  `json:"regime"`
	GrossIncome    float64 `json:"gross_income"`
	DeductionTotal float64 `json:"deduction_total"`
	TaxableIncome  float64 `json:"taxable_income"`
	BaseTax        float64 `json:"base_tax"`
	Surcharge      float64 `json:"surcharge"`
	Cess           float64 `json:"cess"`
	Total          float64 `json:"total"`
	EffectiveRate  float64 `json:"effective_rate"`
}

// RegimeComparison holds both regime results and the recommendation.
type RegimeComparison struct {
	Old         TaxResult `json:"old"`
	New         TaxResult `json:"new"`
	Recommended Regime    `json:"recommended"`
	Savings     float64   `json:"savings"`
}

// DeductionPlan is the what-if view of a breakdown under the old regime.
type DeductionPlan struct {
	Current  DeductionSummary             `json:"current"`
	Headroom map[DeductionSection]float64 `json:"headroom"`
	// PotentialSaving is the old-regime tax saved if every capped section is
	// claimed up to its limit.
	PotentialSaving float64 `json:"potential_saving"`
	// BreakEvenDeduction is the smallest deduction total at which the old
	// regime costs no more than the new one.
	BreakEvenDeduction float64          `json:"break_even_deduction"`
	Comparison         RegimeComparison `json:"comparison"`
}
