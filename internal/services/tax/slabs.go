// Package tax implements the progressive income-tax engine: slab tables,
// deduction aggregation, the per-regime calculator and the regime comparator.
//
// Every function in this package is pure. Nothing here performs I/O or keeps
// state between calls, so it is safe for concurrent use without locking.
package tax

import (
	"errors"
	"fmt"

	"tax-credit-engine/internal/models"
)

// CessRate is the levy on (base tax + surcharge), in percent.
const CessRate = 4.0

// ErrInvalidSlabTable is returned by ValidateSlabs for a malformed table.
var ErrInvalidSlabTable = errors.New("invalid slab table")

// The old regime's 250,000 basic exemption is the first 0% slab.
var oldRegimeSlabs = []models.TaxSlab{
	{LowerBound: 0, UpperBound: 250000, Rate: 0},
	{LowerBound: 250000, UpperBound: 500000, Rate: 5},
	{LowerBound: 500000, UpperBound: 1000000, Rate: 20},
	{LowerBound: 1000000, Rate: 30},
}

var newRegimeSlabs = []models.TaxSlab{
	{LowerBound: 0, UpperBound: 300000, Rate: 0},
	{LowerBound: 300000, UpperBound: 600000, Rate: 5},
	{LowerBound: 600000, UpperBound: 900000, Rate: 10},
	{LowerBound: 900000, UpperBound: 1200000, Rate: 15},
	{LowerBound: 1200000, UpperBound: 1500000, Rate: 20},
	{LowerBound: 1500000, Rate: 30},
}

// Thresholds are exclusive: a band applies once taxable income is strictly above it.
var surchargeLadder = []models.SurchargeBand{
	{Threshold: 1000000, Rate: 10},
	{Threshold: 5000000, Rate: 15},
	{Threshold: 10000000, Rate: 25},
	{Threshold: 50000000, Rate: 37},
}

func init() {
	for _, regime := range models.ValidRegimes() {
		if err := ValidateSlabs(SlabsFor(regime)); err != nil {
			panic(fmt.Sprintf("tax: %s regime: %v", regime, err))
		}
	}
	if err := ValidateSurchargeLadder(surchargeLadder); err != nil {
		panic(fmt.Sprintf("tax: surcharge ladder: %v", err))
	}
}

// SlabsFor returns a copy of the ordered slab table for regime, or nil for an
// unknown regime.
func SlabsFor(regime models.Regime) []models.TaxSlab {
	var src []models.TaxSlab
	switch regime {
	case models.RegimeOld:
		src = oldRegimeSlabs
	case models.RegimeNew:
		src = newRegimeSlabs
	default:
		return nil
	}

	slabs := make([]models.TaxSlab, len(src))
	copy(slabs, src)
	return slabs
}

// SurchargeLadder returns a copy of the surcharge bands in ascending threshold order.
func SurchargeLadder() []models.SurchargeBand {
	bands := make([]models.SurchargeBand, len(surchargeLadder))
	copy(bands, surchargeLadder)
	return bands
}

// ValidateSlabs checks that slabs start at 0, are contiguous, non-overlapping
// and strictly increasing, and that only the last slab is unbounded.
func ValidateSlabs(slabs []models.TaxSlab) error {
	if len(slabs) == 0 {
		return fmt.Errorf("%w: no slabs", ErrInvalidSlabTable)
	}
	if slabs[0].LowerBound != 0 {
		return fmt.Errorf("%w: first slab starts at %.2f, want 0", ErrInvalidSlabTable, slabs[0].LowerBound)
	}

	for i, s := range slabs {
		if s.Rate < 0 || s.Rate > 100 {
			return fmt.Errorf("%w: slab %d rate %.2f outside [0,100]", ErrInvalidSlabTable, i, s.Rate)
		}

		if i == len(slabs)-1 {
			if !s.Unbounded() {
				return fmt.Errorf("%w: last slab must be unbounded", ErrInvalidSlabTable)
			}
			continue
		}

		if s.Unbounded() {
			return fmt.Errorf("%w: slab %d is unbounded but not last", ErrInvalidSlabTable, i)
		}
		if s.UpperBound <= s.LowerBound {
			return fmt.Errorf("%w: slab %d is empty or reversed", ErrInvalidSlabTable, i)
		}
		if next := slabs[i+1].LowerBound; next != s.UpperBound {
			return fmt.Errorf("%w: slab %d ends at %.2f but slab %d starts at %.2f",
				ErrInvalidSlabTable, i, s.UpperBound, i+1, next)
		}
	}

	return nil
}

// ValidateSurchargeLadder checks that thresholds and rates both strictly increase.
func ValidateSurchargeLadder(bands []models.SurchargeBand) error {
	for i := 1; i < len(bands); i++ {
		if bands[i].Threshold <= bands[i-1].Threshold {
			return fmt.Errorf("%w: surcharge threshold %d not above the previous one", ErrInvalidSlabTable, i)
		}
		if bands[i].Rate <= bands[i-1].Rate {
			return fmt.Errorf("%w: surcharge rate %d not above the previous one", ErrInvalidSlabTable, i)
		}
	}
	return nil
}
