package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// categorySumTolerance absorbs rounding noise on decimal inputs (e.g. a
// 33.33 / 33.33 / 33.34 three-way assignment entered as 33.33/33.33/33.33).
var categorySumTolerance = decimal.NewFromFloat(0.01)

// CategorySplit partitions AGCI into the three commission category pools:
// origination, site, and deal. Constructing one requires the three
// percentages to sum to 100; the invariant is enforced here rather than
// left to convention at the storage layer.
type CategorySplit struct {
	origination Percent
	site        Percent
	deal        Percent
}

// NewCategorySplit creates a CategorySplit, validating that the three
// percentages are each on the 0-100 scale and together sum to 100.
func NewCategorySplit(origination, site, deal Percent) (CategorySplit, error) {
	for name, p := range map[string]Percent{
		"origination": origination,
		"site":        site,
		"deal":        deal,
	} {
		if !p.InRange() {
			return CategorySplit{}, fmt.Errorf("%s percent %s is outside the 0-100 range", name, p.Value100())
		}
	}

	sum := origination.Value100().Add(site.Value100()).Add(deal.Value100())
	if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(categorySumTolerance) {
		return CategorySplit{}, fmt.Errorf("category percentages must sum to 100, got %s", sum)
	}

	return CategorySplit{origination: origination, site: site, deal: deal}, nil
}

// UncheckedCategorySplit builds a CategorySplit without the sum-to-100
// validation. It exists for reading historical rows written before the
// invariant was enforced; new assignments go through NewCategorySplit.
func UncheckedCategorySplit(origination, site, deal Percent) CategorySplit {
	return CategorySplit{origination: origination, site: site, deal: deal}
}

// Origination returns the origination category percentage
func (c CategorySplit) Origination() Percent {
	return c.origination
}

// Site returns the site category percentage
func (c CategorySplit) Site() Percent {
	return c.site
}

// Deal returns the deal category percentage
func (c CategorySplit) Deal() Percent {
	return c.deal
}

// Sum returns the total of the three percentages
func (c CategorySplit) Sum() Percent {
	return c.origination.Add(c.site).Add(c.deal)
}

// IsExhaustive reports whether the three percentages partition 100%
// within tolerance. Historical rows read via UncheckedCategorySplit may
// not be exhaustive; reports use this to surface misconfigured deals.
func (c CategorySplit) IsExhaustive() bool {
	return c.Sum().Value100().Sub(decimal.NewFromInt(100)).Abs().LessThanOrEqual(categorySumTolerance)
}
