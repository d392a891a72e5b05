package deal

import (
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
)

// CommissionBreakdown holds the deal-level dollar figures derived from a
// deal's raw inputs. It is the deal-aggregate counterpart of the per-payment
// derivation: pipeline reports use it for stages where no payment exists yet.
type CommissionBreakdown struct {
	GCI             valueobject.Money // the raw fee
	ReferralFee     valueobject.Money // fee x referral_fee_percent
	House           valueobject.Money // (fee - referral) x house_percent
	AGCI            valueobject.Money // fee - referral - house
	OriginationPool valueobject.Money // agci x origination_percent
	SitePool        valueobject.Money // agci x site_percent
	DealPool        valueobject.Money // agci x deal_percent
}

// CalculateBreakdown derives the deal-level commission figures. Pure:
// missing percentages have already defaulted to zero at the value-object
// boundary, so every input combination produces a result, never an error.
func CalculateBreakdown(
	fee valueobject.Money,
	referralFeePercent valueobject.Percent,
	housePercent valueobject.Percent,
	categories valueobject.CategorySplit,
) CommissionBreakdown {
	referral := fee.ApplyPercent(referralFeePercent)
	house := fee.Subtract(referral).ApplyPercent(housePercent)
	agci := fee.Subtract(referral).Subtract(house)

	return CommissionBreakdown{
		GCI:             fee,
		ReferralFee:     referral,
		House:           house,
		AGCI:            agci,
		OriginationPool: agci.ApplyPercent(categories.Origination()),
		SitePool:        agci.ApplyPercent(categories.Site()),
		DealPool:        agci.ApplyPercent(categories.Deal()),
	}
}

// BrokerDealTotal computes one broker's deal-aggregate dollar total from the
// deal breakdown and the broker's commission split percentages. Used by
// pipeline (non-payment) reports; the per-payment figures come from the
// split distributor instead.
func BrokerDealTotal(breakdown CommissionBreakdown, split *CommissionSplit) valueobject.Money {
	origination := breakdown.OriginationPool.ApplyPercent(split.OriginationPercent)
	site := breakdown.SitePool.ApplyPercent(split.SitePercent)
	dealPart := breakdown.DealPool.ApplyPercent(split.DealPercent)
	return origination.Add(site).Add(dealPart)
}
