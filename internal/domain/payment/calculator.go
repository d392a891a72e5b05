package payment

import (
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
)

// Derivation holds the payment-level figures computed from a gross payment
// amount and the owning deal's percentages. The intermediate GCI and house
// figures are carried so reports can show the full chain without
// recomputing it.
type Derivation struct {
	ReferralFee valueobject.Money // amount x referral_fee_percent
	GCI         valueobject.Money // amount - referral fee
	HouseSplit  valueobject.Money // gci x house_percent
	AGCI        valueobject.Money // gci - house split
}

// Derive computes a payment's derived figures from its raw amount and the
// owning deal's live percentages. Pure and total: a payment whose deal is
// missing derives with zero percentages, which yields referral 0 and
// AGCI equal to the full amount. The same function backs both the persist
// path and read-time report recomputation, so the two can never drift.
func Derive(amount valueobject.Money, referralFeePercent, housePercent valueobject.Percent) Derivation {
	referral := amount.ApplyPercent(referralFeePercent)
	gci := amount.Subtract(referral)
	house := gci.ApplyPercent(housePercent)

	return Derivation{
		ReferralFee: referral,
		GCI:         gci,
		HouseSplit:  house,
		AGCI:        gci.Subtract(house),
	}
}
