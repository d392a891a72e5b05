package reconciliation

import (
	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AmountVariance pairs an internal and external dollar figure with their
// signed difference (internal minus external).
type AmountVariance struct {
	Internal valueobject.Money
	External valueobject.Money
	Variance valueobject.Money
}

// RateVariance pairs an internal and external percentage with their signed
// difference in percentage points.
type RateVariance struct {
	Internal valueobject.Percent
	External valueobject.Percent
	Variance valueobject.Percent
}

// Comparison is the per-deal output of the reconciliation comparator: the
// five paired financial quantities plus the stage-label match flag.
type Comparison struct {
	DealID         uuid.UUID
	DealName       string
	SFID           string
	Resolution     ResolutionStatus
	InternalStage  string
	ExternalStage  string
	StageMatch     bool
	DealValue      AmountVariance
	Fee            AmountVariance
	CommissionRate RateVariance
	AGCI           AmountVariance
	House          AmountVariance
}

// Compare independently computes the five reconciled quantities from the
// internal deal record and the mirrored external row, and reports the
// signed variance per quantity. A deal with no resolvable external row
// compares against zeros, leaving the variance equal to the full internal
// value: that is the designed way of surfacing deals never pushed to the
// external system, not an error. Stage labels are compared with
// case-sensitive string equality, no normalization.
func Compare(d *deal.Deal, ref ExternalReference) Comparison {
	internalRate := commissionRate(d)
	internalHouse := d.Breakdown().House

	c := Comparison{
		DealID:        d.ID,
		DealName:      d.Name,
		SFID:          ref.SFID(),
		Resolution:    ref.Status(),
		InternalStage: d.Stage.String(),
	}

	var (
		extDealValue = valueobject.ZeroMoney()
		extFee       = valueobject.ZeroMoney()
		extRate      = valueobject.ZeroPercent()
		extAGCI      = valueobject.ZeroMoney()
		extHouse     = valueobject.ZeroMoney()
	)
	if opp := ref.Opportunity(); ref.IsFound() && opp != nil {
		extDealValue = opp.DealValue
		extFee = opp.Commission
		extRate = opp.CommissionRate
		extAGCI = opp.AGCI()
		extHouse = opp.HouseDollars
		c.ExternalStage = opp.StageName
	}

	c.StageMatch = c.InternalStage == c.ExternalStage
	c.DealValue = amountVariance(d.DealValue, extDealValue)
	c.Fee = amountVariance(d.Fee, extFee)
	c.CommissionRate = RateVariance{
		Internal: internalRate,
		External: extRate,
		Variance: valueobject.NewPercent(internalRate.Value100().Sub(extRate.Value100())),
	}
	c.AGCI = amountVariance(d.AGCI(), extAGCI)
	c.House = amountVariance(internalHouse, extHouse)
	return c
}

// HasVariance reports whether any of the five quantities differ
func (c Comparison) HasVariance() bool {
	return !c.DealValue.Variance.IsZero() ||
		!c.Fee.Variance.IsZero() ||
		!c.CommissionRate.Variance.IsZero() ||
		!c.AGCI.Variance.IsZero() ||
		!c.House.Variance.IsZero()
}

func amountVariance(internal, external valueobject.Money) AmountVariance {
	return AmountVariance{
		Internal: internal,
		External: external,
		Variance: internal.Subtract(external),
	}
}

// commissionRate derives the internal commission rate from the deal's raw
// figures: fee over deal value, on the 0-100 scale. A zero deal value
// yields a zero rate.
func commissionRate(d *deal.Deal) valueobject.Percent {
	if d.DealValue.IsZero() {
		return valueobject.ZeroPercent()
	}
	rate := d.Fee.Amount().Div(d.DealValue.Amount()).Mul(hundred)
	return valueobject.NewPercent(rate)
}
