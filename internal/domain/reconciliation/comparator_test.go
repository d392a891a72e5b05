package reconciliation

import (
	"errors"
	"testing"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconTestDeal(t *testing.T) *deal.Deal {
	t.Helper()
	cats, err := valueobject.NewCategorySplit(
		valueobject.NewPercentFromFloat(40),
		valueobject.NewPercentFromFloat(30),
		valueobject.NewPercentFromFloat(30),
	)
	require.NoError(t, err)

	d, err := deal.NewDeal(
		"200 Market St Sale",
		valueobject.NewMoneyFromFloat(2000000),
		valueobject.NewMoneyFromFloat(100000),
		valueobject.NewPercentFromFloat(10),
		valueobject.NewPercentFromFloat(20),
		cats,
		false,
	)
	require.NoError(t, err)
	return d
}

func matchingOpportunity(d *deal.Deal) *Opportunity {
	return &Opportunity{
		SFID:           "006XX0000012345",
		Name:           d.Name,
		StageName:      d.Stage.String(),
		DealValue:      d.DealValue,
		Commission:     d.Fee,
		CommissionRate: valueobject.NewPercentFromFloat(5),
		ReferralFee:    d.ReferralFeeUSD,
		HouseDollars:   d.Breakdown().House,
	}
}

func TestCompare_MatchingRecords(t *testing.T) {
	d := reconTestDeal(t)
	c := Compare(d, FoundReference(matchingOpportunity(d)))

	assert.Equal(t, ResolutionFound, c.Resolution)
	assert.True(t, c.StageMatch)
	assert.False(t, c.HasVariance())
	assert.True(t, c.DealValue.Variance.IsZero())
	assert.True(t, c.AGCI.Variance.IsZero())
	// fee 100000 over deal value 2000000 = 5%
	assert.True(t, c.CommissionRate.Internal.Equals(valueobject.NewPercentFromFloat(5)))
}

func TestCompare_NoExternalMatch_FullVariance(t *testing.T) {
	d := reconTestDeal(t)
	c := Compare(d, MissingReference(""))

	assert.Equal(t, ResolutionNotFound, c.Resolution)
	// External side reads zero; variance equals the full internal value.
	assert.True(t, c.DealValue.External.IsZero())
	assert.True(t, c.DealValue.Variance.Equals(d.DealValue))
	assert.True(t, c.Fee.Variance.Equals(d.Fee))
	assert.True(t, c.AGCI.Variance.Equals(d.AGCI()))
	assert.Equal(t, "18000.00", c.House.Variance.String())
	assert.True(t, c.HasVariance())
}

func TestCompare_StageLabelIsCaseSensitive(t *testing.T) {
	d := reconTestDeal(t)
	require.NoError(t, d.TransitionStage(deal.StageBooked))

	opp := matchingOpportunity(d)
	opp.StageName = "booked"
	c := Compare(d, FoundReference(opp))

	assert.False(t, c.StageMatch)
	assert.Equal(t, "Booked", c.InternalStage)
	assert.Equal(t, "booked", c.ExternalStage)
}

func TestCompare_AmountDrift(t *testing.T) {
	d := reconTestDeal(t)
	opp := matchingOpportunity(d)
	opp.Commission = valueobject.NewMoneyFromFloat(95000)
	opp.ReferralFee = valueobject.NewMoneyFromFloat(9500)

	c := Compare(d, FoundReference(opp))

	// internal fee 100000 - external 95000
	assert.Equal(t, "5000.00", c.Fee.Variance.String())
	// internal agci 90000 - external (95000 - 9500)
	assert.Equal(t, "4500.00", c.AGCI.Variance.String())
	assert.True(t, c.HasVariance())
}

func TestCompare_ErroredLookupComparesAgainstZeros(t *testing.T) {
	d := reconTestDeal(t)
	ref := ErroredReference("006XX0000012345", errors.New("mirror query failed"))
	c := Compare(d, ref)

	assert.Equal(t, ResolutionError, c.Resolution)
	assert.True(t, c.Fee.Variance.Equals(d.Fee))
}

func TestExternalReference_Contract(t *testing.T) {
	opp := &Opportunity{SFID: "006A"}
	found := FoundReference(opp)
	assert.True(t, found.IsFound())
	assert.Equal(t, opp, found.Opportunity())
	assert.NoError(t, found.Err())

	missing := MissingReference("006B")
	assert.False(t, missing.IsFound())
	assert.Nil(t, missing.Opportunity())
	assert.Equal(t, "006B", missing.SFID())

	errRef := ErroredReference("006C", errors.New("boom"))
	assert.Equal(t, ResolutionError, errRef.Status())
	assert.Error(t, errRef.Err())
}

func TestOpportunity_AGCI(t *testing.T) {
	opp := &Opportunity{
		Commission:  valueobject.NewMoneyFromFloat(100000),
		ReferralFee: valueobject.NewMoneyFromFloat(10000),
	}
	assert.Equal(t, "90000.00", opp.AGCI().String())
}
