package payment

import (
	"testing"

	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCategories(t *testing.T) valueobject.CategorySplit {
	t.Helper()
	cs, err := valueobject.NewCategorySplit(
		valueobject.NewPercentFromFloat(40),
		valueobject.NewPercentFromFloat(30),
		valueobject.NewPercentFromFloat(30),
	)
	require.NoError(t, err)
	return cs
}

func newTestSplit(t *testing.T, paymentID uuid.UUID, name string, origination, site, deal float64) PaymentSplit {
	t.Helper()
	ps, err := NewPaymentSplit(paymentID, uuid.New(), name,
		valueobject.NewPercentFromFloat(origination),
		valueobject.NewPercentFromFloat(site),
		valueobject.NewPercentFromFloat(deal),
	)
	require.NoError(t, err)
	return *ps
}

func TestDistribute(t *testing.T) {
	paymentID := uuid.New()
	agci := valueobject.NewMoneyFromFloat(36000)
	splits := []PaymentSplit{
		newTestSplit(t, paymentID, "Broker A", 50, 0, 100),
	}

	out := Distribute(agci, testCategories(t), splits)
	require.Len(t, out, 1)

	// origination_total = 36000 x 40% = 14400; broker takes 50% = 7200
	assert.Equal(t, "7200.00", out[0].OriginationUSD.String())
	assert.Equal(t, "0.00", out[0].SiteUSD.String())
	// deal_total = 36000 x 30% = 10800; broker takes 100%
	assert.Equal(t, "10800.00", out[0].DealUSD.String())
	assert.Equal(t, "18000.00", out[0].BrokerTotal.String())
}

func TestDistribute_ConservesAGCI(t *testing.T) {
	// When broker shares sum to 100 within each category, the broker
	// totals exhaust the payment's AGCI.
	paymentID := uuid.New()
	agci := valueobject.NewMoneyFromFloat(36000)
	splits := []PaymentSplit{
		newTestSplit(t, paymentID, "Broker A", 60, 50, 25),
		newTestSplit(t, paymentID, "Broker B", 40, 50, 75),
	}

	out := Distribute(agci, testCategories(t), splits)

	total := valueobject.ZeroMoney()
	for _, s := range out {
		total = total.Add(s.BrokerTotal)
	}
	assert.True(t, total.Equals(agci), "broker totals %s should equal agci %s", total, agci)
}

func TestDistribute_Idempotent(t *testing.T) {
	paymentID := uuid.New()
	agci := valueobject.NewMoneyFromFloat(12345.67)
	splits := []PaymentSplit{
		newTestSplit(t, paymentID, "Broker A", 33.33, 50, 10),
		newTestSplit(t, paymentID, "Broker B", 66.67, 50, 90),
	}

	first := Distribute(agci, testCategories(t), splits)
	snapshot := make([]PaymentSplit, len(first))
	copy(snapshot, first)

	second := Distribute(agci, testCategories(t), first)
	for i := range second {
		assert.True(t, second[i].OriginationUSD.Equals(snapshot[i].OriginationUSD))
		assert.True(t, second[i].SiteUSD.Equals(snapshot[i].SiteUSD))
		assert.True(t, second[i].DealUSD.Equals(snapshot[i].DealUSD))
		assert.True(t, second[i].BrokerTotal.Equals(snapshot[i].BrokerTotal))
	}
}

func TestDistribute_NoSplitsIsNoOp(t *testing.T) {
	out := Distribute(valueobject.NewMoneyFromFloat(1000), testCategories(t), nil)
	assert.Empty(t, out)

	out = Distribute(valueobject.NewMoneyFromFloat(1000), testCategories(t), []PaymentSplit{})
	assert.Empty(t, out)
}

func TestDistribute_ZeroAGCI(t *testing.T) {
	paymentID := uuid.New()
	splits := []PaymentSplit{
		newTestSplit(t, paymentID, "Broker A", 100, 100, 100),
	}

	out := Distribute(valueobject.ZeroMoney(), testCategories(t), splits)
	assert.True(t, out[0].BrokerTotal.IsZero())
}
