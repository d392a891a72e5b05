package deal

import (
	"testing"
	"time"

	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestDeal(t *testing.T) *Deal {
	t.Helper()
	d, err := NewDeal(
		"100 Main St Lease",
		valueobject.NewMoneyFromFloat(2500000),
		valueobject.NewMoneyFromFloat(100000),
		valueobject.NewPercentFromFloat(10),
		valueobject.NewPercentFromFloat(20),
		standardCategories(t),
		false,
	)
	require.NoError(t, err)
	return d
}

func TestNewDeal(t *testing.T) {
	d := createTestDeal(t)

	assert.Equal(t, StageNegotiatingLOI, d.Stage)
	assert.True(t, d.IsActive)
	assert.Nil(t, d.BookedDate)
	assert.Nil(t, d.ClosedDate)
	assert.Equal(t, "10000.00", d.ReferralFeeUSD.String())
	assert.Equal(t, 1, d.Version)
}

func TestNewDeal_Validation(t *testing.T) {
	cats := valueobject.UncheckedCategorySplit(
		valueobject.HundredPercent(), valueobject.ZeroPercent(), valueobject.ZeroPercent())

	_, err := NewDeal("", valueobject.ZeroMoney(), valueobject.ZeroMoney(),
		valueobject.ZeroPercent(), valueobject.ZeroPercent(), cats, false)
	assert.Error(t, err)

	_, err = NewDeal("Deal", valueobject.NewMoneyFromFloat(-1), valueobject.ZeroMoney(),
		valueobject.ZeroPercent(), valueobject.ZeroPercent(), cats, false)
	assert.Error(t, err)

	_, err = NewDeal("Deal", valueobject.ZeroMoney(), valueobject.ZeroMoney(),
		valueobject.NewPercentFromFloat(101), valueobject.ZeroPercent(), cats, false)
	assert.Error(t, err)
}

func TestDeal_UpdateFinancials_RecomputesReferralFee(t *testing.T) {
	d := createTestDeal(t)

	err := d.UpdateFinancials(
		d.DealValue,
		valueobject.NewMoneyFromFloat(200000),
		valueobject.NewPercentFromFloat(5),
		d.HousePercent,
	)
	require.NoError(t, err)

	assert.Equal(t, "10000.00", d.ReferralFeeUSD.String())
	assert.Equal(t, "190000.00", d.AGCI().String())
	assert.Equal(t, 2, d.Version)
}

func TestDeal_TransitionStage(t *testing.T) {
	d := createTestDeal(t)

	require.NoError(t, d.TransitionStage(StageBooked))
	require.NotNil(t, d.BookedDate)
	booked := *d.BookedDate

	// Re-entering Booked must not move the original booked date
	require.NoError(t, d.TransitionStage(StageUnderContract))
	require.NoError(t, d.TransitionStage(StageBooked))
	assert.Equal(t, booked, *d.BookedDate)

	require.NoError(t, d.TransitionStage(StageClosedPaid))
	assert.NotNil(t, d.ClosedDate)

	assert.Error(t, d.TransitionStage(Stage("Imaginary")))
}

func TestDeal_LostStaysQueryableButInactiveForReports(t *testing.T) {
	d := createTestDeal(t)
	require.NoError(t, d.TransitionStage(StageLost))

	assert.False(t, d.Stage.IsActive())
	// The row itself is never deleted or deactivated
	assert.True(t, d.IsActive)
}

func TestDeal_SetClosedDate_NoDerivedSideEffects(t *testing.T) {
	d := createTestDeal(t)
	before := d.ReferralFeeUSD

	when := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	d.SetClosedDate(&when)

	assert.Equal(t, when, *d.ClosedDate)
	assert.True(t, before.Equals(d.ReferralFeeUSD))
}

func TestDeal_ExternalLink(t *testing.T) {
	d := createTestDeal(t)
	assert.False(t, d.HasExternalLink())

	sfID := "006XX0000012345"
	d.SetSFID(&sfID)
	assert.True(t, d.HasExternalLink())

	empty := ""
	d.SetSFID(&empty)
	assert.False(t, d.HasExternalLink())
}

func TestCommissionSplit_Validation(t *testing.T) {
	dealID := uuid.New()

	_, err := NewCommissionSplit(uuid.Nil, uuid.New(), "B",
		valueobject.ZeroPercent(), valueobject.ZeroPercent(), valueobject.ZeroPercent())
	assert.Error(t, err)

	_, err = NewCommissionSplit(dealID, uuid.New(), "",
		valueobject.ZeroPercent(), valueobject.ZeroPercent(), valueobject.ZeroPercent())
	assert.Error(t, err)

	_, err = NewCommissionSplit(dealID, uuid.New(), "B",
		valueobject.NewPercentFromFloat(150), valueobject.ZeroPercent(), valueobject.ZeroPercent())
	assert.Error(t, err)

	cs, err := NewCommissionSplit(dealID, uuid.New(), "Broker A",
		valueobject.NewPercentFromFloat(50),
		valueobject.NewPercentFromFloat(25),
		valueobject.NewPercentFromFloat(25))
	require.NoError(t, err)

	require.NoError(t, cs.UpdatePercents(
		valueobject.HundredPercent(), valueobject.ZeroPercent(), valueobject.ZeroPercent()))
	assert.True(t, cs.OriginationPercent.Equals(valueobject.HundredPercent()))
}
