package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/payment"
	"github.com/brokerage/backend/internal/domain/reconciliation"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// MockDealRepository is a mock implementation of deal.DealRepository
type MockDealRepository struct {
	mock.Mock
}

func (m *MockDealRepository) FindByID(ctx context.Context, id uuid.UUID) (*deal.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deal.Deal), args.Error(1)
}

func (m *MockDealRepository) FindBySFID(ctx context.Context, sfID string) (*deal.Deal, error) {
	args := m.Called(ctx, sfID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deal.Deal), args.Error(1)
}

func (m *MockDealRepository) FindAll(ctx context.Context, filter deal.DealFilter) ([]deal.Deal, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]deal.Deal), args.Error(1)
}

func (m *MockDealRepository) Count(ctx context.Context, filter deal.DealFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDealRepository) Save(ctx context.Context, d *deal.Deal) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDealRepository) SaveWithLock(ctx context.Context, d *deal.Deal) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// MockCommissionSplitRepository is a mock implementation of deal.CommissionSplitRepository
type MockCommissionSplitRepository struct {
	mock.Mock
}

func (m *MockCommissionSplitRepository) FindByID(ctx context.Context, id uuid.UUID) (*deal.CommissionSplit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deal.CommissionSplit), args.Error(1)
}

func (m *MockCommissionSplitRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]deal.CommissionSplit, error) {
	args := m.Called(ctx, dealID)
	return args.Get(0).([]deal.CommissionSplit), args.Error(1)
}

func (m *MockCommissionSplitRepository) FindByBroker(ctx context.Context, brokerID uuid.UUID) ([]deal.CommissionSplit, error) {
	args := m.Called(ctx, brokerID)
	return args.Get(0).([]deal.CommissionSplit), args.Error(1)
}

func (m *MockCommissionSplitRepository) Save(ctx context.Context, split *deal.CommissionSplit) error {
	args := m.Called(ctx, split)
	return args.Error(0)
}

func (m *MockCommissionSplitRepository) ReplaceForDeal(ctx context.Context, dealID uuid.UUID, splits []deal.CommissionSplit) error {
	args := m.Called(ctx, dealID, splits)
	return args.Error(0)
}

func (m *MockCommissionSplitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of payment.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]payment.Payment, error) {
	args := m.Called(ctx, dealID)
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter payment.PaymentFilter) ([]payment.Payment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Count(ctx context.Context, filter payment.PaymentFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockOpportunityRepository is a mock implementation of reconciliation.OpportunityRepository
type MockOpportunityRepository struct {
	mock.Mock
}

func (m *MockOpportunityRepository) FindBySFID(ctx context.Context, sfID string) (*reconciliation.Opportunity, error) {
	args := m.Called(ctx, sfID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciliation.Opportunity), args.Error(1)
}

func (m *MockOpportunityRepository) FindBySFIDs(ctx context.Context, sfIDs []string) (map[string]reconciliation.Opportunity, error) {
	args := m.Called(ctx, sfIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]reconciliation.Opportunity), args.Error(1)
}

func makeDeal(t *testing.T, name string, sfID *string) *deal.Deal {
	t.Helper()
	cats, err := valueobject.NewCategorySplit(
		valueobject.NewPercentFromFloat(40),
		valueobject.NewPercentFromFloat(30),
		valueobject.NewPercentFromFloat(30),
	)
	require.NoError(t, err)
	d, err := deal.NewDeal(
		name,
		valueobject.NewMoneyFromFloat(2000000),
		valueobject.NewMoneyFromFloat(100000),
		valueobject.NewPercentFromFloat(10),
		valueobject.NewPercentFromFloat(20),
		cats,
		false,
	)
	require.NoError(t, err)
	if sfID != nil {
		d.SetSFID(sfID)
	}
	return d
}

func mirrorFor(d *deal.Deal) reconciliation.Opportunity {
	return reconciliation.Opportunity{
		SFID:           *d.SFID,
		Name:           d.Name,
		StageName:      d.Stage.String(),
		DealValue:      d.DealValue,
		Commission:     d.Fee,
		CommissionRate: valueobject.NewPercentFromFloat(5),
		ReferralFee:    d.ReferralFeeUSD,
		HouseDollars:   d.Breakdown().House,
	}
}

func TestReconciliationReport_MixedResolution(t *testing.T) {
	dealRepo := new(MockDealRepository)
	oppRepo := new(MockOpportunityRepository)
	svc := NewReconciliationReportService(dealRepo, oppRepo)

	sfA := "006A"
	sfB := "006B"
	linked := makeDeal(t, "Alpha Plaza", &sfA)
	stale := makeDeal(t, "Beta Yard", &sfB)
	unlinked := makeDeal(t, "Gamma Lot", nil)

	dealRepo.On("FindAll", mock.Anything, mock.AnythingOfType("deal.DealFilter")).
		Return([]deal.Deal{*linked, *stale, *unlinked}, nil)
	oppRepo.On("FindBySFIDs", mock.Anything, []string{sfA, sfB}).
		Return(map[string]reconciliation.Opportunity{sfA: mirrorFor(linked)}, nil)

	report, err := svc.Generate(context.Background(), ReconciliationFilter{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 3)

	byName := map[string]ReconciliationRow{}
	for _, r := range report.Rows {
		byName[r.DealName] = r
	}

	assert.Equal(t, reconciliation.ResolutionFound, byName["Alpha Plaza"].Resolution)
	assert.False(t, byName["Alpha Plaza"].HasVariance())
	assert.Equal(t, reconciliation.ResolutionNotFound, byName["Beta Yard"].Resolution)
	assert.True(t, byName["Beta Yard"].Fee.Variance.Equals(stale.Fee))
	assert.Equal(t, reconciliation.ResolutionNotFound, byName["Gamma Lot"].Resolution)

	// totals over all three rows: internal fee 3x100000, external only Alpha's
	assert.Equal(t, 3, report.Totals.Deals)
	assert.Equal(t, "300000.00", report.Totals.Fee.Internal.String())
	assert.Equal(t, "100000.00", report.Totals.Fee.External.String())
	assert.Equal(t, "200000.00", report.Totals.Fee.Variance.String())
}

func TestReconciliationReport_MirrorLookupErrorYieldsErrorRows(t *testing.T) {
	dealRepo := new(MockDealRepository)
	oppRepo := new(MockOpportunityRepository)
	svc := NewReconciliationReportService(dealRepo, oppRepo)

	sfA := "006A"
	linked := makeDeal(t, "Alpha Plaza", &sfA)

	dealRepo.On("FindAll", mock.Anything, mock.AnythingOfType("deal.DealFilter")).
		Return([]deal.Deal{*linked}, nil)
	oppRepo.On("FindBySFIDs", mock.Anything, []string{sfA}).
		Return(nil, errors.New("mirror unavailable"))

	report, err := svc.Generate(context.Background(), ReconciliationFilter{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, reconciliation.ResolutionError, report.Rows[0].Resolution)
	assert.True(t, report.Rows[0].Fee.Variance.Equals(linked.Fee))
}

func TestReconciliationReport_ClosedBucketMissing(t *testing.T) {
	dealRepo := new(MockDealRepository)
	oppRepo := new(MockOpportunityRepository)
	svc := NewReconciliationReportService(dealRepo, oppRepo)

	open := makeDeal(t, "Open Deal", nil)
	closed := makeDeal(t, "Closed Deal", nil)
	when := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	closed.SetClosedDate(&when)

	dealRepo.On("FindAll", mock.Anything, mock.AnythingOfType("deal.DealFilter")).
		Return([]deal.Deal{*open, *closed}, nil)

	report, err := svc.Generate(context.Background(), ReconciliationFilter{ClosedBucket: BucketMissing})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "Open Deal", report.Rows[0].DealName)
	// running total follows the filter, not the full dataset
	assert.Equal(t, 1, report.Totals.Deals)
	assert.Equal(t, "100000.00", report.Totals.Fee.Internal.String())
}

func TestReconciliationReport_CustomBucketAndSort(t *testing.T) {
	dealRepo := new(MockDealRepository)
	oppRepo := new(MockOpportunityRepository)
	svc := NewReconciliationReportService(dealRepo, oppRepo)

	early := makeDeal(t, "Early", nil)
	late := makeDeal(t, "Late", nil)
	outside := makeDeal(t, "Outside", nil)
	d1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	early.SetClosedDate(&d1)
	late.SetClosedDate(&d2)
	outside.SetClosedDate(&d3)

	dealRepo.On("FindAll", mock.Anything, mock.AnythingOfType("deal.DealFilter")).
		Return([]deal.Deal{*late, *outside, *early}, nil)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	report, err := svc.Generate(context.Background(), ReconciliationFilter{
		ClosedBucket: BucketCustom,
		ClosedFrom:   &from,
		ClosedTo:     &to,
		SortBy:       "closed_date",
		SortDesc:     true,
	})
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "Late", report.Rows[0].DealName)
	assert.Equal(t, "Early", report.Rows[1].DealName)
}

func TestSortRows_VarianceAndMatchColumns(t *testing.T) {
	row := func(name string, ratePts, feeVar float64, match bool) ReconciliationRow {
		return ReconciliationRow{
			Comparison: reconciliation.Comparison{
				DealName:   name,
				StageMatch: match,
				CommissionRate: reconciliation.RateVariance{
					Internal: valueobject.NewPercentFromFloat(ratePts),
					Variance: valueobject.NewPercentFromFloat(ratePts),
				},
				Fee: reconciliation.AmountVariance{
					Variance: valueobject.NewMoneyFromFloat(feeVar),
				},
			},
		}
	}

	rows := []ReconciliationRow{
		row("Alpha", 3, -500, true),
		row("Beta", -2, 1000, false),
		row("Gamma", 1, 0, true),
	}

	sortRows(rows, "commission_rate_variance", false)
	assert.Equal(t, []string{"Beta", "Gamma", "Alpha"}, rowNames(rows))

	sortRows(rows, "fee_variance", true)
	assert.Equal(t, []string{"Beta", "Gamma", "Alpha"}, rowNames(rows))

	// mismatched stages sort ahead of matched ones
	sortRows(rows, "stage_match", false)
	assert.Equal(t, "Beta", rows[0].DealName)

	sortRows(rows, "commission_rate", false)
	assert.Equal(t, []string{"Beta", "Gamma", "Alpha"}, rowNames(rows))
}

func rowNames(rows []ReconciliationRow) []string {
	names := make([]string, len(rows))
	for i := range rows {
		names[i] = rows[i].DealName
	}
	return names
}

func TestPipelineReport_HouseOnlyCountsAsHavingSplits(t *testing.T) {
	dealRepo := new(MockDealRepository)
	splitRepo := new(MockCommissionSplitRepository)
	svc := NewPipelineReportService(dealRepo, splitRepo)

	houseOnly := makeDeal(t, "House Only Deal", nil)
	houseOnly.SetHouseOnly(true)
	bare := makeDeal(t, "Forgot Splits", nil)

	dealRepo.On("FindAll", mock.Anything, mock.AnythingOfType("deal.DealFilter")).
		Return([]deal.Deal{*houseOnly, *bare}, nil)
	splitRepo.On("FindByDeal", mock.Anything, mock.AnythingOfType("uuid.UUID")).
		Return([]deal.CommissionSplit{}, nil)

	report, err := svc.Generate(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)

	byName := map[string]PipelineRow{}
	for _, r := range report.Rows {
		byName[r.DealName] = r
	}
	assert.True(t, byName["House Only Deal"].HasSplits)
	assert.False(t, byName["Forgot Splits"].HasSplits)
}

func TestPipelineReport_BrokerTotals(t *testing.T) {
	dealRepo := new(MockDealRepository)
	splitRepo := new(MockCommissionSplitRepository)
	svc := NewPipelineReportService(dealRepo, splitRepo)

	d := makeDeal(t, "Central Tower", nil)
	split, err := deal.NewCommissionSplit(
		d.ID, uuid.New(), "Priya Nair",
		valueobject.NewPercentFromFloat(50),
		valueobject.NewPercentFromFloat(50),
		valueobject.NewPercentFromFloat(50),
	)
	require.NoError(t, err)

	dealRepo.On("FindAll", mock.Anything, mock.AnythingOfType("deal.DealFilter")).
		Return([]deal.Deal{*d}, nil)
	splitRepo.On("FindByDeal", mock.Anything, d.ID).Return([]deal.CommissionSplit{*split}, nil)

	report, err := svc.Generate(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	require.Len(t, report.Rows[0].Brokers, 1)

	// deal agci 72000, half of each category pool
	assert.Equal(t, "36000.00", report.Rows[0].Brokers[0].Total.String())
	assert.Equal(t, "72000.00", report.Totals.AGCI.String())
}

func TestUnpaidReferralReport(t *testing.T) {
	paymentRepo := new(MockPaymentRepository)
	dealRepo := new(MockDealRepository)
	svc := NewUnpaidReferralReportService(paymentRepo, dealRepo)

	d := makeDeal(t, "Harbor View", nil)

	owing, err := payment.NewPayment(d.ID, valueobject.NewMoneyFromFloat(50000), nil)
	require.NoError(t, err)
	owing.ApplyDerivation(payment.Derive(owing.PaymentAmount, d.ReferralFeePercent, d.HousePercent))
	require.NoError(t, owing.MarkReceived(time.Now()))

	owing2, err := payment.NewPayment(d.ID, valueobject.NewMoneyFromFloat(20000), nil)
	require.NoError(t, err)
	owing2.ApplyDerivation(payment.Derive(owing2.PaymentAmount, d.ReferralFeePercent, d.HousePercent))
	require.NoError(t, owing2.MarkReceived(time.Now()))

	paymentRepo.On("FindAll", mock.Anything, mock.AnythingOfType("payment.PaymentFilter")).
		Return([]payment.Payment{*owing, *owing2}, nil)
	dealRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)

	report, err := svc.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "Harbor View", report.Rows[0].DealName)
	// 10% of 50000 plus 10% of 20000
	assert.Equal(t, "7000.00", report.TotalOwed.String())
	// deal name resolved once for both rows
	dealRepo.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestWriteReconciliationXLSX(t *testing.T) {
	d := makeDeal(t, "Alpha Plaza", nil)
	row := ReconciliationRow{
		Comparison: reconciliation.Compare(d, reconciliation.MissingReference("")),
		BookedDate: d.BookedDate,
		ClosedDate: d.ClosedDate,
	}
	report := &ReconciliationReport{
		Rows:        []ReconciliationRow{row},
		Totals:      sumRows([]ReconciliationRow{row}),
		GeneratedAt: time.Now(),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReconciliationXLSX(report, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue(reconciliationSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Deal", name)

	dealName, err := f.GetCellValue(reconciliationSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Plaza", dealName)

	feeVar, err := f.GetCellValue(reconciliationSheet, "L2")
	require.NoError(t, err)
	assert.Equal(t, "100000", feeVar)

	totalLabel, err := f.GetCellValue(reconciliationSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Total (1 deals)", totalLabel)
}
