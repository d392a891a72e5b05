package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/payment"
	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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

// MockPaymentSplitRepository is a mock implementation of payment.PaymentSplitRepository
type MockPaymentSplitRepository struct {
	mock.Mock
}

func (m *MockPaymentSplitRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]payment.PaymentSplit, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).([]payment.PaymentSplit), args.Error(1)
}

func (m *MockPaymentSplitRepository) FindByPayments(ctx context.Context, paymentIDs []uuid.UUID) ([]payment.PaymentSplit, error) {
	args := m.Called(ctx, paymentIDs)
	return args.Get(0).([]payment.PaymentSplit), args.Error(1)
}

func (m *MockPaymentSplitRepository) FindByBroker(ctx context.Context, brokerID uuid.UUID) ([]payment.PaymentSplit, error) {
	args := m.Called(ctx, brokerID)
	return args.Get(0).([]payment.PaymentSplit), args.Error(1)
}

func (m *MockPaymentSplitRepository) SaveAll(ctx context.Context, splits []payment.PaymentSplit) error {
	args := m.Called(ctx, splits)
	return args.Error(0)
}

func (m *MockPaymentSplitRepository) ReplaceForPayment(ctx context.Context, paymentID uuid.UUID, splits []payment.PaymentSplit) error {
	args := m.Called(ctx, paymentID, splits)
	return args.Error(0)
}

func (m *MockPaymentSplitRepository) DeleteForPayment(ctx context.Context, paymentID uuid.UUID) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

type serviceFixture struct {
	dealRepo      *MockDealRepository
	dealSplitRepo *MockCommissionSplitRepository
	paymentRepo   *MockPaymentRepository
	splitRepo     *MockPaymentSplitRepository
	service       *PaymentService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		dealRepo:      new(MockDealRepository),
		dealSplitRepo: new(MockCommissionSplitRepository),
		paymentRepo:   new(MockPaymentRepository),
		splitRepo:     new(MockPaymentSplitRepository),
	}
	scope := NewNoOpTransactionScope(f.dealRepo, f.dealSplitRepo, f.paymentRepo, f.splitRepo)
	f.service = NewPaymentService(scope, f.paymentRepo, f.splitRepo)
	return f
}

func fixtureDeal(t *testing.T) *deal.Deal {
	t.Helper()
	cats, err := valueobject.NewCategorySplit(
		valueobject.NewPercentFromFloat(40),
		valueobject.NewPercentFromFloat(30),
		valueobject.NewPercentFromFloat(30),
	)
	require.NoError(t, err)

	d, err := deal.NewDeal(
		"Warehouse Lease",
		valueobject.NewMoneyFromFloat(1000000),
		valueobject.NewMoneyFromFloat(100000),
		valueobject.NewPercentFromFloat(10),
		valueobject.NewPercentFromFloat(20),
		cats,
		false,
	)
	require.NoError(t, err)
	return d
}

func TestCreatePayment_DerivesAndDistributes(t *testing.T) {
	f := newServiceFixture()
	d := fixtureDeal(t)

	split, err := deal.NewCommissionSplit(
		d.ID, uuid.New(), "Jordan Reyes",
		valueobject.NewPercentFromFloat(100),
		valueobject.NewPercentFromFloat(100),
		valueobject.NewPercentFromFloat(100),
	)
	require.NoError(t, err)

	f.dealRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)
	f.dealSplitRepo.On("FindByDeal", mock.Anything, d.ID).Return([]deal.CommissionSplit{*split}, nil)
	f.paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)
	f.splitRepo.On("SaveAll", mock.Anything, mock.AnythingOfType("[]payment.PaymentSplit")).Return(nil)

	p, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
		DealID: d.ID,
		Amount: valueobject.NewMoneyFromFloat(50000),
	})
	require.NoError(t, err)

	// 50000 at 10% referral, 20% house: referral 5000, gci 45000, agci 36000
	assert.Equal(t, "5000.00", p.ReferralFeeUSD.String())
	assert.Equal(t, "36000.00", p.AGCI.String())

	f.splitRepo.AssertCalled(t, "SaveAll", mock.Anything, mock.MatchedBy(func(splits []payment.PaymentSplit) bool {
		if len(splits) != 1 {
			return false
		}
		// sole broker at 100% of each pool gets the whole AGCI
		return splits[0].BrokerTotal.Equals(valueobject.NewMoneyFromFloat(36000)) &&
			splits[0].OriginationUSD.Equals(valueobject.NewMoneyFromFloat(14400))
	}))
}

func TestCreatePayment_MissingDealDerivesWithZeroPercents(t *testing.T) {
	f := newServiceFixture()
	dealID := uuid.New()

	f.dealRepo.On("FindByID", mock.Anything, dealID).Return(nil, nil)
	f.paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)

	p, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
		DealID: dealID,
		Amount: valueobject.NewMoneyFromFloat(50000),
	})
	require.NoError(t, err)

	assert.True(t, p.ReferralFeeUSD.IsZero())
	assert.Equal(t, "50000.00", p.AGCI.String())
	f.splitRepo.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
}

func TestCreatePayment_DealLookupErrorAborts(t *testing.T) {
	f := newServiceFixture()
	dealID := uuid.New()

	f.dealRepo.On("FindByID", mock.Anything, dealID).Return(nil, errors.New("connection reset"))

	_, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
		DealID: dealID,
		Amount: valueobject.NewMoneyFromFloat(50000),
	})
	require.Error(t, err)
	f.paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreatePayment_NoAssignmentsSavesNoSplits(t *testing.T) {
	f := newServiceFixture()
	d := fixtureDeal(t)

	f.dealRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)
	f.dealSplitRepo.On("FindByDeal", mock.Anything, d.ID).Return([]deal.CommissionSplit{}, nil)
	f.paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)

	_, err := f.service.CreatePayment(context.Background(), CreatePaymentRequest{
		DealID: d.ID,
		Amount: valueobject.NewMoneyFromFloat(50000),
	})
	require.NoError(t, err)
	f.splitRepo.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
}

func TestUpdatePaymentAmount_RederivesAndRedistributes(t *testing.T) {
	f := newServiceFixture()
	d := fixtureDeal(t)

	p, err := payment.NewPayment(d.ID, valueobject.NewMoneyFromFloat(50000), nil)
	require.NoError(t, err)
	p.ApplyDerivation(payment.Derive(p.PaymentAmount, d.ReferralFeePercent, d.HousePercent))

	existing, err := payment.NewPaymentSplit(
		p.ID, uuid.New(), "Jordan Reyes",
		valueobject.NewPercentFromFloat(100),
		valueobject.NewPercentFromFloat(100),
		valueobject.NewPercentFromFloat(100),
	)
	require.NoError(t, err)

	f.paymentRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.dealRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)
	f.paymentRepo.On("Save", mock.Anything, p).Return(nil)
	f.splitRepo.On("FindByPayment", mock.Anything, p.ID).Return([]payment.PaymentSplit{*existing}, nil)
	f.splitRepo.On("SaveAll", mock.Anything, mock.AnythingOfType("[]payment.PaymentSplit")).Return(nil)

	updated, err := f.service.UpdatePaymentAmount(context.Background(), p.ID, valueobject.NewMoneyFromFloat(100000))
	require.NoError(t, err)

	assert.Equal(t, "10000.00", updated.ReferralFeeUSD.String())
	assert.Equal(t, "72000.00", updated.AGCI.String())

	f.splitRepo.AssertCalled(t, "SaveAll", mock.Anything, mock.MatchedBy(func(splits []payment.PaymentSplit) bool {
		return len(splits) == 1 && splits[0].BrokerTotal.Equals(valueobject.NewMoneyFromFloat(72000))
	}))
}

func TestUpdatePaymentAmount_NotFound(t *testing.T) {
	f := newServiceFixture()
	id := uuid.New()

	f.paymentRepo.On("FindByID", mock.Anything, id).Return(nil, nil)

	_, err := f.service.UpdatePaymentAmount(context.Background(), id, valueobject.NewMoneyFromFloat(100))
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "PAYMENT_NOT_FOUND", domainErr.Code)
}

func TestRederiveDealPayments_SkipsVoided(t *testing.T) {
	f := newServiceFixture()
	d := fixtureDeal(t)

	active, err := payment.NewPayment(d.ID, valueobject.NewMoneyFromFloat(50000), nil)
	require.NoError(t, err)
	voided, err := payment.NewPayment(d.ID, valueobject.NewMoneyFromFloat(20000), nil)
	require.NoError(t, err)
	require.NoError(t, voided.Void())

	f.paymentRepo.On("FindByDeal", mock.Anything, d.ID).Return([]payment.Payment{*active, *voided}, nil)
	f.paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*payment.Payment")).Return(nil)
	f.splitRepo.On("FindByPayment", mock.Anything, active.ID).Return([]payment.PaymentSplit{}, nil)

	scope := NewNoOpTransactionScope(f.dealRepo, f.dealSplitRepo, f.paymentRepo, f.splitRepo)
	err = scope.Execute(context.Background(), func(repos TransactionalRepositories) error {
		return RederiveDealPayments(context.Background(), repos, d)
	})
	require.NoError(t, err)

	f.paymentRepo.AssertNumberOfCalls(t, "Save", 1)
	f.splitRepo.AssertNotCalled(t, "FindByPayment", mock.Anything, voided.ID)
}

func TestRebuildDealPaymentSplits_ReplacesPerPayment(t *testing.T) {
	f := newServiceFixture()
	d := fixtureDeal(t)

	p, err := payment.NewPayment(d.ID, valueobject.NewMoneyFromFloat(50000), nil)
	require.NoError(t, err)
	p.ApplyDerivation(payment.Derive(p.PaymentAmount, d.ReferralFeePercent, d.HousePercent))

	a, err := deal.NewCommissionSplit(
		d.ID, uuid.New(), "Sam Oduya",
		valueobject.NewPercentFromFloat(50),
		valueobject.NewPercentFromFloat(50),
		valueobject.NewPercentFromFloat(50),
	)
	require.NoError(t, err)

	f.paymentRepo.On("FindByDeal", mock.Anything, d.ID).Return([]payment.Payment{*p}, nil)
	f.splitRepo.On("ReplaceForPayment", mock.Anything, p.ID, mock.AnythingOfType("[]payment.PaymentSplit")).Return(nil)

	scope := NewNoOpTransactionScope(f.dealRepo, f.dealSplitRepo, f.paymentRepo, f.splitRepo)
	err = scope.Execute(context.Background(), func(repos TransactionalRepositories) error {
		return RebuildDealPaymentSplits(context.Background(), repos, d, []deal.CommissionSplit{*a})
	})
	require.NoError(t, err)

	f.splitRepo.AssertCalled(t, "ReplaceForPayment", mock.Anything, p.ID, mock.MatchedBy(func(splits []payment.PaymentSplit) bool {
		// half of each pool of agci 36000: 7200 + 5400 + 5400
		return len(splits) == 1 && splits[0].BrokerTotal.Equals(valueobject.NewMoneyFromFloat(18000))
	}))
}

func TestVoidPayment_DeletesSplits(t *testing.T) {
	f := newServiceFixture()
	p, err := payment.NewPayment(uuid.New(), valueobject.NewMoneyFromFloat(100), nil)
	require.NoError(t, err)

	f.paymentRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.paymentRepo.On("Save", mock.Anything, p).Return(nil)
	f.splitRepo.On("DeleteForPayment", mock.Anything, p.ID).Return(nil)

	voided, err := f.service.VoidPayment(context.Background(), p.ID)
	require.NoError(t, err)

	// the payment row survives deactivated, its broker dollars do not
	assert.False(t, voided.IsActive)
	f.splitRepo.AssertCalled(t, "DeleteForPayment", mock.Anything, p.ID)
}

func TestVoidPayment_AlreadyVoided(t *testing.T) {
	f := newServiceFixture()
	p, err := payment.NewPayment(uuid.New(), valueobject.NewMoneyFromFloat(100), nil)
	require.NoError(t, err)
	require.NoError(t, p.Void())

	f.paymentRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)

	_, err = f.service.VoidPayment(context.Background(), p.ID)
	require.Error(t, err)
	f.paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.splitRepo.AssertNotCalled(t, "DeleteForPayment", mock.Anything, mock.Anything)
}

func TestListDealPayments_BatchesSplitLookup(t *testing.T) {
	f := newServiceFixture()
	d := fixtureDeal(t)

	p1, err := payment.NewPayment(d.ID, valueobject.NewMoneyFromFloat(50000), nil)
	require.NoError(t, err)
	p2, err := payment.NewPayment(d.ID, valueobject.NewMoneyFromFloat(20000), nil)
	require.NoError(t, err)

	s1, err := payment.NewPaymentSplit(
		p1.ID, uuid.New(), "Jordan Reyes",
		valueobject.NewPercentFromFloat(100),
		valueobject.NewPercentFromFloat(100),
		valueobject.NewPercentFromFloat(100),
	)
	require.NoError(t, err)

	f.paymentRepo.On("FindByDeal", mock.Anything, d.ID).Return([]payment.Payment{*p1, *p2}, nil)
	f.splitRepo.On("FindByPayments", mock.Anything, []uuid.UUID{p1.ID, p2.ID}).
		Return([]payment.PaymentSplit{*s1}, nil)

	details, err := f.service.ListDealPayments(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, details, 2)

	require.Len(t, details[0].Splits, 1)
	assert.Equal(t, p1.ID, details[0].Splits[0].PaymentID)
	assert.Empty(t, details[1].Splits)
	f.splitRepo.AssertNotCalled(t, "FindByPayment", mock.Anything, mock.Anything)
}

func TestListBrokerSplits(t *testing.T) {
	f := newServiceFixture()
	brokerID := uuid.New()

	s, err := payment.NewPaymentSplit(
		uuid.New(), brokerID, "Jordan Reyes",
		valueobject.NewPercentFromFloat(50),
		valueobject.NewPercentFromFloat(50),
		valueobject.NewPercentFromFloat(50),
	)
	require.NoError(t, err)

	f.splitRepo.On("FindByBroker", mock.Anything, brokerID).Return([]payment.PaymentSplit{*s}, nil)

	splits, err := f.service.ListBrokerSplits(context.Background(), brokerID)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, brokerID, splits[0].BrokerID)
}

func TestSetReferralFeePaid_Toggle(t *testing.T) {
	f := newServiceFixture()
	d := fixtureDeal(t)
	p, err := payment.NewPayment(d.ID, valueobject.NewMoneyFromFloat(50000), nil)
	require.NoError(t, err)
	p.ApplyDerivation(payment.Derive(p.PaymentAmount, d.ReferralFeePercent, d.HousePercent))
	require.NoError(t, p.MarkReceived(time.Now()))

	f.paymentRepo.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	f.paymentRepo.On("Save", mock.Anything, p).Return(nil)

	updated, err := f.service.SetReferralFeePaid(context.Background(), p.ID, true)
	require.NoError(t, err)
	assert.False(t, updated.HasUnpaidReferralFee())

	updated, err = f.service.SetReferralFeePaid(context.Background(), p.ID, false)
	require.NoError(t, err)
	assert.True(t, updated.HasUnpaidReferralFee())
}
