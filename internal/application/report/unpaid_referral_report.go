package report

import (
	"context"
	"fmt"
	"time"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/payment"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// UnpaidReferralRow is one received payment whose referral fee has not yet
// been paid out to the referring party.
type UnpaidReferralRow struct {
	PaymentID      uuid.UUID
	DealID         uuid.UUID
	DealName       string
	PaymentAmount  valueobject.Money
	ReferralFeeUSD valueobject.Money
	ReceivedDate   *time.Time
}

// UnpaidReferralReport lists outstanding referral-fee obligations
type UnpaidReferralReport struct {
	Rows        []UnpaidReferralRow
	TotalOwed   valueobject.Money
	GeneratedAt time.Time
}

// UnpaidReferralReportService finds received payments that still owe their
// referral fee. Zero-fee and voided payments never appear.
type UnpaidReferralReportService struct {
	paymentRepo payment.PaymentRepository
	dealRepo    deal.DealRepository
}

// NewUnpaidReferralReportService creates a new UnpaidReferralReportService
func NewUnpaidReferralReportService(
	paymentRepo payment.PaymentRepository,
	dealRepo deal.DealRepository,
) *UnpaidReferralReportService {
	return &UnpaidReferralReportService{
		paymentRepo: paymentRepo,
		dealRepo:    dealRepo,
	}
}

// Generate builds the unpaid referral fees report
func (s *UnpaidReferralReportService) Generate(ctx context.Context) (*UnpaidReferralReport, error) {
	received := true
	payments, err := s.paymentRepo.FindAll(ctx, payment.PaymentFilter{
		Received:       &received,
		UnpaidReferral: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	dealNames := make(map[uuid.UUID]string)
	rows := make([]UnpaidReferralRow, 0, len(payments))
	total := valueobject.ZeroMoney()
	for i := range payments {
		p := &payments[i]
		if !p.HasUnpaidReferralFee() {
			continue
		}

		name, ok := dealNames[p.DealID]
		if !ok {
			d, err := s.dealRepo.FindByID(ctx, p.DealID)
			if err != nil {
				return nil, fmt.Errorf("failed to load deal: %w", err)
			}
			if d != nil {
				name = d.Name
			}
			dealNames[p.DealID] = name
		}

		rows = append(rows, UnpaidReferralRow{
			PaymentID:      p.ID,
			DealID:         p.DealID,
			DealName:       name,
			PaymentAmount:  p.PaymentAmount,
			ReferralFeeUSD: p.ReferralFeeUSD,
			ReceivedDate:   p.PaymentReceivedDate,
		})
		total = total.Add(p.ReferralFeeUSD)
	}

	return &UnpaidReferralReport{
		Rows:        rows,
		TotalOwed:   total,
		GeneratedAt: time.Now(),
	}, nil
}
