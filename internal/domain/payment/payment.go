package payment

import (
	"time"

	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Payment is one expected or received disbursement tied to a deal. A deal
// may carry several payments (installments). The referral fee and AGCI
// columns are derived from the payment amount and the owning deal's live
// percentages; users never edit them directly.
type Payment struct {
	shared.BaseAggregateRoot
	DealID               uuid.UUID
	PaymentAmount        valueobject.Money // the gross check
	ReferralFeeUSD       valueobject.Money // derived
	AGCI                 valueobject.Money // derived
	PaymentReceived      bool
	PaymentReceivedDate  *time.Time
	PaymentDateEstimated *time.Time
	ReferralFeePaid      bool
	QBInvoiceID          *string // external accounting link
	QBInvoiceNumber      *string
	IsActive             bool // voided payments are deactivated, never deleted
}

// NewPayment creates a payment for a deal. Derived figures start at zero;
// the application layer runs the derivation in the same transaction as the
// insert so they are never observable unset.
func NewPayment(dealID uuid.UUID, amount valueobject.Money, estimatedDate *time.Time) (*Payment, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}

	return &Payment{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		DealID:               dealID,
		PaymentAmount:        amount,
		ReferralFeeUSD:       valueobject.ZeroMoney(),
		AGCI:                 valueobject.ZeroMoney(),
		PaymentDateEstimated: estimatedDate,
		IsActive:             true,
	}, nil
}

// SetAmount replaces the gross payment amount. The caller re-derives in the
// same transaction.
func (p *Payment) SetAmount(amount valueobject.Money) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}
	p.PaymentAmount = amount
	p.touch()
	return nil
}

// ApplyDerivation writes the calculator's output into the derived columns
func (p *Payment) ApplyDerivation(d Derivation) {
	p.ReferralFeeUSD = d.ReferralFee
	p.AGCI = d.AGCI
	p.touch()
}

// MarkReceived records cash arrival
func (p *Payment) MarkReceived(receivedDate time.Time) error {
	if !p.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Cannot mark a voided payment as received")
	}
	p.PaymentReceived = true
	p.PaymentReceivedDate = &receivedDate
	p.touch()
	return nil
}

// MarkReferralFeePaid records that the referral fee has been paid out
func (p *Payment) MarkReferralFeePaid() {
	p.SetReferralFeePaid(true)
}

// SetReferralFeePaid toggles the referral-fee-paid flag. The unpaid referral
// fees report drives this both ways: checking a row off and reverting a
// mistaken check.
func (p *Payment) SetReferralFeePaid(paid bool) {
	p.ReferralFeePaid = paid
	p.touch()
}

// LinkInvoice attaches the external accounting system's invoice reference
func (p *Payment) LinkInvoice(invoiceID, invoiceNumber string) {
	p.QBInvoiceID = &invoiceID
	p.QBInvoiceNumber = &invoiceNumber
	p.touch()
}

// Void deactivates the payment. Voided payments drop out of reports and
// totals but the row is retained.
func (p *Payment) Void() error {
	if !p.IsActive {
		return shared.NewDomainError("INVALID_STATE", "Payment is already voided")
	}
	p.IsActive = false
	p.touch()
	return nil
}

// HasUnpaidReferralFee reports whether a received payment still owes its
// referral fee to the referring party
func (p *Payment) HasUnpaidReferralFee() bool {
	return p.IsActive && p.PaymentReceived && p.ReferralFeeUSD.IsPositive() && !p.ReferralFeePaid
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
