package payment

import (
	"context"

	"github.com/google/uuid"
)

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	DealID          *uuid.UUID
	Received        *bool
	UnpaidReferral  bool
	IncludeInactive bool
	Page            int
	PageSize        int
	OrderBy         string
	OrderDir        string
}

// PaymentRepository provides access to payment records
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByDeal(ctx context.Context, dealID uuid.UUID) ([]Payment, error)
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)
	Count(ctx context.Context, filter PaymentFilter) (int64, error)
	Save(ctx context.Context, payment *Payment) error
}

// PaymentSplitRepository provides access to per-payment broker splits
type PaymentSplitRepository interface {
	FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]PaymentSplit, error)
	FindByPayments(ctx context.Context, paymentIDs []uuid.UUID) ([]PaymentSplit, error)
	FindByBroker(ctx context.Context, brokerID uuid.UUID) ([]PaymentSplit, error)
	SaveAll(ctx context.Context, splits []PaymentSplit) error
	ReplaceForPayment(ctx context.Context, paymentID uuid.UUID, splits []PaymentSplit) error
	DeleteForPayment(ctx context.Context, paymentID uuid.UUID) error
}
