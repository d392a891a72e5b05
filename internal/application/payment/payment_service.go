package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/payment"
	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentService owns the payment write path. Every create or amount edit
// runs the derivation chain (referral fee, AGCI) and the broker split
// distribution inside a single transaction scope, so a reader never
// observes a payment whose derived columns disagree with its amount.
type PaymentService struct {
	scope       TransactionScope
	paymentRepo payment.PaymentRepository
	splitRepo   payment.PaymentSplitRepository
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	scope TransactionScope,
	paymentRepo payment.PaymentRepository,
	splitRepo payment.PaymentSplitRepository,
) *PaymentService {
	return &PaymentService{
		scope:       scope,
		paymentRepo: paymentRepo,
		splitRepo:   splitRepo,
	}
}

// CreatePaymentRequest carries the user-entered payment fields. Everything
// else on the payment row is derived.
type CreatePaymentRequest struct {
	DealID        uuid.UUID
	Amount        valueobject.Money
	EstimatedDate *time.Time
}

// PaymentDetail pairs a payment with its broker split rows
type PaymentDetail struct {
	Payment payment.Payment
	Splits  []payment.PaymentSplit
}

// CreatePayment inserts a payment and runs derive-then-distribute in the
// same transaction. The split rows are seeded from the deal's commission
// split assignments; a deal with no assignments (or a house-only deal)
// yields a payment with no split rows, which is valid.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*payment.Payment, error) {
	p, err := payment.NewPayment(req.DealID, req.Amount, req.EstimatedDate)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		d, err := repos.DealRepo().FindByID(ctx, req.DealID)
		if err != nil {
			return fmt.Errorf("failed to load deal: %w", err)
		}

		p.ApplyDerivation(derive(p, d))
		if err := repos.PaymentRepo().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		if d == nil {
			return nil
		}
		assignments, err := repos.DealSplitRepo().FindByDeal(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("failed to load deal splits: %w", err)
		}
		splits, err := buildSplits(p, assignments)
		if err != nil {
			return err
		}
		splits = payment.Distribute(p.AGCI, d.Categories, splits)
		if len(splits) == 0 {
			return nil
		}
		if err := repos.PaymentSplitRepo().SaveAll(ctx, splits); err != nil {
			return fmt.Errorf("failed to save payment splits: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePaymentAmount replaces a payment's gross amount and reruns the full
// derivation chain, including the dollar rewrite of existing split rows.
func (s *PaymentService) UpdatePaymentAmount(ctx context.Context, paymentID uuid.UUID, amount valueobject.Money) (*payment.Payment, error) {
	var updated *payment.Payment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.PaymentRepo().FindByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if p == nil {
			return shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
		}
		if err := p.SetAmount(amount); err != nil {
			return err
		}
		if err := rederivePayment(ctx, repos, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RederiveDealPayments reruns derivation and distribution for every active
// payment of a deal against the deal's current percentages and category
// partition. The deal services call this in the same transaction as a
// percentage edit so persisted payment figures never lag the deal.
func RederiveDealPayments(ctx context.Context, repos TransactionalRepositories, d *deal.Deal) error {
	payments, err := repos.PaymentRepo().FindByDeal(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("failed to load deal payments: %w", err)
	}

	for i := range payments {
		p := &payments[i]
		if !p.IsActive {
			continue
		}
		p.ApplyDerivation(derive(p, d))
		if err := repos.PaymentRepo().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		splits, err := repos.PaymentSplitRepo().FindByPayment(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to load payment splits: %w", err)
		}
		if len(splits) == 0 {
			continue
		}
		splits = payment.Distribute(p.AGCI, d.Categories, splits)
		if err := repos.PaymentSplitRepo().SaveAll(ctx, splits); err != nil {
			return fmt.Errorf("failed to save payment splits: %w", err)
		}
	}
	return nil
}

// RebuildDealPaymentSplits replaces the split rows of every active payment
// of a deal from a fresh set of commission split assignments, then
// redistributes. This is the fan-out behind reassigning brokers on a deal:
// a full overwrite per payment, so stale rows for removed brokers cannot
// survive.
func RebuildDealPaymentSplits(ctx context.Context, repos TransactionalRepositories, d *deal.Deal, assignments []deal.CommissionSplit) error {
	payments, err := repos.PaymentRepo().FindByDeal(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("failed to load deal payments: %w", err)
	}

	for i := range payments {
		p := &payments[i]
		if !p.IsActive {
			continue
		}
		splits, err := buildSplits(p, assignments)
		if err != nil {
			return err
		}
		splits = payment.Distribute(p.AGCI, d.Categories, splits)
		if err := repos.PaymentSplitRepo().ReplaceForPayment(ctx, p.ID, splits); err != nil {
			return fmt.Errorf("failed to replace payment splits: %w", err)
		}
	}
	return nil
}

// MarkReceived records cash arrival for a payment
func (s *PaymentService) MarkReceived(ctx context.Context, paymentID uuid.UUID, receivedDate time.Time) (*payment.Payment, error) {
	p, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := p.MarkReceived(receivedDate); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}
	return p, nil
}

// SetReferralFeePaid toggles the referral-fee-paid flag on a payment
func (s *PaymentService) SetReferralFeePaid(ctx context.Context, paymentID uuid.UUID, paid bool) (*payment.Payment, error) {
	p, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	p.SetReferralFeePaid(paid)
	if err := s.paymentRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}
	return p, nil
}

// LinkInvoice attaches an external accounting invoice reference
func (s *PaymentService) LinkInvoice(ctx context.Context, paymentID uuid.UUID, invoiceID, invoiceNumber string) (*payment.Payment, error) {
	if invoiceID == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	p, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	p.LinkInvoice(invoiceID, invoiceNumber)
	if err := s.paymentRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}
	return p, nil
}

// VoidPayment deactivates a payment and deletes its broker split rows in the
// same transaction. A voided payment owes no broker dollars; the payment row
// itself is retained for the audit trail.
func (s *PaymentService) VoidPayment(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error) {
	var voided *payment.Payment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.PaymentRepo().FindByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if p == nil {
			return shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
		}
		if err := p.Void(); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		if err := repos.PaymentSplitRepo().DeleteForPayment(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to delete payment splits: %w", err)
		}
		voided = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voided, nil
}

// GetPayment returns a payment with its broker split rows
func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentDetail, error) {
	p, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	splits, err := s.splitRepo.FindByPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment splits: %w", err)
	}
	return &PaymentDetail{Payment: *p, Splits: splits}, nil
}

// ListDealPayments returns every payment of a deal, voided included, each
// paired with its broker split rows. Splits load in one batched query.
func (s *PaymentService) ListDealPayments(ctx context.Context, dealID uuid.UUID) ([]PaymentDetail, error) {
	payments, err := s.paymentRepo.FindByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal payments: %w", err)
	}

	ids := make([]uuid.UUID, len(payments))
	for i := range payments {
		ids[i] = payments[i].ID
	}
	splits, err := s.splitRepo.FindByPayments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment splits: %w", err)
	}
	byPayment := make(map[uuid.UUID][]payment.PaymentSplit, len(payments))
	for i := range splits {
		byPayment[splits[i].PaymentID] = append(byPayment[splits[i].PaymentID], splits[i])
	}

	details := make([]PaymentDetail, len(payments))
	for i := range payments {
		details[i] = PaymentDetail{
			Payment: payments[i],
			Splits:  byPayment[payments[i].ID],
		}
	}
	return details, nil
}

// ListBrokerSplits returns every payment-level split held by a broker
func (s *PaymentService) ListBrokerSplits(ctx context.Context, brokerID uuid.UUID) ([]payment.PaymentSplit, error) {
	splits, err := s.splitRepo.FindByBroker(ctx, brokerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load broker splits: %w", err)
	}
	return splits, nil
}

// ListPayments returns payments matching the filter
func (s *PaymentService) ListPayments(ctx context.Context, filter payment.PaymentFilter) ([]payment.Payment, int64, error) {
	payments, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	total, err := s.paymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return payments, total, nil
}

func (s *PaymentService) loadPayment(ctx context.Context, paymentID uuid.UUID) (*payment.Payment, error) {
	p, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if p == nil {
		return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	}
	return p, nil
}

// rederivePayment refreshes one payment's derived columns and split dollars
// against its deal's current percentages.
func rederivePayment(ctx context.Context, repos TransactionalRepositories, p *payment.Payment) error {
	d, err := repos.DealRepo().FindByID(ctx, p.DealID)
	if err != nil {
		return fmt.Errorf("failed to load deal: %w", err)
	}

	p.ApplyDerivation(derive(p, d))
	if err := repos.PaymentRepo().Save(ctx, p); err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}

	splits, err := repos.PaymentSplitRepo().FindByPayment(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load payment splits: %w", err)
	}
	if len(splits) == 0 {
		return nil
	}
	categories := valueobject.UncheckedCategorySplit(
		valueobject.ZeroPercent(), valueobject.ZeroPercent(), valueobject.ZeroPercent(),
	)
	if d != nil {
		categories = d.Categories
	}
	splits = payment.Distribute(p.AGCI, categories, splits)
	if err := repos.PaymentSplitRepo().SaveAll(ctx, splits); err != nil {
		return fmt.Errorf("failed to save payment splits: %w", err)
	}
	return nil
}

// derive computes a payment's derived figures. A missing deal derives with
// zero percentages rather than failing; an orphaned payment keeps its full
// amount as AGCI until the deal link is repaired.
func derive(p *payment.Payment, d *deal.Deal) payment.Derivation {
	if d == nil {
		return payment.Derive(p.PaymentAmount, valueobject.ZeroPercent(), valueobject.ZeroPercent())
	}
	return payment.Derive(p.PaymentAmount, d.ReferralFeePercent, d.HousePercent)
}

// buildSplits creates fresh split rows for a payment from the deal-level
// broker assignments, copying each broker's percentages.
func buildSplits(p *payment.Payment, assignments []deal.CommissionSplit) ([]payment.PaymentSplit, error) {
	splits := make([]payment.PaymentSplit, 0, len(assignments))
	for _, a := range assignments {
		ps, err := payment.NewPaymentSplit(
			p.ID, a.BrokerID, a.BrokerName,
			a.OriginationPercent, a.SitePercent, a.DealPercent,
		)
		if err != nil {
			return nil, err
		}
		splits = append(splits, *ps)
	}
	return splits, nil
}
