package payment

import (
	"context"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/payment"
)

// TransactionScope provides transactional access to the deal and payment
// repositories. Every payment write runs its derivation and distribution
// inside one scope so the persisted figures either all update or none do.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories that
// participate in payment derivation. All repositories returned share the
// same underlying database transaction.
//
// Aggregate boundary notes:
//   - DealRepo: the deal is read for its live percentages and category
//     partition; derivation never writes it.
//   - DealSplitRepo: deal-level broker assignments, the template copied
//     into payment splits.
//   - PaymentRepo / PaymentSplitRepo: the rows the derivation pipeline
//     actually rewrites.
type TransactionalRepositories interface {
	// DealRepo returns the deal repository scoped to the current transaction
	DealRepo() deal.DealRepository
	// DealSplitRepo returns the commission split repository scoped to the current transaction
	DealSplitRepo() deal.CommissionSplitRepository
	// PaymentRepo returns the payment repository scoped to the current transaction
	PaymentRepo() payment.PaymentRepository
	// PaymentSplitRepo returns the payment split repository scoped to the current transaction
	PaymentSplitRepo() payment.PaymentSplitRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. It exists for tests, where the repositories are in-memory
// fakes with nothing to roll back.
type NoOpTransactionScope struct {
	dealRepo         deal.DealRepository
	dealSplitRepo    deal.CommissionSplitRepository
	paymentRepo      payment.PaymentRepository
	paymentSplitRepo payment.PaymentSplitRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(
	dealRepo deal.DealRepository,
	dealSplitRepo deal.CommissionSplitRepository,
	paymentRepo payment.PaymentRepository,
	paymentSplitRepo payment.PaymentSplitRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		dealRepo:         dealRepo,
		dealSplitRepo:    dealSplitRepo,
		paymentRepo:      paymentRepo,
		paymentSplitRepo: paymentSplitRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// DealRepo returns the deal repository.
func (s *NoOpTransactionScope) DealRepo() deal.DealRepository {
	return s.dealRepo
}

// DealSplitRepo returns the commission split repository.
func (s *NoOpTransactionScope) DealSplitRepo() deal.CommissionSplitRepository {
	return s.dealSplitRepo
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() payment.PaymentRepository {
	return s.paymentRepo
}

// PaymentSplitRepo returns the payment split repository.
func (s *NoOpTransactionScope) PaymentSplitRepo() payment.PaymentSplitRepository {
	return s.paymentSplitRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
