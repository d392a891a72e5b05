package persistence

import (
	"context"

	apppayment "github.com/brokerage/backend/internal/application/payment"
	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/payment"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apppayment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// DealRepo returns the deal repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DealRepo() deal.DealRepository {
	return NewGormDealRepository(r.tx)
}

// DealSplitRepo returns the commission split repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DealSplitRepo() deal.CommissionSplitRepository {
	return NewGormCommissionSplitRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() payment.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// PaymentSplitRepo returns the payment split repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentSplitRepo() payment.PaymentSplitRepository {
	return NewGormPaymentSplitRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ apppayment.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ apppayment.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
