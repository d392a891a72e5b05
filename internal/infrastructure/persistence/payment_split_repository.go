package persistence

import (
	"context"

	"github.com/brokerage/backend/internal/domain/payment"
	"github.com/brokerage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentSplitRepository implements PaymentSplitRepository using GORM
type GormPaymentSplitRepository struct {
	db *gorm.DB
}

// NewGormPaymentSplitRepository creates a new GormPaymentSplitRepository
func NewGormPaymentSplitRepository(db *gorm.DB) *GormPaymentSplitRepository {
	return &GormPaymentSplitRepository{db: db}
}

// FindByPayment finds all broker splits for a payment
func (r *GormPaymentSplitRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]payment.PaymentSplit, error) {
	var splitModels []models.PaymentSplitModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("broker_name ASC").
		Find(&splitModels).Error; err != nil {
		return nil, err
	}
	return toDomainPaymentSplits(splitModels), nil
}

// FindByPayments finds splits for multiple payments at once
func (r *GormPaymentSplitRepository) FindByPayments(ctx context.Context, paymentIDs []uuid.UUID) ([]payment.PaymentSplit, error) {
	if len(paymentIDs) == 0 {
		return []payment.PaymentSplit{}, nil
	}

	var splitModels []models.PaymentSplitModel
	if err := r.db.WithContext(ctx).
		Where("payment_id IN ?", paymentIDs).
		Find(&splitModels).Error; err != nil {
		return nil, err
	}
	return toDomainPaymentSplits(splitModels), nil
}

// FindByBroker finds all payment splits a broker holds
func (r *GormPaymentSplitRepository) FindByBroker(ctx context.Context, brokerID uuid.UUID) ([]payment.PaymentSplit, error) {
	var splitModels []models.PaymentSplitModel
	if err := r.db.WithContext(ctx).
		Where("broker_id = ?", brokerID).
		Find(&splitModels).Error; err != nil {
		return nil, err
	}
	return toDomainPaymentSplits(splitModels), nil
}

// SaveAll creates or updates multiple payment splits
func (r *GormPaymentSplitRepository) SaveAll(ctx context.Context, splits []payment.PaymentSplit) error {
	if len(splits) == 0 {
		return nil
	}
	splitModels := make([]*models.PaymentSplitModel, len(splits))
	for i := range splits {
		splitModels[i] = models.PaymentSplitModelFromDomain(&splits[i])
	}
	return r.db.WithContext(ctx).Save(splitModels).Error
}

// ReplaceForPayment atomically replaces a payment's split rows with the
// given set. An empty set clears the payment's splits.
func (r *GormPaymentSplitRepository) ReplaceForPayment(ctx context.Context, paymentID uuid.UUID, splits []payment.PaymentSplit) error {
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Delete(&models.PaymentSplitModel{}).Error; err != nil {
		return err
	}
	if len(splits) == 0 {
		return nil
	}

	splitModels := make([]*models.PaymentSplitModel, len(splits))
	for i := range splits {
		splitModels[i] = models.PaymentSplitModelFromDomain(&splits[i])
	}
	return r.db.WithContext(ctx).Create(splitModels).Error
}

// DeleteForPayment deletes all splits of a payment
func (r *GormPaymentSplitRepository) DeleteForPayment(ctx context.Context, paymentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Delete(&models.PaymentSplitModel{}).Error
}

func toDomainPaymentSplits(splitModels []models.PaymentSplitModel) []payment.PaymentSplit {
	splits := make([]payment.PaymentSplit, len(splitModels))
	for i, model := range splitModels {
		splits[i] = *model.ToDomain()
	}
	return splits
}

// Ensure GormPaymentSplitRepository implements PaymentSplitRepository
var _ payment.PaymentSplitRepository = (*GormPaymentSplitRepository)(nil)
