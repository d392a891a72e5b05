package persistence

import (
	"context"
	"errors"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCommissionSplitRepository implements CommissionSplitRepository using GORM
type GormCommissionSplitRepository struct {
	db *gorm.DB
}

// NewGormCommissionSplitRepository creates a new GormCommissionSplitRepository
func NewGormCommissionSplitRepository(db *gorm.DB) *GormCommissionSplitRepository {
	return &GormCommissionSplitRepository{db: db}
}

// FindByID finds a commission split by its ID. A missing row returns (nil, nil).
func (r *GormCommissionSplitRepository) FindByID(ctx context.Context, id uuid.UUID) (*deal.CommissionSplit, error) {
	var model models.CommissionSplitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDeal finds all broker splits for a deal
func (r *GormCommissionSplitRepository) FindByDeal(ctx context.Context, dealID uuid.UUID) ([]deal.CommissionSplit, error) {
	var splitModels []models.CommissionSplitModel
	if err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("broker_name ASC").
		Find(&splitModels).Error; err != nil {
		return nil, err
	}

	splits := make([]deal.CommissionSplit, len(splitModels))
	for i, model := range splitModels {
		splits[i] = *model.ToDomain()
	}
	return splits, nil
}

// FindByBroker finds all splits a broker holds across deals
func (r *GormCommissionSplitRepository) FindByBroker(ctx context.Context, brokerID uuid.UUID) ([]deal.CommissionSplit, error) {
	var splitModels []models.CommissionSplitModel
	if err := r.db.WithContext(ctx).
		Where("broker_id = ?", brokerID).
		Find(&splitModels).Error; err != nil {
		return nil, err
	}

	splits := make([]deal.CommissionSplit, len(splitModels))
	for i, model := range splitModels {
		splits[i] = *model.ToDomain()
	}
	return splits, nil
}

// Save creates or updates a commission split
func (r *GormCommissionSplitRepository) Save(ctx context.Context, split *deal.CommissionSplit) error {
	model := models.CommissionSplitModelFromDomain(split)
	return r.db.WithContext(ctx).Save(model).Error
}

// ReplaceForDeal atomically replaces a deal's broker splits: everything
// currently stored for the deal is deleted and the given set inserted.
// Callers run this inside a transaction scope together with the payment
// split rebuild.
func (r *GormCommissionSplitRepository) ReplaceForDeal(ctx context.Context, dealID uuid.UUID, splits []deal.CommissionSplit) error {
	if err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Delete(&models.CommissionSplitModel{}).Error; err != nil {
		return err
	}
	if len(splits) == 0 {
		return nil
	}

	splitModels := make([]*models.CommissionSplitModel, len(splits))
	for i := range splits {
		splitModels[i] = models.CommissionSplitModelFromDomain(&splits[i])
	}
	return r.db.WithContext(ctx).Create(splitModels).Error
}

// Delete deletes a commission split
func (r *GormCommissionSplitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CommissionSplitModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormCommissionSplitRepository implements CommissionSplitRepository
var _ deal.CommissionSplitRepository = (*GormCommissionSplitRepository)(nil)
