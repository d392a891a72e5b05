package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDealRepository implements DealRepository using GORM
type GormDealRepository struct {
	db *gorm.DB
}

// NewGormDealRepository creates a new GormDealRepository
func NewGormDealRepository(db *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: db}
}

// FindByID finds a deal by its ID. A missing row returns (nil, nil): the
// commission calculators treat an absent deal as zero percentages rather
// than an error.
func (r *GormDealRepository) FindByID(ctx context.Context, id uuid.UUID) (*deal.Deal, error) {
	var model models.DealModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySFID finds the deal linked to an external CRM opportunity.
// A missing row returns (nil, nil).
func (r *GormDealRepository) FindBySFID(ctx context.Context, sfID string) (*deal.Deal, error) {
	var model models.DealModel
	if err := r.db.WithContext(ctx).First(&model, "sf_id = ?", sfID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all deals matching the filter
func (r *GormDealRepository) FindAll(ctx context.Context, filter deal.DealFilter) ([]deal.Deal, error) {
	var dealModels []models.DealModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DealModel{}), filter)

	if err := query.Find(&dealModels).Error; err != nil {
		return nil, err
	}

	deals := make([]deal.Deal, len(dealModels))
	for i, model := range dealModels {
		deals[i] = *model.ToDomain()
	}
	return deals, nil
}

// Count counts deals matching the filter
func (r *GormDealRepository) Count(ctx context.Context, filter deal.DealFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.DealModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a deal
func (r *GormDealRepository) Save(ctx context.Context, d *deal.Deal) error {
	model := models.DealModelFromDomain(d)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a deal with optimistic locking (version check)
// Returns error if the version has changed (concurrent modification)
func (r *GormDealRepository) SaveWithLock(ctx context.Context, d *deal.Deal) error {
	model := models.DealModelFromDomain(d)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", d.ID, d.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The deal record has been modified by another transaction")
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormDealRepository) applyFilter(query *gorm.DB, filter deal.DealFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(dealOrderColumn(filter.OrderBy) + " " + orderDir)
	} else {
		query = query.Order("name ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormDealRepository) applyFilterWithoutPagination(query *gorm.DB, filter deal.DealFilter) *gorm.DB {
	query = query.Where("is_active = ?", true)

	if filter.Stage != nil {
		query = query.Where("stage = ?", filter.Stage.String())
	}
	if filter.ExcludeLost {
		query = query.Where("stage <> ?", deal.StageLost.String())
	}
	if filter.HasSFID != nil {
		if *filter.HasSFID {
			query = query.Where("sf_id IS NOT NULL AND sf_id <> ''")
		} else {
			query = query.Where("sf_id IS NULL OR sf_id = ''")
		}
	}
	if filter.HouseOnly != nil {
		query = query.Where("house_only = ?", *filter.HouseOnly)
	}
	if filter.BookedFrom != nil {
		query = query.Where("booked_date >= ?", *filter.BookedFrom)
	}
	if filter.BookedTo != nil {
		query = query.Where("booked_date <= ?", *filter.BookedTo)
	}
	if filter.ClosedFrom != nil {
		query = query.Where("closed_date >= ?", *filter.ClosedFrom)
	}
	if filter.ClosedTo != nil {
		query = query.Where("closed_date <= ?", *filter.ClosedTo)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	return query
}

// dealOrderColumn maps an order key to a real column, falling back to name
// so caller input never reaches the ORDER BY clause verbatim.
func dealOrderColumn(key string) string {
	switch key {
	case "name", "stage", "deal_value", "fee", "booked_date", "closed_date", "created_at":
		return key
	default:
		return "name"
	}
}

// Ensure GormDealRepository implements DealRepository
var _ deal.DealRepository = (*GormDealRepository)(nil)
