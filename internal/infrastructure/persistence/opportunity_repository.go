package persistence

import (
	"context"
	"errors"

	"github.com/brokerage/backend/internal/domain/reconciliation"
	"github.com/brokerage/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOpportunityRepository reads the mirrored CRM opportunity table. The
// mirror is written by an external sync job, so this repository has no save
// path.
type GormOpportunityRepository struct {
	db *gorm.DB
}

// NewGormOpportunityRepository creates a new GormOpportunityRepository
func NewGormOpportunityRepository(db *gorm.DB) *GormOpportunityRepository {
	return &GormOpportunityRepository{db: db}
}

// FindBySFID finds a mirrored opportunity by its CRM identifier.
// A missing row returns (nil, nil): an unmatched link is a reconciliation
// outcome, not a lookup failure.
func (r *GormOpportunityRepository) FindBySFID(ctx context.Context, sfID string) (*reconciliation.Opportunity, error) {
	var model models.SalesforceOpportunityModel
	if err := r.db.WithContext(ctx).First(&model, "sf_id = ?", sfID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySFIDs loads mirrored opportunities for many CRM identifiers in one
// query, keyed by identifier. Identifiers with no mirror row are simply
// absent from the map.
func (r *GormOpportunityRepository) FindBySFIDs(ctx context.Context, sfIDs []string) (map[string]reconciliation.Opportunity, error) {
	result := make(map[string]reconciliation.Opportunity, len(sfIDs))
	if len(sfIDs) == 0 {
		return result, nil
	}

	var opportunityModels []models.SalesforceOpportunityModel
	if err := r.db.WithContext(ctx).
		Where("sf_id IN ?", sfIDs).
		Find(&opportunityModels).Error; err != nil {
		return nil, err
	}

	for i := range opportunityModels {
		result[opportunityModels[i].SFID] = *opportunityModels[i].ToDomain()
	}
	return result, nil
}

// Ensure GormOpportunityRepository implements OpportunityRepository
var _ reconciliation.OpportunityRepository = (*GormOpportunityRepository)(nil)
