package deal

import (
	"context"
	"fmt"
	"time"

	apppayment "github.com/brokerage/backend/internal/application/payment"
	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DealService owns the deal write path. Edits that change a deal's
// percentages or category partition fan out to every payment of the deal:
// the re-derivation runs in the same transaction as the deal save, so
// persisted payment figures never lag the deal they were derived from.
type DealService struct {
	scope     apppayment.TransactionScope
	dealRepo  deal.DealRepository
	splitRepo deal.CommissionSplitRepository
}

// NewDealService creates a new DealService
func NewDealService(
	scope apppayment.TransactionScope,
	dealRepo deal.DealRepository,
	splitRepo deal.CommissionSplitRepository,
) *DealService {
	return &DealService{
		scope:     scope,
		dealRepo:  dealRepo,
		splitRepo: splitRepo,
	}
}

// CreateDealRequest carries the user-entered deal fields. Percentages are
// on the 0-100 scale; the three category percentages must sum to 100.
type CreateDealRequest struct {
	Name               string
	DealValue          valueobject.Money
	Fee                valueobject.Money
	ReferralFeePercent valueobject.Percent
	HousePercent       valueobject.Percent
	OriginationPercent valueobject.Percent
	SitePercent        valueobject.Percent
	DealPercent        valueobject.Percent
	HouseOnly          bool
	SFID               *string
}

// UpdateFinancialsRequest carries the editable financial inputs of a deal
type UpdateFinancialsRequest struct {
	DealValue          valueobject.Money
	Fee                valueobject.Money
	ReferralFeePercent valueobject.Percent
	HousePercent       valueobject.Percent
}

// DealDetail pairs a deal with its broker assignments and the deal-level
// commission breakdown recomputed from current inputs.
type DealDetail struct {
	Deal      deal.Deal
	Splits    []deal.CommissionSplit
	Breakdown deal.CommissionBreakdown
}

// CreateDeal validates the category partition and inserts a new deal in the
// earliest pipeline stage.
func (s *DealService) CreateDeal(ctx context.Context, req CreateDealRequest) (*deal.Deal, error) {
	categories, err := valueobject.NewCategorySplit(req.OriginationPercent, req.SitePercent, req.DealPercent)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_SPLIT", err.Error())
	}

	d, err := deal.NewDeal(
		req.Name, req.DealValue, req.Fee,
		req.ReferralFeePercent, req.HousePercent,
		categories, req.HouseOnly,
	)
	if err != nil {
		return nil, err
	}
	if req.SFID != nil && *req.SFID != "" {
		if err := s.checkSFIDFree(ctx, *req.SFID, d.ID); err != nil {
			return nil, err
		}
		d.SetSFID(req.SFID)
	}

	if err := s.dealRepo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save deal: %w", err)
	}
	return d, nil
}

// UpdateFinancials replaces the deal's raw financial inputs and re-derives
// every active payment of the deal in the same transaction.
func (s *DealService) UpdateFinancials(ctx context.Context, dealID uuid.UUID, req UpdateFinancialsRequest) (*deal.Deal, error) {
	var updated *deal.Deal
	err := s.scope.Execute(ctx, func(repos apppayment.TransactionalRepositories) error {
		d, err := s.loadDealTx(ctx, repos, dealID)
		if err != nil {
			return err
		}
		if err := d.UpdateFinancials(req.DealValue, req.Fee, req.ReferralFeePercent, req.HousePercent); err != nil {
			return err
		}
		if err := repos.DealRepo().SaveWithLock(ctx, d); err != nil {
			return fmt.Errorf("failed to save deal: %w", err)
		}
		if err := apppayment.RederiveDealPayments(ctx, repos, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AssignCategories replaces the deal's category partition (validated to sum
// to 100) and re-derives the deal's payments, since the partition sizes the
// category pools every split dollar comes from.
func (s *DealService) AssignCategories(ctx context.Context, dealID uuid.UUID, origination, site, dealPercent valueobject.Percent) (*deal.Deal, error) {
	categories, err := valueobject.NewCategorySplit(origination, site, dealPercent)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_SPLIT", err.Error())
	}

	var updated *deal.Deal
	err = s.scope.Execute(ctx, func(repos apppayment.TransactionalRepositories) error {
		d, err := s.loadDealTx(ctx, repos, dealID)
		if err != nil {
			return err
		}
		d.AssignCategories(categories)
		if err := repos.DealRepo().SaveWithLock(ctx, d); err != nil {
			return fmt.Errorf("failed to save deal: %w", err)
		}
		if err := apppayment.RederiveDealPayments(ctx, repos, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TransitionStage moves a deal through the pipeline, stamping booked/closed
// dates on the transitions that imply them.
func (s *DealService) TransitionStage(ctx context.Context, dealID uuid.UUID, stage deal.Stage) (*deal.Deal, error) {
	d, err := s.loadDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if err := d.TransitionStage(stage); err != nil {
		return nil, err
	}
	if err := s.dealRepo.SaveWithLock(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save deal: %w", err)
	}
	return d, nil
}

// SetClosedDate overwrites a deal's closed date directly. This is the
// inline-edit path of the reconciliation grid; it touches nothing derived.
func (s *DealService) SetClosedDate(ctx context.Context, dealID uuid.UUID, closedDate *time.Time) (*deal.Deal, error) {
	d, err := s.loadDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	d.SetClosedDate(closedDate)
	if err := s.dealRepo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save deal: %w", err)
	}
	return d, nil
}

// SetSFID links or unlinks the deal to an external CRM opportunity. An
// opportunity can back at most one deal, so linking an identifier another
// deal already holds is rejected.
func (s *DealService) SetSFID(ctx context.Context, dealID uuid.UUID, sfID *string) (*deal.Deal, error) {
	d, err := s.loadDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if sfID != nil && *sfID != "" {
		if err := s.checkSFIDFree(ctx, *sfID, d.ID); err != nil {
			return nil, err
		}
	}
	d.SetSFID(sfID)
	if err := s.dealRepo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save deal: %w", err)
	}
	return d, nil
}

// checkSFIDFree rejects linking an opportunity identifier that a different
// deal already carries.
func (s *DealService) checkSFIDFree(ctx context.Context, sfID string, dealID uuid.UUID) error {
	existing, err := s.dealRepo.FindBySFID(ctx, sfID)
	if err != nil {
		return fmt.Errorf("failed to check opportunity link: %w", err)
	}
	if existing != nil && existing.ID != dealID {
		return shared.NewDomainError("ALREADY_EXISTS", "Another deal is already linked to this opportunity")
	}
	return nil
}

// SetHouseOnly flags the deal as house-only
func (s *DealService) SetHouseOnly(ctx context.Context, dealID uuid.UUID, houseOnly bool) (*deal.Deal, error) {
	d, err := s.loadDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	d.SetHouseOnly(houseOnly)
	if err := s.dealRepo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save deal: %w", err)
	}
	return d, nil
}

// GetDeal returns a deal with its broker assignments and recomputed breakdown
func (s *DealService) GetDeal(ctx context.Context, dealID uuid.UUID) (*DealDetail, error) {
	d, err := s.loadDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	splits, err := s.splitRepo.FindByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal splits: %w", err)
	}
	return &DealDetail{Deal: *d, Splits: splits, Breakdown: d.Breakdown()}, nil
}

// ListDeals returns deals matching the filter
func (s *DealService) ListDeals(ctx context.Context, filter deal.DealFilter) ([]deal.Deal, int64, error) {
	deals, err := s.dealRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deals: %w", err)
	}
	total, err := s.dealRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count deals: %w", err)
	}
	return deals, total, nil
}

func (s *DealService) loadDeal(ctx context.Context, dealID uuid.UUID) (*deal.Deal, error) {
	d, err := s.dealRepo.FindByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	if d == nil {
		return nil, shared.NewDomainError("DEAL_NOT_FOUND", "Deal not found")
	}
	return d, nil
}

func (s *DealService) loadDealTx(ctx context.Context, repos apppayment.TransactionalRepositories, dealID uuid.UUID) (*deal.Deal, error) {
	d, err := repos.DealRepo().FindByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	if d == nil {
		return nil, shared.NewDomainError("DEAL_NOT_FOUND", "Deal not found")
	}
	return d, nil
}
