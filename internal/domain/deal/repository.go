package deal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DealFilter defines filtering options for deal queries
type DealFilter struct {
	Stage       *Stage
	ExcludeLost bool
	HasSFID     *bool
	HouseOnly   *bool
	BookedFrom  *time.Time
	BookedTo    *time.Time
	ClosedFrom  *time.Time
	ClosedTo    *time.Time
	Search      string
	Page        int
	PageSize    int
	OrderBy     string
	OrderDir    string
}

// DealRepository provides access to deal records
type DealRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Deal, error)
	FindBySFID(ctx context.Context, sfID string) (*Deal, error)
	FindAll(ctx context.Context, filter DealFilter) ([]Deal, error)
	Count(ctx context.Context, filter DealFilter) (int64, error)
	Save(ctx context.Context, deal *Deal) error
	SaveWithLock(ctx context.Context, deal *Deal) error
}

// CommissionSplitRepository provides access to deal-level broker splits
type CommissionSplitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CommissionSplit, error)
	FindByDeal(ctx context.Context, dealID uuid.UUID) ([]CommissionSplit, error)
	FindByBroker(ctx context.Context, brokerID uuid.UUID) ([]CommissionSplit, error)
	Save(ctx context.Context, split *CommissionSplit) error
	ReplaceForDeal(ctx context.Context, dealID uuid.UUID, splits []CommissionSplit) error
	Delete(ctx context.Context, id uuid.UUID) error
}
