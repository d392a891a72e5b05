package deal

import (
	"context"
	"fmt"

	apppayment "github.com/brokerage/backend/internal/application/payment"
	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CommissionSplitService owns broker assignment on deals. Replacing a
// deal's splits rebuilds the split rows of every payment of that deal in
// the same transaction, so payment-level splits always mirror the current
// assignment.
type CommissionSplitService struct {
	scope     apppayment.TransactionScope
	splitRepo deal.CommissionSplitRepository
}

// NewCommissionSplitService creates a new CommissionSplitService
func NewCommissionSplitService(
	scope apppayment.TransactionScope,
	splitRepo deal.CommissionSplitRepository,
) *CommissionSplitService {
	return &CommissionSplitService{
		scope:     scope,
		splitRepo: splitRepo,
	}
}

// SplitAssignment is one broker's percentage allocation in an assignment
// request. Percentages are the broker's share within each category pool;
// brokers on a deal need not exhaust a pool, the house keeps the remainder.
type SplitAssignment struct {
	BrokerID           uuid.UUID
	BrokerName         string
	OriginationPercent valueobject.Percent
	SitePercent        valueobject.Percent
	DealPercent        valueobject.Percent
}

// AssignSplits replaces the full set of broker assignments on a deal and
// fans the change out to every active payment: split rows are rebuilt from
// the new assignment and redistributed from each payment's AGCI. An empty
// assignment list clears the deal's splits.
func (s *CommissionSplitService) AssignSplits(ctx context.Context, dealID uuid.UUID, assignments []SplitAssignment) ([]deal.CommissionSplit, error) {
	var saved []deal.CommissionSplit
	err := s.scope.Execute(ctx, func(repos apppayment.TransactionalRepositories) error {
		d, err := repos.DealRepo().FindByID(ctx, dealID)
		if err != nil {
			return fmt.Errorf("failed to load deal: %w", err)
		}
		if d == nil {
			return shared.NewDomainError("DEAL_NOT_FOUND", "Deal not found")
		}

		splits := make([]deal.CommissionSplit, 0, len(assignments))
		for _, a := range assignments {
			split, err := deal.NewCommissionSplit(
				dealID, a.BrokerID, a.BrokerName,
				a.OriginationPercent, a.SitePercent, a.DealPercent,
			)
			if err != nil {
				return err
			}
			splits = append(splits, *split)
		}

		if err := repos.DealSplitRepo().ReplaceForDeal(ctx, dealID, splits); err != nil {
			return fmt.Errorf("failed to replace deal splits: %w", err)
		}
		if err := apppayment.RebuildDealPaymentSplits(ctx, repos, d, splits); err != nil {
			return err
		}
		saved = splits
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// UpdateSplit edits one broker's percentages and fans the change out to the
// deal's payments the same way a full reassignment does.
func (s *CommissionSplitService) UpdateSplit(ctx context.Context, splitID uuid.UUID, origination, site, dealPercent valueobject.Percent) (*deal.CommissionSplit, error) {
	var updated *deal.CommissionSplit
	err := s.scope.Execute(ctx, func(repos apppayment.TransactionalRepositories) error {
		split, err := repos.DealSplitRepo().FindByID(ctx, splitID)
		if err != nil {
			return fmt.Errorf("failed to load split: %w", err)
		}
		if split == nil {
			return shared.NewDomainError("SPLIT_NOT_FOUND", "Commission split not found")
		}
		if err := split.UpdatePercents(origination, site, dealPercent); err != nil {
			return err
		}
		if err := repos.DealSplitRepo().Save(ctx, split); err != nil {
			return fmt.Errorf("failed to save split: %w", err)
		}

		d, err := repos.DealRepo().FindByID(ctx, split.DealID)
		if err != nil {
			return fmt.Errorf("failed to load deal: %w", err)
		}
		if d == nil {
			return shared.NewDomainError("DEAL_NOT_FOUND", "Deal not found")
		}
		assignments, err := repos.DealSplitRepo().FindByDeal(ctx, split.DealID)
		if err != nil {
			return fmt.Errorf("failed to load deal splits: %w", err)
		}
		if err := apppayment.RebuildDealPaymentSplits(ctx, repos, d, assignments); err != nil {
			return err
		}
		updated = split
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByDeal returns the broker assignments of a deal
func (s *CommissionSplitService) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]deal.CommissionSplit, error) {
	splits, err := s.splitRepo.FindByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal splits: %w", err)
	}
	return splits, nil
}

// ListByBroker returns a broker's assignments across deals
func (s *CommissionSplitService) ListByBroker(ctx context.Context, brokerID uuid.UUID) ([]deal.CommissionSplit, error) {
	splits, err := s.splitRepo.FindByBroker(ctx, brokerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load broker splits: %w", err)
	}
	return splits, nil
}
