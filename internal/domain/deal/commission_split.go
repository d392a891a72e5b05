package deal

import (
	"time"

	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CommissionSplit is one broker's percentage allocation on a deal. It is
// assigned once per deal and copied into every payment split of that deal,
// so it is the source of truth for the broker's share within each category
// pool. The percentages are the broker's share within a category, not the
// category's share of AGCI.
type CommissionSplit struct {
	shared.BaseEntity
	DealID             uuid.UUID
	BrokerID           uuid.UUID
	BrokerName         string
	OriginationPercent valueobject.Percent
	SitePercent        valueobject.Percent
	DealPercent        valueobject.Percent
}

// NewCommissionSplit creates a broker's split assignment for a deal
func NewCommissionSplit(
	dealID uuid.UUID,
	brokerID uuid.UUID,
	brokerName string,
	originationPercent valueobject.Percent,
	sitePercent valueobject.Percent,
	dealPercent valueobject.Percent,
) (*CommissionSplit, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEAL", "Deal ID cannot be empty")
	}
	if brokerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BROKER", "Broker ID cannot be empty")
	}
	if brokerName == "" {
		return nil, shared.NewDomainError("INVALID_BROKER_NAME", "Broker name cannot be empty")
	}
	for _, p := range []valueobject.Percent{originationPercent, sitePercent, dealPercent} {
		if !p.InRange() {
			return nil, shared.NewDomainError("INVALID_PERCENT", "Split percentages must be between 0 and 100")
		}
	}

	return &CommissionSplit{
		BaseEntity:         shared.NewBaseEntity(),
		DealID:             dealID,
		BrokerID:           brokerID,
		BrokerName:         brokerName,
		OriginationPercent: originationPercent,
		SitePercent:        sitePercent,
		DealPercent:        dealPercent,
	}, nil
}

// UpdatePercents replaces the broker's percentage allocation
func (cs *CommissionSplit) UpdatePercents(origination, site, deal valueobject.Percent) error {
	for _, p := range []valueobject.Percent{origination, site, deal} {
		if !p.InRange() {
			return shared.NewDomainError("INVALID_PERCENT", "Split percentages must be between 0 and 100")
		}
	}
	cs.OriginationPercent = origination
	cs.SitePercent = site
	cs.DealPercent = deal
	cs.UpdatedAt = time.Now()
	return nil
}
