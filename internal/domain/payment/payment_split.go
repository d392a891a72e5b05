package payment

import (
	"time"

	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentSplit is one broker's dollar share of one payment. The percentage
// columns are copied from the deal's commission split when the split rows
// are created; the dollar columns are rewritten by the distributor whenever
// the payment's AGCI settles.
type PaymentSplit struct {
	shared.BaseEntity
	PaymentID          uuid.UUID
	BrokerID           uuid.UUID
	BrokerName         string
	OriginationPercent valueobject.Percent // broker's share within the origination pool
	SitePercent        valueobject.Percent
	DealPercent        valueobject.Percent
	OriginationUSD     valueobject.Money // derived
	SiteUSD            valueobject.Money // derived
	DealUSD            valueobject.Money // derived
	BrokerTotal        valueobject.Money // derived: sum of the three components
}

// NewPaymentSplit creates a split row for a payment, copying the broker's
// deal-level percentage allocation. Dollar figures start at zero until the
// distributor runs.
func NewPaymentSplit(
	paymentID uuid.UUID,
	brokerID uuid.UUID,
	brokerName string,
	originationPercent valueobject.Percent,
	sitePercent valueobject.Percent,
	dealPercent valueobject.Percent,
) (*PaymentSplit, error) {
	if paymentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PAYMENT", "Payment ID cannot be empty")
	}
	if brokerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BROKER", "Broker ID cannot be empty")
	}
	for _, p := range []valueobject.Percent{originationPercent, sitePercent, dealPercent} {
		if !p.InRange() {
			return nil, shared.NewDomainError("INVALID_PERCENT", "Split percentages must be between 0 and 100")
		}
	}

	return &PaymentSplit{
		BaseEntity:         shared.NewBaseEntity(),
		PaymentID:          paymentID,
		BrokerID:           brokerID,
		BrokerName:         brokerName,
		OriginationPercent: originationPercent,
		SitePercent:        sitePercent,
		DealPercent:        dealPercent,
		OriginationUSD:     valueobject.ZeroMoney(),
		SiteUSD:            valueobject.ZeroMoney(),
		DealUSD:            valueobject.ZeroMoney(),
		BrokerTotal:        valueobject.ZeroMoney(),
	}, nil
}

// applyAmounts overwrites the derived dollar columns
func (ps *PaymentSplit) applyAmounts(origination, site, deal valueobject.Money) {
	ps.OriginationUSD = origination
	ps.SiteUSD = site
	ps.DealUSD = deal
	ps.BrokerTotal = origination.Add(site).Add(deal)
	ps.UpdatedAt = time.Now()
}
