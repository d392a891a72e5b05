package reconciliation

import (
	"context"

	"github.com/brokerage/backend/internal/domain/shared/valueobject"
)

// Opportunity is the read-only mirror of an external CRM opportunity row.
// Rows are synced into the local database by an external process and keyed
// by the CRM's own identifier; this system never writes them.
type Opportunity struct {
	SFID           string
	Name           string
	StageName      string
	DealValue      valueobject.Money
	Commission     valueobject.Money // the CRM's fee figure
	CommissionRate valueobject.Percent
	ReferralFee    valueobject.Money
	HouseDollars   valueobject.Money
}

// AGCI computes the mirror-side AGCI with the same formula the internal
// side persists: commission minus referral fee.
func (o *Opportunity) AGCI() valueobject.Money {
	return o.Commission.Subtract(o.ReferralFee)
}

// OpportunityRepository provides read-only access to the mirrored CRM rows
type OpportunityRepository interface {
	FindBySFID(ctx context.Context, sfID string) (*Opportunity, error)
	FindBySFIDs(ctx context.Context, sfIDs []string) (map[string]Opportunity, error)
}
