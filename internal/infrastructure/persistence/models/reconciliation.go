package models

import (
	"time"

	"github.com/brokerage/backend/internal/domain/reconciliation"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
)

// SalesforceOpportunityModel maps the mirrored CRM opportunity table. An
// external sync process owns these rows; this application only reads them,
// so there is no FromDomain direction.
type SalesforceOpportunityModel struct {
	SFID           string              `gorm:"column:sf_id;type:varchar(18);primary_key"`
	Name           string              `gorm:"type:varchar(200)"`
	StageName      string              `gorm:"type:varchar(50)"`
	DealValue      valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
	Commission     valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
	CommissionRate valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	ReferralFee    valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
	HouseDollars   valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
	SyncedAt       time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesforceOpportunityModel) TableName() string {
	return "salesforce_opportunities"
}

// ToDomain converts the mirror row to the domain Opportunity.
func (m *SalesforceOpportunityModel) ToDomain() *reconciliation.Opportunity {
	return &reconciliation.Opportunity{
		SFID:           m.SFID,
		Name:           m.Name,
		StageName:      m.StageName,
		DealValue:      m.DealValue,
		Commission:     m.Commission,
		CommissionRate: m.CommissionRate,
		ReferralFee:    m.ReferralFee,
		HouseDollars:   m.HouseDollars,
	}
}
