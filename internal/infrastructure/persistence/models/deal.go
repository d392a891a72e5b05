package models

import (
	"time"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DealModel is the persistence model for the Deal aggregate. The three
// category percentages are flattened into columns and reassembled through
// UncheckedCategorySplit on read, since rows written before sum-to-100
// validation existed may not satisfy it.
type DealModel struct {
	AggregateModel
	Name               string              `gorm:"type:varchar(200);not null"`
	Stage              string              `gorm:"type:varchar(50);not null;index"`
	DealValue          valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
	Fee                valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
	ReferralFeePercent valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	HousePercent       valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	OriginationPercent valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	SitePercent        valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	DealPercent        valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	ReferralFeeUSD     valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
	HouseOnly          bool                `gorm:"not null;default:false"`
	BookedDate         *time.Time          `gorm:"index"`
	ClosedDate         *time.Time          `gorm:"index"`
	SFID               *string             `gorm:"column:sf_id;type:varchar(18);index"`
	IsActive           bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (DealModel) TableName() string {
	return "deals"
}

// ToDomain converts the persistence model to a domain Deal aggregate.
func (m *DealModel) ToDomain() *deal.Deal {
	return &deal.Deal{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		Name:               m.Name,
		Stage:              deal.Stage(m.Stage),
		DealValue:          m.DealValue,
		Fee:                m.Fee,
		ReferralFeePercent: m.ReferralFeePercent,
		HousePercent:       m.HousePercent,
		Categories:         valueobject.UncheckedCategorySplit(m.OriginationPercent, m.SitePercent, m.DealPercent),
		ReferralFeeUSD:     m.ReferralFeeUSD,
		HouseOnly:          m.HouseOnly,
		BookedDate:         m.BookedDate,
		ClosedDate:         m.ClosedDate,
		SFID:               m.SFID,
		IsActive:           m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Deal aggregate.
func (m *DealModel) FromDomain(d *deal.Deal) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.Name = d.Name
	m.Stage = d.Stage.String()
	m.DealValue = d.DealValue
	m.Fee = d.Fee
	m.ReferralFeePercent = d.ReferralFeePercent
	m.HousePercent = d.HousePercent
	m.OriginationPercent = d.Categories.Origination()
	m.SitePercent = d.Categories.Site()
	m.DealPercent = d.Categories.Deal()
	m.ReferralFeeUSD = d.ReferralFeeUSD
	m.HouseOnly = d.HouseOnly
	m.BookedDate = d.BookedDate
	m.ClosedDate = d.ClosedDate
	m.SFID = d.SFID
	m.IsActive = d.IsActive
}

// DealModelFromDomain creates a new persistence model from a domain Deal.
func DealModelFromDomain(d *deal.Deal) *DealModel {
	m := &DealModel{}
	m.FromDomain(d)
	return m
}

// CommissionSplitModel is the persistence model for deal-level broker splits
type CommissionSplitModel struct {
	BaseModel
	DealID             uuid.UUID           `gorm:"type:uuid;not null;index"`
	BrokerID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	BrokerName         string              `gorm:"type:varchar(200);not null"`
	OriginationPercent valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	SitePercent        valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	DealPercent        valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CommissionSplitModel) TableName() string {
	return "commission_splits"
}

// ToDomain converts the persistence model to a domain CommissionSplit.
func (m *CommissionSplitModel) ToDomain() *deal.CommissionSplit {
	return &deal.CommissionSplit{
		BaseEntity:         m.BaseModel.ToDomain(),
		DealID:             m.DealID,
		BrokerID:           m.BrokerID,
		BrokerName:         m.BrokerName,
		OriginationPercent: m.OriginationPercent,
		SitePercent:        m.SitePercent,
		DealPercent:        m.DealPercent,
	}
}

// FromDomain populates the persistence model from a domain CommissionSplit.
func (m *CommissionSplitModel) FromDomain(s *deal.CommissionSplit) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.DealID = s.DealID
	m.BrokerID = s.BrokerID
	m.BrokerName = s.BrokerName
	m.OriginationPercent = s.OriginationPercent
	m.SitePercent = s.SitePercent
	m.DealPercent = s.DealPercent
}

// CommissionSplitModelFromDomain creates a new persistence model from a
// domain CommissionSplit.
func CommissionSplitModelFromDomain(s *deal.CommissionSplit) *CommissionSplitModel {
	m := &CommissionSplitModel{}
	m.FromDomain(s)
	return m
}
