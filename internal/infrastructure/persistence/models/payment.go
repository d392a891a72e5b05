package models

import (
	"time"

	"github.com/brokerage/backend/internal/domain/payment"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentModel is the persistence model for the Payment aggregate
type PaymentModel struct {
	AggregateModel
	DealID               uuid.UUID         `gorm:"type:uuid;not null;index"`
	PaymentAmount        valueobject.Money `gorm:"type:decimal(18,4);not null;default:0"`
	ReferralFeeUSD       valueobject.Money `gorm:"type:decimal(18,4);not null;default:0"`
	AGCI                 valueobject.Money `gorm:"column:agci;type:decimal(18,4);not null;default:0"`
	PaymentReceived      bool              `gorm:"not null;default:false;index"`
	PaymentReceivedDate  *time.Time
	PaymentDateEstimated *time.Time `gorm:"index"`
	ReferralFeePaid      bool              `gorm:"not null;default:false"`
	QBInvoiceID          *string           `gorm:"type:varchar(50)"`
	QBInvoiceNumber      *string           `gorm:"type:varchar(50)"`
	IsActive             bool              `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment aggregate.
func (m *PaymentModel) ToDomain() *payment.Payment {
	return &payment.Payment{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		DealID:               m.DealID,
		PaymentAmount:        m.PaymentAmount,
		ReferralFeeUSD:       m.ReferralFeeUSD,
		AGCI:                 m.AGCI,
		PaymentReceived:      m.PaymentReceived,
		PaymentReceivedDate:  m.PaymentReceivedDate,
		PaymentDateEstimated: m.PaymentDateEstimated,
		ReferralFeePaid:      m.ReferralFeePaid,
		QBInvoiceID:          m.QBInvoiceID,
		QBInvoiceNumber:      m.QBInvoiceNumber,
		IsActive:             m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Payment aggregate.
func (m *PaymentModel) FromDomain(p *payment.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.DealID = p.DealID
	m.PaymentAmount = p.PaymentAmount
	m.ReferralFeeUSD = p.ReferralFeeUSD
	m.AGCI = p.AGCI
	m.PaymentReceived = p.PaymentReceived
	m.PaymentReceivedDate = p.PaymentReceivedDate
	m.PaymentDateEstimated = p.PaymentDateEstimated
	m.ReferralFeePaid = p.ReferralFeePaid
	m.QBInvoiceID = p.QBInvoiceID
	m.QBInvoiceNumber = p.QBInvoiceNumber
	m.IsActive = p.IsActive
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentSplitModel is the persistence model for per-payment broker splits
type PaymentSplitModel struct {
	BaseModel
	PaymentID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	BrokerID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	BrokerName         string              `gorm:"type:varchar(200);not null"`
	OriginationPercent valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	SitePercent        valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	DealPercent        valueobject.Percent `gorm:"type:decimal(18,4);not null;default:0"`
	OriginationUSD     valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
	SiteUSD            valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
	DealUSD            valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
	BrokerTotal        valueobject.Money   `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PaymentSplitModel) TableName() string {
	return "payment_splits"
}

// ToDomain converts the persistence model to a domain PaymentSplit.
func (m *PaymentSplitModel) ToDomain() *payment.PaymentSplit {
	return &payment.PaymentSplit{
		BaseEntity:         m.BaseModel.ToDomain(),
		PaymentID:          m.PaymentID,
		BrokerID:           m.BrokerID,
		BrokerName:         m.BrokerName,
		OriginationPercent: m.OriginationPercent,
		SitePercent:        m.SitePercent,
		DealPercent:        m.DealPercent,
		OriginationUSD:     m.OriginationUSD,
		SiteUSD:            m.SiteUSD,
		DealUSD:            m.DealUSD,
		BrokerTotal:        m.BrokerTotal,
	}
}

// FromDomain populates the persistence model from a domain PaymentSplit.
func (m *PaymentSplitModel) FromDomain(s *payment.PaymentSplit) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.PaymentID = s.PaymentID
	m.BrokerID = s.BrokerID
	m.BrokerName = s.BrokerName
	m.OriginationPercent = s.OriginationPercent
	m.SitePercent = s.SitePercent
	m.DealPercent = s.DealPercent
	m.OriginationUSD = s.OriginationUSD
	m.SiteUSD = s.SiteUSD
	m.DealUSD = s.DealUSD
	m.BrokerTotal = s.BrokerTotal
}

// PaymentSplitModelFromDomain creates a new persistence model from a domain
// PaymentSplit.
func PaymentSplitModelFromDomain(s *payment.PaymentSplit) *PaymentSplitModel {
	m := &PaymentSplitModel{}
	m.FromDomain(s)
	return m
}
