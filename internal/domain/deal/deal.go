package deal

import (
	"time"

	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
)

// Stage represents a deal's position in the brokerage pipeline. Values are
// the display labels; the reconciliation report compares them against the
// mirrored CRM's stage names with case-sensitive string equality, so they
// are never normalized.
type Stage string

const (
	StageNegotiatingLOI Stage = "Negotiating LOI"
	StageAtLeasePSA     Stage = "At Lease/PSA"
	StageUnderContract  Stage = "Under Contract"
	StageBooked         Stage = "Booked"
	StageClosedPaid     Stage = "Closed Paid"
	StageLost           Stage = "Lost"
)

// IsValid checks if the stage is a known pipeline stage
func (s Stage) IsValid() bool {
	switch s {
	case StageNegotiatingLOI, StageAtLeasePSA, StageUnderContract,
		StageBooked, StageClosedPaid, StageLost:
		return true
	}
	return false
}

// String returns the stage label
func (s Stage) String() string {
	return string(s)
}

// IsActive returns true for stages included in active reporting.
// Lost deals keep their data but drop out of every report filter.
func (s Stage) IsActive() bool {
	return s != StageLost
}

// Deal represents one commercial real-estate transaction, the root of the
// deal -> payment -> payment split hierarchy. Deals are never hard-deleted;
// Lost is a stage, not a deletion.
type Deal struct {
	shared.BaseAggregateRoot
	Name               string
	Stage              Stage
	DealValue          valueobject.Money
	Fee                valueobject.Money // gross commission income (GCI)
	ReferralFeePercent valueobject.Percent
	HousePercent       valueobject.Percent
	Categories         valueobject.CategorySplit
	ReferralFeeUSD     valueobject.Money // derived: fee x referral_fee_percent
	HouseOnly          bool              // all AGCI belongs to the firm; no broker splits expected
	BookedDate         *time.Time
	ClosedDate         *time.Time
	SFID               *string // external CRM opportunity id, nil when never pushed
	IsActive           bool
}

// NewDeal creates a new deal in the earliest pipeline stage. Category
// percentages must already have passed CategorySplit validation.
func NewDeal(
	name string,
	dealValue valueobject.Money,
	fee valueobject.Money,
	referralFeePercent valueobject.Percent,
	housePercent valueobject.Percent,
	categories valueobject.CategorySplit,
	houseOnly bool,
) (*Deal, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_DEAL_NAME", "Deal name cannot be empty")
	}
	if dealValue.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DEAL_VALUE", "Deal value cannot be negative")
	}
	if fee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_FEE", "Fee cannot be negative")
	}
	if !referralFeePercent.InRange() {
		return nil, shared.NewDomainError("INVALID_PERCENT", "Referral fee percent must be between 0 and 100")
	}
	if !housePercent.InRange() {
		return nil, shared.NewDomainError("INVALID_PERCENT", "House percent must be between 0 and 100")
	}

	d := &Deal{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Name:               name,
		Stage:              StageNegotiatingLOI,
		DealValue:          dealValue,
		Fee:                fee,
		ReferralFeePercent: referralFeePercent,
		HousePercent:       housePercent,
		Categories:         categories,
		HouseOnly:          houseOnly,
		IsActive:           true,
	}
	d.recalculateReferralFee()
	return d, nil
}

// UpdateFinancials replaces the deal's raw financial inputs and recomputes
// the persisted referral fee. Percentage edits apply to future derivations
// immediately; already-derived payment figures are refreshed by the
// application layer in the same transaction.
func (d *Deal) UpdateFinancials(
	dealValue valueobject.Money,
	fee valueobject.Money,
	referralFeePercent valueobject.Percent,
	housePercent valueobject.Percent,
) error {
	if dealValue.IsNegative() {
		return shared.NewDomainError("INVALID_DEAL_VALUE", "Deal value cannot be negative")
	}
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_FEE", "Fee cannot be negative")
	}
	if !referralFeePercent.InRange() || !housePercent.InRange() {
		return shared.NewDomainError("INVALID_PERCENT", "Percentages must be between 0 and 100")
	}

	d.DealValue = dealValue
	d.Fee = fee
	d.ReferralFeePercent = referralFeePercent
	d.HousePercent = housePercent
	d.recalculateReferralFee()
	d.touch()
	return nil
}

// AssignCategories replaces the deal's category partition. The CategorySplit
// constructor has already enforced the sum-to-100 invariant.
func (d *Deal) AssignCategories(categories valueobject.CategorySplit) {
	d.Categories = categories
	d.touch()
}

// SetHouseOnly flags the deal as house-only. House-only deals legitimately
// carry zero broker splits and must not be reported as missing them.
func (d *Deal) SetHouseOnly(houseOnly bool) {
	d.HouseOnly = houseOnly
	d.touch()
}

// TransitionStage moves the deal to a new pipeline stage, stamping
// booked/closed dates on the transitions that imply them.
func (d *Deal) TransitionStage(stage Stage) error {
	if !stage.IsValid() {
		return shared.NewDomainError("INVALID_STAGE", "Unknown pipeline stage")
	}
	if stage == d.Stage {
		return nil
	}

	d.Stage = stage
	now := time.Now()
	switch stage {
	case StageBooked:
		if d.BookedDate == nil {
			d.BookedDate = &now
		}
	case StageClosedPaid:
		if d.ClosedDate == nil {
			d.ClosedDate = &now
		}
	}
	d.touch()
	return nil
}

// SetClosedDate overwrites the closed date directly. This is the inline-edit
// path used by the reconciliation grid; it has no derived-field side effects.
func (d *Deal) SetClosedDate(closedDate *time.Time) {
	d.ClosedDate = closedDate
	d.touch()
}

// SetSFID links or unlinks the deal to an external CRM opportunity
func (d *Deal) SetSFID(sfID *string) {
	d.SFID = sfID
	d.touch()
}

// HasExternalLink returns true when the deal carries an external CRM id
func (d *Deal) HasExternalLink() bool {
	return d.SFID != nil && *d.SFID != ""
}

// Breakdown computes the deal-level commission breakdown from the deal's
// current raw inputs. Pure; invoked at read time by every pipeline report.
func (d *Deal) Breakdown() CommissionBreakdown {
	return CalculateBreakdown(d.Fee, d.ReferralFeePercent, d.HousePercent, d.Categories)
}

// AGCI returns the deal-level AGCI as persisted fields define it for
// reconciliation: fee minus the persisted referral fee.
func (d *Deal) AGCI() valueobject.Money {
	return d.Fee.Subtract(d.ReferralFeeUSD)
}

func (d *Deal) recalculateReferralFee() {
	d.ReferralFeeUSD = d.Fee.ApplyPercent(d.ReferralFeePercent)
}

func (d *Deal) touch() {
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}
