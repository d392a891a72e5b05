package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/reconciliation"
)

// DateBucket names the canned date ranges the reconciliation grid filters
// on. Custom ranges come through the From/To fields instead.
type DateBucket string

const (
	BucketAllTime      DateBucket = "all_time"
	BucketMissing      DateBucket = "missing"
	BucketCurrentYear  DateBucket = "current_year"
	BucketLastTwoYears DateBucket = "last_2_years"
	BucketCustom       DateBucket = "custom"
)

// ReconciliationFilter narrows and orders the reconciliation rows. Zero
// value means every active deal, unsorted beyond deal name.
type ReconciliationFilter struct {
	Stage        *deal.Stage
	ClosedBucket DateBucket
	ClosedFrom   *time.Time
	ClosedTo     *time.Time
	BookedBucket DateBucket
	BookedFrom   *time.Time
	BookedTo     *time.Time
	SortBy       string
	SortDesc     bool
}

// ReconciliationRow is one deal's comparison plus the dates the grid
// filters and sorts on.
type ReconciliationRow struct {
	reconciliation.Comparison
	BookedDate *time.Time
	ClosedDate *time.Time
}

// ReconciliationTotals is the running-total row, summed over the filtered
// rows only, never the full dataset.
type ReconciliationTotals struct {
	Deals     int
	DealValue reconciliation.AmountVariance
	Fee       reconciliation.AmountVariance
	AGCI      reconciliation.AmountVariance
	House     reconciliation.AmountVariance
}

// ReconciliationReport is the filtered, sorted comparison set with its totals
type ReconciliationReport struct {
	Rows        []ReconciliationRow
	Totals      ReconciliationTotals
	GeneratedAt time.Time
}

// ReconciliationReportService builds the cross-system variance report:
// every active deal compared against its mirrored CRM opportunity. Rows are
// recomputed per request from current data; nothing is cached.
type ReconciliationReportService struct {
	dealRepo deal.DealRepository
	oppRepo  reconciliation.OpportunityRepository
}

// NewReconciliationReportService creates a new ReconciliationReportService
func NewReconciliationReportService(
	dealRepo deal.DealRepository,
	oppRepo reconciliation.OpportunityRepository,
) *ReconciliationReportService {
	return &ReconciliationReportService{
		dealRepo: dealRepo,
		oppRepo:  oppRepo,
	}
}

// Generate builds the report. Deals with no external link or no mirror row
// appear as full-variance rows; if the mirror lookup itself fails, the
// affected rows carry the ERROR resolution status instead of sinking the
// whole report.
func (s *ReconciliationReportService) Generate(ctx context.Context, filter ReconciliationFilter) (*ReconciliationReport, error) {
	dealFilter := deal.DealFilter{ExcludeLost: true, Stage: filter.Stage}
	deals, err := s.dealRepo.FindAll(ctx, dealFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to load deals: %w", err)
	}

	sfIDs := make([]string, 0, len(deals))
	for i := range deals {
		if deals[i].HasExternalLink() {
			sfIDs = append(sfIDs, *deals[i].SFID)
		}
	}

	var mirror map[string]reconciliation.Opportunity
	var lookupErr error
	if len(sfIDs) > 0 {
		mirror, lookupErr = s.oppRepo.FindBySFIDs(ctx, sfIDs)
	}

	rows := make([]ReconciliationRow, 0, len(deals))
	for i := range deals {
		d := &deals[i]
		row := ReconciliationRow{
			Comparison: reconciliation.Compare(d, s.resolve(d, mirror, lookupErr)),
			BookedDate: d.BookedDate,
			ClosedDate: d.ClosedDate,
		}
		if !matchesBucket(row.ClosedDate, filter.ClosedBucket, filter.ClosedFrom, filter.ClosedTo) {
			continue
		}
		if !matchesBucket(row.BookedDate, filter.BookedBucket, filter.BookedFrom, filter.BookedTo) {
			continue
		}
		rows = append(rows, row)
	}

	sortRows(rows, filter.SortBy, filter.SortDesc)

	return &ReconciliationReport{
		Rows:        rows,
		Totals:      sumRows(rows),
		GeneratedAt: time.Now(),
	}, nil
}

func (s *ReconciliationReportService) resolve(d *deal.Deal, mirror map[string]reconciliation.Opportunity, lookupErr error) reconciliation.ExternalReference {
	if !d.HasExternalLink() {
		return reconciliation.MissingReference("")
	}
	sfID := *d.SFID
	if lookupErr != nil {
		return reconciliation.ErroredReference(sfID, lookupErr)
	}
	if opp, ok := mirror[sfID]; ok {
		return reconciliation.FoundReference(&opp)
	}
	return reconciliation.MissingReference(sfID)
}

// matchesBucket applies a canned or custom date-range filter to a nullable
// date. Bucket boundaries are calendar years in local time.
func matchesBucket(date *time.Time, bucket DateBucket, from, to *time.Time) bool {
	switch bucket {
	case "", BucketAllTime:
		return true
	case BucketMissing:
		return date == nil
	case BucketCurrentYear:
		if date == nil {
			return false
		}
		return date.Year() == time.Now().Year()
	case BucketLastTwoYears:
		if date == nil {
			return false
		}
		cutoff := time.Date(time.Now().Year()-1, time.January, 1, 0, 0, 0, 0, time.Local)
		return !date.Before(cutoff)
	case BucketCustom:
		if date == nil {
			return false
		}
		if from != nil && date.Before(*from) {
			return false
		}
		if to != nil && date.After(*to) {
			return false
		}
		return true
	}
	return true
}

// sortRows orders the rows by a displayed column. Unknown columns fall back
// to deal name so the grid order is always deterministic.
func sortRows(rows []ReconciliationRow, sortBy string, desc bool) {
	less := func(a, b *ReconciliationRow) bool {
		switch strings.ToLower(sortBy) {
		case "sf_id":
			return a.SFID < b.SFID
		case "resolution":
			return a.Resolution < b.Resolution
		case "stage":
			return a.InternalStage < b.InternalStage
		case "external_stage":
			return a.ExternalStage < b.ExternalStage
		case "stage_match":
			return !a.StageMatch && b.StageMatch
		case "deal_value":
			return a.DealValue.Internal.LessThan(b.DealValue.Internal)
		case "deal_value_variance":
			return a.DealValue.Variance.LessThan(b.DealValue.Variance)
		case "fee":
			return a.Fee.Internal.LessThan(b.Fee.Internal)
		case "fee_variance":
			return a.Fee.Variance.LessThan(b.Fee.Variance)
		case "commission_rate":
			return a.CommissionRate.Internal.LessThan(b.CommissionRate.Internal)
		case "commission_rate_variance":
			return a.CommissionRate.Variance.LessThan(b.CommissionRate.Variance)
		case "agci":
			return a.AGCI.Internal.LessThan(b.AGCI.Internal)
		case "agci_variance":
			return a.AGCI.Variance.LessThan(b.AGCI.Variance)
		case "house":
			return a.House.Internal.LessThan(b.House.Internal)
		case "house_variance":
			return a.House.Variance.LessThan(b.House.Variance)
		case "closed_date":
			return beforeNullable(a.ClosedDate, b.ClosedDate)
		case "booked_date":
			return beforeNullable(a.BookedDate, b.BookedDate)
		default:
			return a.DealName < b.DealName
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(&rows[j], &rows[i])
		}
		return less(&rows[i], &rows[j])
	})
}

// beforeNullable orders nil dates first
func beforeNullable(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}

func sumRows(rows []ReconciliationRow) ReconciliationTotals {
	totals := ReconciliationTotals{Deals: len(rows)}
	for i := range rows {
		totals.DealValue = addVariance(totals.DealValue, rows[i].DealValue)
		totals.Fee = addVariance(totals.Fee, rows[i].Fee)
		totals.AGCI = addVariance(totals.AGCI, rows[i].AGCI)
		totals.House = addVariance(totals.House, rows[i].House)
	}
	return totals
}

func addVariance(sum, row reconciliation.AmountVariance) reconciliation.AmountVariance {
	return reconciliation.AmountVariance{
		Internal: sum.Internal.Add(row.Internal),
		External: sum.External.Add(row.External),
		Variance: sum.Variance.Add(row.Variance),
	}
}
