package report

import (
	"context"
	"fmt"
	"time"

	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PipelineBrokerLine is one broker's deal-aggregate dollar total on a
// pipeline row.
type PipelineBrokerLine struct {
	BrokerID   uuid.UUID
	BrokerName string
	Total      valueobject.Money
}

// PipelineRow is one active deal with its recomputed commission breakdown.
// HasSplits distinguishes an intentionally house-only deal from one whose
// splits were never assigned; house-only deals count as having splits.
type PipelineRow struct {
	DealID     uuid.UUID
	DealName   string
	Stage      deal.Stage
	DealValue  valueobject.Money
	Breakdown  deal.CommissionBreakdown
	Brokers    []PipelineBrokerLine
	HasSplits  bool
	HouseOnly  bool
	BookedDate *time.Time
	ClosedDate *time.Time
}

// PipelineTotals sums the breakdown columns over the report's rows
type PipelineTotals struct {
	Deals     int
	DealValue valueobject.Money
	GCI       valueobject.Money
	AGCI      valueobject.Money
	House     valueobject.Money
}

// PipelineReport is the deal-stage pipeline report
type PipelineReport struct {
	Rows        []PipelineRow
	Totals      PipelineTotals
	GeneratedAt time.Time
}

// PipelineReportService builds the pipeline report over active deals. All
// dollar figures are recomputed from raw deal inputs at read time through
// the same breakdown calculator the rest of the system uses.
type PipelineReportService struct {
	dealRepo  deal.DealRepository
	splitRepo deal.CommissionSplitRepository
}

// NewPipelineReportService creates a new PipelineReportService
func NewPipelineReportService(
	dealRepo deal.DealRepository,
	splitRepo deal.CommissionSplitRepository,
) *PipelineReportService {
	return &PipelineReportService{
		dealRepo:  dealRepo,
		splitRepo: splitRepo,
	}
}

// Generate builds the pipeline report, optionally narrowed to one stage.
// Lost deals are always excluded.
func (s *PipelineReportService) Generate(ctx context.Context, stage *deal.Stage) (*PipelineReport, error) {
	deals, err := s.dealRepo.FindAll(ctx, deal.DealFilter{ExcludeLost: true, Stage: stage})
	if err != nil {
		return nil, fmt.Errorf("failed to load deals: %w", err)
	}

	rows := make([]PipelineRow, 0, len(deals))
	totals := PipelineTotals{}
	for i := range deals {
		d := &deals[i]
		splits, err := s.splitRepo.FindByDeal(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load deal splits: %w", err)
		}

		breakdown := d.Breakdown()
		brokers := make([]PipelineBrokerLine, 0, len(splits))
		for j := range splits {
			brokers = append(brokers, PipelineBrokerLine{
				BrokerID:   splits[j].BrokerID,
				BrokerName: splits[j].BrokerName,
				Total:      deal.BrokerDealTotal(breakdown, &splits[j]),
			})
		}

		rows = append(rows, PipelineRow{
			DealID:     d.ID,
			DealName:   d.Name,
			Stage:      d.Stage,
			DealValue:  d.DealValue,
			Breakdown:  breakdown,
			Brokers:    brokers,
			HasSplits:  len(splits) > 0 || d.HouseOnly,
			HouseOnly:  d.HouseOnly,
			BookedDate: d.BookedDate,
			ClosedDate: d.ClosedDate,
		})

		totals.Deals++
		totals.DealValue = totals.DealValue.Add(d.DealValue)
		totals.GCI = totals.GCI.Add(breakdown.GCI)
		totals.AGCI = totals.AGCI.Add(breakdown.AGCI)
		totals.House = totals.House.Add(breakdown.House)
	}

	return &PipelineReport{
		Rows:        rows,
		Totals:      totals,
		GeneratedAt: time.Now(),
	}, nil
}
