package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/brokerage/backend/internal/application/report"
	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/reconciliation"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportHandler exposes the read-only report endpoints
type ReportHandler struct {
	BaseHandler
	pipelineService       *report.PipelineReportService
	unpaidReferralService *report.UnpaidReferralReportService
	reconciliationService *report.ReconciliationReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(
	pipelineService *report.PipelineReportService,
	unpaidReferralService *report.UnpaidReferralReportService,
	reconciliationService *report.ReconciliationReportService,
) *ReportHandler {
	return &ReportHandler{
		pipelineService:       pipelineService,
		unpaidReferralService: unpaidReferralService,
		reconciliationService: reconciliationService,
	}
}

// RegisterRoutes registers report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/pipeline", h.Pipeline)
		reports.GET("/unpaid-referrals", h.UnpaidReferrals)
		reports.GET("/reconciliation", h.Reconciliation)
		reports.GET("/reconciliation/export", h.ReconciliationExport)
	}
}

// ReconciliationQuery is the reconciliation grid query string
type ReconciliationQuery struct {
	Stage        string     `form:"stage"`
	ClosedBucket string     `form:"closed_bucket" binding:"omitempty,oneof=all_time missing current_year last_2_years custom"`
	ClosedFrom   *time.Time `form:"closed_from" time_format:"2006-01-02"`
	ClosedTo     *time.Time `form:"closed_to" time_format:"2006-01-02"`
	BookedBucket string     `form:"booked_bucket" binding:"omitempty,oneof=all_time missing current_year last_2_years custom"`
	BookedFrom   *time.Time `form:"booked_from" time_format:"2006-01-02"`
	BookedTo     *time.Time `form:"booked_to" time_format:"2006-01-02"`
	SortBy       string     `form:"sort_by"`
	SortDesc     bool       `form:"sort_desc"`
}

// AmountVarianceResponse pairs internal and external dollars with their
// signed difference
type AmountVarianceResponse struct {
	Internal valueobject.Money `json:"internal"`
	External valueobject.Money `json:"external"`
	Variance valueobject.Money `json:"variance"`
}

// RateVarianceResponse pairs internal and external percentages with their
// signed difference
type RateVarianceResponse struct {
	Internal valueobject.Percent `json:"internal"`
	External valueobject.Percent `json:"external"`
	Variance valueobject.Percent `json:"variance"`
}

// ReconciliationRowResponse is one deal's comparison in the grid
type ReconciliationRowResponse struct {
	DealID         uuid.UUID              `json:"deal_id"`
	DealName       string                 `json:"deal_name"`
	SFID           string                 `json:"sf_id"`
	Resolution     string                 `json:"resolution"`
	InternalStage  string                 `json:"internal_stage"`
	ExternalStage  string                 `json:"external_stage"`
	StageMatch     bool                   `json:"stage_match"`
	DealValue      AmountVarianceResponse `json:"deal_value"`
	Fee            AmountVarianceResponse `json:"fee"`
	CommissionRate RateVarianceResponse   `json:"commission_rate"`
	AGCI           AmountVarianceResponse `json:"agci"`
	House          AmountVarianceResponse `json:"house"`
	HasVariance    bool                   `json:"has_variance"`
	BookedDate     *time.Time             `json:"booked_date"`
	ClosedDate     *time.Time             `json:"closed_date"`
}

// ReconciliationTotalsResponse is the running-total row over filtered rows
type ReconciliationTotalsResponse struct {
	Deals     int                    `json:"deals"`
	DealValue AmountVarianceResponse `json:"deal_value"`
	Fee       AmountVarianceResponse `json:"fee"`
	AGCI      AmountVarianceResponse `json:"agci"`
	House     AmountVarianceResponse `json:"house"`
}

// ReconciliationReportResponse is the filtered, sorted grid with totals
type ReconciliationReportResponse struct {
	Rows        []ReconciliationRowResponse  `json:"rows"`
	Totals      ReconciliationTotalsResponse `json:"totals"`
	GeneratedAt time.Time                    `json:"generated_at"`
}

// PipelineBrokerLineResponse is one broker's total on a pipeline row
type PipelineBrokerLineResponse struct {
	BrokerID   uuid.UUID         `json:"broker_id"`
	BrokerName string            `json:"broker_name"`
	Total      valueobject.Money `json:"total"`
}

// PipelineRowResponse is one deal in the pipeline report
type PipelineRowResponse struct {
	DealID     uuid.UUID                    `json:"deal_id"`
	DealName   string                       `json:"deal_name"`
	Stage      string                       `json:"stage"`
	DealValue  valueobject.Money            `json:"deal_value"`
	Breakdown  BreakdownResponse            `json:"breakdown"`
	Brokers    []PipelineBrokerLineResponse `json:"brokers"`
	HasSplits  bool                         `json:"has_splits"`
	HouseOnly  bool                         `json:"house_only"`
	BookedDate *time.Time                   `json:"booked_date"`
	ClosedDate *time.Time                   `json:"closed_date"`
}

// PipelineReportResponse is the pipeline report with totals
type PipelineReportResponse struct {
	Rows        []PipelineRowResponse  `json:"rows"`
	Totals      PipelineTotalsResponse `json:"totals"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// PipelineTotalsResponse sums the pipeline columns
type PipelineTotalsResponse struct {
	Deals     int               `json:"deals"`
	DealValue valueobject.Money `json:"deal_value"`
	GCI       valueobject.Money `json:"gci"`
	AGCI      valueobject.Money `json:"agci"`
	House     valueobject.Money `json:"house"`
}

// UnpaidReferralRowResponse is one outstanding referral-fee obligation
type UnpaidReferralRowResponse struct {
	PaymentID      uuid.UUID         `json:"payment_id"`
	DealID         uuid.UUID         `json:"deal_id"`
	DealName       string            `json:"deal_name"`
	PaymentAmount  valueobject.Money `json:"payment_amount"`
	ReferralFeeUSD valueobject.Money `json:"referral_fee_usd"`
	ReceivedDate   *time.Time        `json:"received_date"`
}

// UnpaidReferralReportResponse lists outstanding referral-fee obligations
type UnpaidReferralReportResponse struct {
	Rows        []UnpaidReferralRowResponse `json:"rows"`
	TotalOwed   valueobject.Money           `json:"total_owed"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// Pipeline handles GET /reports/pipeline
func (h *ReportHandler) Pipeline(c *gin.Context) {
	var stage *deal.Stage
	if s := c.Query("stage"); s != "" {
		parsed := deal.Stage(s)
		if !parsed.IsValid() {
			h.BadRequest(c, "unknown pipeline stage")
			return
		}
		stage = &parsed
	}

	rep, err := h.pipelineService.Generate(c.Request.Context(), stage)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows := make([]PipelineRowResponse, len(rep.Rows))
	for i := range rep.Rows {
		r := &rep.Rows[i]
		brokers := make([]PipelineBrokerLineResponse, len(r.Brokers))
		for j, b := range r.Brokers {
			brokers[j] = PipelineBrokerLineResponse{
				BrokerID:   b.BrokerID,
				BrokerName: b.BrokerName,
				Total:      b.Total,
			}
		}
		rows[i] = PipelineRowResponse{
			DealID:     r.DealID,
			DealName:   r.DealName,
			Stage:      r.Stage.String(),
			DealValue:  r.DealValue,
			Breakdown:  toBreakdownResponse(r.Breakdown),
			Brokers:    brokers,
			HasSplits:  r.HasSplits,
			HouseOnly:  r.HouseOnly,
			BookedDate: r.BookedDate,
			ClosedDate: r.ClosedDate,
		}
	}

	h.Success(c, PipelineReportResponse{
		Rows: rows,
		Totals: PipelineTotalsResponse{
			Deals:     rep.Totals.Deals,
			DealValue: rep.Totals.DealValue,
			GCI:       rep.Totals.GCI,
			AGCI:      rep.Totals.AGCI,
			House:     rep.Totals.House,
		},
		GeneratedAt: rep.GeneratedAt,
	})
}

// UnpaidReferrals handles GET /reports/unpaid-referrals
func (h *ReportHandler) UnpaidReferrals(c *gin.Context) {
	rep, err := h.unpaidReferralService.Generate(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows := make([]UnpaidReferralRowResponse, len(rep.Rows))
	for i, r := range rep.Rows {
		rows[i] = UnpaidReferralRowResponse{
			PaymentID:      r.PaymentID,
			DealID:         r.DealID,
			DealName:       r.DealName,
			PaymentAmount:  r.PaymentAmount,
			ReferralFeeUSD: r.ReferralFeeUSD,
			ReceivedDate:   r.ReceivedDate,
		}
	}

	h.Success(c, UnpaidReferralReportResponse{
		Rows:        rows,
		TotalOwed:   rep.TotalOwed,
		GeneratedAt: rep.GeneratedAt,
	})
}

// Reconciliation handles GET /reports/reconciliation
func (h *ReportHandler) Reconciliation(c *gin.Context) {
	rep, ok := h.generateReconciliation(c)
	if !ok {
		return
	}

	rows := make([]ReconciliationRowResponse, len(rep.Rows))
	for i := range rep.Rows {
		rows[i] = toReconciliationRowResponse(&rep.Rows[i])
	}

	h.Success(c, ReconciliationReportResponse{
		Rows: rows,
		Totals: ReconciliationTotalsResponse{
			Deals:     rep.Totals.Deals,
			DealValue: toAmountVarianceResponse(rep.Totals.DealValue),
			Fee:       toAmountVarianceResponse(rep.Totals.Fee),
			AGCI:      toAmountVarianceResponse(rep.Totals.AGCI),
			House:     toAmountVarianceResponse(rep.Totals.House),
		},
		GeneratedAt: rep.GeneratedAt,
	})
}

// ReconciliationExport handles GET /reports/reconciliation/export, streaming
// the filtered grid as an Excel workbook.
func (h *ReportHandler) ReconciliationExport(c *gin.Context) {
	rep, ok := h.generateReconciliation(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteReconciliationXLSX(rep, &buf); err != nil {
		h.InternalError(c, "failed to build export")
		return
	}

	filename := fmt.Sprintf("reconciliation_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

func (h *ReportHandler) generateReconciliation(c *gin.Context) (*report.ReconciliationReport, bool) {
	var q ReconciliationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return nil, false
	}

	filter := report.ReconciliationFilter{
		ClosedBucket: report.DateBucket(q.ClosedBucket),
		ClosedFrom:   q.ClosedFrom,
		ClosedTo:     q.ClosedTo,
		BookedBucket: report.DateBucket(q.BookedBucket),
		BookedFrom:   q.BookedFrom,
		BookedTo:     q.BookedTo,
		SortBy:       q.SortBy,
		SortDesc:     q.SortDesc,
	}
	if q.Stage != "" {
		stage := deal.Stage(q.Stage)
		if !stage.IsValid() {
			h.BadRequest(c, "unknown pipeline stage")
			return nil, false
		}
		filter.Stage = &stage
	}

	rep, err := h.reconciliationService.Generate(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return rep, true
}

func toReconciliationRowResponse(r *report.ReconciliationRow) ReconciliationRowResponse {
	return ReconciliationRowResponse{
		DealID:         r.DealID,
		DealName:       r.DealName,
		SFID:           r.SFID,
		Resolution:     string(r.Resolution),
		InternalStage:  r.InternalStage,
		ExternalStage:  r.ExternalStage,
		StageMatch:     r.StageMatch,
		DealValue:      toAmountVarianceResponse(r.DealValue),
		Fee:            toAmountVarianceResponse(r.Fee),
		CommissionRate: toRateVarianceResponse(r.CommissionRate),
		AGCI:           toAmountVarianceResponse(r.AGCI),
		House:          toAmountVarianceResponse(r.House),
		HasVariance:    r.HasVariance(),
		BookedDate:     r.BookedDate,
		ClosedDate:     r.ClosedDate,
	}
}

func toAmountVarianceResponse(v reconciliation.AmountVariance) AmountVarianceResponse {
	return AmountVarianceResponse{
		Internal: v.Internal,
		External: v.External,
		Variance: v.Variance,
	}
}

func toRateVarianceResponse(v reconciliation.RateVariance) RateVarianceResponse {
	return RateVarianceResponse{
		Internal: v.Internal,
		External: v.External,
		Variance: v.Variance,
	}
}
