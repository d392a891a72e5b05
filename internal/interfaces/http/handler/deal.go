package handler

import (
	"time"

	appdeal "github.com/brokerage/backend/internal/application/deal"
	"github.com/brokerage/backend/internal/domain/deal"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/brokerage/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DealHandler exposes the deal write path and listings
type DealHandler struct {
	BaseHandler
	dealService  *appdeal.DealService
	splitService *appdeal.CommissionSplitService
}

// NewDealHandler creates a new DealHandler
func NewDealHandler(dealService *appdeal.DealService, splitService *appdeal.CommissionSplitService) *DealHandler {
	return &DealHandler{
		dealService:  dealService,
		splitService: splitService,
	}
}

// RegisterRoutes registers deal routes
func (h *DealHandler) RegisterRoutes(rg *gin.RouterGroup) {
	deals := rg.Group("/deals")
	{
		deals.POST("", h.Create)
		deals.GET("", h.List)
		deals.GET("/:id", h.Get)
		deals.PUT("/:id/financials", h.UpdateFinancials)
		deals.PUT("/:id/categories", h.AssignCategories)
		deals.PUT("/:id/stage", h.TransitionStage)
		deals.PUT("/:id/closed-date", h.SetClosedDate)
		deals.PUT("/:id/sfid", h.SetSFID)
		deals.PUT("/:id/house-only", h.SetHouseOnly)
		deals.GET("/:id/splits", h.ListSplits)
		deals.PUT("/:id/splits", h.AssignSplits)
	}
	splits := rg.Group("/splits")
	{
		splits.PUT("/:id", h.UpdateSplit)
	}
	rg.GET("/brokers/:id/splits", h.ListBrokerAssignments)
}

// CreateDealRequest is the create-deal request body. Percentages are on the
// 0-100 scale; the three category percentages must sum to 100.
type CreateDealRequest struct {
	Name               string  `json:"name" binding:"required,max=200"`
	DealValue          float64 `json:"deal_value" binding:"min=0"`
	Fee                float64 `json:"fee" binding:"min=0"`
	ReferralFeePercent float64 `json:"referral_fee_percent" binding:"min=0,max=100"`
	HousePercent       float64 `json:"house_percent" binding:"min=0,max=100"`
	OriginationPercent float64 `json:"origination_percent" binding:"min=0,max=100"`
	SitePercent        float64 `json:"site_percent" binding:"min=0,max=100"`
	DealPercent        float64 `json:"deal_percent" binding:"min=0,max=100"`
	HouseOnly          bool    `json:"house_only"`
	SFID               *string `json:"sf_id" binding:"omitempty,max=18"`
}

// UpdateFinancialsRequest is the financial-edit request body
type UpdateFinancialsRequest struct {
	DealValue          float64 `json:"deal_value" binding:"min=0"`
	Fee                float64 `json:"fee" binding:"min=0"`
	ReferralFeePercent float64 `json:"referral_fee_percent" binding:"min=0,max=100"`
	HousePercent       float64 `json:"house_percent" binding:"min=0,max=100"`
}

// AssignCategoriesRequest is the category-partition request body
type AssignCategoriesRequest struct {
	OriginationPercent float64 `json:"origination_percent" binding:"min=0,max=100"`
	SitePercent        float64 `json:"site_percent" binding:"min=0,max=100"`
	DealPercent        float64 `json:"deal_percent" binding:"min=0,max=100"`
}

// TransitionStageRequest is the stage-transition request body
type TransitionStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// SetClosedDateRequest is the inline closed-date edit body. A null date
// clears the closed date.
type SetClosedDateRequest struct {
	ClosedDate *time.Time `json:"closed_date"`
}

// SetSFIDRequest links or unlinks the external CRM opportunity
type SetSFIDRequest struct {
	SFID *string `json:"sf_id" binding:"omitempty,max=18"`
}

// SetHouseOnlyRequest flags the deal as house-only
type SetHouseOnlyRequest struct {
	HouseOnly bool `json:"house_only"`
}

// SplitAssignmentRequest is one broker's allocation in an assignment body
type SplitAssignmentRequest struct {
	BrokerID           string  `json:"broker_id" binding:"required,uuid"`
	BrokerName         string  `json:"broker_name" binding:"required,max=200"`
	OriginationPercent float64 `json:"origination_percent" binding:"min=0,max=100"`
	SitePercent        float64 `json:"site_percent" binding:"min=0,max=100"`
	DealPercent        float64 `json:"deal_percent" binding:"min=0,max=100"`
}

// AssignSplitsRequest replaces the full broker assignment of a deal. An
// empty list clears it.
type AssignSplitsRequest struct {
	Splits []SplitAssignmentRequest `json:"splits"`
}

// UpdateSplitRequest edits one broker's percentages
type UpdateSplitRequest struct {
	OriginationPercent float64 `json:"origination_percent" binding:"min=0,max=100"`
	SitePercent        float64 `json:"site_percent" binding:"min=0,max=100"`
	DealPercent        float64 `json:"deal_percent" binding:"min=0,max=100"`
}

// ListDealsRequest is the deal listing query
type ListDealsRequest struct {
	dto.ListRequest
	Stage     string `form:"stage"`
	HouseOnly *bool  `form:"house_only"`
}

// DealResponse is the deal representation returned by the API
type DealResponse struct {
	ID                 uuid.UUID           `json:"id"`
	Name               string              `json:"name"`
	Stage              string              `json:"stage"`
	DealValue          valueobject.Money   `json:"deal_value"`
	Fee                valueobject.Money   `json:"fee"`
	ReferralFeePercent valueobject.Percent `json:"referral_fee_percent"`
	HousePercent       valueobject.Percent `json:"house_percent"`
	OriginationPercent valueobject.Percent `json:"origination_percent"`
	SitePercent        valueobject.Percent `json:"site_percent"`
	DealPercent        valueobject.Percent `json:"deal_percent"`
	ReferralFeeUSD     valueobject.Money   `json:"referral_fee_usd"`
	HouseOnly          bool                `json:"house_only"`
	BookedDate         *time.Time          `json:"booked_date"`
	ClosedDate         *time.Time          `json:"closed_date"`
	SFID               *string             `json:"sf_id"`
	Version            int                 `json:"version"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// BreakdownResponse is the deal-level commission breakdown
type BreakdownResponse struct {
	GCI             valueobject.Money `json:"gci"`
	ReferralFee     valueobject.Money `json:"referral_fee"`
	House           valueobject.Money `json:"house"`
	AGCI            valueobject.Money `json:"agci"`
	OriginationPool valueobject.Money `json:"origination_pool"`
	SitePool        valueobject.Money `json:"site_pool"`
	DealPool        valueobject.Money `json:"deal_pool"`
}

// CommissionSplitResponse is one broker assignment on a deal
type CommissionSplitResponse struct {
	ID                 uuid.UUID           `json:"id"`
	DealID             uuid.UUID           `json:"deal_id"`
	BrokerID           uuid.UUID           `json:"broker_id"`
	BrokerName         string              `json:"broker_name"`
	OriginationPercent valueobject.Percent `json:"origination_percent"`
	SitePercent        valueobject.Percent `json:"site_percent"`
	DealPercent        valueobject.Percent `json:"deal_percent"`
}

// DealDetailResponse is a deal with its splits and recomputed breakdown
type DealDetailResponse struct {
	Deal      DealResponse              `json:"deal"`
	Splits    []CommissionSplitResponse `json:"splits"`
	Breakdown BreakdownResponse         `json:"breakdown"`
}

// Create handles POST /deals
func (h *DealHandler) Create(c *gin.Context) {
	var req CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	d, err := h.dealService.CreateDeal(c.Request.Context(), appdeal.CreateDealRequest{
		Name:               req.Name,
		DealValue:          valueobject.NewMoneyFromFloat(req.DealValue),
		Fee:                valueobject.NewMoneyFromFloat(req.Fee),
		ReferralFeePercent: valueobject.NewPercentFromFloat(req.ReferralFeePercent),
		HousePercent:       valueobject.NewPercentFromFloat(req.HousePercent),
		OriginationPercent: valueobject.NewPercentFromFloat(req.OriginationPercent),
		SitePercent:        valueobject.NewPercentFromFloat(req.SitePercent),
		DealPercent:        valueobject.NewPercentFromFloat(req.DealPercent),
		HouseOnly:          req.HouseOnly,
		SFID:               req.SFID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toDealResponse(d))
}

// List handles GET /deals
func (h *DealHandler) List(c *gin.Context) {
	var req ListDealsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ApplyDefaults()

	filter := deal.DealFilter{
		Search:    req.Search,
		HouseOnly: req.HouseOnly,
		Page:      req.Page,
		PageSize:  req.PageSize,
		OrderBy:   req.OrderBy,
		OrderDir:  req.OrderDir,
	}
	if req.Stage != "" {
		stage := deal.Stage(req.Stage)
		if !stage.IsValid() {
			h.BadRequest(c, "unknown pipeline stage")
			return
		}
		filter.Stage = &stage
	}

	deals, total, err := h.dealService.ListDeals(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]DealResponse, len(deals))
	for i := range deals {
		responses[i] = toDealResponse(&deals[i])
	}
	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// Get handles GET /deals/:id
func (h *DealHandler) Get(c *gin.Context) {
	dealID, ok := h.parseID(c)
	if !ok {
		return
	}

	detail, err := h.dealService.GetDeal(c.Request.Context(), dealID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	splits := make([]CommissionSplitResponse, len(detail.Splits))
	for i := range detail.Splits {
		splits[i] = toSplitResponse(&detail.Splits[i])
	}
	h.Success(c, DealDetailResponse{
		Deal:      toDealResponse(&detail.Deal),
		Splits:    splits,
		Breakdown: toBreakdownResponse(detail.Breakdown),
	})
}

// UpdateFinancials handles PUT /deals/:id/financials
func (h *DealHandler) UpdateFinancials(c *gin.Context) {
	dealID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdateFinancialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	d, err := h.dealService.UpdateFinancials(c.Request.Context(), dealID, appdeal.UpdateFinancialsRequest{
		DealValue:          valueobject.NewMoneyFromFloat(req.DealValue),
		Fee:                valueobject.NewMoneyFromFloat(req.Fee),
		ReferralFeePercent: valueobject.NewPercentFromFloat(req.ReferralFeePercent),
		HousePercent:       valueobject.NewPercentFromFloat(req.HousePercent),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// AssignCategories handles PUT /deals/:id/categories
func (h *DealHandler) AssignCategories(c *gin.Context) {
	dealID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req AssignCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	d, err := h.dealService.AssignCategories(c.Request.Context(), dealID,
		valueobject.NewPercentFromFloat(req.OriginationPercent),
		valueobject.NewPercentFromFloat(req.SitePercent),
		valueobject.NewPercentFromFloat(req.DealPercent),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// TransitionStage handles PUT /deals/:id/stage
func (h *DealHandler) TransitionStage(c *gin.Context) {
	dealID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req TransitionStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	d, err := h.dealService.TransitionStage(c.Request.Context(), dealID, deal.Stage(req.Stage))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// SetClosedDate handles PUT /deals/:id/closed-date
func (h *DealHandler) SetClosedDate(c *gin.Context) {
	dealID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req SetClosedDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	d, err := h.dealService.SetClosedDate(c.Request.Context(), dealID, req.ClosedDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// SetSFID handles PUT /deals/:id/sfid
func (h *DealHandler) SetSFID(c *gin.Context) {
	dealID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req SetSFIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	d, err := h.dealService.SetSFID(c.Request.Context(), dealID, req.SFID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// SetHouseOnly handles PUT /deals/:id/house-only
func (h *DealHandler) SetHouseOnly(c *gin.Context) {
	dealID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req SetHouseOnlyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	d, err := h.dealService.SetHouseOnly(c.Request.Context(), dealID, req.HouseOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toDealResponse(d))
}

// ListSplits handles GET /deals/:id/splits
func (h *DealHandler) ListSplits(c *gin.Context) {
	dealID, ok := h.parseID(c)
	if !ok {
		return
	}

	splits, err := h.splitService.ListByDeal(c.Request.Context(), dealID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]CommissionSplitResponse, len(splits))
	for i := range splits {
		responses[i] = toSplitResponse(&splits[i])
	}
	h.Success(c, responses)
}

// ListBrokerAssignments handles GET /brokers/:id/splits
func (h *DealHandler) ListBrokerAssignments(c *gin.Context) {
	brokerID, ok := h.parseID(c)
	if !ok {
		return
	}

	splits, err := h.splitService.ListByBroker(c.Request.Context(), brokerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]CommissionSplitResponse, len(splits))
	for i := range splits {
		responses[i] = toSplitResponse(&splits[i])
	}
	h.Success(c, responses)
}

// AssignSplits handles PUT /deals/:id/splits
func (h *DealHandler) AssignSplits(c *gin.Context) {
	dealID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req AssignSplitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	assignments := make([]appdeal.SplitAssignment, 0, len(req.Splits))
	for _, s := range req.Splits {
		brokerID, err := uuid.Parse(s.BrokerID)
		if err != nil {
			h.BadRequest(c, "invalid broker ID")
			return
		}
		assignments = append(assignments, appdeal.SplitAssignment{
			BrokerID:           brokerID,
			BrokerName:         s.BrokerName,
			OriginationPercent: valueobject.NewPercentFromFloat(s.OriginationPercent),
			SitePercent:        valueobject.NewPercentFromFloat(s.SitePercent),
			DealPercent:        valueobject.NewPercentFromFloat(s.DealPercent),
		})
	}

	splits, err := h.splitService.AssignSplits(c.Request.Context(), dealID, assignments)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]CommissionSplitResponse, len(splits))
	for i := range splits {
		responses[i] = toSplitResponse(&splits[i])
	}
	h.Success(c, responses)
}

// UpdateSplit handles PUT /splits/:id
func (h *DealHandler) UpdateSplit(c *gin.Context) {
	splitID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdateSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	split, err := h.splitService.UpdateSplit(c.Request.Context(), splitID,
		valueobject.NewPercentFromFloat(req.OriginationPercent),
		valueobject.NewPercentFromFloat(req.SitePercent),
		valueobject.NewPercentFromFloat(req.DealPercent),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSplitResponse(split))
}

func (h *DealHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func toDealResponse(d *deal.Deal) DealResponse {
	return DealResponse{
		ID:                 d.ID,
		Name:               d.Name,
		Stage:              d.Stage.String(),
		DealValue:          d.DealValue,
		Fee:                d.Fee,
		ReferralFeePercent: d.ReferralFeePercent,
		HousePercent:       d.HousePercent,
		OriginationPercent: d.Categories.Origination(),
		SitePercent:        d.Categories.Site(),
		DealPercent:        d.Categories.Deal(),
		ReferralFeeUSD:     d.ReferralFeeUSD,
		HouseOnly:          d.HouseOnly,
		BookedDate:         d.BookedDate,
		ClosedDate:         d.ClosedDate,
		SFID:               d.SFID,
		Version:            d.Version,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func toSplitResponse(s *deal.CommissionSplit) CommissionSplitResponse {
	return CommissionSplitResponse{
		ID:                 s.ID,
		DealID:             s.DealID,
		BrokerID:           s.BrokerID,
		BrokerName:         s.BrokerName,
		OriginationPercent: s.OriginationPercent,
		SitePercent:        s.SitePercent,
		DealPercent:        s.DealPercent,
	}
}

func toBreakdownResponse(b deal.CommissionBreakdown) BreakdownResponse {
	return BreakdownResponse{
		GCI:             b.GCI,
		ReferralFee:     b.ReferralFee,
		House:           b.House,
		AGCI:            b.AGCI,
		OriginationPool: b.OriginationPool,
		SitePool:        b.SitePool,
		DealPool:        b.DealPool,
	}
}
