package handler

import (
	"time"

	apppayment "github.com/brokerage/backend/internal/application/payment"
	"github.com/brokerage/backend/internal/domain/payment"
	"github.com/brokerage/backend/internal/domain/shared/valueobject"
	"github.com/brokerage/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler exposes the payment write path and listings
type PaymentHandler struct {
	BaseHandler
	paymentService *apppayment.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *apppayment.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Create)
		payments.GET("", h.List)
		payments.GET("/:id", h.Get)
		payments.PUT("/:id/amount", h.UpdateAmount)
		payments.POST("/:id/receive", h.MarkReceived)
		payments.PUT("/:id/referral-fee-paid", h.SetReferralFeePaid)
		payments.POST("/:id/invoice", h.LinkInvoice)
		payments.POST("/:id/void", h.Void)
	}
	rg.GET("/deals/:id/payments", h.ListForDeal)
	rg.GET("/brokers/:id/payment-splits", h.ListBrokerSplits)
}

// CreatePaymentRequest is the create-payment request body
type CreatePaymentRequest struct {
	DealID        string     `json:"deal_id" binding:"required,uuid"`
	Amount        float64    `json:"amount" binding:"min=0"`
	EstimatedDate *time.Time `json:"estimated_date"`
}

// UpdateAmountRequest replaces a payment's gross amount
type UpdateAmountRequest struct {
	Amount float64 `json:"amount" binding:"min=0"`
}

// MarkReceivedRequest records cash arrival. A missing date defaults to now.
type MarkReceivedRequest struct {
	ReceivedDate *time.Time `json:"received_date"`
}

// SetReferralFeePaidRequest toggles the referral-fee-paid flag
type SetReferralFeePaidRequest struct {
	Paid bool `json:"paid"`
}

// LinkInvoiceRequest attaches an external accounting invoice reference
type LinkInvoiceRequest struct {
	InvoiceID     string `json:"invoice_id" binding:"required,max=50"`
	InvoiceNumber string `json:"invoice_number" binding:"max=50"`
}

// ListPaymentsRequest is the payment listing query
type ListPaymentsRequest struct {
	dto.ListRequest
	DealID          string `form:"deal_id" binding:"omitempty,uuid"`
	Received        *bool  `form:"received"`
	UnpaidReferral  bool   `form:"unpaid_referral"`
	IncludeInactive bool   `form:"include_inactive"`
}

// PaymentResponse is the payment representation returned by the API
type PaymentResponse struct {
	ID                   uuid.UUID         `json:"id"`
	DealID               uuid.UUID         `json:"deal_id"`
	PaymentAmount        valueobject.Money `json:"payment_amount"`
	ReferralFeeUSD       valueobject.Money `json:"referral_fee_usd"`
	AGCI                 valueobject.Money `json:"agci"`
	PaymentReceived      bool              `json:"payment_received"`
	PaymentReceivedDate  *time.Time        `json:"payment_received_date"`
	PaymentDateEstimated *time.Time        `json:"payment_date_estimated"`
	ReferralFeePaid      bool              `json:"referral_fee_paid"`
	QBInvoiceID          *string           `json:"qb_invoice_id"`
	QBInvoiceNumber      *string           `json:"qb_invoice_number"`
	IsActive             bool              `json:"is_active"`
	Version              int               `json:"version"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// PaymentSplitResponse is one broker's share of one payment
type PaymentSplitResponse struct {
	ID                 uuid.UUID           `json:"id"`
	PaymentID          uuid.UUID           `json:"payment_id"`
	BrokerID           uuid.UUID           `json:"broker_id"`
	BrokerName         string              `json:"broker_name"`
	OriginationPercent valueobject.Percent `json:"origination_percent"`
	SitePercent        valueobject.Percent `json:"site_percent"`
	DealPercent        valueobject.Percent `json:"deal_percent"`
	OriginationUSD     valueobject.Money   `json:"origination_usd"`
	SiteUSD            valueobject.Money   `json:"site_usd"`
	DealUSD            valueobject.Money   `json:"deal_usd"`
	BrokerTotal        valueobject.Money   `json:"broker_total"`
}

// PaymentDetailResponse is a payment with its broker split rows
type PaymentDetailResponse struct {
	Payment PaymentResponse        `json:"payment"`
	Splits  []PaymentSplitResponse `json:"splits"`
}

// Create handles POST /payments
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	dealID, err := uuid.Parse(req.DealID)
	if err != nil {
		h.BadRequest(c, "invalid deal ID")
		return
	}

	p, err := h.paymentService.CreatePayment(c.Request.Context(), apppayment.CreatePaymentRequest{
		DealID:        dealID,
		Amount:        valueobject.NewMoneyFromFloat(req.Amount),
		EstimatedDate: req.EstimatedDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentResponse(p))
}

// List handles GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	var req ListPaymentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ApplyDefaults()

	filter := payment.PaymentFilter{
		Received:        req.Received,
		UnpaidReferral:  req.UnpaidReferral,
		IncludeInactive: req.IncludeInactive,
		Page:            req.Page,
		PageSize:        req.PageSize,
		OrderBy:         req.OrderBy,
		OrderDir:        req.OrderDir,
	}
	if req.DealID != "" {
		dealID, err := uuid.Parse(req.DealID)
		if err != nil {
			h.BadRequest(c, "invalid deal ID")
			return
		}
		filter.DealID = &dealID
	}

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = toPaymentResponse(&payments[i])
	}
	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// Get handles GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	paymentID, ok := h.parseID(c)
	if !ok {
		return
	}

	detail, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	splits := make([]PaymentSplitResponse, len(detail.Splits))
	for i := range detail.Splits {
		splits[i] = toPaymentSplitResponse(&detail.Splits[i])
	}
	h.Success(c, PaymentDetailResponse{
		Payment: toPaymentResponse(&detail.Payment),
		Splits:  splits,
	})
}

// UpdateAmount handles PUT /payments/:id/amount
func (h *PaymentHandler) UpdateAmount(c *gin.Context) {
	paymentID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdateAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.paymentService.UpdatePaymentAmount(c.Request.Context(), paymentID, valueobject.NewMoneyFromFloat(req.Amount))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(p))
}

// MarkReceived handles POST /payments/:id/receive
func (h *PaymentHandler) MarkReceived(c *gin.Context) {
	paymentID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req MarkReceivedRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}
	receivedDate := time.Now()
	if req.ReceivedDate != nil {
		receivedDate = *req.ReceivedDate
	}

	p, err := h.paymentService.MarkReceived(c.Request.Context(), paymentID, receivedDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(p))
}

// SetReferralFeePaid handles PUT /payments/:id/referral-fee-paid
func (h *PaymentHandler) SetReferralFeePaid(c *gin.Context) {
	paymentID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req SetReferralFeePaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.paymentService.SetReferralFeePaid(c.Request.Context(), paymentID, req.Paid)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(p))
}

// LinkInvoice handles POST /payments/:id/invoice
func (h *PaymentHandler) LinkInvoice(c *gin.Context) {
	paymentID, ok := h.parseID(c)
	if !ok {
		return
	}
	var req LinkInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.paymentService.LinkInvoice(c.Request.Context(), paymentID, req.InvoiceID, req.InvoiceNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(p))
}

// ListForDeal handles GET /deals/:id/payments
func (h *PaymentHandler) ListForDeal(c *gin.Context) {
	dealID, ok := h.parseID(c)
	if !ok {
		return
	}

	details, err := h.paymentService.ListDealPayments(c.Request.Context(), dealID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]PaymentDetailResponse, len(details))
	for i := range details {
		splits := make([]PaymentSplitResponse, len(details[i].Splits))
		for j := range details[i].Splits {
			splits[j] = toPaymentSplitResponse(&details[i].Splits[j])
		}
		responses[i] = PaymentDetailResponse{
			Payment: toPaymentResponse(&details[i].Payment),
			Splits:  splits,
		}
	}
	h.Success(c, responses)
}

// ListBrokerSplits handles GET /brokers/:id/payment-splits
func (h *PaymentHandler) ListBrokerSplits(c *gin.Context) {
	brokerID, ok := h.parseID(c)
	if !ok {
		return
	}

	splits, err := h.paymentService.ListBrokerSplits(c.Request.Context(), brokerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]PaymentSplitResponse, len(splits))
	for i := range splits {
		responses[i] = toPaymentSplitResponse(&splits[i])
	}
	h.Success(c, responses)
}

// Void handles POST /payments/:id/void
func (h *PaymentHandler) Void(c *gin.Context) {
	paymentID, ok := h.parseID(c)
	if !ok {
		return
	}

	p, err := h.paymentService.VoidPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPaymentResponse(p))
}

func (h *PaymentHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                   p.ID,
		DealID:               p.DealID,
		PaymentAmount:        p.PaymentAmount,
		ReferralFeeUSD:       p.ReferralFeeUSD,
		AGCI:                 p.AGCI,
		PaymentReceived:      p.PaymentReceived,
		PaymentReceivedDate:  p.PaymentReceivedDate,
		PaymentDateEstimated: p.PaymentDateEstimated,
		ReferralFeePaid:      p.ReferralFeePaid,
		QBInvoiceID:          p.QBInvoiceID,
		QBInvoiceNumber:      p.QBInvoiceNumber,
		IsActive:             p.IsActive,
		Version:              p.Version,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func toPaymentSplitResponse(s *payment.PaymentSplit) PaymentSplitResponse {
	return PaymentSplitResponse{
		ID:                 s.ID,
		PaymentID:          s.PaymentID,
		BrokerID:           s.BrokerID,
		BrokerName:         s.BrokerName,
		OriginationPercent: s.OriginationPercent,
		SitePercent:        s.SitePercent,
		DealPercent:        s.DealPercent,
		OriginationUSD:     s.OriginationUSD,
		SiteUSD:            s.SiteUSD,
		DealUSD:            s.DealUSD,
		BrokerTotal:        s.BrokerTotal,
	}
}
