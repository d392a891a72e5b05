package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brokerage/backend/internal/domain/shared"
	"github.com/brokerage/backend/internal/interfaces/http/dto"
	"github.com/brokerage/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_HandleError_DomainError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		code       string
		wantStatus int
	}{
		{"not found", "DEAL_NOT_FOUND", http.StatusNotFound},
		{"validation", "INVALID_FEE", http.StatusBadRequest},
		{"split sum", "INVALID_SPLIT", http.StatusUnprocessableEntity},
		{"stale version", "OPTIMISTIC_LOCK_ERROR", http.StatusConflict},
		{"unmapped code", "SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(t)

			h.HandleError(c, shared.NewDomainError(tt.code, "boom"))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "boom", resp.Error.Message)
		})
	}
}

func TestBaseHandler_HandleError_UnknownError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.HandleError(c, errors.New("driver: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	// internal details never leak to the client
	assert.NotContains(t, resp.Error.Message, "connection refused")
}

func TestBaseHandler_HandleError_CarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)
	c.Set(middleware.RequestIDKey, "req-123")

	h.HandleError(c, shared.NewDomainError("DEAL_NOT_FOUND", "no such deal"))

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestBaseHandler_HandleError_NilIsNoOp(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}

func TestReportHandler_Pipeline_RejectsUnknownStage(t *testing.T) {
	h := NewReportHandler(nil, nil, nil)
	c, w := newTestContext(t)
	c.Request, _ = http.NewRequest(http.MethodGet, "/reports/pipeline?stage=Imaginary", nil)

	h.Pipeline(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
}

func TestReportHandler_Reconciliation_RejectsBadBucket(t *testing.T) {
	h := NewReportHandler(nil, nil, nil)
	c, w := newTestContext(t)
	c.Request, _ = http.NewRequest(http.MethodGet, "/reports/reconciliation?closed_bucket=sometimes", nil)

	h.Reconciliation(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
