package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes not listed here fall back to 500.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,

	// Missing resources
	"NOT_FOUND":         http.StatusNotFound,
	"DEAL_NOT_FOUND":    http.StatusNotFound,
	"PAYMENT_NOT_FOUND": http.StatusNotFound,
	"SPLIT_NOT_FOUND":   http.StatusNotFound,

	// Invalid input
	"INVALID_INPUT":      http.StatusBadRequest,
	"INVALID_DEAL":       http.StatusBadRequest,
	"INVALID_DEAL_NAME":  http.StatusBadRequest,
	"INVALID_DEAL_VALUE": http.StatusBadRequest,
	"INVALID_FEE":        http.StatusBadRequest,
	"INVALID_AMOUNT":     http.StatusBadRequest,
	"INVALID_PERCENT":    http.StatusBadRequest,
	"INVALID_STAGE":      http.StatusBadRequest,
	"INVALID_INVOICE":    http.StatusBadRequest,
	"INVALID_BROKER":     http.StatusBadRequest,
	"INVALID_PAYMENT":    http.StatusBadRequest,

	// Business rule violations
	"INVALID_SPLIT": http.StatusUnprocessableEntity,
	"INVALID_STATE": http.StatusUnprocessableEntity,

	// Concurrency
	"OPTIMISTIC_LOCK_ERROR": http.StatusConflict,
	"CONCURRENCY_CONFLICT":  http.StatusConflict,
	"ALREADY_EXISTS":        http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not mapped.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
