package dto

import (
	"net/http"

	"github.com/setusher/PenthouseProtocol/internal/domain/settlement"
	"github.com/setusher/PenthouseProtocol/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Request error codes
const (
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
)

// Ledger error codes
const (
	ErrCodeTokenIssueFailed = "ERR_TOKEN_ISSUE_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	ErrCodeTokenIssueFailed: http.StatusBadGateway,
}

// domainErrorCodes maps shared.DomainError codes to API error codes
var domainErrorCodes = map[string]string{
	shared.CodeInvalidInput:           ErrCodeValidation,
	shared.CodeConcurrentModification: ErrCodeConflict,
}

// DomainErrorCode returns the API error code of a domain error code
func DomainErrorCode(code string) string {
	if apiCode, ok := domainErrorCodes[code]; ok {
		return apiCode
	}
	return ErrCodeUnknown
}

// SettlementKindHTTPStatus maps every settlement failure kind to the status
// the API answers with. Retryable kinds map to 402/503 so clients can tell
// "try again later" apart from a final rejection.
var SettlementKindHTTPStatus = map[settlement.Kind]int{
	settlement.KindIneligible:             http.StatusForbidden,
	settlement.KindAssetNotFound:          http.StatusNotFound,
	settlement.KindAlreadyRented:          http.StatusConflict,
	settlement.KindPaymentNotFound:        http.StatusPaymentRequired,
	settlement.KindPaymentAlreadyConsumed: http.StatusConflict,
	settlement.KindInsufficientSupply:     http.StatusConflict,
	settlement.KindTransferFailed:         http.StatusBadGateway,
	settlement.KindLedgerUnavailable:      http.StatusServiceUnavailable,
	settlement.KindRegistryWriteConflict:  http.StatusConflict,
	settlement.KindStoreUnavailable:       http.StatusServiceUnavailable,
	settlement.KindBookkeepingFailed:      http.StatusInternalServerError,
	settlement.KindInvalidRequest:         http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// SettlementErrorCode is the API error code of a settlement failure kind
func SettlementErrorCode(kind settlement.Kind) string {
	return "ERR_" + string(kind)
}

// SettlementHTTPStatus returns the status for a settlement failure kind,
// 500 for a kind the API does not know.
func SettlementHTTPStatus(kind settlement.Kind) int {
	if status, ok := SettlementKindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
