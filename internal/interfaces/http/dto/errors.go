package dto

import (
	"net/http"

	"github.com/stockledger/backend/internal/domain/shared"
)

// Wire error codes, ERR_<DESCRIPTION>.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidTarget: a movement target naming zero or several items.
	ErrCodeInvalidTarget = "ERR_INVALID_TARGET"

	ErrCodeUnauthorized  = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired  = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid  = "ERR_TOKEN_INVALID"
	ErrCodeTokenNotValid = "ERR_TOKEN_NOT_YET_VALID"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict: an item stayed locked past the retry budget.
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeTypeMismatch      = "ERR_TYPE_MISMATCH"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"

	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// wireCodes lists every wire code with its HTTP status and the domain
// error codes reported under it. Business rule violations are 422.
var wireCodes = []struct {
	code   string
	status int
	domain []string
}{
	{ErrCodeUnknown, http.StatusInternalServerError, nil},
	{ErrCodeInternal, http.StatusInternalServerError, []string{"INTERNAL_ERROR"}},
	{ErrCodeValidation, http.StatusBadRequest, []string{shared.CodeValidation}},
	{ErrCodeInvalidTarget, http.StatusBadRequest, []string{shared.CodeInvalidTarget}},
	{ErrCodeUnauthorized, http.StatusUnauthorized, nil},
	{ErrCodeTokenExpired, http.StatusUnauthorized, nil},
	{ErrCodeTokenInvalid, http.StatusUnauthorized, nil},
	{ErrCodeTokenNotValid, http.StatusUnauthorized, nil},
	{ErrCodeNotFound, http.StatusNotFound, []string{shared.CodeNotFound}},
	{ErrCodeAlreadyExists, http.StatusConflict, []string{shared.CodeAlreadyExists}},
	{ErrCodeConcurrencyConflict, http.StatusConflict, []string{shared.CodeConcurrencyConflict, shared.CodeLockTimeout}},
	{ErrCodeInvalidState, http.StatusUnprocessableEntity, []string{shared.CodeInvalidState}},
	{ErrCodeTypeMismatch, http.StatusUnprocessableEntity, []string{shared.CodeTypeMismatch}},
	{ErrCodeInsufficientStock, http.StatusUnprocessableEntity, []string{shared.CodeInsufficientStock}},
	{ErrCodeBadRequest, http.StatusBadRequest, nil},
	{ErrCodeInvalidJSON, http.StatusBadRequest, nil},
	{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge, nil},
}

var statusByCode, codeByDomain = indexWireCodes()

func indexWireCodes() (map[string]int, map[string]string) {
	statuses := make(map[string]int, len(wireCodes))
	domain := make(map[string]string)
	for _, wc := range wireCodes {
		statuses[wc.code] = wc.status
		for _, d := range wc.domain {
			domain[d] = wc.code
		}
	}
	return statuses, domain
}

// GetHTTPStatus returns the HTTP status of a wire code, 500 when unknown.
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain error code to its wire form. Codes
// already in wire form, and unknown codes, are returned as-is.
func NormalizeErrorCode(code string) string {
	if wire, ok := codeByDomain[code]; ok {
		return wire
	}
	return code
}
