package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the MODULE_NNN convention; the prefix names the owning module.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeMessagingError     ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
	ErrCodeRateLimited        ErrorCode = "COMMON_017"
)

// Chemistry format layer error codes.  These are the explicit outcome kinds
// returned by conversion routines instead of an absent value.
const (
	ErrCodeParseFailure        ErrorCode = "CHEM_001"
	ErrCodeSanitizationFailure ErrorCode = "CHEM_002"
	ErrCodeEmptyInput          ErrorCode = "CHEM_003"
	ErrCodeInvalidMapping      ErrorCode = "CHEM_004"
	ErrCodeUnknownProperty     ErrorCode = "CHEM_005"
)

// Reaction analysis error codes
const (
	ErrCodeAnalysisNotFound ErrorCode = "RXN_001"
	ErrCodeAnalysisFailed   ErrorCode = "RXN_002"
)

// Short aliases used by the factory helpers.
const (
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,
	ErrCodeRateLimited:        http.StatusTooManyRequests,

	ErrCodeParseFailure:        http.StatusBadRequest,
	ErrCodeSanitizationFailure: http.StatusUnprocessableEntity,
	ErrCodeEmptyInput:          http.StatusBadRequest,
	ErrCodeInvalidMapping:      http.StatusUnprocessableEntity,
	ErrCodeUnknownProperty:     http.StatusBadRequest,

	ErrCodeAnalysisNotFound: http.StatusNotFound,
	ErrCodeAnalysisFailed:   http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessagingError:     "messaging error",
	ErrCodeNotImplemented:     "not implemented",
	ErrCodeRateLimited:        "rate limit exceeded",

	ErrCodeParseFailure:        "failed to parse chemical notation",
	ErrCodeSanitizationFailure: "molecule failed sanitization",
	ErrCodeEmptyInput:          "empty chemical input",
	ErrCodeInvalidMapping:      "invalid atom mapping",
	ErrCodeUnknownProperty:     "unknown property name",

	ErrCodeAnalysisNotFound: "reaction analysis not found",
	ErrCodeAnalysisFailed:   "reaction analysis failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
