package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the "<MODULE>_<NNN>" convention.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeStorageError       ErrorCode = "COMMON_017"
	ErrCodeConfigInvalid      ErrorCode = "COMMON_018"
)

// Composition module error codes.
const (
	ErrCodeCoefficientOverflow ErrorCode = "CMP_001"
	ErrCodeEmptyIonSymbol      ErrorCode = "CMP_002"
	ErrCodeInvalidSite         ErrorCode = "CMP_003"
	ErrCodeInvalidFileName     ErrorCode = "CMP_004"
)

// Reference data error codes.
const (
	ErrCodeReferenceUnavailable ErrorCode = "REF_001"
	ErrCodeReferenceColumn      ErrorCode = "REF_002"
	ErrCodeReferenceFormat      ErrorCode = "REF_003"
)

// Output document error codes.
const (
	ErrCodeDocumentEncode ErrorCode = "DOC_001"
	ErrCodeDocumentSchema ErrorCode = "DOC_002"
	ErrCodeDocumentWrite  ErrorCode = "DOC_003"
	ErrCodeDocumentRead   ErrorCode = "DOC_004"
)

// Codes with no HTTP mapping.
const (
	CodeUnknown = ErrorCode("UNKNOWN")
	CodeOK      = ErrorCode("OK")
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeConfigInvalid:      http.StatusInternalServerError,

	ErrCodeCoefficientOverflow: http.StatusBadRequest,
	ErrCodeEmptyIonSymbol:      http.StatusBadRequest,
	ErrCodeInvalidSite:         http.StatusBadRequest,
	ErrCodeInvalidFileName:     http.StatusBadRequest,

	ErrCodeReferenceUnavailable: http.StatusServiceUnavailable,
	ErrCodeReferenceColumn:      http.StatusInternalServerError,
	ErrCodeReferenceFormat:      http.StatusInternalServerError,

	ErrCodeDocumentEncode: http.StatusInternalServerError,
	ErrCodeDocumentSchema: http.StatusUnprocessableEntity,
	ErrCodeDocumentWrite:  http.StatusInternalServerError,
	ErrCodeDocumentRead:   http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeStorageError:       "storage error",
	ErrCodeConfigInvalid:      "invalid configuration",

	ErrCodeCoefficientOverflow: "more coefficients than ions",
	ErrCodeEmptyIonSymbol:      "empty ion symbol",
	ErrCodeInvalidSite:         "unknown ion site",
	ErrCodeInvalidFileName:     "invalid output file name",

	ErrCodeReferenceUnavailable: "reference table unavailable",
	ErrCodeReferenceColumn:      "reference table is missing a required column",
	ErrCodeReferenceFormat:      "unsupported reference table format",

	ErrCodeDocumentEncode: "failed to encode composition document",
	ErrCodeDocumentSchema: "composition document violates its schema",
	ErrCodeDocumentWrite:  "failed to write composition document",
	ErrCodeDocumentRead:   "failed to read composition document",
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

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
