package api

import (
	"net/http"
)

// ErrorKey references one standardized error message.
type ErrorKey string

// Several keys may share an HTTP status; both ErrInvalidJSON and
// ErrValidation map to 400.
const (
	ErrInvalidJSON         ErrorKey = "invalid_json"
	ErrValidation          ErrorKey = "validation_failed"
	ErrVersionNotSupported ErrorKey = "version_not_supported"
	ErrPayloadTooLarge     ErrorKey = "payload_too_large"
	ErrAuthRequired        ErrorKey = "auth_required"
	ErrInvalidToken        ErrorKey = "invalid_token"
	ErrNotFound            ErrorKey = "not_found"
	ErrMethodNotAllowed    ErrorKey = "not_allowed"
	ErrTokenDisabled       ErrorKey = "token_issuance_disabled"
	ErrRateLimited         ErrorKey = "rate_limited"
	ErrUnavailable         ErrorKey = "service_unavailable"
	ErrInternal            ErrorKey = "internal_error"
)

var errorMessages = map[ErrorKey]string{
	ErrInvalidJSON:         "invalid JSON format",
	ErrValidation:          "validation failed",
	ErrVersionNotSupported: "version not supported",
	ErrPayloadTooLarge:     "payload too large",
	ErrAuthRequired:        "authentication required",
	ErrInvalidToken:        "invalid token",
	ErrNotFound:            "resource not found",
	ErrMethodNotAllowed:    "method not allowed",
	ErrTokenDisabled:       "token issuance disabled",
	ErrRateLimited:         "too many requests",
	ErrUnavailable:         "service unavailable",
	ErrInternal:            "internal server error",
}

// ErrorResponse is the JSON body of every transport-level error.
//   - Error:   short machine-readable summary of the problem
//   - Details: optional human-readable explanation
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NewError builds an ErrorResponse for status and key. Unknown keys fall back
// to "unknown error".
func NewError(status int, key ErrorKey, details string) (int, ErrorResponse) {
	msg, ok := errorMessages[key]
	if !ok {
		msg = "unknown error"
	}
	return status, ErrorResponse{
		Error:   msg,
		Details: details,
	}
}

// BadRequestInvalidJSON is returned when the body is not a JSON object.
func BadRequestInvalidJSON() (int, ErrorResponse) {
	return NewError(http.StatusBadRequest, ErrInvalidJSON, "Invalid JSON input")
}

// BadRequestField is returned for a missing or wrongly typed field.
func BadRequestField(field string) (int, ErrorResponse) {
	return NewError(http.StatusBadRequest, ErrValidation, "Field name '"+field+"' is invalid in JSON input")
}

// BadRequestParam is returned for a missing query parameter.
func BadRequestParam(param string) (int, ErrorResponse) {
	return NewError(http.StatusBadRequest, ErrValidation, "Field name '"+param+"' is missing in GET request")
}

// BadRequestVersion is returned when the negotiated version lacks the capability.
func BadRequestVersion(details string) (int, ErrorResponse) {
	return NewError(http.StatusBadRequest, ErrVersionNotSupported, details)
}

// BadRequestPayload is returned for a userDataInJWT value the directory refuses.
func BadRequestPayload(details string) (int, ErrorResponse) {
	return NewError(http.StatusBadRequest, ErrValidation, details)
}

// PayloadTooLarge is returned when userDataInJWT exceeds the configured limit.
func PayloadTooLarge() (int, ErrorResponse) {
	return NewError(http.StatusBadRequest, ErrPayloadTooLarge, "userDataInJWT exceeds the configured size limit")
}

// UnauthorizedAPIKey is returned by the api-key guard.
func UnauthorizedAPIKey() (int, ErrorResponse) {
	return NewError(http.StatusUnauthorized, ErrAuthRequired, "Invalid API key")
}

// UnauthorizedInvalidToken is returned when a bearer token fails verification.
func UnauthorizedInvalidToken() (int, ErrorResponse) {
	return NewError(http.StatusUnauthorized, ErrInvalidToken, "token is expired or malformed")
}

func MethodNotAllowed() (int, ErrorResponse) {
	return NewError(http.StatusMethodNotAllowed, ErrMethodNotAllowed, "")
}

// TokenIssuanceDisabled is returned by token routes when JWT is not configured.
func TokenIssuanceDisabled() (int, ErrorResponse) {
	return NewError(http.StatusNotFound, ErrTokenDisabled, "")
}

func TooManyRequests() (int, ErrorResponse) {
	return NewError(http.StatusTooManyRequests, ErrRateLimited, "too many unauthorized lookups, retry later")
}

// ServiceUnavailable is returned by health checks when storage is down.
func ServiceUnavailable() (int, ErrorResponse) {
	return NewError(http.StatusServiceUnavailable, ErrUnavailable, "session storage unreachable")
}

// InternalServerError signals an unexpected failure, storage failures included.
func InternalServerError() (int, ErrorResponse) {
	return NewError(http.StatusInternalServerError, ErrInternal, "an unexpected error occurred")
}
