package apierror

import (
	"fmt"
	"net/http"
)

const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeValidation        = "VALIDATION_ERROR"
	CodeRoleInvalid       = "ROLE_INVALID"
	CodeMissingField      = "MISSING_FIELD"
	CodeForeignKeyMissing = "FOREIGN_KEY_MISSING"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodePendingApproval   = "PENDING_APPROVAL"
	CodeNotFound          = "NOT_FOUND"
	CodeRateLimited       = "RATE_LIMITED"
	CodeRequestTimeout    = "REQUEST_TIMEOUT"
	CodeInternal          = "INTERNAL_ERROR"
)

type APIError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	HTTPStatus int               `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// WithFields attaches field-level messages keyed by the JSON field name.
func (e *APIError) WithFields(fields map[string]string) *APIError {
	if e == nil || len(fields) == 0 {
		return e
	}
	e.Fields = fields
	return e
}

func Validation(code string, message string, fields map[string]string) *APIError {
	return New(code, message, "", http.StatusBadRequest).WithFields(fields)
}

func Conflict(message string, details string) *APIError {
	return New(CodeConflict, message, details, http.StatusConflict)
}

func Unauthorized(message string) *APIError {
	return New(CodeUnauthorized, message, "", http.StatusUnauthorized)
}

func Forbidden(code string, message string) *APIError {
	return New(code, message, "", http.StatusForbidden)
}

func NotFound(message string, details string) *APIError {
	return New(CodeNotFound, message, details, http.StatusNotFound)
}

func TooManyRequests() *APIError {
	return New(CodeRateLimited, "Too many requests", "", http.StatusTooManyRequests)
}

func RequestTimeout() *APIError {
	return New(CodeRequestTimeout, "Request timed out", "", http.StatusServiceUnavailable)
}

func Internal() *APIError {
	return New(CodeInternal, "Unexpected server error", "", http.StatusInternalServerError)
}
