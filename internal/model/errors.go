package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTitle is returned when a sample title is blank.
	ErrInvalidTitle = errors.New("title is required")
	// ErrInvalidEventType is returned when an analytics event type is blank.
	ErrInvalidEventType = errors.New("eventType is required")
)

// Error codes surfaced to API clients.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeInternal       = "INTERNAL_ERROR"
	CodeSampleNotFound = "SAMPLE_NOT_FOUND"
	// CodeAnalyticsNotFound is used when an analytics record id is absent from the targeted GPDB.
	CodeAnalyticsNotFound = "ANALYTICS_DATA_NOT_FOUND"

	CodeExternalBadRequest   = "EXTERNAL_API_BAD_REQUEST"
	CodeExternalUnauthorized = "EXTERNAL_API_UNAUTHORIZED"
	CodeExternalForbidden    = "EXTERNAL_API_FORBIDDEN"
	CodeExternalNotFound     = "EXTERNAL_API_NOT_FOUND"
	CodeExternalTimeout      = "EXTERNAL_API_TIMEOUT"
	CodeExternalRateLimit    = "EXTERNAL_API_RATE_LIMIT"
	CodeExternalServerError  = "EXTERNAL_API_SERVER_ERROR"
)

// BusinessError is a failure with a stable error code that callers may act on.
type BusinessError struct {
	Code    string
	Message string
}

// NewBusinessError creates a business error.
func NewBusinessError(code, message string) *BusinessError {
	return &BusinessError{Code: code, Message: message}
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches business errors by code so that errors.Is works against the
// package-level values below.
func (e *BusinessError) Is(target error) bool {
	var t *BusinessError
	if !errors.As(target, &t) {
		return false
	}

	return e.Code == t.Code
}

var (
	// ErrSampleNotFound is returned when a sample is not found in the primary database.
	ErrSampleNotFound = NewBusinessError(CodeSampleNotFound, "sample not found")
	// ErrAnalyticsNotFound is returned when an analytics record is not found in the targeted GPDB.
	ErrAnalyticsNotFound = NewBusinessError(CodeAnalyticsNotFound, "analytics data not found")
)

// IsValidation reports whether err is a domain validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidTitle) || errors.Is(err, ErrInvalidEventType)
}

// AsBusinessError extracts a BusinessError from err.
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}

	return nil, false
}
