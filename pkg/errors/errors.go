package errors

import (
	"fmt"
	"net/http"
)

const (
	CodeUnauthenticated       = "UNAUTHENTICATED"
	CodeUnknownResource       = "UNKNOWN_RESOURCE"
	CodeNotFound              = "NOT_FOUND"
	CodeForbidden             = "FORBIDDEN"
	CodeInvalidDate           = "INVALID_DATE"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeValidation            = "VALIDATION_ERROR"
	CodePermissionCheckFailed = "PERMISSION_CHECK_FAILED"
	CodeUpstreamUnavailable   = "UPSTREAM_UNAVAILABLE"
	CodeInternal              = "INTERNAL_ERROR"
)

// AppError is the single error type crossing component boundaries. The
// client-visible part is Code/Message/Details; Err carries the upstream
// cause for logs only.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthenticated,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func UnknownResource(alias string) *AppError {
	return &AppError{
		Code:       CodeUnknownResource,
		Message:    fmt.Sprintf("unknown court name: %s", alias),
		HTTPStatus: http.StatusBadRequest,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func InvalidDate(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidDate,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

// PermissionCheckFailed covers upstream failures during an access check.
// The message is intentionally generic; the cause is for logs.
func PermissionCheckFailed(err error) *AppError {
	return &AppError{
		Code:       CodePermissionCheckFailed,
		Message:    "could not verify calendar permissions",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func UpstreamUnavailable(operation string, err error) *AppError {
	return &AppError{
		Code:       CodeUpstreamUnavailable,
		Message:    fmt.Sprintf("calendar service failed during %s", operation),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Internal("an unexpected error occurred", err)
}
