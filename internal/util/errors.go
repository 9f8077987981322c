package util

import (
	"errors"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodePrecondition       = "PRECONDITION_FAILED"
	ErrCodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeBotNotFound        = "BOT_NOT_FOUND"
	ErrCodeRemoteRejected     = "REMOTE_REJECTED"
	ErrCodeRemoteUnreachable  = "REMOTE_UNREACHABLE"
	ErrCodeStorage            = "STORAGE_ERROR"
)

// NewAppError creates a new application error
func NewAppError(statusCode int, code, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewAppErrorWithDetails creates a new application error with details
func NewAppErrorWithDetails(statusCode int, code, message, details string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// WrapError wraps an existing error
func WrapError(statusCode int, code, message string, err error) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

// Common error constructors

func ErrBadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, ErrCodeBadRequest, message)
}

func ErrUnauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func ErrForbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, ErrCodeForbidden, message)
}

func ErrNotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, ErrCodeNotFound, message)
}

func ErrConflict(message string) *AppError {
	return NewAppError(http.StatusConflict, ErrCodeConflict, message)
}

func ErrValidation(message string) *AppError {
	return NewAppError(http.StatusBadRequest, ErrCodeValidation, message)
}

func ErrInternalServer(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, ErrCodeInternal, message)
}

func ErrRateLimit(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, ErrCodeRateLimit, message)
}

// ErrBotNotFound is returned both for missing records and for records owned
// by another user: callers cannot distinguish the two, so bot existence
// never leaks across owners.
func ErrBotNotFound() *AppError {
	return NewAppError(http.StatusNotFound, ErrCodeBotNotFound, "Bot not found")
}

// ErrPrecondition signals a state machine guard failure. It is terminal and
// never triggers a platform call.
func ErrPrecondition(message string) *AppError {
	return NewAppError(http.StatusConflict, ErrCodePrecondition, message)
}

// ErrRemoteRejected carries the platform's own error body so operators can
// cross-reference its taxonomy.
func ErrRemoteRejected(statusCode int, body string) *AppError {
	return NewAppErrorWithDetails(http.StatusBadGateway, ErrCodeRemoteRejected,
		"Trading platform rejected the request", body)
}

// ErrRemoteUnreachable marks a transport failure, distinct from rejection
// because it is plausibly transient.
func ErrRemoteUnreachable(err error) *AppError {
	return WrapError(http.StatusBadGateway, ErrCodeRemoteUnreachable,
		"Trading platform is unreachable", err)
}

// ErrStorage marks a repository failure.
func ErrStorage(err error) *AppError {
	return WrapError(http.StatusInternalServerError, ErrCodeStorage,
		"Storage operation failed", err)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}
