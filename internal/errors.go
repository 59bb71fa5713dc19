package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeRequired         ErrorCode = "REQUIRED"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeDuplicateEmail   ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeIncompleteGroup  ErrorCode = "INCOMPLETE_GROUP"
	ErrCodeWeakPassword     ErrorCode = "WEAK_PASSWORD"
	ErrCodeMismatch         ErrorCode = "MISMATCH"
	ErrCodeInvalidQuery     ErrorCode = "INVALID_QUERY"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeAccessDenied       ErrorCode = "ACCESS_DENIED"

	ErrCodeUserNotFound   ErrorCode = "USER_NOT_FOUND"
	ErrCodePageNotFound   ErrorCode = "PAGE_NOT_FOUND"
	ErrCodeUpstreamFailed ErrorCode = "UPSTREAM_FAILED"
	ErrCodePlacesFailed   ErrorCode = "PLACES_FAILED"

	ErrCodeFileTypeNotSupported ErrorCode = "FILE_TYPE_NOT_SUPPORTED"
	ErrCodeFileTooLarge         ErrorCode = "FILE_TOO_LARGE"
	ErrCodeTooManyFiles         ErrorCode = "TOO_MANY_FILES"
	ErrCodeUploadFailed         ErrorCode = "UPLOAD_FAILED"
	ErrCodeStorageUnavailable   ErrorCode = "STORAGE_UNAVAILABLE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause and WithDetails return a copy so the package-level sentinels stay untouched.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Is matches on Type and Code so errors.Is works against copies of sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// FieldMap flattens the list into field -> message, keeping the first message per field.
func (v ValidationErrors) FieldMap() map[string]string {
	out := make(map[string]string, len(v.Errors))
	for _, e := range v.Errors {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewUpstreamError carries the backend's status through to the console client.
// Statuses outside 4xx/5xx are reported as 502.
func NewUpstreamError(status int, message string, cause error) *AppError {
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusBadGateway
	}
	errType := ErrorTypeExternal
	switch status {
	case http.StatusNotFound:
		errType = ErrorTypeNotFound
	case http.StatusUnauthorized:
		errType = ErrorTypeUnauthorized
	case http.StatusForbidden:
		errType = ErrorTypeForbidden
	case http.StatusConflict:
		errType = ErrorTypeConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		errType = ErrorTypeValidation
	}
	return &AppError{
		Type:       errType,
		Code:       ErrCodeUpstreamFailed,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrSessionNotFound    = NewUnauthorizedError("Session not found", ErrCodeSessionNotFound)
	ErrAccessDenied       = NewForbiddenError("You do not have access to this page", ErrCodeAccessDenied)
	ErrUserNotFound       = NewNotFoundError("User Not Found!", ErrCodeUserNotFound)
	ErrPageNotFound       = NewNotFoundError("Page not found", ErrCodePageNotFound)

	ErrFileTypeNotSupported = NewValidationError("File type not supported", ErrCodeFileTypeNotSupported)
	ErrTooManyFiles         = NewValidationError("Please upload only one file", ErrCodeTooManyFiles)
	ErrUploadFailed         = &AppError{Type: ErrorTypeExternal, Code: ErrCodeUploadFailed, Message: "Upload failed", StatusCode: http.StatusBadGateway}
	ErrStorageUnavailable   = &AppError{Type: ErrorTypeExternal, Code: ErrCodeStorageUnavailable, Message: "Object storage is not configured", StatusCode: http.StatusServiceUnavailable}
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
