package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type ErrorCode string

const (
	ErrCodeAuthFailed       ErrorCode = "AUTH_FAILED"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodeProjectSuspended ErrorCode = "PROJECT_SUSPENDED"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeUploadFailed     ErrorCode = "UPLOAD_FAILED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

var statusByCode = map[ErrorCode]int{
	ErrCodeAuthFailed:       http.StatusUnauthorized,
	ErrCodePermissionDenied: http.StatusForbidden,
	ErrCodeProjectSuspended: http.StatusForbidden,
	ErrCodeValidation:       http.StatusUnprocessableEntity,
	ErrCodeUploadFailed:     http.StatusBadRequest,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeInternal:         http.StatusInternalServerError,
}

// AppError is the only error shape that leaves a service. Cause is kept for
// logs and never serialized.
type AppError struct {
	Code       ErrorCode
	Message    string
	Details    map[string]any
	StatusCode int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func newAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    map[string]any{},
		StatusCode: statusByCode[code],
	}
}

func NewAuthFailedError(message string) *AppError {
	if message == "" {
		message = "Authentication failed"
	}
	return newAppError(ErrCodeAuthFailed, message)
}

func NewPermissionDeniedError(requiredPermission string) *AppError {
	return newAppError(ErrCodePermissionDenied, "Permission denied").
		WithDetail("required_permission", requiredPermission)
}

func NewProjectSuspendedError(projectID int64) *AppError {
	return newAppError(ErrCodeProjectSuspended, "Project is suspended. All mutations are blocked.").
		WithDetail("project_id", projectID)
}

func NewValidationError(message string, details map[string]any) *AppError {
	e := newAppError(ErrCodeValidation, message)
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func NewUploadFailedError(message string, cause error) *AppError {
	return newAppError(ErrCodeUploadFailed, message).WithCause(cause)
}

// NewNotFoundError builds "<Resource> not found" with the identifier in details.
func NewNotFoundError(resource string, identifier any) *AppError {
	title := cases.Title(language.English).String(strings.ReplaceAll(resource, "_", " "))
	return newAppError(ErrCodeNotFound, title+" not found").
		WithDetail("identifier", identifier)
}

func NewInternalError(message string, cause error) *AppError {
	if message == "" {
		message = "Internal server error"
	}
	return newAppError(ErrCodeInternal, message).WithCause(cause)
}

// ValidationFieldError is one entry of details.errors on a VALIDATION_ERROR.
type ValidationFieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewValidationFieldErrors(fields []ValidationFieldError) *AppError {
	message := "Validation failed"
	if len(fields) > 0 {
		messages := make([]string, len(fields))
		for i, f := range fields {
			messages[i] = f.Message
		}
		message = strings.Join(messages, "; ")
	}
	return NewValidationError(message, map[string]any{"errors": fields})
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// AsAppError maps any error onto the closed taxonomy.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := IsAppError(err); ok {
		return appErr
	}
	return NewInternalError("", err)
}

// Envelope is the body of every failed response.
type Envelope struct {
	Success bool      `json:"success"`
	Error   *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, Envelope) {
	status := e.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, Envelope{Success: false, Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	return json.Marshal(struct {
		Code    ErrorCode      `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	}{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	})
}
