package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the error vocabulary handlers and middleware speak in.
// The error handler translates it to an RFC 7807 problem; ErrorCode
// survives the translation as the error_code extension.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// ValidationError names one rejected field or query parameter.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors carries every rejected field of one request.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ErrValidation creates a validation error for a single field
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// NewValidationErrors aggregates several field rejections into one error
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// UnknownColumnError creates an unknown column error naming the offending column
func UnknownColumnError(column string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "UNKNOWN_COLUMN",
		fmt.Sprintf("column %q does not exist in the dataset", column), column)
}

// ColumnNotNumericError creates an error for non-numeric column requests
func ColumnNotNumericError(column string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "COLUMN_NOT_NUMERIC",
		fmt.Sprintf("column %q does not hold numeric values", column), column)
}

// BuildFailedError creates a dataset build error with the cause attached
func BuildFailedError(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, "BUILD_FAILED", "Dataset build failed", err.Error())
}

// SourceUnavailableError creates an error for a missing or unreadable source file
func SourceUnavailableError(err error) *APIError {
	return NewWithDetails(http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE", "Dataset source file is unavailable", err.Error())
}
