package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
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

// ValidationError represents a single rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
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
func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes shared by handlers and the problem mapper
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeRunNotFound      = "RUN_NOT_FOUND"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeUnsupported      = "UNSUPPORTED_FORMAT"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// Predefined errors
var (
	ErrInvalidRequest    = New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format")
	ErrNotFound          = New(http.StatusNotFound, CodeNotFound, "Resource not found")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
	ErrPayloadTooLarge   = New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Upload exceeds the maximum allowed size")
	ErrInternalServer    = New(http.StatusInternalServerError, CodeInternal, "Internal server error")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation creates a validation error for one field
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errs},
	)
}

// FromValidator converts validator failures into a validation APIError.
// Errors of any other type become an invalid request error.
func FromValidator(err error) *APIError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return InvalidRequestWithError(err)
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return NewValidationErrors(out)
}

func validationMessage(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "decimal":
		return fmt.Sprintf("%s must be a decimal number", field)
	case "nonneg_decimal":
		return fmt.Sprintf("%s must be a non-negative decimal number", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// RunNotFoundError reports an unknown or expired run id
func RunNotFoundError(runID string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeRunNotFound, fmt.Sprintf("run %s not found or expired", runID), runID)
}

// UnsupportedFormatError reports an export format or table the server cannot produce
func UnsupportedFormatError(what string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeUnsupported, fmt.Sprintf("unsupported export %s", what), what)
}
