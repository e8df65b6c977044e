package operations

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeDependency   ErrorType = "dependency"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
)

// OperationError is a run failure attributed to one step
type OperationError struct {
	Type    ErrorType      `json:"type"`
	Step    string         `json:"step,omitempty"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Step != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(step, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: message,
	}
}

// NewDependencyError creates a new dependency error
func NewDependencyError(step, dependsOn, message string) *OperationError {
	return &OperationError{
		Type:    ErrorTypeDependency,
		Step:    step,
		Message: message,
		Context: map[string]any{
			"depends_on": dependsOn,
		},
	}
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "step execution failed",
		Cause:   cause,
	}
}

// NewCancellationError reports a run stopped before step began. Deadline
// expiry is typed as a timeout.
func NewCancellationError(step string, cause error) *OperationError {
	if errors.Is(cause, context.DeadlineExceeded) {
		return &OperationError{
			Type:    ErrorTypeTimeout,
			Step:    step,
			Message: "run deadline exceeded",
			Cause:   cause,
		}
	}
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "operation was cancelled",
		Cause:   cause,
	}
}

// AsOperationError extracts an OperationError from an error chain
func AsOperationError(err error) (*OperationError, bool) {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr, true
	}
	return nil, false
}

// IsCancellation reports whether err stopped the run through its context
func IsCancellation(err error) bool {
	opErr, ok := AsOperationError(err)
	if !ok {
		return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	}
	return opErr.Type == ErrorTypeCancellation || opErr.Type == ErrorTypeTimeout
}
