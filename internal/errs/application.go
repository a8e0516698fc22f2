package errs

import (
	"fmt"
	"net/http"
)

// DefaultUserMessage is shown when an ApplicationError carries no user message.
const DefaultUserMessage = "Something went wrong... Please try again later or contact support."

// Messages is the user-facing / developer-facing message pair of an ApplicationError.
type Messages struct {
	// UserMessage is safe to show to end users. Defaults to DefaultUserMessage.
	UserMessage string

	// DevMessage is meant for logs and debugging tools.
	DevMessage string

	// Data is an optional structured payload returned as "data".
	Data any
}

// ApplicationError is the expected failure channel for operations.
//
// Operations return it deliberately, e.g.:
//
//	return HealthOutput{}, errs.NewApplicationError(http.StatusBadRequest, errs.Messages{
//		UserMessage: "Health check failed due to input",
//	})
//
// The dispatcher answers with Status (500 when unset or outside 400-599).
type ApplicationError struct {
	Status      int
	UserMessage string
	DevMessage  string
	Data        any
}

// NewApplicationError creates an ApplicationError with the given status and messages.
func NewApplicationError(status int, m Messages) *ApplicationError {
	if m.UserMessage == "" {
		m.UserMessage = DefaultUserMessage
	}
	return &ApplicationError{
		Status:      status,
		UserMessage: m.UserMessage,
		DevMessage:  m.DevMessage,
		Data:        m.Data,
	}
}

func (e *ApplicationError) Error() string {
	if e.DevMessage != "" {
		return fmt.Sprintf("application error %d: %s (%s)", e.StatusCode(), e.UserMessage, e.DevMessage)
	}
	return fmt.Sprintf("application error %d: %s", e.StatusCode(), e.UserMessage)
}

// StatusCode returns the effective HTTP status.
func (e *ApplicationError) StatusCode() int {
	if e.Status < 400 || e.Status > 599 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// ValidationError is returned by operations that validate data themselves
// (beyond their declared input schema). It always maps to 400.
type ValidationError struct {
	Issues []Issue
}

// NewValidationError creates a ValidationError from the given issues.
func NewValidationError(issues ...Issue) *ValidationError {
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %d issue(s)", len(e.Issues))
}
