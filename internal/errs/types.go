package errs

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// NewInvalidBodyError creates a 400 for a request body that is not valid JSON.
//
// The parser error text becomes the devMessage.
func NewInvalidBodyError(err error) *HTTPError {
	devMessage := "Failed to parse JSON"
	if err != nil {
		devMessage = err.Error()
	}

	return &HTTPError{
		Kind:        KindClientInput,
		Status:      http.StatusBadRequest,
		UserMessage: "Invalid JSON body",
		DevMessage:  devMessage,
		cause:       err,
	}
}

// NewInputValidationError creates a 400 carrying the input schema issues.
//
// The devMessage is fixed: validator internals never leak beyond the issue list.
func NewInputValidationError(issues []Issue) *HTTPError {
	return &HTTPError{
		Kind:        KindClientInput,
		Status:      http.StatusBadRequest,
		UserMessage: "Input validation error",
		DevMessage:  "Input validation failed",
		Data:        IssuesData(issues),
	}
}

// NewNotFoundError creates a 404 for a path with no registered operation.
func NewNotFoundError() *HTTPError {
	return &HTTPError{
		Kind:        KindNotFound,
		Status:      http.StatusNotFound,
		UserMessage: "Resource not found",
		DevMessage:  "Route handler not found",
	}
}

// NewMethodNotAllowedError creates a 405 naming the unsupported method.
func NewMethodNotAllowedError(method string) *HTTPError {
	return &HTTPError{
		Kind:        KindMethodNotAllowed,
		Status:      http.StatusMethodNotAllowed,
		UserMessage: "Method not allowed",
		DevMessage:  fmt.Sprintf("Method %s is not supported", method),
	}
}

// NewOutputContractError creates a 500 for an operation result that failed
// the operation's own output schema. This is a server bug, never a client mistake.
func NewOutputContractError(issues []Issue) *HTTPError {
	return &HTTPError{
		Kind:        KindOutputContract,
		Status:      http.StatusInternalServerError,
		UserMessage: "Server error",
		DevMessage:  "Output validation failed",
		Data:        IssuesData(issues),
	}
}

// NewInternalServerError creates the generic 500 for unexpected operation errors.
//
// Note:
//   - the cause is kept for logging only and never rendered.
//   - no devMessage: clients don't need internal details.
func NewInternalServerError(cause error) *HTTPError {
	return &HTTPError{
		Kind:        KindUnexpected,
		Status:      http.StatusInternalServerError,
		UserMessage: "Internal server error",
		cause:       cause,
	}
}

// NewGlobalError is the last-resort 500 used by the outermost catch-all.
func NewGlobalError(cause error) *HTTPError {
	return &HTTPError{
		Kind:        KindUnexpected,
		Status:      http.StatusInternalServerError,
		UserMessage: "Something went wrong",
		cause:       cause,
	}
}

// FromOperationError classifies an error returned by an operation.
//
// Output:
//   - *ApplicationError: its own status (default 500) and messages
//   - *ValidationError: 400 with the issue list
//   - *HTTPError: returned unchanged
//   - anything else: generic 500 (see NewInternalServerError)
func FromOperationError(err error) *HTTPError {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		userMessage := appErr.UserMessage
		if userMessage == "" {
			userMessage = DefaultUserMessage
		}
		return &HTTPError{
			Kind:        KindApplication,
			Status:      appErr.StatusCode(),
			UserMessage: userMessage,
			DevMessage:  appErr.DevMessage,
			Data:        appErr.Data,
			cause:       err,
		}
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return &HTTPError{
			Kind:        KindApplicationValidation,
			Status:      http.StatusBadRequest,
			UserMessage: "Validation error",
			DevMessage:  "Validation failed",
			Data:        IssuesData(validationErr.Issues),
			cause:       err,
		}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	return NewInternalServerError(err)
}
