package errs

import (
	"net/http"
	"strings"
)

// Issue represents a single field-level validation failure.
// Example:
//
//	{ "path": ["fail"], "code": "invalid_type", "message": "expected a boolean" }
type Issue struct {
	// Path locates the field from the root of the payload.
	// An empty path refers to the payload itself.
	Path []string `json:"path"`

	// Code is a machine-friendly rule name (e.g. "required", "invalid_type").
	Code string `json:"code"`

	// Message is the human-readable reason.
	Message string `json:"message"`
}

// Kind is a string-based enum naming the failure class of an HTTPError.
type Kind string

const (
	// KindClientInput covers malformed bodies and input schema failures.
	KindClientInput Kind = "client_input"

	// KindNotFound means no operation is registered for the path.
	KindNotFound Kind = "not_found"

	// KindMethodNotAllowed means the method is neither GET nor POST.
	KindMethodNotAllowed Kind = "method_not_allowed"

	// KindApplication is an operation-raised ApplicationError.
	KindApplication Kind = "application"

	// KindApplicationValidation is an operation-raised ValidationError.
	KindApplicationValidation Kind = "application_validation"

	// KindOutputContract means an operation broke its own output schema.
	KindOutputContract Kind = "output_contract"

	// KindUnexpected is anything an operation returned that is not recognized.
	KindUnexpected Kind = "unexpected"
)

// HTTPError is the normalized failure produced at every checkpoint.
//
// Fields:
//   - Kind: failure class, used for logging and metrics.
//   - Status: HTTP status code written to the client.
//   - UserMessage: safe, generic message rendered as "error".
//   - DevMessage: developer-facing detail rendered as "devMessage" (optional).
//   - Data: structured payload rendered as "data" (optional, e.g. issues).
type HTTPError struct {
	Kind        Kind
	Status      int
	UserMessage string
	DevMessage  string
	Data        any

	// cause is the underlying error, kept for logs only.
	cause error
}

// Error makes *HTTPError satisfy the built-in `error` interface.
func (e *HTTPError) Error() string {
	if e.DevMessage != "" {
		return e.UserMessage + ": " + e.DevMessage
	}
	return e.UserMessage
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// Is reports whether target is also an *HTTPError.
//
// It does NOT compare Kind/Status/messages, only the type.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int {
	return e.Status
}

// Code returns a machine-readable code derived from the status text,
// e.g. 404 -> "NOT_FOUND".
func (e *HTTPError) Code() string {
	return MakeUpperCaseWithUnderscores(http.StatusText(e.Status))
}

// Issues returns the issue list carried in Data, if any.
func (e *HTTPError) Issues() []Issue {
	if m, ok := e.Data.(map[string]any); ok {
		if issues, ok := m["issues"].([]Issue); ok {
			return issues
		}
	}
	return nil
}

// IssuesData wraps an issue list in the `data` shape used by failure bodies.
func IssuesData(issues []Issue) map[string]any {
	return map[string]any{"issues": issues}
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
