package dispatch

import (
	"encoding/json"
	"net/http"

	"github.com/deppfellow/go-dispatch/internal/errs"
)

// genericUserMessage replaces an empty user message in failure bodies.
const genericUserMessage = "Something went wrong"

// Response is a fully rendered HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// failureBody is the wire shape of every failure.
type failureBody struct {
	Error      string `json:"error"`
	DevMessage string `json:"devMessage,omitempty"`
	Data       any    `json:"data,omitempty"`
}

func jsonHeader() http.Header {
	h := make(http.Header, 1)
	h.Set("Content-Type", "application/json")
	return h
}

// Success renders value as a 200 JSON response.
func Success(value any) (*Response, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	return &Response{
		Status: http.StatusOK,
		Header: jsonHeader(),
		Body:   body,
	}, nil
}

// Failure renders err as a JSON failure body.
//
// devMessage and data are omitted when empty. When data cannot be
// encoded it is dropped rather than failing the response.
func Failure(err *errs.HTTPError) *Response {
	if err == nil {
		err = errs.NewGlobalError(nil)
	}

	status := err.Status
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}

	payload := failureBody{
		Error:      err.UserMessage,
		DevMessage: err.DevMessage,
		Data:       err.Data,
	}
	if payload.Error == "" {
		payload.Error = genericUserMessage
	}

	body, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		payload.Data = nil
		body, marshalErr = json.Marshal(payload)
	}
	if marshalErr != nil {
		body = []byte(`{"error":"` + genericUserMessage + `"}`)
	}

	return &Response{
		Status: status,
		Header: jsonHeader(),
		Body:   body,
	}
}

// Redact strips developer details for hardened deployments.
func Redact(err *errs.HTTPError) *errs.HTTPError {
	return &errs.HTTPError{
		Kind:        err.Kind,
		Status:      err.Status,
		UserMessage: err.UserMessage,
	}
}

// Write copies the response to w.
func (r *Response) Write(w http.ResponseWriter) error {
	for key, values := range r.Header {
		w.Header()[key] = append([]string(nil), values...)
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}
