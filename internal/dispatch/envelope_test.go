package dispatch

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/deppfellow/go-dispatch/internal/errs"
)

func TestFailure(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err    *errs.HTTPError
		status int
		body   string
	}{
		"nil error": {
			err:    nil,
			status: http.StatusInternalServerError,
			body:   `{"error":"Something went wrong"}`,
		},
		"empty user message": {
			err:    &errs.HTTPError{Status: http.StatusConflict},
			status: http.StatusConflict,
			body:   `{"error":"Something went wrong"}`,
		},
		"status outside the error range": {
			err:    &errs.HTTPError{Status: http.StatusOK, UserMessage: "odd"},
			status: http.StatusInternalServerError,
			body:   `{"error":"odd"}`,
		},
		"full body": {
			err:    &errs.HTTPError{Status: http.StatusBadRequest, UserMessage: "u", DevMessage: "d", Data: map[string]int{"n": 1}},
			status: http.StatusBadRequest,
			body:   `{"error":"u","devMessage":"d","data":{"n":1}}`,
		},
		"unencodable data is dropped": {
			err:    &errs.HTTPError{Status: http.StatusBadRequest, UserMessage: "u", DevMessage: "d", Data: func() {}},
			status: http.StatusBadRequest,
			body:   `{"error":"u","devMessage":"d"}`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			resp := Failure(tc.err)

			assert.Equal(t, tc.status, resp.Status)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, tc.body, string(resp.Body))
		})
	}
}

func TestSuccess(t *testing.T) {
	t.Parallel()

	resp, err := Success(map[string]string{"status": "ok"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"status":"ok"}`, string(resp.Body))

	_, err = Success(make(chan int))
	assert.Error(t, err)
}

func TestRedact(t *testing.T) {
	t.Parallel()

	full := errs.NewInputValidationError([]errs.Issue{{Path: []string{"name"}, Code: "required", Message: "name is required"}})

	body := string(Failure(Redact(full)).Body)

	assert.Equal(t, "Input validation error", gjson.Get(body, "error").String())
	assert.False(t, gjson.Get(body, "devMessage").Exists())
	assert.False(t, gjson.Get(body, "data").Exists())
	assert.Equal(t, "Input validation failed", full.DevMessage, "original must stay intact")
}

func TestResponse_Write(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	resp := Failure(errs.NewNotFoundError())

	require.NoError(t, resp.Write(rec))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Route handler not found", gjson.Get(rec.Body.String(), "devMessage").String())
}
