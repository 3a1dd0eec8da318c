package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/erp/quotedesk/internal/domain/shared"
)

// APIError is returned for non-2xx backend responses. Message holds the
// server's own error text when the body carries one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is maps HTTP status codes onto domain errors so callers can test with
// errors.Is(err, shared.ErrNotFound)
func (e *APIError) Is(target error) bool {
	var code string
	switch e.StatusCode {
	case http.StatusNotFound:
		code = shared.ErrNotFound.Code
	case http.StatusConflict:
		code = shared.ErrConflict.Code
	case http.StatusUnauthorized, http.StatusForbidden:
		code = shared.ErrUnauthorized.Code
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = shared.ErrInvalidInput.Code
	default:
		return false
	}
	return shared.CodeOf(target) == code
}

// errorBody covers the error shapes returned by the backend:
// {"error":{"code":"..","message":".."}}, {"message":".."}, {"error":".."}
type errorBody struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Error   json.RawMessage `json:"error"`
}

func newAPIError(resp *Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: resp.Body}

	var body errorBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return apiErr
	}
	apiErr.Message = body.Message
	apiErr.Code = body.Code

	if len(body.Error) > 0 {
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		var text string
		switch {
		case json.Unmarshal(body.Error, &nested) == nil:
			if nested.Message != "" {
				apiErr.Message = nested.Message
			}
			if nested.Code != "" {
				apiErr.Code = nested.Code
			}
		case json.Unmarshal(body.Error, &text) == nil && apiErr.Message == "":
			apiErr.Message = text
		}
	}
	apiErr.Message = strings.TrimSpace(apiErr.Message)
	return apiErr
}
