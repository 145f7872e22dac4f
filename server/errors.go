package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the JSON error body for every non-2xx response.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Render sets the response status before the body is written.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatus)
	return nil
}

func errBadRequest(msg, details string) *APIError {
	return &APIError{HTTPStatus: http.StatusBadRequest, Code: "bad_request", Message: msg, Details: details}
}

func errUnknownAttribute(details string) *APIError {
	return &APIError{HTTPStatus: http.StatusBadRequest, Code: "unknown_attribute", Message: "unknown attribute", Details: details}
}

func errInternal(details string) *APIError {
	return &APIError{HTTPStatus: http.StatusInternalServerError, Code: "internal", Message: "internal error", Details: details}
}
