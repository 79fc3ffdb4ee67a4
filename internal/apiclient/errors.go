package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/containerd/errdefs"
)

// ErrMalformedResponse is returned when a 2xx response cannot be decoded or
// lacks a required field.
var ErrMalformedResponse = errors.New("malformed response from api")

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	// Op names the client call, e.g. "login".
	Op string

	// Message is the server-provided message, verbatim. It may be empty.
	Message string

	// Status is the HTTP status code.
	Status int
}

// Error implements the error interface for *APIError.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// Unwrap returns the errdefs class matching the status code so callers can
// use errors.Is(err, errdefs.ErrNotFound) and friends.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return errdefs.ErrUnauthenticated
	case e.Status == http.StatusForbidden:
		return errdefs.ErrPermissionDenied
	case e.Status == http.StatusNotFound:
		return errdefs.ErrNotFound
	case e.Status == http.StatusConflict:
		return errdefs.ErrConflict
	case e.Status == http.StatusBadRequest, e.Status == http.StatusUnprocessableEntity:
		return errdefs.ErrInvalidArgument
	case e.Status >= http.StatusInternalServerError:
		return errdefs.ErrUnavailable
	default:
		return errdefs.ErrUnknown
	}
}

// RemoteMessage returns the server-provided message carried by err, if any.
func RemoteMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// errorBody matches the error shapes the API is known to return.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Title   string `json:"title"`
}

func newAPIError(op string, status int, body []byte) *APIError {
	e := &APIError{Op: op, Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		switch {
		case eb.Message != "":
			e.Message = eb.Message
		case eb.Error != "":
			e.Message = eb.Error
		case eb.Title != "":
			e.Message = eb.Title
		}
		return e
	}

	// Some endpoints answer with a bare JSON string or plain text.
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		e.Message = s
		return e
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 && !strings.HasPrefix(text, "<") {
		e.Message = text
	}
	return e
}
