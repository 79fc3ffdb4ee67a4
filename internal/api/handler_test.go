package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Goutam990/medibook-console/internal/apiclient"
	"github.com/Goutam990/medibook-console/internal/auth"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusForbidden, "forbidden")

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["error"] != "forbidden" {
		t.Errorf("Expected error=forbidden, got %v", got["error"])
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&apiclient.APIError{Op: "get", Status: http.StatusNotFound}, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", &apiclient.APIError{Op: "get", Status: http.StatusForbidden}), http.StatusForbidden},
		{&apiclient.APIError{Op: "get", Status: http.StatusUnauthorized}, http.StatusUnauthorized},
		{&apiclient.APIError{Op: "get", Status: http.StatusUnprocessableEntity}, http.StatusBadRequest},
		{&apiclient.APIError{Op: "get", Status: http.StatusConflict}, http.StatusConflict},
		{&apiclient.APIError{Op: "get", Status: http.StatusInternalServerError}, http.StatusBadGateway},
		{validationError{"bad"}, http.StatusBadRequest},
		{auth.ErrMissingCredentials, http.StatusBadRequest},
		{errors.New("dial tcp: refused"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	remote := &apiclient.APIError{Op: "create", Status: http.StatusConflict, Message: "Slot already taken"}
	if got := userMessage(remote, "Failed"); got != "Slot already taken" {
		t.Errorf("Expected remote message, got %q", got)
	}
	if got := userMessage(validationError{"Age must be a number"}, "Failed"); got != "Age must be a number" {
		t.Errorf("Expected validation message, got %q", got)
	}
	if got := userMessage(errors.New("boom"), "Failed to create appointment"); got != "Failed to create appointment" {
		t.Errorf("Expected fallback, got %q", got)
	}
}
