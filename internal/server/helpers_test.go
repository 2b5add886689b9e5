package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bobmcallan/advisor/internal/models"
)

func TestWriteServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", fmt.Errorf("%w: bad policy", models.ErrInvalidInput), http.StatusBadRequest, CodeInvalidInput},
		{"client not found", fmt.Errorf("%w: C9", models.ErrClientNotFound), http.StatusNotFound, CodeClientNotFound},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteServiceError(rr, tt.err)

			if rr.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, rr.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("Expected code %q, got %q", tt.code, body.Code)
			}
			if body.Error != tt.err.Error() {
				t.Errorf("Expected error %q, got %q", tt.err.Error(), body.Error)
			}
		})
	}
}

func TestRequireMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/clients", nil)
	rr := httptest.NewRecorder()

	if RequireMethod(rr, req, http.MethodGet, http.MethodHead) {
		t.Fatal("Expected DELETE to be rejected")
	}
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
	if got := rr.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("Expected Allow header 'GET, HEAD', got %q", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v map[string]any

	rr := httptest.NewRecorder()
	if DecodeJSON(rr, httptest.NewRequest(http.MethodPost, "/", nil), &v) {
		t.Error("Expected empty body to be rejected")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	if DecodeJSON(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")), &v) {
		t.Error("Expected invalid JSON to be rejected")
	}
	if !strings.Contains(rr.Body.String(), "Invalid JSON") {
		t.Errorf("Expected 'Invalid JSON' message, got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	if !DecodeJSON(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)), &v) {
		t.Fatal("Expected valid JSON to decode")
	}
	if v["a"] != 1.0 {
		t.Errorf("Expected a=1, got %v", v["a"])
	}
}
