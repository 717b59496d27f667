package gateway

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewHTTPError_StatusMapping(t *testing.T) {
	tests := []struct {
		status       int
		wantMessage  string
		authRequired bool
		accessDenied bool
	}{
		{401, "authentication required", true, false},
		{403, "access denied", false, true},
		{404, "resource not found", false, false},
		{500, "server error", false, false},
		{503, "server error", false, false},
		{418, "request failed", false, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			e := newHTTPError(tt.status, "", "GET /api/x")
			if e.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", e.Message, tt.wantMessage)
			}
			if e.AuthRequired != tt.authRequired {
				t.Errorf("AuthRequired = %v, want %v", e.AuthRequired, tt.authRequired)
			}
			if e.AccessDenied != tt.accessDenied {
				t.Errorf("AccessDenied = %v, want %v", e.AccessDenied, tt.accessDenied)
			}
			if e.RequestDetails != "GET /api/x" {
				t.Errorf("RequestDetails = %q", e.RequestDetails)
			}
		})
	}
}

func TestServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"nope"}`, "nope"},
		{"error field", `{"error":"denied"}`, "denied"},
		{"message wins", `{"message":"m","error":"e"}`, "m"},
		{"empty body", "", ""},
		{"not json", "<html>boom</html>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serverMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("serverMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", ErrNetwork)
	if !IsNetworkError(wrapped) {
		t.Error("IsNetworkError should see through wrapping")
	}
	if IsNetworkError(errors.New("other")) {
		t.Error("IsNetworkError matched an unrelated error")
	}

	if !IsAuthRequired(newHTTPError(401, "", "")) {
		t.Error("IsAuthRequired(401) = false")
	}
	if IsAuthRequired(newHTTPError(403, "", "")) {
		t.Error("IsAuthRequired(403) = true")
	}
	if !IsAccessDenied(newHTTPError(403, "", "")) {
		t.Error("IsAccessDenied(403) = false")
	}
}
