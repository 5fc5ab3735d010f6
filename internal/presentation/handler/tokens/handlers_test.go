package tokens

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lingopods/roomsync/internal/infrastructure/logging"
	"github.com/lingopods/roomsync/internal/tokens"
)

const identityHeader = "X-User-ID"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	issuer, err := tokens.NewIssuer("APIabcdef1234567", "secretsecretsecretsecretsecret12", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return NewHandler(issuer, identityHeader, logging.NopLogger{})
}

func issueRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestIssueTokenRequiresIdentity(t *testing.T) {
	h := newTestHandler(t)

	req := issueRequest(`{"roomId":"lesson-1"}`)
	rec := httptest.NewRecorder()
	h.IssueTokenHandler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401: identity comes from the proxy header only", rec.Code)
	}
}

func TestIssueTokenRejectsBadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"roomId":`},
		{"missing room id", `{}`},
		{"blank room id", `{"roomId":"   "}`},
		{"room id too long", `{"roomId":"` + strings.Repeat("x", 200) + `"}`},
		{"control chars in room id", `{"roomId":"lesson\t1"}`},
		{"username too long", `{"roomId":"lesson-1","username":"` + strings.Repeat("n", 100) + `"}`},
	}

	h := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := issueRequest(tt.body)
			req.Header.Set(identityHeader, "user-1")
			rec := httptest.NewRecorder()
			h.IssueTokenHandler(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body: %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestIssueTokenSuccess(t *testing.T) {
	h := newTestHandler(t)

	req := issueRequest(`{"roomId":"lesson-1","username":"Alice"}`)
	req.Header.Set(identityHeader, "user-1")
	rec := httptest.NewRecorder()
	h.IssueTokenHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp issueTokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("response carries no token")
	}
	// A LiveKit access token is a JWT: three dot-separated segments.
	if parts := strings.Split(resp.Token, "."); len(parts) != 3 {
		t.Errorf("token %q is not a JWT", resp.Token)
	}
}
