package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"snapbee/internal/model"
)

type stubVerifier map[string]int64

func (s stubVerifier) VerifyToken(token string) (int64, error) {
	if token == "expired" {
		return 0, model.ErrTokenExpired
	}
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, model.ErrInvalidToken
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	if id, ok := GetUserIDFromContext(r.Context()); ok {
		w.Header().Set("X-User", strconv.FormatInt(id, 10))
	}
	w.WriteHeader(http.StatusNoContent)
}

func TestAuthMiddleware(t *testing.T) {
	verifier := stubVerifier{"good": 7}
	h := AuthMiddleware(verifier)(http.HandlerFunc(echoUser))

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantCode   string
		wantUser   string
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusNoContent, "", "7"},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer good") }, http.StatusNoContent, "", "7"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: "good"}) }, http.StatusNoContent, "", "7"},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"invalid", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized, model.CodeTokenInvalid, ""},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer expired") }, http.StatusUnauthorized, model.CodeTokenExpired, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" && !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Errorf("body = %s, want code %s", rec.Body.String(), tt.wantCode)
			}
			if got := rec.Header().Get("X-User"); got != tt.wantUser {
				t.Errorf("user = %q, want %q", got, tt.wantUser)
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	h := OptionalAuthMiddleware(stubVerifier{"good": 3})(http.HandlerFunc(echoUser))

	for token, wantUser := range map[string]string{"": "", "good": "3", "bad": ""} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("token %q: status = %d", token, rec.Code)
		}
		if got := rec.Header().Get("X-User"); got != wantUser {
			t.Errorf("token %q: user = %q, want %q", token, got, wantUser)
		}
	}
}
