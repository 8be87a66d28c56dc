package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"snapbee/internal/model"
)

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService("secret", 60)

	token, err := auth.IssueToken(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	userID, err := auth.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != 42 {
		t.Errorf("user id = %d, want 42", userID)
	}
	if auth.ExpiresIn() != 60 {
		t.Errorf("ExpiresIn = %d, want 60", auth.ExpiresIn())
	}
}

func TestAuthService_VerifyToken_Failures(t *testing.T) {
	auth := NewAuthService("secret", 60)
	valid, _ := auth.IssueToken(1)

	expiredIssuer := NewAuthService("secret", 60)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredIssuer.IssueToken(1)

	otherKey, _ := NewAuthService("other-secret", 60).IssueToken(1)

	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", model.ErrInvalidToken},
		{"wrong key", otherKey, model.ErrInvalidToken},
		{"expired", expired, model.ErrTokenExpired},
		{"missing user_id", noUser, model.ErrInvalidToken},
		{"tampered", valid + "x", model.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.VerifyToken(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, model.ErrUnauthenticated) {
				t.Errorf("err = %v is not an authentication error", err)
			}
		})
	}
}
