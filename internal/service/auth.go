package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"snapbee/internal/model"
)

// AuthService issues and verifies HS256 access tokens carrying a user_id claim.
type AuthService struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewAuthService(secret string, maxAgeSeconds int) *AuthService {
	return &AuthService{
		secret: []byte(secret),
		maxAge: time.Duration(maxAgeSeconds) * time.Second,
		now:    time.Now,
	}
}

// IssueToken signs an access token for userID.
func (s *AuthService) IssueToken(userID int64) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.maxAge).Unix(),
		"iat":     now.Unix(),
		"jti":     uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExpiresIn is the lifetime of issued tokens in seconds.
func (s *AuthService) ExpiresIn() int {
	return int(s.maxAge / time.Second)
}

// VerifyToken returns the user id carried by a valid token.
func (s *AuthService) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, model.ErrTokenExpired
		}
		return 0, model.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, model.ErrInvalidToken
	}

	// JSON numbers decode as float64.
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, model.ErrInvalidToken
	}
	return int64(userIDFloat), nil
}
