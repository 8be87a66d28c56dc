package model

// TokenResponse is returned after a successful login.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
	User      *User  `json:"user,omitempty"`
}

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

var (
	ErrMissingToken = newError(ErrUnauthenticated, "missing authorization token")
	ErrInvalidToken = newError(ErrUnauthenticated, "invalid token")
	ErrTokenExpired = newError(ErrUnauthenticated, "token expired")
)
