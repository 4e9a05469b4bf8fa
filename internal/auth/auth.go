package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ScopeRead  = "rbac:read"
	ScopeWrite = "rbac:write"
)

// OperatorScopes are granted to the configured operator account.
var OperatorScopes = []string{ScopeRead, ScopeWrite}

// TokenGenerator creates and validates access tokens.
type TokenGenerator interface {
	GenerateAccessToken(subject, email string, scopes []string) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents JWT token claims
type Claims struct {
	Email  string   `json:"email"`
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	Secret         []byte
	Issuer         string
	AccessTokenTTL time.Duration
}

// Credentials is the operator account allowed to sign in.
type Credentials struct {
	Email        string
	PasswordHash string
}

type AuthTokens struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
