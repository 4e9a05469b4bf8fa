package auth

import (
	"crypto/subtle"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Service authenticates the operator account and validates access tokens.
type Service struct {
	credentials    Credentials
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(credentials Credentials, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		credentials:    credentials,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTTokenGenerator{
		Secret:         []byte(secret),
		Issuer:         "rbac-admin",
		AccessTokenTTL: ttl,
	}
}

// Authenticate validates credentials and returns an access token
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if appErr := dto.Validate(); appErr != nil {
		return AuthTokens{}, appErr
	}

	emailMatches := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(dto.Email)),
		[]byte(strings.ToLower(s.credentials.Email)),
	) == 1

	// the hash comparison always runs so unknown emails take as long as bad passwords
	hashErr := bcrypt.CompareHashAndPassword([]byte(s.credentials.PasswordHash), []byte(dto.Password))
	if !emailMatches || hashErr != nil {
		s.logger.Warn("login rejected", "email", dto.Email)
		return AuthTokens{}, internal.ErrInvalidLogin
	}

	return s.IssueToken(s.credentials.Email, s.credentials.Email, OperatorScopes)
}

// IssueToken signs a token for subject without checking a password.
func (s *Service) IssueToken(subject, email string, scopes []string) (AuthTokens, error) {
	token, expiresAt, err := s.tokenGenerator.GenerateAccessToken(subject, email, scopes)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}

	s.logger.Info("access token issued", "subject", subject, "scopes", scopes)
	return AuthTokens{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	}, nil
}

// ValidateAccessToken validates access token and returns the principal it carries
func (s *Service) ValidateAccessToken(tokenString string) (*internal.Principal, error) {
	claims, err := s.tokenGenerator.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &internal.Principal{
		Subject: claims.Subject,
		Email:   claims.Email,
		Scopes:  claims.Scopes,
	}, nil
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(subject, email string, scopes []string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.AccessTokenTTL)

	claims := &Claims{
		Email:  email,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithExpirationRequired())

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken.WithCause(err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
