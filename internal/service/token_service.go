package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jobhunter-backend/auth-service/internal/domain"
)

const tokenSubject = "token login"

// TokenClaims represents the signed payload of both access and refresh tokens
type TokenClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenConfig holds token signing configuration. Access and refresh tokens use
// independent secrets so a compromise of one cannot forge the other.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService issues and verifies signed access and refresh tokens
type TokenService struct {
	config *TokenConfig
	now    func() time.Time
}

// NewTokenService creates a new TokenService
func NewTokenService(config *TokenConfig) *TokenService {
	if config.AccessTTL == 0 {
		config.AccessTTL = 15 * time.Minute
	}
	if config.RefreshTTL == 0 {
		config.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		config: config,
		now:    time.Now,
	}
}

// WithClock overrides the time source (useful for tests)
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		s.now = now
	}
	return s
}

// AccessTTL returns the configured access token lifetime
func (s *TokenService) AccessTTL() time.Duration {
	return s.config.AccessTTL
}

// RefreshTTL returns the configured refresh token lifetime
func (s *TokenService) RefreshTTL() time.Duration {
	return s.config.RefreshTTL
}

// IssueAccess signs a short-lived access token for the identity
func (s *TokenService) IssueAccess(identity *domain.Identity) (string, error) {
	return s.sign(identity, s.config.AccessSecret, s.config.AccessTTL)
}

// IssueRefresh signs a long-lived refresh token for the identity using the
// refresh secret
func (s *TokenService) IssueRefresh(identity *domain.Identity) (string, error) {
	return s.sign(identity, s.config.RefreshSecret, s.config.RefreshTTL)
}

func (s *TokenService) sign(identity *domain.Identity, secret string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &TokenClaims{
		UserID: identity.ID,
		Name:   identity.Name,
		Email:  identity.Email,
		Role:   identity.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tokenSubject,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyAccess validates an access token
func (s *TokenService) VerifyAccess(token string) (*TokenClaims, error) {
	return s.verify(token, s.config.AccessSecret)
}

// VerifyRefresh validates a refresh token
func (s *TokenService) VerifyRefresh(token string) (*TokenClaims, error) {
	return s.verify(token, s.config.RefreshSecret)
}

// verify checks signature, shape and expiry. Every failure mode is normalized
// to ErrInvalidToken so callers never leak which check failed.
func (s *TokenService) verify(token, secret string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if s.config.Issuer != "" && claims.Issuer != s.config.Issuer {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
