package service

import (
	"testing"
	"time"

	"github.com/jobhunter-backend/auth-service/internal/domain"
)

func testTokenService() *TokenService {
	return NewTokenService(&TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "from server",
	})
}

func testIdentity() *domain.Identity {
	return &domain.Identity{
		ID:     "user-1",
		Name:   "Test User",
		Email:  "test@example.com",
		RoleID: "role-1",
	}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := testTokenService()
	identity := testIdentity()

	t.Run("access token round trip", func(t *testing.T) {
		token, err := svc.IssueAccess(identity)
		if err != nil {
			t.Fatalf("IssueAccess() error = %v", err)
		}

		claims, err := svc.VerifyAccess(token)
		if err != nil {
			t.Fatalf("VerifyAccess() error = %v", err)
		}
		if claims.UserID != identity.ID {
			t.Errorf("VerifyAccess() UserID = %v, want %v", claims.UserID, identity.ID)
		}
		if claims.Email != identity.Email {
			t.Errorf("VerifyAccess() Email = %v, want %v", claims.Email, identity.Email)
		}
		if claims.Subject != tokenSubject {
			t.Errorf("VerifyAccess() Subject = %v, want %v", claims.Subject, tokenSubject)
		}
	})

	t.Run("refresh token round trip", func(t *testing.T) {
		token, err := svc.IssueRefresh(identity)
		if err != nil {
			t.Fatalf("IssueRefresh() error = %v", err)
		}

		claims, err := svc.VerifyRefresh(token)
		if err != nil {
			t.Fatalf("VerifyRefresh() error = %v", err)
		}
		if claims.UserID != identity.ID {
			t.Errorf("VerifyRefresh() UserID = %v, want %v", claims.UserID, identity.ID)
		}
	})

	t.Run("access secret does not verify refresh tokens", func(t *testing.T) {
		token, err := svc.IssueRefresh(identity)
		if err != nil {
			t.Fatalf("IssueRefresh() error = %v", err)
		}

		if _, err := svc.VerifyAccess(token); err != ErrInvalidToken {
			t.Errorf("VerifyAccess(refresh token) error = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("refresh secret does not verify access tokens", func(t *testing.T) {
		token, err := svc.IssueAccess(identity)
		if err != nil {
			t.Fatalf("IssueAccess() error = %v", err)
		}

		if _, err := svc.VerifyRefresh(token); err != ErrInvalidToken {
			t.Errorf("VerifyRefresh(access token) error = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := svc.VerifyAccess("not.a.token"); err != ErrInvalidToken {
			t.Errorf("VerifyAccess() error = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenService(&TokenConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			Issuer:        "someone else",
		})
		token, err := other.IssueAccess(identity)
		if err != nil {
			t.Fatalf("IssueAccess() error = %v", err)
		}

		if _, err := svc.VerifyAccess(token); err != ErrInvalidToken {
			t.Errorf("VerifyAccess() error = %v, want %v", err, ErrInvalidToken)
		}
	})
}

func TestTokenService_Expiry(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	current := base
	svc := testTokenService().WithClock(func() time.Time { return current })

	token, err := svc.IssueAccess(testIdentity())
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	t.Run("valid before expiry", func(t *testing.T) {
		current = base.Add(14 * time.Minute)
		if _, err := svc.VerifyAccess(token); err != nil {
			t.Errorf("VerifyAccess() error = %v", err)
		}
	})

	t.Run("expired after TTL", func(t *testing.T) {
		current = base.Add(16 * time.Minute)
		if _, err := svc.VerifyAccess(token); err != ErrTokenExpired {
			t.Errorf("VerifyAccess() error = %v, want %v", err, ErrTokenExpired)
		}
	})
}
