package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jobhunter-backend/auth-service/internal/domain"
	"github.com/jobhunter-backend/auth-service/internal/dto"
	"github.com/jobhunter-backend/auth-service/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountNotActivated   = errors.New("account is not activated")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrInvalidActivationCode = errors.New("invalid activation code")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenExpired          = errors.New("token expired")
	ErrTooManyAttempts       = errors.New("too many failed login attempts")
)

const activationCodeLength = 60

// Notifier delivers the out-of-band activation notification. Mail rendering
// and dispatch happen in a separate worker.
type Notifier interface {
	SendActivation(ctx context.Context, email, name, activationURL string) error
}

// NoopNotifier discards activation notifications
type NoopNotifier struct{}

// SendActivation implements Notifier
func (NoopNotifier) SendActivation(ctx context.Context, email, name, activationURL string) error {
	return nil
}

// LoginGuard throttles repeated failed logins per account
type LoginGuard interface {
	// Allow reports whether another attempt is permitted for the key
	Allow(ctx context.Context, key string) (bool, error)
	// RecordFailure counts a failed attempt for the key
	RecordFailure(ctx context.Context, key string) error
	// Reset clears the failure count after a successful login
	Reset(ctx context.Context, key string) error
}

// AuthServiceConfig holds configuration for AuthService
type AuthServiceConfig struct {
	BcryptCost        int
	ActivationBaseURL string
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Login authenticates a user and opens a session
	Login(ctx context.Context, req *dto.LoginRequest, ip string) (*domain.Session, error)
	// Refresh rotates the refresh token and issues a new session
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	// Logout clears the stored refresh token. Idempotent.
	Logout(ctx context.Context, userID string) error
	// Register creates a pending account and triggers the activation notification
	Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error)
	// Activate consumes an activation code and opens a session
	Activate(ctx context.Context, code string) (*domain.Session, error)
	// GetIdentity resolves the identity projection for a user, permissions included
	GetIdentity(ctx context.Context, userID string) (*domain.Identity, error)
	// ResolvePermissions resolves the permission set for a role
	ResolvePermissions(ctx context.Context, roleID string) ([]domain.Permission, error)
	// ValidateAccessToken validates an access token and returns its claims
	ValidateAccessToken(token string) (*TokenClaims, error)
}

// authService implements AuthService
type authService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	tokens   *TokenService
	notifier Notifier
	guard    LoginGuard
	config   *AuthServiceConfig
	log      *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	tokens *TokenService,
	notifier Notifier,
	guard LoginGuard,
	config *AuthServiceConfig,
	log *zap.Logger,
) AuthService {
	if config.BcryptCost == 0 {
		config.BcryptCost = 12
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		tokens:   tokens,
		notifier: notifier,
		guard:    guard,
		config:   config,
		log:      log,
	}
}

// Login authenticates a user and opens a session
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ip string) (*domain.Session, error) {
	guardKey := req.Email + ":" + ip
	if s.guard != nil {
		allowed, err := s.guard.Allow(ctx, guardKey)
		if err != nil {
			// Guard backend unreachable: fail open, credentials still decide
			s.log.Warn("login guard unavailable", zap.Error(err))
		} else if !allowed {
			return nil, ErrTooManyAttempts
		}
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.recordFailure(ctx, guardKey)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailure(ctx, guardKey)
		return nil, ErrInvalidCredentials
	}

	if user.AccountStatus != domain.StatusActivated {
		return nil, ErrAccountNotActivated
	}

	if s.guard != nil {
		if err := s.guard.Reset(ctx, guardKey); err != nil {
			s.log.Warn("login guard reset failed", zap.Error(err))
		}
	}

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID))
	return session, nil
}

// Refresh rotates the refresh token and issues a new session. Every internal
// failure mode (bad signature, expiry, superseded token, lost swap race) is
// normalized to ErrInvalidRefreshToken.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if _, err := s.tokens.VerifyRefresh(refreshToken); err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Cryptographically valid but superseded by a later rotation
		return nil, ErrInvalidRefreshToken
	}

	identity, err := s.buildIdentity(ctx, user)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(identity)
	if err != nil {
		return nil, err
	}

	swapped, err := s.userRepo.SwapRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// A concurrent refresh already rotated the stored value
		return nil, ErrInvalidRefreshToken
	}

	return &domain.Session{TokenPair: *pair, Identity: *identity}, nil
}

// Logout clears the stored refresh token. Logging out twice is not an error.
func (s *authService) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return err
	}
	s.log.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// Register creates a pending account and triggers the activation notification
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	role, err := s.roleRepo.GetByName(ctx, domain.DefaultRoleName)
	if err != nil {
		return nil, err
	}
	roleID := ""
	if role != nil {
		roleID = role.ID
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	code, err := generateActivationCode(activationCodeLength)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:             uuid.New().String(),
		Email:          req.Email,
		PasswordHash:   string(hashedPassword),
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		Address:        req.Address,
		RoleID:         roleID,
		AccountStatus:  domain.StatusPendingActivate,
		ActivationCode: code,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	activationURL := fmt.Sprintf("%s/%s", s.config.ActivationBaseURL, code)
	if err := s.notifier.SendActivation(ctx, user.Email, user.Name, activationURL); err != nil {
		// The account exists; the notification can be re-sent out of band
		s.log.Error("activation notification failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Activate consumes an activation code and opens a session. Submitting the
// code for an already activated account is treated as a plain login, not an
// error.
func (s *authService) Activate(ctx context.Context, code string) (*domain.Session, error) {
	if code == "" {
		return nil, ErrInvalidActivationCode
	}

	user, err := s.userRepo.GetByActivationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidActivationCode
	}

	if user.AccountStatus == domain.StatusPendingActivate {
		if err := s.userRepo.Activate(ctx, user.ID); err != nil {
			return nil, err
		}
		user.AccountStatus = domain.StatusActivated
		user.ActivationCode = ""
		s.log.Info("account activated", zap.String("user_id", user.ID))
	}

	return s.openSession(ctx, user)
}

// GetIdentity resolves the identity projection for a user, permissions included
func (s *authService) GetIdentity(ctx context.Context, userID string) (*domain.Identity, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return s.buildIdentity(ctx, user)
}

// ResolvePermissions resolves the permission set for a role
func (s *authService) ResolvePermissions(ctx context.Context, roleID string) ([]domain.Permission, error) {
	if roleID == "" {
		return nil, nil
	}
	return s.roleRepo.PermissionsForRole(ctx, roleID)
}

// ValidateAccessToken validates an access token and returns its claims
func (s *authService) ValidateAccessToken(token string) (*TokenClaims, error) {
	return s.tokens.VerifyAccess(token)
}

// openSession resolves permissions, issues a token pair and persists the
// refresh token, replacing any prior value.
func (s *authService) openSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	identity, err := s.buildIdentity(ctx, user)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(identity)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}

	return &domain.Session{TokenPair: *pair, Identity: *identity}, nil
}

func (s *authService) buildIdentity(ctx context.Context, user *domain.User) (*domain.Identity, error) {
	permissions, err := s.ResolvePermissions(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		RoleID:      user.RoleID,
		Permissions: permissions,
	}, nil
}

func (s *authService) issuePair(identity *domain.Identity) (*domain.TokenPair, error) {
	accessToken, err := s.tokens.IssueAccess(identity)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefresh(identity)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) recordFailure(ctx context.Context, key string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.RecordFailure(ctx, key); err != nil {
		s.log.Warn("login guard record failed", zap.Error(err))
	}
}

const activationCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generateActivationCode returns a random alphanumeric code
func generateActivationCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(activationCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = activationCodeCharset[n.Int64()]
	}
	return string(code), nil
}
