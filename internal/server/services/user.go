// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and the lifecycle of the
// JWT access tokens and their server-side sessions.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/dmitrijs2005/quickcollab/internal/cryptox"
	"github.com/dmitrijs2005/quickcollab/internal/server/auth"
	"github.com/dmitrijs2005/quickcollab/internal/server/config"
	"github.com/dmitrijs2005/quickcollab/internal/server/models"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const minPasswordLength = 6

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthResult is the body of every successful auth response.
type AuthResult struct {
	Token string          `json:"token"`
	User  models.UserView `json:"user"`
}

// Principal is the caller behind a verified token.
type Principal struct {
	UserID    string
	SessionID string
}

// UserService provides authentication-related operations:
// - Register and Login: create users, verify credentials and mint tokens
// - Authenticate: resolve a bearer token to a Principal
// - Refresh: swap a token, possibly expired within the grace window, for a new one
// - Logout: revoke the token's session
type UserService struct {
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	refreshGrace                time.Duration
	now                         func() time.Time
	dummyHash                   string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		refreshGrace:                cfg.RefreshGrace,
		now:                         time.Now,
		dummyHash:                   cryptox.HashPassword(common.GenerateRandByteArray(16)),
	}
}

// Register validates the input, creates the user and logs them in.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", common.ErrorValidation)
	case !emailRe.MatchString(email):
		return nil, fmt.Errorf("%w: email is not valid", common.ErrorValidation)
	case len(password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: cryptox.HashPassword([]byte(password)),
	}

	var result *AuthResult
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := r.Users().Create(ctx, user); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return fmt.Errorf("%w: email is already registered", common.ErrorAlreadyExists)
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		var err error
		result, err = s.issue(ctx, r, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Login verifies the password and returns a new token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repomanager.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.VerifyPassword(s.dummyHash, []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	ok, err := cryptox.VerifyPassword(user.PasswordHash, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.issue(ctx, s.repomanager, user)
}

// Authenticate checks the token and its session.
func (s *UserService) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret, 0)
	if err != nil {
		return Principal{}, err
	}
	if err := s.checkSession(ctx, s.repomanager, claims); err != nil {
		return Principal{}, err
	}
	return Principal{UserID: claims.UserID(), SessionID: claims.ID}, nil
}

// Refresh accepts a token that is valid or expired less than the grace
// window ago, revokes its session and issues a new token.
func (s *UserService) Refresh(ctx context.Context, token string) (*AuthResult, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret, s.refreshGrace)
	if err != nil {
		return nil, err
	}

	var result *AuthResult
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if err := s.checkSession(ctx, r, claims); err != nil {
			return err
		}
		user, err := r.Users().GetByID(ctx, claims.UserID())
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		if err := r.Sessions().Revoke(ctx, claims.ID, s.now()); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		result, err = s.issue(ctx, r, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Logout revokes the session behind token. A token past its grace window
// or already revoked is not an error.
func (s *UserService) Logout(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, s.jwtSecret, s.refreshGrace)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil
		}
		return err
	}
	err = s.repomanager.Sessions().Revoke(ctx, claims.ID, s.now())
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return nil
}

// PurgeSessions drops sessions that can no longer be refreshed.
func (s *UserService) PurgeSessions(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions().DeleteExpired(ctx, s.now().Add(-s.refreshGrace))
}

// --- helpers below ---

func (s *UserService) checkSession(ctx context.Context, r repomanager.Repositories, claims *auth.Claims) error {
	sess, err := r.Sessions().Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrTokenRevoked
		}
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if sess.Revoked() || sess.UserID != claims.UserID() {
		return common.ErrTokenRevoked
	}
	return nil
}

func (s *UserService) issue(ctx context.Context, r repomanager.Repositories, user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	sess := &models.Session{ID: token.ID, UserID: user.ID, ExpiresAt: token.ExpiresAt}
	if err := r.Sessions().Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &AuthResult{Token: token.Value, User: user.View()}, nil
}
