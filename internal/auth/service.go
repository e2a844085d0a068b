// Package auth glues credentials and tokens to the user store: login,
// refresh and the request authentication middleware.
package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/shiftwise/shiftwise/internal/password"
	"github.com/shiftwise/shiftwise/internal/shared"
	"github.com/shiftwise/shiftwise/internal/token"
	"github.com/shiftwise/shiftwise/internal/users"
)

// Service implements the authentication flows.
type Service struct {
	users  *users.Service
	tokens *token.Service
}

// NewService builds Service instance.
func NewService(users *users.Service, tokens *token.Service) *Service {
	return &Service{users: users, tokens: tokens}
}

// Authenticate checks the credentials and returns the account. An unknown
// email and a wrong password both yield ErrInvalidCredentials so the
// response never reveals whether the account exists; only a correct
// password against an inactive account yields ErrAccountInactive.
func (s *Service) Authenticate(ctx context.Context, email, secret string) (*users.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(secret, user.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrAccountInactive
	}
	return user, nil
}

// Login authenticates and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*users.User, *TokenResponse, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, nil, err
	}
	resp, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, resp, nil
}

// Refresh exchanges a valid refresh token for a new pair. The account is
// reloaded so a deactivation since issuance cuts the session off here.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil {
		return nil, err
	}
	if err := claims.RequireKind(token.KindRefresh); err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, shared.ErrTokenInvalid
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrAccountInactive
	}
	return s.issuePair(user.ID)
}

// ChangePassword rotates the authenticated user's password.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	return s.users.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
}

func (s *Service) issuePair(userID int64) (*TokenResponse, error) {
	subject := strconv.FormatInt(userID, 10)
	access, refresh, err := s.tokens.Pair(subject)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.tokens.AccessExpiresIn(),
	}, nil
}
