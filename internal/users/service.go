package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shiftwise/shiftwise/internal/password"
	"github.com/shiftwise/shiftwise/internal/shared"
)

// Service owns the account lifecycle. Superuser and tenant are fixed at
// creation time and never change through the API.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// normalizeTenant folds a tenant identifier the same way identities are
// folded: trimmed and lowercased.
func normalizeTenant(tenant string) string {
	return strings.ToLower(strings.TrimSpace(tenant))
}

// Get fetches a user with roles loaded.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// GetByEmail fetches a user by exact email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// List returns users matching the filters plus the unpaginated total.
func (s *Service) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	return s.repo.List(ctx, req)
}

// Create registers a new account. The password must satisfy the strength
// policy; email and username must be unique; every requested role must
// exist. Accounts created through this path are never superusers and start
// unverified.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if ok, reason := password.EvaluateStrength(req.Password); !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrWeakPassword, reason)
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	// Email, username and tenant are stored lowercased so the duplicate
	// identity check is case-insensitive.
	user := User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		PasswordHash: hash,
		TenantID:     normalizeTenant(req.TenantID),
		IsActive:     active,
		IsVerified:   false,
		IsSuperuser:  false,
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}

	var created *User
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.GetByEmail(ctx, user.Email); err == nil {
			return shared.ErrDuplicateUserIdentity
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if _, err := repo.GetByUsername(ctx, user.Username); err == nil {
			return shared.ErrDuplicateUserIdentity
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		roles, err := repo.RolesByIDs(ctx, req.RoleIDs)
		if err != nil {
			return err
		}
		if len(roles) != len(req.RoleIDs) {
			return fmt.Errorf("%w: unknown role id", shared.ErrNotFound)
		}

		created, err = repo.Create(ctx, user)
		if err != nil {
			return err
		}
		if len(req.RoleIDs) > 0 {
			if err := repo.ReplaceRoles(ctx, created.ID, req.RoleIDs); err != nil {
				return err
			}
			created.Roles = roles
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies a partial update. Only supplied fields change; a supplied
// password goes through the same strength policy as creation, and a supplied
// role set replaces the current assignments wholesale.
func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
	var updated *User
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		user, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}

		if req.Email != nil {
			user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		}
		if req.Username != nil {
			user.Username = strings.ToLower(strings.TrimSpace(*req.Username))
		}
		if req.FirstName != nil {
			user.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			user.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}

		if req.RoleIDs != nil {
			roles, err := repo.RolesByIDs(ctx, *req.RoleIDs)
			if err != nil {
				return err
			}
			if len(roles) != len(*req.RoleIDs) {
				return fmt.Errorf("%w: unknown role id", shared.ErrNotFound)
			}
			if err := repo.ReplaceRoles(ctx, id, *req.RoleIDs); err != nil {
				return err
			}
		}

		if req.Password != nil {
			if ok, reason := password.EvaluateStrength(*req.Password); !ok {
				return fmt.Errorf("%w: %s", shared.ErrWeakPassword, reason)
			}
			hash, err := password.Hash(*req.Password)
			if err != nil {
				return err
			}
			if err := repo.UpdatePassword(ctx, id, hash); err != nil {
				return err
			}
		}

		updated, err = repo.Update(ctx, *user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangePassword rotates a user's own password after verifying the current
// one. The new password must differ from the old and satisfy the strength
// policy.
func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		user, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if !password.Verify(current, user.PasswordHash) {
			return shared.ErrInvalidCredentials
		}
		if current == next {
			return shared.ErrSamePassword
		}
		if ok, reason := password.EvaluateStrength(next); !ok {
			return fmt.Errorf("%w: %s", shared.ErrWeakPassword, reason)
		}
		hash, err := password.Hash(next)
		if err != nil {
			return err
		}
		return repo.UpdatePassword(ctx, id, hash)
	})
}

// CountByTenant reports how many accounts live in the tenant.
func (s *Service) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	return s.repo.CountByTenant(ctx, normalizeTenant(tenantID))
}

// Delete removes an account and, via the FK cascade, its role assignments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
