package roles

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/shiftwise/shiftwise/internal/rbac"
	"github.com/shiftwise/shiftwise/internal/shared"
)

// Service owns the role lifecycle: creation, mutation, deletion and the
// idempotent seeding of system roles.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var foldCaser = cases.Fold()

// FoldName normalizes a role name for case-insensitive comparison and
// storage.
func FoldName(name string) string {
	return foldCaser.String(strings.TrimSpace(name))
}

func validateName(name string) error {
	if name == "" {
		return errors.New("roles: name required")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return fmt.Errorf("roles: name may only contain letters, digits and underscores")
		}
	}
	return nil
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	return s.repo.Get(ctx, id)
}

// List returns roles matching the filters plus the unpaginated total.
func (s *Service) List(ctx context.Context, req ListRolesRequest) ([]Role, int, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	return s.repo.List(ctx, req)
}

// UserCount reports how many users currently hold the role.
func (s *Service) UserCount(ctx context.Context, id int64) (int, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return 0, err
	}
	return s.repo.CountAssignments(ctx, id)
}

// Create inserts a new custom role. Names are case-folded before the
// uniqueness check and storage; manually created roles are never system
// roles.
func (s *Service) Create(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	name := FoldName(req.Name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if req.Permissions == nil {
		req.Permissions = map[string][]string{}
	}
	if err := rbac.ValidatePermissions(req.Permissions); err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	var created *Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.GetByName(ctx, name); err == nil {
			return shared.ErrDuplicateRoleName
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		var err error
		created, err = repo.Create(ctx, Role{
			Name:        name,
			Description: strings.TrimSpace(req.Description),
			Permissions: req.Permissions,
			IsSystem:    false,
			IsActive:    active,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies a partial update to an existing role. Only supplied fields
// change; renaming re-checks uniqueness against the new folded name,
// excluding the role's own current name. System roles are immutable.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRoleRequest) (*Role, error) {
	var updated *Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		role, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if role.IsSystem {
			return shared.ErrSystemRoleImmutable
		}

		if req.Name != nil {
			name := FoldName(*req.Name)
			if err := validateName(name); err != nil {
				return err
			}
			if name != role.Name {
				if _, err := repo.GetByName(ctx, name); err == nil {
					return shared.ErrDuplicateRoleName
				} else if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
			}
			role.Name = name
		}
		if req.Description != nil {
			role.Description = strings.TrimSpace(*req.Description)
		}
		if req.Permissions != nil {
			if err := rbac.ValidatePermissions(*req.Permissions); err != nil {
				return err
			}
			role.Permissions = *req.Permissions
		}
		if req.IsActive != nil {
			role.IsActive = *req.IsActive
		}

		updated, err = repo.Update(ctx, *role)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a custom role. The in-use check and the delete run in one
// transaction so a concurrent assignment cannot leave a user referencing a
// deleted role.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		role, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if role.IsSystem {
			return shared.ErrSystemRoleImmutable
		}
		count, err := repo.CountAssignments(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %d assignment(s)", shared.ErrRoleInUse, count)
		}
		return repo.Delete(ctx, id)
	})
}

// SeedSystemRoles creates the fixed system roles that do not exist yet.
// Idempotent: an existing role is returned untouched even when its
// permission map differs from the catalog.
func (s *Service) SeedSystemRoles(ctx context.Context) ([]Role, error) {
	catalog := rbac.SystemRoleCatalog()
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	seeded := make([]Role, 0, len(names))
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, name := range names {
			existing, err := repo.GetByName(ctx, FoldName(name))
			if err == nil {
				seeded = append(seeded, *existing)
				continue
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			created, err := repo.Create(ctx, Role{
				Name:        FoldName(name),
				Description: systemRoleDescription(name),
				Permissions: catalog[name],
				IsSystem:    true,
				IsActive:    true,
			})
			if err != nil {
				return err
			}
			seeded = append(seeded, *created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seeded, nil
}

func systemRoleDescription(name string) string {
	return "System role: " + strings.ReplaceAll(name, "_", " ")
}
