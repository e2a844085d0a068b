package roles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shiftwise/shiftwise/internal/rbac"
	"github.com/shiftwise/shiftwise/internal/shared"
)

type memoryRoleRepo struct {
	roles       map[int64]Role
	assignments map[int64]int
	nextID      int64
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{
		roles:       make(map[int64]Role),
		assignments: make(map[int64]int),
	}
}

func (r *memoryRoleRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryRoleRepo) Get(ctx context.Context, id int64) (*Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &role, nil
}

func (r *memoryRoleRepo) GetByName(ctx context.Context, name string) (*Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRoleRepo) List(ctx context.Context, req ListRolesRequest) ([]Role, int, error) {
	var result []Role
	for _, role := range r.roles {
		if req.IsActive != nil && role.IsActive != *req.IsActive {
			continue
		}
		result = append(result, role)
	}
	return result, len(result), nil
}

func (r *memoryRoleRepo) Create(ctx context.Context, role Role) (*Role, error) {
	r.nextID++
	role.ID = r.nextID
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	r.roles[role.ID] = role
	return &role, nil
}

func (r *memoryRoleRepo) Update(ctx context.Context, role Role) (*Role, error) {
	if _, ok := r.roles[role.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	role.UpdatedAt = time.Now()
	r.roles[role.ID] = role
	return &role, nil
}

func (r *memoryRoleRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.roles, id)
	return nil
}

func (r *memoryRoleRepo) CountAssignments(ctx context.Context, roleID int64) (int, error) {
	return r.assignments[roleID], nil
}

func TestCreateFoldsNameAndChecksDuplicate(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRoleRequest{
		Name:        "  Fleet_Operator ",
		Description: "runs the fleet",
		Permissions: map[string][]string{rbac.ResourceVMs: {rbac.ActionRead}},
	})
	require.NoError(t, err)
	require.Equal(t, "fleet_operator", created.Name)
	require.False(t, created.IsSystem)
	require.True(t, created.IsActive)

	// A differently-cased name is the same role.
	_, err = svc.Create(ctx, CreateRoleRequest{Name: "FLEET_OPERATOR"})
	require.ErrorIs(t, err, shared.ErrDuplicateRoleName)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryRoleRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRoleRequest{Name: "has space"})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateRoleRequest{
		Name:        "operator",
		Permissions: map[string][]string{"fleet": {rbac.ActionRead}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidResource)

	_, err = svc.Create(ctx, CreateRoleRequest{
		Name:        "operator",
		Permissions: map[string][]string{rbac.ResourceVMs: {"fly"}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidAction)
}

func TestUpdateAppliesOnlySuppliedFields(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRoleRequest{
		Name:        "operator",
		Description: "original",
		Permissions: map[string][]string{rbac.ResourceVMs: {rbac.ActionRead}},
	})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(ctx, created.ID, UpdateRoleRequest{IsActive: &inactive})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, "operator", updated.Name)
	require.Equal(t, "original", updated.Description)
	require.Equal(t, created.Permissions, updated.Permissions)
}

func TestUpdateRenameChecksDuplicateExcludingSelf(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateRoleRequest{Name: "first"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateRoleRequest{Name: "second"})
	require.NoError(t, err)

	// Renaming to another role's name fails.
	name := "second"
	_, err = svc.Update(ctx, first.ID, UpdateRoleRequest{Name: &name})
	require.ErrorIs(t, err, shared.ErrDuplicateRoleName)

	// Renaming to a case variant of its own name succeeds.
	same := "FIRST"
	updated, err := svc.Update(ctx, first.ID, UpdateRoleRequest{Name: &same})
	require.NoError(t, err)
	require.Equal(t, "first", updated.Name)
}

func TestSystemRolesAreImmutable(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	seeded, err := svc.SeedSystemRoles(ctx)
	require.NoError(t, err)
	require.Len(t, seeded, 4)

	desc := "rewritten"
	_, err = svc.Update(ctx, seeded[0].ID, UpdateRoleRequest{Description: &desc})
	require.ErrorIs(t, err, shared.ErrSystemRoleImmutable)

	err = svc.Delete(ctx, seeded[0].ID)
	require.ErrorIs(t, err, shared.ErrSystemRoleImmutable)
}

func TestDeleteRefusesRoleInUse(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRoleRequest{Name: "operator"})
	require.NoError(t, err)

	repo.assignments[created.ID] = 3
	err = svc.Delete(ctx, created.ID)
	require.ErrorIs(t, err, shared.ErrRoleInUse)

	repo.assignments[created.ID] = 0
	require.NoError(t, svc.Delete(ctx, created.ID))

	err = svc.Delete(ctx, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSeedSystemRolesIsIdempotent(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.SeedSystemRoles(ctx)
	require.NoError(t, err)
	require.Len(t, first, len(rbac.SystemRoleCatalog()))
	for _, role := range first {
		require.True(t, role.IsSystem)
		require.True(t, role.IsActive)
	}

	// Drift an existing role out from under the catalog.
	admin, err := repo.GetByName(ctx, rbac.RoleAdmin)
	require.NoError(t, err)
	drifted := *admin
	drifted.Permissions = map[string][]string{rbac.ResourceReports: {rbac.ActionRead}}
	_, err = repo.Update(ctx, drifted)
	require.NoError(t, err)

	second, err := svc.SeedSystemRoles(ctx)
	require.NoError(t, err)
	require.Len(t, second, len(first))

	// The drifted role is left untouched, not reconciled.
	reloaded, err := repo.GetByName(ctx, rbac.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, drifted.Permissions, reloaded.Permissions)
}
