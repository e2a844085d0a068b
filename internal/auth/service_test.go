package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shiftwise/shiftwise/internal/password"
	"github.com/shiftwise/shiftwise/internal/rbac"
	"github.com/shiftwise/shiftwise/internal/shared"
	"github.com/shiftwise/shiftwise/internal/token"
	"github.com/shiftwise/shiftwise/internal/users"
)

type memoryUserRepo struct {
	users  map[int64]users.User
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]users.User)}
}

func (r *memoryUserRepo) WithTx(ctx context.Context, fn func(context.Context, users.Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryUserRepo) Get(ctx context.Context, id int64) (*users.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryUserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryUserRepo) List(ctx context.Context, req users.ListUsersRequest) ([]users.User, int, error) {
	return nil, 0, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, user users.User) (*users.User, error) {
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return &user, nil
}

func (r *memoryUserRepo) Update(ctx context.Context, user users.User) (*users.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	r.users[user.ID] = user
	return &user, nil
}

func (r *memoryUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	user, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	user.PasswordHash = hash
	r.users[id] = user
	return nil
}

func (r *memoryUserRepo) Delete(ctx context.Context, id int64) error {
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return nil
}

func (r *memoryUserRepo) RolesByIDs(ctx context.Context, ids []int64) ([]rbac.Role, error) {
	return []rbac.Role{}, nil
}

func (r *memoryUserRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	count := 0
	for _, user := range r.users {
		if user.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (r *memoryUserRepo) seed(t *testing.T, email, secret string, active bool) users.User {
	t.Helper()
	hash, err := password.Hash(secret)
	require.NoError(t, err)
	r.nextID++
	user := users.User{
		ID:           r.nextID,
		Email:        email,
		Username:     email,
		PasswordHash: hash,
		TenantID:     "acme",
		IsActive:     active,
	}
	r.users[user.ID] = user
	return user
}

func newTestService(repo *memoryUserRepo) *Service {
	tokens := token.NewService(token.Config{
		Secret:     "test-secret",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 168 * time.Hour,
	})
	return NewService(users.NewService(repo), tokens)
}

func TestAuthenticateMergesUnknownAndWrongPassword(t *testing.T) {
	repo := newMemoryUserRepo()
	repo.seed(t, "ada@example.com", "Sup3rSecret", true)
	svc := newTestService(repo)
	ctx := context.Background()

	// Unknown email and wrong password are indistinguishable.
	_, err := svc.Authenticate(ctx, "nobody@example.com", "Sup3rSecret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "ada@example.com", "WrongSecret1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	user, err := svc.Authenticate(ctx, "ada@example.com", "Sup3rSecret")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
}

func TestAuthenticateRejectsInactiveAfterPasswordCheck(t *testing.T) {
	repo := newMemoryUserRepo()
	repo.seed(t, "ada@example.com", "Sup3rSecret", false)
	svc := newTestService(repo)
	ctx := context.Background()

	// Wrong password on an inactive account still reads as bad credentials.
	_, err := svc.Authenticate(ctx, "ada@example.com", "WrongSecret1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "ada@example.com", "Sup3rSecret")
	require.ErrorIs(t, err, shared.ErrAccountInactive)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := newMemoryUserRepo()
	repo.seed(t, "ada@example.com", "Sup3rSecret", true)
	svc := newTestService(repo)

	user, tokens, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ada@example.com",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "bearer", tokens.TokenType)
	require.Equal(t, int64(1800), tokens.ExpiresIn)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	repo := newMemoryUserRepo()
	repo.seed(t, "ada@example.com", "Sup3rSecret", true)
	svc := newTestService(repo)
	ctx := context.Background()

	_, tokens, err := svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, tokens.AccessToken)
	require.ErrorIs(t, err, shared.ErrTokenWrongKind)

	_, err = svc.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	repo := newMemoryUserRepo()
	repo.seed(t, "ada@example.com", "Sup3rSecret", true)
	svc := newTestService(repo)
	ctx := context.Background()

	_, tokens, err := svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	renewed, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, renewed.AccessToken)
	require.NotEmpty(t, renewed.RefreshToken)
}

func TestRefreshCutsOffDeactivatedAccount(t *testing.T) {
	repo := newMemoryUserRepo()
	user := repo.seed(t, "ada@example.com", "Sup3rSecret", true)
	svc := newTestService(repo)
	ctx := context.Background()

	_, tokens, err := svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	deactivated := repo.users[user.ID]
	deactivated.IsActive = false
	repo.users[user.ID] = deactivated

	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, shared.ErrAccountInactive)
}

func TestRefreshRejectsDeletedAccount(t *testing.T) {
	repo := newMemoryUserRepo()
	user := repo.seed(t, "ada@example.com", "Sup3rSecret", true)
	svc := newTestService(repo)
	ctx := context.Background()

	_, tokens, err := svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, user.ID))

	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}
