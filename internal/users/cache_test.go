package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*memoryUserRepo, *CachedRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryUserRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repo, NewCachedRepository(repo, client, 30*time.Second, logger), mr
}

func TestCachedGetServesFromCache(t *testing.T) {
	repo, cached, _ := newTestCache(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, User{Email: "ada@example.com", Username: "ada", TenantID: "acme", IsActive: true})
	require.NoError(t, err)

	first, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "ada", first.Username)

	// Mutate the store behind the cache's back; the cached copy wins.
	stale := repo.users[created.ID]
	stale.Username = "changed"
	repo.users[created.ID] = stale

	second, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "ada", second.Username)
}

func TestCachedGetExpires(t *testing.T) {
	repo, cached, mr := newTestCache(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, User{Email: "ada@example.com", Username: "ada", TenantID: "acme", IsActive: true})
	require.NoError(t, err)

	_, err = cached.Get(ctx, created.ID)
	require.NoError(t, err)

	stale := repo.users[created.ID]
	stale.Username = "changed"
	repo.users[created.ID] = stale

	mr.FastForward(time.Minute)

	reloaded, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "changed", reloaded.Username)
}

func TestMutationsInvalidateCache(t *testing.T) {
	repo, cached, _ := newTestCache(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, User{Email: "ada@example.com", Username: "ada", TenantID: "acme", IsActive: true})
	require.NoError(t, err)

	_, err = cached.Get(ctx, created.ID)
	require.NoError(t, err)

	update := *created
	update.Username = "renamed"
	_, err = cached.Update(ctx, update)
	require.NoError(t, err)

	reloaded, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "renamed", reloaded.Username)
}

func TestPasswordChangeInvalidatesCache(t *testing.T) {
	repo, cached, _ := newTestCache(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, User{Email: "ada@example.com", Username: "ada", TenantID: "acme", IsActive: true, PasswordHash: "old"})
	require.NoError(t, err)

	_, err = cached.Get(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, cached.UpdatePassword(ctx, created.ID, "new"))

	reloaded, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "new", reloaded.PasswordHash)
}

func TestWithTxInvalidatesOnlyAfterCommit(t *testing.T) {
	repo, cached, _ := newTestCache(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, User{Email: "ada@example.com", Username: "ada", TenantID: "acme", IsActive: true})
	require.NoError(t, err)

	_, err = cached.Get(ctx, created.ID)
	require.NoError(t, err)

	err = cached.WithTx(ctx, func(ctx context.Context, txRepo Repository) error {
		update := *created
		update.Username = "renamed"
		if _, err := txRepo.Update(ctx, update); err != nil {
			return err
		}

		// In-transaction reads see the uncommitted write.
		inTx, err := txRepo.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, "renamed", inTx.Username)

		// The cache still holds the pre-transaction snapshot.
		outside, err := cached.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, "ada", outside.Username)
		return nil
	})
	require.NoError(t, err)

	// Commit dropped the entry; the next read is fresh.
	reloaded, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "renamed", reloaded.Username)
}

func TestFailedTxLeavesCacheUntouched(t *testing.T) {
	repo, cached, _ := newTestCache(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, User{Email: "ada@example.com", Username: "ada", TenantID: "acme", IsActive: true})
	require.NoError(t, err)

	_, err = cached.Get(ctx, created.ID)
	require.NoError(t, err)

	sentinel := errors.New("abort")
	err = cached.WithTx(ctx, func(ctx context.Context, txRepo Repository) error {
		update := *created
		update.Username = "renamed"
		if _, err := txRepo.Update(ctx, update); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// No commit, no invalidation: the cached snapshot survives.
	cachedUser, err := cached.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "ada", cachedUser.Username)
}

func TestDeleteInvalidatesCache(t *testing.T) {
	repo, cached, _ := newTestCache(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, User{Email: "ada@example.com", Username: "ada", TenantID: "acme", IsActive: true})
	require.NoError(t, err)

	_, err = cached.Get(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, cached.Delete(ctx, created.ID))

	_, err = cached.Get(ctx, created.ID)
	require.Error(t, err)
}
