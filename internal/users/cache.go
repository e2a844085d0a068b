package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiftwise/shiftwise/internal/rbac"
)

// CachedRepository is a read-through decorator over Repository. Get is served
// from Redis when possible so the per-request principal load does not hit
// Postgres; every mutation drops the cached entry. Lookups by email or
// username bypass the cache since they back credential checks.
//
// Inside WithTx the cache is not touched: reads go straight to the
// transaction (which may hold uncommitted writes) and invalidations are
// collected and applied only after the transaction commits, so a concurrent
// Get cannot re-fill the cache with pre-commit data.
type CachedRepository struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	// pending is non-nil only on the decorator handed to a WithTx callback.
	pending *[]int64
}

// NewCachedRepository wraps repo with a Redis read-through cache.
func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	return &CachedRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("users:%d", id)
}

func (c *CachedRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	touched := make([]int64, 0, 2)
	err := c.inner.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		tx := &CachedRepository{inner: repo, client: c.client, ttl: c.ttl, logger: c.logger, pending: &touched}
		return fn(ctx, tx)
	})
	if err != nil {
		return err
	}
	for _, id := range touched {
		c.drop(ctx, id)
	}
	return nil
}

func (c *CachedRepository) Get(ctx context.Context, id int64) (*User, error) {
	if c.pending != nil {
		return c.inner.Get(ctx, id)
	}
	key := cacheKey(id)
	if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var user User
		if err := json.Unmarshal(payload, &user); err == nil {
			return &user, nil
		}
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("user cache read failed", slog.Any("error", err))
	}

	user, err := c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(user); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("user cache write failed", slog.Any("error", err))
		}
	}
	return user, nil
}

func (c *CachedRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return c.inner.GetByEmail(ctx, email)
}

func (c *CachedRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return c.inner.GetByUsername(ctx, username)
}

func (c *CachedRepository) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	return c.inner.List(ctx, req)
}

func (c *CachedRepository) Create(ctx context.Context, user User) (*User, error) {
	return c.inner.Create(ctx, user)
}

func (c *CachedRepository) Update(ctx context.Context, user User) (*User, error) {
	updated, err := c.inner.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, user.ID)
	return updated, nil
}

func (c *CachedRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	if err := c.inner.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedRepository) Delete(ctx context.Context, id int64) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedRepository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	if err := c.inner.ReplaceRoles(ctx, userID, roleIDs); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

func (c *CachedRepository) RolesByIDs(ctx context.Context, ids []int64) ([]rbac.Role, error) {
	return c.inner.RolesByIDs(ctx, ids)
}

func (c *CachedRepository) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	return c.inner.CountByTenant(ctx, tenantID)
}

func (c *CachedRepository) invalidate(ctx context.Context, id int64) {
	if c.pending != nil {
		*c.pending = append(*c.pending, id)
		return
	}
	c.drop(ctx, id)
}

func (c *CachedRepository) drop(ctx context.Context, id int64) {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Warn("user cache invalidation failed", slog.Any("error", err))
	}
}
