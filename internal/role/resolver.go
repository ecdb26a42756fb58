// AngelaMos | 2026
// resolver.go

package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/crm-backend/internal/core"
	"github.com/carterperez-dev/templates/crm-backend/internal/metrics"
	"github.com/carterperez-dev/templates/crm-backend/internal/rbac"
)

const keyPrefix = "role:"

// Resolver maps an authenticated email to its role. It returns an error
// wrapping core.ErrNotFound when no user row matches the email.
type Resolver interface {
	ResolveRole(ctx context.Context, email string) (rbac.Role, error)
}

// ResolveOrUnassigned treats an unknown email as a user without a role.
func ResolveOrUnassigned(
	ctx context.Context,
	r Resolver,
	email string,
) (rbac.Role, error) {
	role, err := r.ResolveRole(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return rbac.RoleUnassigned, nil
	}
	return role, err
}

// Cache holds resolved roles in Redis under role:<email>. A nil client
// turns every call into a no-op miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}

func (c *Cache) Get(
	ctx context.Context,
	email string,
) (rbac.Role, bool, error) {
	if c == nil || c.client == nil {
		return rbac.RoleUnassigned, false, nil
	}

	val, err := c.client.Get(ctx, cacheKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return rbac.RoleUnassigned, false, nil
	}
	if err != nil {
		return rbac.RoleUnassigned, false, fmt.Errorf("get cached role: %w", err)
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return rbac.RoleUnassigned, false, fmt.Errorf("parse cached role: %w", err)
	}

	return rbac.FromID(&id), true, nil
}

// Store writes role through to the cache. Role updates call it so the
// next resolution sees the new role without waiting for the TTL.
func (c *Cache) Store(ctx context.Context, email string, role rbac.Role) error {
	if c == nil || c.client == nil {
		return nil
	}

	err := c.client.Set(
		ctx,
		cacheKey(email),
		strconv.Itoa(int(role)),
		c.ttl,
	).Err()
	if err != nil {
		return fmt.Errorf("cache role: %w", err)
	}

	return nil
}

// Fill caches role only when no entry exists. A write-through from Store
// that lands while a lookup is in flight wins over the lookup's result.
func (c *Cache) Fill(ctx context.Context, email string, role rbac.Role) error {
	if c == nil || c.client == nil {
		return nil
	}

	err := c.client.SetNX(
		ctx,
		cacheKey(email),
		strconv.Itoa(int(role)),
		c.ttl,
	).Err()
	if err != nil {
		return fmt.Errorf("fill cached role: %w", err)
	}

	return nil
}

func (c *Cache) Invalidate(ctx context.Context, email string) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, cacheKey(email)).Err(); err != nil {
		return fmt.Errorf("invalidate cached role: %w", err)
	}

	return nil
}

// CachedResolver reads through Cache before falling back to the wrapped
// resolver. Cache failures degrade to a direct lookup.
type CachedResolver struct {
	inner Resolver
	cache *Cache
}

func NewCachedResolver(inner Resolver, cache *Cache) *CachedResolver {
	return &CachedResolver{inner: inner, cache: cache}
}

func (r *CachedResolver) ResolveRole(
	ctx context.Context,
	email string,
) (rbac.Role, error) {
	role, ok, err := r.cache.Get(ctx, email)
	switch {
	case err != nil:
		metrics.RecordRoleCacheError()
		slog.WarnContext(ctx, "role cache read failed", "error", err)
	case ok:
		metrics.RecordRoleCacheHit()
		return role, nil
	default:
		metrics.RecordRoleCacheMiss()
	}

	role, err = r.inner.ResolveRole(ctx, email)
	if err != nil {
		return rbac.RoleUnassigned, err
	}

	if err := r.cache.Fill(ctx, email, role); err != nil {
		slog.WarnContext(ctx, "role cache fill failed", "error", err)
	}

	return role, nil
}
