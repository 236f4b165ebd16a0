package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Resolved roles are cached under short TTLs so that a role change takes
// effect quickly even if a handler forgets to invalidate. The cache only
// ever shortcuts a lookup that would have succeeded; errors fall through
// to the RoleSource and a failed source lookup is still denied.

const (
	defaultRoleTTL     = 30 * time.Second
	defaultRoleEntries = 4096
)

// MemoryRoleCache is an in-process LRU with per-entry expiry. Suitable
// for single-instance deployments and as an L1 in front of redis.
type MemoryRoleCache struct {
	cache *lru.LRU[string, Role]
}

// NewMemoryRoleCache creates a role cache holding up to maxEntries
// resolved roles for ttl each. Zero values select the defaults.
func NewMemoryRoleCache(maxEntries int, ttl time.Duration) *MemoryRoleCache {
	if maxEntries <= 0 {
		maxEntries = defaultRoleEntries
	}
	if ttl <= 0 {
		ttl = defaultRoleTTL
	}
	return &MemoryRoleCache{
		cache: lru.NewLRU[string, Role](maxEntries, nil, ttl),
	}
}

func (c *MemoryRoleCache) Get(_ context.Context, clubID, userID int64) (Role, bool) {
	return c.cache.Get(roleCacheKey(clubID, userID))
}

func (c *MemoryRoleCache) Set(_ context.Context, clubID, userID int64, role Role) {
	c.cache.Add(roleCacheKey(clubID, userID), role)
}

func (c *MemoryRoleCache) Invalidate(_ context.Context, clubID, userID int64) {
	c.cache.Remove(roleCacheKey(clubID, userID))
}

// RedisRoleCache shares resolved roles across instances. Redis failures
// are treated as cache misses; the caller falls back to the source.
type RedisRoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRoleCache creates a redis-backed role cache.
func NewRedisRoleCache(client *redis.Client, ttl time.Duration) *RedisRoleCache {
	if ttl <= 0 {
		ttl = defaultRoleTTL
	}
	return &RedisRoleCache{client: client, ttl: ttl}
}

func (c *RedisRoleCache) Get(ctx context.Context, clubID, userID int64) (Role, bool) {
	val, err := c.client.Get(ctx, roleCacheKey(clubID, userID)).Result()
	if err != nil {
		// redis.Nil is a plain miss; anything else degrades to a miss too.
		return RoleNone, false
	}
	role := Role(val)
	if role != RoleNone && !role.Valid() {
		return RoleNone, false
	}
	return role, true
}

func (c *RedisRoleCache) Set(ctx context.Context, clubID, userID int64, role Role) {
	_ = c.client.Set(ctx, roleCacheKey(clubID, userID), string(role), c.ttl).Err()
}

func (c *RedisRoleCache) Invalidate(ctx context.Context, clubID, userID int64) {
	_ = c.client.Del(ctx, roleCacheKey(clubID, userID)).Err()
}

// TieredRoleCache checks an L1 memory cache before an L2 redis cache.
type TieredRoleCache struct {
	l1 *MemoryRoleCache
	l2 *RedisRoleCache
}

// NewTieredRoleCache combines a memory L1 with a redis L2.
func NewTieredRoleCache(l1 *MemoryRoleCache, l2 *RedisRoleCache) *TieredRoleCache {
	return &TieredRoleCache{l1: l1, l2: l2}
}

func (c *TieredRoleCache) Get(ctx context.Context, clubID, userID int64) (Role, bool) {
	if role, ok := c.l1.Get(ctx, clubID, userID); ok {
		return role, true
	}
	if role, ok := c.l2.Get(ctx, clubID, userID); ok {
		c.l1.Set(ctx, clubID, userID, role)
		return role, true
	}
	return RoleNone, false
}

func (c *TieredRoleCache) Set(ctx context.Context, clubID, userID int64, role Role) {
	c.l1.Set(ctx, clubID, userID, role)
	c.l2.Set(ctx, clubID, userID, role)
}

func (c *TieredRoleCache) Invalidate(ctx context.Context, clubID, userID int64) {
	c.l1.Invalidate(ctx, clubID, userID)
	c.l2.Invalidate(ctx, clubID, userID)
}

func roleCacheKey(clubID, userID int64) string {
	return fmt.Sprintf("role:%d:%d", clubID, userID)
}
