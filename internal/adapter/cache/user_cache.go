package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "rest-user-service/internal/domain/user"
)

// KeyPrefix namespaces user records in Redis.
const KeyPrefix = "user:"

// DefaultInvalidationHold is how long an invalidated key refuses new entries.
const DefaultInvalidationHold = 5 * time.Second

// tombstone marks a recently invalidated key. Set never overwrites it, so a
// reader that loaded a row before a write cannot put the old row back.
const tombstone = "-"

// UserCache defines the interface for user caching operations.
type UserCache interface {
	// Get retrieves a user from cache by ID.
	// Returns nil if user is not found in cache.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// Set stores a user in cache with the configured TTL.
	Set(ctx context.Context, user *domain.User) error

	// Delete invalidates the cached user. Set is a no-op for that ID until
	// the invalidation hold expires.
	Delete(ctx context.Context, id int64) error
}

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	hold   time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		hold:   DefaultInvalidationHold,
		log:    log,
	}
}

// entry is the cached representation of a user.
type entry struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func cacheKey(id int64) string {
	return fmt.Sprintf("%s%d", KeyPrefix, id)
}

// Get retrieves a user from Redis cache.
func (c *RedisUserCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.Int64("user_id", id))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}
	if string(data) == tombstone {
		c.log.Debug("cache miss (invalidated)", zap.Int64("user_id", id))
		return nil, nil
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.log.Error("failed to unmarshal cached user", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}

	c.log.Debug("cache hit", zap.Int64("user_id", id))
	return &domain.User{
		ID:        e.ID,
		Email:     e.Email,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}, nil
}

// Set stores a user in Redis cache with TTL unless the key is already taken,
// either by another entry or by a recent invalidation.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("cannot cache nil user")
	}

	data, err := json.Marshal(entry{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		c.log.Error("failed to marshal user for cache", zap.Int64("user_id", user.ID), zap.Error(err))
		return err
	}

	stored, err := c.client.SetNX(ctx, cacheKey(user.ID), data, c.ttl).Result()
	if err != nil {
		c.log.Error("failed to set cache", zap.Int64("user_id", user.ID), zap.Error(err))
		return err
	}
	if !stored {
		c.log.Debug("cache key taken, entry not stored", zap.Int64("user_id", user.ID))
		return nil
	}

	c.log.Debug("cached user", zap.Int64("user_id", user.ID), zap.Duration("ttl", c.ttl))
	return nil
}

// Delete replaces the cached user with a tombstone that expires after the
// invalidation hold.
func (c *RedisUserCache) Delete(ctx context.Context, id int64) error {
	if err := c.client.Set(ctx, cacheKey(id), tombstone, c.hold).Err(); err != nil {
		c.log.Error("failed to invalidate cache", zap.Int64("user_id", id), zap.Error(err))
		return err
	}

	c.log.Debug("invalidated cache", zap.Int64("user_id", id), zap.Duration("hold", c.hold))
	return nil
}
