package user

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache TTL is short: profile reads are frequent but mutations must become
// visible quickly.
const cacheTTL = 5 * time.Minute

const cacheKeyPrefix = "cache:user:"

// Cache stores client-safe user projections in Redis to serve profile reads
// without a database round trip.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached projection, or (nil, nil) on a cache miss.
func (c *Cache) Get(ctx context.Context, userID uuid.UUID) (*Public, error) {
	data, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached user: %w", err)
	}

	var p Public
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &p, nil
}

// Set stores the user's projection.
func (c *Cache) Set(ctx context.Context, u *User) error {
	p := u.ToPublic()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode user for cache: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(u.ID), data, cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

// Invalidate drops the cached projection after a mutation.
func (c *Cache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached user: %w", err)
	}
	return nil
}

func cacheKey(userID uuid.UUID) string {
	return cacheKeyPrefix + userID.String()
}
