package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Veraticus/mindspend/internal/model"
)

// DefaultProfileTTL is how long a cached profile stays valid.
const DefaultProfileTTL = 10 * time.Minute

// OpenRedis connects to Redis. Both redis:// URLs and bare host:port are accepted.
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if !strings.Contains(redisURL, "://") {
		redisURL = "redis://" + redisURL
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// ProfileCache keeps recently read profiles in Redis.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache returns a cache over client. A non-positive ttl uses DefaultProfileTTL.
func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileCache{client: client, ttl: ttl}
}

// ProfileKey is the Redis key holding uid's profile.
func ProfileKey(uid string) string {
	return "mindspend:profile:" + uid
}

// Get returns the cached profile. The bool is false on a miss.
func (c *ProfileCache) Get(ctx context.Context, uid string) (*model.Profile, bool, error) {
	cached, err := c.client.Get(ctx, ProfileKey(uid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached profile: %w", err)
	}

	var p model.Profile
	if err := json.Unmarshal([]byte(cached), &p); err != nil {
		// Treat a bad entry as a miss and drop it.
		_ = c.client.Del(ctx, ProfileKey(uid)).Err()
		return nil, false, nil
	}
	return &p, true, nil
}

// Set caches p for uid.
func (c *ProfileCache) Set(ctx context.Context, uid string, p model.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := c.client.SetEx(ctx, ProfileKey(uid), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}
	return nil
}

// Invalidate drops uid's cached profile.
func (c *ProfileCache) Invalidate(ctx context.Context, uid string) error {
	if err := c.client.Del(ctx, ProfileKey(uid)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached profile: %w", err)
	}
	return nil
}
