package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time check that RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

// Redis hash field names
const (
	fieldAccessToken = "access_token"
	fieldLastUpdated = "last_updated"
)

// Redis config defaults
const (
	defaultRedisAddress      = "localhost:6379"
	defaultRedisPoolSize     = 10
	defaultRedisDialTimeout  = 5 * time.Second
	defaultRedisReadTimeout  = 3 * time.Second
	defaultRedisWriteTimeout = 3 * time.Second
	defaultRedisKeyPrefix    = "relay:session:"
)

// RedisConfig contains the Redis connection settings for the session store.
type RedisConfig struct {
	Address      string        `yaml:"address"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	KeyPrefix    string        `yaml:"key_prefix"`
}

// HydrateDefaults assigns default values to RedisConfig fields if they are not set.
func (c *RedisConfig) HydrateDefaults() {
	if c.Address == "" {
		c.Address = defaultRedisAddress
	}
	if c.PoolSize == 0 {
		c.PoolSize = defaultRedisPoolSize
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultRedisDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultRedisReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultRedisWriteTimeout
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultRedisKeyPrefix
	}
}

// RedisStore implements Store using Redis as the backend.
// This implementation is suitable for multi-instance deployments
// where sessions need to be shared across relay instances.
//
// Sessions are stored as Redis Hashes with the format:
// {keyPrefix}{shopDomain}
//
// Each hash contains the following fields:
// - access_token: the shop's access credential (string)
// - last_updated: Unix timestamp of last update (int64)
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore creates a Redis-backed session store on top of an existing client.
// The client is owned by the caller: Close on the store does not close it.
// It validates the connection by sending a PING command.
func NewRedisStore(ctx context.Context, client *redis.Client, keyPrefix string, ttl time.Duration) (*RedisStore, error) {
	if keyPrefix == "" {
		keyPrefix = defaultRedisKeyPrefix
	}

	// Validate connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}, nil
}

// buildKey constructs the Redis key for a shop domain.
func (r *RedisStore) buildKey(shop string) string {
	return r.keyPrefix + shop
}

// Resolve returns the session for the given shop domain.
func (r *RedisStore) Resolve(ctx context.Context, shop string) (Session, error) {
	result, err := r.client.HGetAll(ctx, r.buildKey(shop)).Result()
	if err != nil {
		return Session{}, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	if len(result) == 0 {
		return Session{}, ErrNotFound
	}

	return r.parseSession(shop, result)
}

// Put stores or replaces the session for its shop domain.
func (r *RedisStore) Put(ctx context.Context, session Session) error {
	if session.LastUpdated.IsZero() {
		session.LastUpdated = time.Now()
	}

	key := r.buildKey(session.Shop)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		fieldAccessToken: session.AccessToken,
		fieldLastUpdated: session.LastUpdated.Unix(),
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session in Redis: %w", err)
	}
	return nil
}

// Delete removes the session for the given shop domain.
func (r *RedisStore) Delete(ctx context.Context, shop string) error {
	if err := r.client.Del(ctx, r.buildKey(shop)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close is a no-op: the Redis client is shared process-wide and closed by
// the owner at shutdown.
func (r *RedisStore) Close() error {
	return nil
}

// parseSession converts a Redis hash result into a Session.
func (r *RedisStore) parseSession(shop string, fields map[string]string) (Session, error) {
	token, ok := fields[fieldAccessToken]
	if !ok || token == "" {
		return Session{}, fmt.Errorf("session for shop %q is missing the access_token field", shop)
	}

	session := Session{
		Shop:        shop,
		AccessToken: token,
	}

	if raw, ok := fields[fieldLastUpdated]; ok {
		var unix int64
		if _, err := fmt.Sscanf(raw, "%d", &unix); err == nil {
			session.LastUpdated = time.Unix(unix, 0)
		}
	}

	return session, nil
}
