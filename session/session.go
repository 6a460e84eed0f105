// Package session provides storage backend implementations for shop sessions.
//
// A session binds a shop domain to the access credential used to enrich
// outbound relay payloads. The package provides implementations of the
// Store interface:
//   - memory: In-memory storage (single instance, lost on restart)
//   - redis: Redis-based storage (shared across instances, persistent)
package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no session exists for the requested shop.
	ErrNotFound = errors.New("session not found")

	// ErrStoreClosed is returned when an operation is attempted on a closed store.
	ErrStoreClosed = errors.New("session store is closed")
)

// Session holds the caller identity attached to enrich outbound relay payloads.
type Session struct {
	// Shop is the shop domain, e.g. "example.myshopify.com".
	Shop string

	// AccessToken is the credential used when calling external services on
	// behalf of the shop.
	AccessToken string

	// LastUpdated is the time the session was last written.
	LastUpdated time.Time
}

// Store resolves shop identities to sessions.
//
// Implementations must be safe for concurrent use: the relay resolves a
// session on every inbound request.
type Store interface {
	// Resolve returns the session for the given shop domain.
	// Returns ErrNotFound if no session exists.
	Resolve(ctx context.Context, shop string) (Session, error)

	// Put stores or replaces the session for its shop domain.
	Put(ctx context.Context, session Session) error

	// Delete removes the session for the given shop domain.
	// Deleting a missing session is not an error.
	Delete(ctx context.Context, shop string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// StoreConfig holds configuration for session storage backends.
type StoreConfig struct {
	// Type specifies the storage backend ("memory" or "redis").
	Type string `yaml:"type"`

	// TTL is the time-to-live for stored sessions.
	// Zero means no expiration.
	TTL time.Duration `yaml:"ttl"`

	// Redis-specific configuration (only used when Type is "redis").
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

// Storage backend types.
const (
	StoreTypeMemory = "memory"
	StoreTypeRedis  = "redis"
)

// HydrateDefaults assigns default values to StoreConfig fields if they are not set.
func (c *StoreConfig) HydrateDefaults() {
	if c.Type == "" {
		c.Type = StoreTypeMemory
	}
	if c.Type == StoreTypeRedis {
		if c.Redis == nil {
			c.Redis = &RedisConfig{}
		}
		c.Redis.HydrateDefaults()
	}
}

// Validate checks the storage configuration.
func (c *StoreConfig) Validate() error {
	switch c.Type {
	case StoreTypeMemory, StoreTypeRedis:
		return nil
	default:
		return errors.New("session store type must be one of: memory, redis")
	}
}
