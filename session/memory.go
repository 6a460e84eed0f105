package session

import (
	"context"
	"sync"
	"time"
)

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store using an in-memory map.
// This implementation is suitable for single-instance deployments
// or as a fallback when Redis is unavailable.
//
// Note: Data is lost on process restart and is not shared across instances.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionEntry
	ttl      time.Duration
	closed   bool
}

// sessionEntry holds a session with its expiration time.
type sessionEntry struct {
	session   Session
	expiresAt time.Time // Zero means no expiration
}

// isExpired returns true if the entry has expired.
func (e sessionEntry) isExpired() bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.expiresAt)
}

// NewMemoryStore creates a new in-memory session store.
// If ttl is zero, sessions never expire.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]sessionEntry),
		ttl:      ttl,
	}
}

// Resolve returns the session for the given shop domain.
func (m *MemoryStore) Resolve(ctx context.Context, shop string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Session{}, ErrStoreClosed
	}

	entry, ok := m.sessions[shop]
	if !ok || entry.isExpired() {
		return Session{}, ErrNotFound
	}

	return entry.session, nil
}

// Put stores or replaces the session for its shop domain.
func (m *MemoryStore) Put(ctx context.Context, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if session.LastUpdated.IsZero() {
		session.LastUpdated = time.Now()
	}

	var expiresAt time.Time
	if m.ttl > 0 {
		expiresAt = time.Now().Add(m.ttl)
	}

	m.sessions[session.Shop] = sessionEntry{
		session:   session,
		expiresAt: expiresAt,
	}
	return nil
}

// Delete removes the session for the given shop domain.
func (m *MemoryStore) Delete(ctx context.Context, shop string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.sessions, shop)
	return nil
}

// Ping verifies the store is usable.
func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed. Subsequent operations return ErrStoreClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.sessions = nil
	return nil
}
