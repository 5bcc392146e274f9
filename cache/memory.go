// Package cache provides caching implementations for Sentinel decisions.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/sentinel"
)

// Compile-time interface check.
var _ sentinel.Cache = (*Memory)(nil)

// Memory is an in-memory decision cache with per-entry TTL expiration. The
// engine supplies the TTL on every Set, already bounded by the earliest
// membership or grant expiration that contributed to the decision.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	maxSize int
}

type entry struct {
	decision  *sentinel.Decision
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached decision.
func (m *Memory) Get(_ context.Context, req *sentinel.AuthorizeRequest) (*sentinel.Decision, bool) {
	key := cacheKey(req)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	dec := *e.decision
	return &dec, true
}

// Set stores a decision with the given time-to-live.
func (m *Memory) Set(_ context.Context, req *sentinel.AuthorizeRequest, dec *sentinel.Decision, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	key := cacheKey(req)
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	stored := *dec
	m.entries[key] = &entry{
		decision:  &stored,
		expiresAt: time.Now().Add(ttl),
	}
}

// InvalidateUser removes all cached decisions for a user.
func (m *Memory) InvalidateUser(_ context.Context, userID string) {
	prefix := userID + ":"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
}

func cacheKey(req *sentinel.AuthorizeRequest) string {
	return fmt.Sprintf("%s:%s:%s", req.UserID, req.Capability, req.ResourceID)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
