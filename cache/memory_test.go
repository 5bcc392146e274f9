package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/sentinel"
)

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	req := &sentinel.AuthorizeRequest{UserID: "u1", Capability: "ops.calls.make"}
	dec := &sentinel.Decision{Allowed: true, Stage: sentinel.StageGroup}

	// Miss
	_, ok := c.Get(ctx, req)
	if ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, req, dec, time.Minute)
	got, ok := c.Get(ctx, req)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Allowed || got.Stage != sentinel.StageGroup {
		t.Fatalf("unexpected cached decision: %+v", got)
	}

	// Cached copies are independent of the caller's decision.
	got.Allowed = false
	again, _ := c.Get(ctx, req)
	if !again.Allowed {
		t.Fatal("mutating a returned decision must not affect the cache")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	req := &sentinel.AuthorizeRequest{UserID: "u1", Capability: "ops.calls.make"}
	c.Set(ctx, req, &sentinel.Decision{Allowed: true}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, req)
	if ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheZeroTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	req := &sentinel.AuthorizeRequest{UserID: "u1", Capability: "ops.calls.make"}
	c.Set(ctx, req, &sentinel.Decision{Allowed: true}, 0)

	if _, ok := c.Get(ctx, req); ok {
		t.Fatal("zero TTL must not cache")
	}
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	req1 := &sentinel.AuthorizeRequest{UserID: "u1", Capability: "ops.calls.make"}
	req2 := &sentinel.AuthorizeRequest{UserID: "u1", Capability: "ops.tickets.view"}
	req3 := &sentinel.AuthorizeRequest{UserID: "u2", Capability: "ops.calls.make"}

	c.Set(ctx, req1, &sentinel.Decision{Allowed: true}, time.Minute)
	c.Set(ctx, req2, &sentinel.Decision{Allowed: true}, time.Minute)
	c.Set(ctx, req3, &sentinel.Decision{Allowed: true}, time.Minute)

	c.InvalidateUser(ctx, "u1")

	if _, ok := c.Get(ctx, req1); ok {
		t.Fatal("u1 req1 should be invalidated")
	}
	if _, ok := c.Get(ctx, req2); ok {
		t.Fatal("u1 req2 should be invalidated")
	}
	if _, ok := c.Get(ctx, req3); !ok {
		t.Fatal("u2 should still be cached")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for i := 0; i < 5; i++ {
		req := &sentinel.AuthorizeRequest{
			UserID:     "u1",
			Capability: "ops.calls.make",
			ResourceID: string(rune('a' + i)),
		}
		c.Set(ctx, req, &sentinel.Decision{Allowed: true}, time.Minute)
	}

	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	if size > 2 {
		t.Fatalf("expected max 2 entries, got %d", size)
	}
}
