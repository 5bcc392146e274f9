package sentinel

import (
	"context"
	"testing"
	"time"
)

// recordingCache captures Set calls and serves a fixed store for Get.
type recordingCache struct {
	entries map[string]*Decision
	lastTTL time.Duration
	sets    int
	hits    int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]*Decision)}
}

func (c *recordingCache) key(req *AuthorizeRequest) string {
	return req.UserID + ":" + req.Capability + ":" + req.ResourceID
}

func (c *recordingCache) Get(_ context.Context, req *AuthorizeRequest) (*Decision, bool) {
	dec, ok := c.entries[c.key(req)]
	if ok {
		c.hits++
		copied := *dec
		return &copied, true
	}
	return nil, false
}

func (c *recordingCache) Set(_ context.Context, req *AuthorizeRequest, dec *Decision, ttl time.Duration) {
	c.sets++
	c.lastTTL = ttl
	c.entries[c.key(req)] = dec
}

func (c *recordingCache) InvalidateUser(_ context.Context, userID string) {
	prefix := userID + ":"
	for k := range c.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
}

func TestCacheOnlyAllowedDecisions(t *testing.T) {
	ctx := context.Background()
	rc := newRecordingCache()
	eng, s := newTestEngine(t, WithCache(rc), WithConfig(Config{CacheTTL: 5 * time.Minute}))

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}

	req := &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"}
	if _, err := eng.Authorize(ctx, req); err != nil {
		t.Fatal(err)
	}
	if rc.sets != 1 {
		t.Fatalf("expected 1 cache set, got %d", rc.sets)
	}

	// Second call is served from the cache.
	if _, err := eng.Authorize(ctx, req); err != nil {
		t.Fatal(err)
	}
	if rc.hits != 1 {
		t.Fatalf("expected 1 cache hit, got %d", rc.hits)
	}

	// Denied decisions are never cached.
	if _, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-2", Capability: "ops.calls.make"}); err != nil {
		t.Fatal(err)
	}
	if rc.sets != 1 {
		t.Fatalf("denied decision must not be cached, sets=%d", rc.sets)
	}
}

func TestCacheSkipsAuditRequired(t *testing.T) {
	ctx := context.Background()
	rc := newRecordingCache()
	eng, s := newTestEngine(t, WithCache(rc), WithConfig(Config{CacheTTL: 5 * time.Minute}))

	seedCapability(t, s, "finance.payouts.approve", true)
	if err := eng.GrantCapability(ctx, "user-1", "finance.payouts.approve", "covering", "admin-1", nil); err != nil {
		t.Fatal(err)
	}

	req := &AuthorizeRequest{UserID: "user-1", Capability: "finance.payouts.approve"}
	for i := 0; i < 2; i++ {
		dec, err := eng.Authorize(ctx, req)
		if err != nil {
			t.Fatal(err)
		}
		if !dec.Allowed {
			t.Fatal("expected allowed")
		}
	}
	if rc.sets != 0 {
		t.Fatalf("audit-required capability must never be cached, sets=%d", rc.sets)
	}
}

func TestCacheTTLBoundedByExpiration(t *testing.T) {
	ctx := context.Background()
	rc := newRecordingCache()
	eng, s := newTestEngine(t, WithCache(rc), WithConfig(Config{CacheTTL: 5 * time.Minute}))

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	exp := testNow.Add(time.Minute)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, &exp, "admin-1"); err != nil {
		t.Fatal(err)
	}

	if _, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"}); err != nil {
		t.Fatal(err)
	}
	if rc.sets != 1 {
		t.Fatalf("expected 1 cache set, got %d", rc.sets)
	}
	if rc.lastTTL != time.Minute {
		t.Fatalf("TTL must be bounded by membership expiration, got %s", rc.lastTTL)
	}
}

func TestCacheInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	rc := newRecordingCache()
	eng, s := newTestEngine(t, WithCache(rc), WithConfig(Config{CacheTTL: 5 * time.Minute}))

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}

	req := &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"}
	if _, err := eng.Authorize(ctx, req); err != nil {
		t.Fatal(err)
	}
	if len(rc.entries) == 0 {
		t.Fatal("expected cached entry")
	}

	if err := eng.RevokeCapability(ctx, "user-1", "ops.calls.make", "incident", "admin-1", nil); err != nil {
		t.Fatal(err)
	}
	if len(rc.entries) != 0 {
		t.Fatal("mutation must invalidate the user's cached decisions")
	}

	dec, err := eng.Authorize(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("expected denied after revoke")
	}
}
