package sentinel

import (
	"context"
	"time"
)

// Cache provides caching for authorization decisions. Entries are bounded by
// the TTL the engine supplies, which is never later than the earliest
// expiration boundary that contributed to the decision, so a cached result
// cannot outlive a membership or grant time window.
type Cache interface {
	// Get returns a cached decision, if available.
	Get(ctx context.Context, req *AuthorizeRequest) (*Decision, bool)

	// Set stores a decision with the given time-to-live.
	Set(ctx context.Context, req *AuthorizeRequest, dec *Decision, ttl time.Duration)

	// InvalidateUser removes all cached decisions for a user.
	InvalidateUser(ctx context.Context, userID string)
}
