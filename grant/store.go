package grant

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/sentinel/id"
)

// ErrNotFound is returned when a grant cannot be found.
var ErrNotFound = errors.New("sentinel: grant not found")

// Store defines persistence operations for exceptional grants.
type Store interface {
	// CreateGrant persists a new grant or revoke row.
	CreateGrant(ctx context.Context, g *Grant) error

	// GetGrant retrieves a grant by ID.
	GetGrant(ctx context.Context, grantID id.GrantID) (*Grant, error)

	// DeactivateGrant sets active=false on a grant row.
	DeactivateGrant(ctx context.Context, grantID id.GrantID) error

	// ListGrants returns grants matching the filter.
	ListGrants(ctx context.Context, filter *ListFilter) ([]*Grant, error)

	// CountGrants returns the number of grants matching the filter.
	CountGrants(ctx context.Context, filter *ListFilter) (int64, error)

	// ListGrantsForUser returns all active grant rows for a user. Rows whose
	// time window has lapsed are still returned; the evaluator applies the
	// authoritative window check against its own clock.
	ListGrantsForUser(ctx context.Context, userID string) ([]*Grant, error)

	// DeactivateExpired sets active=false on all rows whose EndAt is before
	// the given time. Housekeeping only; the evaluator never depends on
	// this sweep having run.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
