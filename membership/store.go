package membership

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/sentinel/id"
)

// ErrNotFound is returned when a membership cannot be found.
var ErrNotFound = errors.New("sentinel: membership not found")

// Store defines persistence operations for memberships.
type Store interface {
	// UpsertMembership creates a membership. When a row for the same
	// (user, group) pair already exists it is reactivated and its expiration
	// and metadata updated in place. Must be atomic per row.
	UpsertMembership(ctx context.Context, m *Membership) error

	// GetMembership retrieves a membership by ID.
	GetMembership(ctx context.Context, memID id.MembershipID) (*Membership, error)

	// GetMembershipByUserGroup retrieves the membership row for the
	// (user, group) natural key, active or not.
	GetMembershipByUserGroup(ctx context.Context, userID string, groupID id.GroupID) (*Membership, error)

	// DeactivateMembership sets active=false on the (user, group) row.
	DeactivateMembership(ctx context.Context, userID string, groupID id.GroupID) error

	// ListMemberships returns memberships matching the filter.
	ListMemberships(ctx context.Context, filter *ListFilter) ([]*Membership, error)

	// CountMemberships returns the number of memberships matching the filter.
	CountMemberships(ctx context.Context, filter *ListFilter) (int64, error)

	// ListMembershipsForUser returns all active membership rows for a user.
	// Time-window filtering is the caller's concern; rows whose ExpiresAt has
	// passed are still returned so the evaluator applies the authoritative
	// expiration check against its own clock.
	ListMembershipsForUser(ctx context.Context, userID string) ([]*Membership, error)

	// DeactivateExpired sets active=false on all rows whose ExpiresAt is at
	// or before the given time. Housekeeping only; the evaluator never
	// depends on this sweep having run.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
