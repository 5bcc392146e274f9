package group

import (
	"context"
	"errors"

	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/id"
)

// ErrNotFound is returned when a group cannot be found.
var ErrNotFound = errors.New("sentinel: group not found")

// Store defines persistence operations for groups and the group→capability
// junction.
type Store interface {
	// CreateGroup persists a new group.
	CreateGroup(ctx context.Context, g *Group) error

	// GetGroup retrieves a group by ID.
	GetGroup(ctx context.Context, groupID id.GroupID) (*Group, error)

	// GetGroupByCode retrieves a group by its unique code.
	GetGroupByCode(ctx context.Context, code string) (*Group, error)

	// UpdateGroup persists changes to a group.
	UpdateGroup(ctx context.Context, g *Group) error

	// DeleteGroup removes a group and its capability bindings.
	DeleteGroup(ctx context.Context, groupID id.GroupID) error

	// ListGroups returns groups matching the filter.
	ListGroups(ctx context.Context, filter *ListFilter) ([]*Group, error)

	// CountGroups returns the number of groups matching the filter.
	CountGroups(ctx context.Context, filter *ListFilter) (int64, error)

	// AttachCapability binds a capability to a group. Attaching an already
	// attached capability is a no-op.
	AttachCapability(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) error

	// DetachCapability removes a capability binding from a group.
	DetachCapability(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) error

	// SetGroupCapabilities replaces all capability bindings of a group.
	SetGroupCapabilities(ctx context.Context, groupID id.GroupID, capIDs []id.CapabilityID) error

	// ListGroupCapabilities returns all capabilities bound to a group.
	ListGroupCapabilities(ctx context.Context, groupID id.GroupID) ([]*capability.Capability, error)
}
