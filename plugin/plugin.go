// Package plugin defines the plugin system for Sentinel.
// Plugins are notified of lifecycle events (authorization performed, group
// assigned, grant created, etc.) and can react, for example with logging or metrics.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/group"
	"github.com/xraph/sentinel/id"
	"github.com/xraph/sentinel/membership"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Authorization lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeAuthorize is called before an authorization check is evaluated.
// The req parameter is *sentinel.AuthorizeRequest (passed as any to avoid
// an import cycle).
type BeforeAuthorize interface {
	OnBeforeAuthorize(ctx context.Context, req any) error
}

// AfterAuthorize is called after an authorization check completes.
// The req parameter is *sentinel.AuthorizeRequest; dec is *sentinel.Decision.
type AfterAuthorize interface {
	OnAfterAuthorize(ctx context.Context, req, dec any) error
}

// AuditRecorded is called after an audit entry is persisted.
type AuditRecorded interface {
	OnAuditRecorded(ctx context.Context, e *audit.Entry) error
}

// ──────────────────────────────────────────────────
// Capability lifecycle hooks
// ──────────────────────────────────────────────────

// CapabilityCreated is called after a capability is created.
type CapabilityCreated interface {
	OnCapabilityCreated(ctx context.Context, c *capability.Capability) error
}

// CapabilityUpdated is called after a capability is updated, including
// activation flips.
type CapabilityUpdated interface {
	OnCapabilityUpdated(ctx context.Context, c *capability.Capability) error
}

// CapabilityDeleted is called after a capability is deleted.
type CapabilityDeleted interface {
	OnCapabilityDeleted(ctx context.Context, capID id.CapabilityID) error
}

// ──────────────────────────────────────────────────
// Group lifecycle hooks
// ──────────────────────────────────────────────────

// GroupCreated is called after a group is created.
type GroupCreated interface {
	OnGroupCreated(ctx context.Context, g *group.Group) error
}

// GroupUpdated is called after a group is updated.
type GroupUpdated interface {
	OnGroupUpdated(ctx context.Context, g *group.Group) error
}

// GroupDeleted is called after a group is deleted.
type GroupDeleted interface {
	OnGroupDeleted(ctx context.Context, groupID id.GroupID) error
}

// CapabilityAttached is called after a capability is attached to a group.
type CapabilityAttached interface {
	OnCapabilityAttached(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) error
}

// CapabilityDetached is called after a capability is detached from a group.
type CapabilityDetached interface {
	OnCapabilityDetached(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) error
}

// ──────────────────────────────────────────────────
// Membership lifecycle hooks
// ──────────────────────────────────────────────────

// GroupAssigned is called after a user is assigned to a group.
type GroupAssigned interface {
	OnGroupAssigned(ctx context.Context, m *membership.Membership) error
}

// GroupRevoked is called after a user's group membership is deactivated.
type GroupRevoked interface {
	OnGroupRevoked(ctx context.Context, userID string, groupID id.GroupID) error
}

// ──────────────────────────────────────────────────
// Grant lifecycle hooks
// ──────────────────────────────────────────────────

// GrantCreated is called after an exceptional grant or revoke row is
// created. The Kind field distinguishes the two.
type GrantCreated interface {
	OnGrantCreated(ctx context.Context, g *grant.Grant) error
}

// GrantDeactivated is called after a grant row is deactivated.
type GrantDeactivated interface {
	OnGrantDeactivated(ctx context.Context, grantID id.GrantID) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
