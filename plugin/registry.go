package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/group"
	"github.com/xraph/sentinel/id"
	"github.com/xraph/sentinel/membership"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeAuthorizeEntry struct {
	name string
	hook BeforeAuthorize
}
type afterAuthorizeEntry struct {
	name string
	hook AfterAuthorize
}
type auditRecordedEntry struct {
	name string
	hook AuditRecorded
}
type capabilityCreatedEntry struct {
	name string
	hook CapabilityCreated
}
type capabilityUpdatedEntry struct {
	name string
	hook CapabilityUpdated
}
type capabilityDeletedEntry struct {
	name string
	hook CapabilityDeleted
}
type groupCreatedEntry struct {
	name string
	hook GroupCreated
}
type groupUpdatedEntry struct {
	name string
	hook GroupUpdated
}
type groupDeletedEntry struct {
	name string
	hook GroupDeleted
}
type capabilityAttachedEntry struct {
	name string
	hook CapabilityAttached
}
type capabilityDetachedEntry struct {
	name string
	hook CapabilityDetached
}
type groupAssignedEntry struct {
	name string
	hook GroupAssigned
}
type groupRevokedEntry struct {
	name string
	hook GroupRevoked
}
type grantCreatedEntry struct {
	name string
	hook GrantCreated
}
type grantDeactivatedEntry struct {
	name string
	hook GrantDeactivated
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeAuthorize   []beforeAuthorizeEntry
	afterAuthorize    []afterAuthorizeEntry
	auditRecorded     []auditRecordedEntry
	capabilityCreated []capabilityCreatedEntry
	capabilityUpdated []capabilityUpdatedEntry
	capabilityDeleted []capabilityDeletedEntry
	groupCreated      []groupCreatedEntry
	groupUpdated      []groupUpdatedEntry
	groupDeleted      []groupDeletedEntry
	capAttached       []capabilityAttachedEntry
	capDetached       []capabilityDetachedEntry
	groupAssigned     []groupAssignedEntry
	groupRevoked      []groupRevokedEntry
	grantCreated      []grantCreatedEntry
	grantDeactivated  []grantDeactivatedEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeAuthorize); ok {
		r.beforeAuthorize = append(r.beforeAuthorize, beforeAuthorizeEntry{name, h})
	}
	if h, ok := p.(AfterAuthorize); ok {
		r.afterAuthorize = append(r.afterAuthorize, afterAuthorizeEntry{name, h})
	}
	if h, ok := p.(AuditRecorded); ok {
		r.auditRecorded = append(r.auditRecorded, auditRecordedEntry{name, h})
	}
	if h, ok := p.(CapabilityCreated); ok {
		r.capabilityCreated = append(r.capabilityCreated, capabilityCreatedEntry{name, h})
	}
	if h, ok := p.(CapabilityUpdated); ok {
		r.capabilityUpdated = append(r.capabilityUpdated, capabilityUpdatedEntry{name, h})
	}
	if h, ok := p.(CapabilityDeleted); ok {
		r.capabilityDeleted = append(r.capabilityDeleted, capabilityDeletedEntry{name, h})
	}
	if h, ok := p.(GroupCreated); ok {
		r.groupCreated = append(r.groupCreated, groupCreatedEntry{name, h})
	}
	if h, ok := p.(GroupUpdated); ok {
		r.groupUpdated = append(r.groupUpdated, groupUpdatedEntry{name, h})
	}
	if h, ok := p.(GroupDeleted); ok {
		r.groupDeleted = append(r.groupDeleted, groupDeletedEntry{name, h})
	}
	if h, ok := p.(CapabilityAttached); ok {
		r.capAttached = append(r.capAttached, capabilityAttachedEntry{name, h})
	}
	if h, ok := p.(CapabilityDetached); ok {
		r.capDetached = append(r.capDetached, capabilityDetachedEntry{name, h})
	}
	if h, ok := p.(GroupAssigned); ok {
		r.groupAssigned = append(r.groupAssigned, groupAssignedEntry{name, h})
	}
	if h, ok := p.(GroupRevoked); ok {
		r.groupRevoked = append(r.groupRevoked, groupRevokedEntry{name, h})
	}
	if h, ok := p.(GrantCreated); ok {
		r.grantCreated = append(r.grantCreated, grantCreatedEntry{name, h})
	}
	if h, ok := p.(GrantDeactivated); ok {
		r.grantDeactivated = append(r.grantDeactivated, grantDeactivatedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Authorization event emitters
// ──────────────────────────────────────────────────

// EmitBeforeAuthorize notifies all plugins that implement BeforeAuthorize.
func (r *Registry) EmitBeforeAuthorize(ctx context.Context, req any) {
	for _, e := range r.beforeAuthorize {
		if err := e.hook.OnBeforeAuthorize(ctx, req); err != nil {
			r.logHookError("OnBeforeAuthorize", e.name, err)
		}
	}
}

// EmitAfterAuthorize notifies all plugins that implement AfterAuthorize.
func (r *Registry) EmitAfterAuthorize(ctx context.Context, req, dec any) {
	for _, e := range r.afterAuthorize {
		if err := e.hook.OnAfterAuthorize(ctx, req, dec); err != nil {
			r.logHookError("OnAfterAuthorize", e.name, err)
		}
	}
}

// EmitAuditRecorded notifies all plugins that implement AuditRecorded.
func (r *Registry) EmitAuditRecorded(ctx context.Context, entry *audit.Entry) {
	for _, e := range r.auditRecorded {
		if err := e.hook.OnAuditRecorded(ctx, entry); err != nil {
			r.logHookError("OnAuditRecorded", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Capability event emitters
// ──────────────────────────────────────────────────

// EmitCapabilityCreated notifies all plugins that implement CapabilityCreated.
func (r *Registry) EmitCapabilityCreated(ctx context.Context, c *capability.Capability) {
	for _, e := range r.capabilityCreated {
		if err := e.hook.OnCapabilityCreated(ctx, c); err != nil {
			r.logHookError("OnCapabilityCreated", e.name, err)
		}
	}
}

// EmitCapabilityUpdated notifies all plugins that implement CapabilityUpdated.
func (r *Registry) EmitCapabilityUpdated(ctx context.Context, c *capability.Capability) {
	for _, e := range r.capabilityUpdated {
		if err := e.hook.OnCapabilityUpdated(ctx, c); err != nil {
			r.logHookError("OnCapabilityUpdated", e.name, err)
		}
	}
}

// EmitCapabilityDeleted notifies all plugins that implement CapabilityDeleted.
func (r *Registry) EmitCapabilityDeleted(ctx context.Context, capID id.CapabilityID) {
	for _, e := range r.capabilityDeleted {
		if err := e.hook.OnCapabilityDeleted(ctx, capID); err != nil {
			r.logHookError("OnCapabilityDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Group event emitters
// ──────────────────────────────────────────────────

// EmitGroupCreated notifies all plugins that implement GroupCreated.
func (r *Registry) EmitGroupCreated(ctx context.Context, g *group.Group) {
	for _, e := range r.groupCreated {
		if err := e.hook.OnGroupCreated(ctx, g); err != nil {
			r.logHookError("OnGroupCreated", e.name, err)
		}
	}
}

// EmitGroupUpdated notifies all plugins that implement GroupUpdated.
func (r *Registry) EmitGroupUpdated(ctx context.Context, g *group.Group) {
	for _, e := range r.groupUpdated {
		if err := e.hook.OnGroupUpdated(ctx, g); err != nil {
			r.logHookError("OnGroupUpdated", e.name, err)
		}
	}
}

// EmitGroupDeleted notifies all plugins that implement GroupDeleted.
func (r *Registry) EmitGroupDeleted(ctx context.Context, groupID id.GroupID) {
	for _, e := range r.groupDeleted {
		if err := e.hook.OnGroupDeleted(ctx, groupID); err != nil {
			r.logHookError("OnGroupDeleted", e.name, err)
		}
	}
}

// EmitCapabilityAttached notifies all plugins that implement CapabilityAttached.
func (r *Registry) EmitCapabilityAttached(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) {
	for _, e := range r.capAttached {
		if err := e.hook.OnCapabilityAttached(ctx, groupID, capID); err != nil {
			r.logHookError("OnCapabilityAttached", e.name, err)
		}
	}
}

// EmitCapabilityDetached notifies all plugins that implement CapabilityDetached.
func (r *Registry) EmitCapabilityDetached(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) {
	for _, e := range r.capDetached {
		if err := e.hook.OnCapabilityDetached(ctx, groupID, capID); err != nil {
			r.logHookError("OnCapabilityDetached", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Membership event emitters
// ──────────────────────────────────────────────────

// EmitGroupAssigned notifies all plugins that implement GroupAssigned.
func (r *Registry) EmitGroupAssigned(ctx context.Context, m *membership.Membership) {
	for _, e := range r.groupAssigned {
		if err := e.hook.OnGroupAssigned(ctx, m); err != nil {
			r.logHookError("OnGroupAssigned", e.name, err)
		}
	}
}

// EmitGroupRevoked notifies all plugins that implement GroupRevoked.
func (r *Registry) EmitGroupRevoked(ctx context.Context, userID string, groupID id.GroupID) {
	for _, e := range r.groupRevoked {
		if err := e.hook.OnGroupRevoked(ctx, userID, groupID); err != nil {
			r.logHookError("OnGroupRevoked", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Grant event emitters
// ──────────────────────────────────────────────────

// EmitGrantCreated notifies all plugins that implement GrantCreated.
func (r *Registry) EmitGrantCreated(ctx context.Context, g *grant.Grant) {
	for _, e := range r.grantCreated {
		if err := e.hook.OnGrantCreated(ctx, g); err != nil {
			r.logHookError("OnGrantCreated", e.name, err)
		}
	}
}

// EmitGrantDeactivated notifies all plugins that implement GrantDeactivated.
func (r *Registry) EmitGrantDeactivated(ctx context.Context, grantID id.GrantID) {
	for _, e := range r.grantDeactivated {
		if err := e.hook.OnGrantDeactivated(ctx, grantID); err != nil {
			r.logHookError("OnGrantDeactivated", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated; they must not block the pipeline.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
