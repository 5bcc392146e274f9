package sentinel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/id"
	"github.com/xraph/sentinel/membership"
	"github.com/xraph/sentinel/plugin"
	"github.com/xraph/sentinel/store"
)

// Engine is the permission evaluation engine. It is stateless per call: all
// state lives in the backing store, so Authorize and EffectiveCapabilities
// are safe to invoke concurrently against the same or different users.
type Engine struct {
	store   store.Store
	clock   Clock
	cache   Cache
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config
}

// NewEngine creates a new Sentinel engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		clock:  SystemClock(),
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("sentinel: store is required")
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Authorize decides whether the user holds the capability. This is the hot
// path. Missing users, unknown capabilities, and empty membership sets are
// ordinary deny outcomes; only storage failures return an error, and callers
// must treat that error as "cannot determine" and fail closed.
//
// When the capability requires auditing, or the decision is a deny, the
// outcome is persisted before returning. A failed audit write never flips
// the decision: it is returned as a *AuditError alongside the decision.
func (e *Engine) Authorize(ctx context.Context, req *AuthorizeRequest) (*Decision, error) {
	start := time.Now()
	now := e.clock.Now()

	if e.cache != nil && e.config.CacheTTL > 0 {
		if cached, ok := e.cache.Get(ctx, req); ok {
			cached.EvalTimeNs = time.Since(start).Nanoseconds()
			return cached, nil
		}
	}

	if e.plugins != nil {
		e.plugins.EmitBeforeAuthorize(ctx, req)
	}

	st := &evalState{req: req, now: now}

	var dec *Decision
	for _, sg := range e.pipeline() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sentinel: authorize: %w", err)
		}
		res, err := sg.fn(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("sentinel: %s stage: %w", sg.name, err)
		}
		if res.outcome == outcomeContinue {
			continue
		}
		dec = &Decision{
			Allowed: res.outcome == outcomeAllow,
			Stage:   sg.name,
			Reason:  res.reason,
		}
		break
	}
	if dec == nil {
		dec = &Decision{Stage: StageDefault, Reason: "no group grants capability"}
	}
	dec.EvalTimeNs = time.Since(start).Nanoseconds()

	var auditErr error
	if !dec.Allowed || (st.cap != nil && st.cap.RequiresAudit) {
		auditErr = e.recordDecision(ctx, st, dec)
		dec.Audited = auditErr == nil
	}

	e.maybeCache(ctx, st, dec)

	if e.plugins != nil {
		e.plugins.EmitAfterAuthorize(ctx, req, dec)
	}

	if auditErr != nil {
		return dec, &AuditError{Decision: dec, Err: auditErr}
	}
	return dec, nil
}

// Enforce returns ErrAccessDenied if the authorization check is denied.
func (e *Engine) Enforce(ctx context.Context, req *AuthorizeRequest) error {
	dec, err := e.Authorize(ctx, req)
	if err != nil {
		var auditErr *AuditError
		if !errors.As(err, &auditErr) {
			return fmt.Errorf("sentinel: authorize: %w", err)
		}
		// The decision stands; the audit failure rides along either way.
		if dec.Allowed {
			return err
		}
		return errors.Join(fmt.Errorf("%w: %s: %s", ErrAccessDenied, dec.Stage, dec.Reason), auditErr)
	}
	if !dec.Allowed {
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, dec.Stage, dec.Reason)
	}
	return nil
}

// CanI is a shorthand for a simple authorization check.
func (e *Engine) CanI(ctx context.Context, userID, capabilityCode string) (bool, error) {
	dec, err := e.Authorize(ctx, &AuthorizeRequest{UserID: userID, Capability: capabilityCode})
	if err != nil {
		return false, err
	}
	return dec.Allowed, nil
}

// EffectiveCapabilities returns the set of capability codes the user would
// currently be allowed: the union of group-derived capabilities plus all
// effective exceptional grants, minus all effective exceptional revokes.
// Only active capabilities appear. Bulk discovery is not audited unless
// Config.AuditDiscovery is set, in which case one summary entry is written.
func (e *Engine) EffectiveCapabilities(ctx context.Context, userID string) (mapset.Set[string], error) {
	now := e.clock.Now()
	codes := mapset.NewSet[string]()

	memberships, err := e.store.ListMembershipsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sentinel: list memberships: %w", err)
	}
	for _, m := range memberships {
		if !m.EffectiveAt(now) {
			continue
		}
		g, err := e.store.GetGroup(ctx, m.GroupID)
		if err != nil {
			return nil, fmt.Errorf("sentinel: resolve group %s: %w", m.GroupID, err)
		}
		if !g.Active {
			continue
		}
		caps, err := e.store.ListGroupCapabilities(ctx, m.GroupID)
		if err != nil {
			return nil, fmt.Errorf("sentinel: list group capabilities: %w", err)
		}
		for _, c := range caps {
			if c.Active {
				codes.Add(c.Code)
			}
		}
	}

	rows, err := e.store.ListGrantsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sentinel: list grants: %w", err)
	}
	for _, g := range rows {
		if !g.EffectiveAt(now) || g.Kind != grant.KindGrant {
			continue
		}
		c, err := e.store.GetCapabilityByCode(ctx, g.CapabilityCode)
		if err != nil {
			if errors.Is(err, capability.ErrNotFound) {
				// Unknown capabilities are never grantable.
				continue
			}
			return nil, fmt.Errorf("sentinel: resolve capability %s: %w", g.CapabilityCode, err)
		}
		if !c.Active {
			continue
		}
		codes.Add(g.CapabilityCode)
	}
	for _, g := range rows {
		if g.EffectiveAt(now) && g.Kind == grant.KindRevoke {
			codes.Remove(g.CapabilityCode)
		}
	}

	if e.config.AuditDiscovery {
		entry := &audit.Entry{
			ID:             id.NewAuditEntryID(),
			UserID:         userID,
			CapabilityCode: "*",
			Outcome:        audit.OutcomeGranted,
			Stage:          "discovery",
			Metadata:       map[string]any{"capability_count": codes.Cardinality()},
			CreatedAt:      now,
		}
		if err := e.store.CreateAuditEntry(ctx, entry); err != nil {
			return codes, &AuditError{Err: err}
		}
		if e.plugins != nil {
			e.plugins.EmitAuditRecorded(ctx, entry)
		}
	}

	return codes, nil
}

// ──────────────────────────────────────────────────
// Administrative mutation surface
// ──────────────────────────────────────────────────

// AssignGroup assigns the user to a group, optionally time-bounded.
// Re-assigning an existing (user, group) pair reactivates it and updates
// expiration and metadata in place; the pair is a natural key.
func (e *Engine) AssignGroup(ctx context.Context, userID string, groupID id.GroupID, expiresAt *time.Time, assignedBy string) error {
	g, err := e.store.GetGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("sentinel: assign group: %w", err)
	}
	if !g.Active {
		return fmt.Errorf("sentinel: assign group %s: %w", g.Code, ErrGroupInactive)
	}

	now := e.clock.Now()
	if expiresAt != nil && !expiresAt.After(now) {
		return fmt.Errorf("sentinel: assign group %s: %w", g.Code, ErrInvalidTimeWindow)
	}

	m := &membership.Membership{
		ID:         id.NewMembershipID(),
		UserID:     userID,
		GroupID:    groupID,
		Active:     true,
		ExpiresAt:  expiresAt,
		AssignedBy: assignedBy,
		AssignedAt: now,
		UpdatedAt:  now,
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("sentinel: assign group: %w", err)
	}
	if err := e.store.UpsertMembership(ctx, m); err != nil {
		return fmt.Errorf("sentinel: assign group: %w", err)
	}

	e.invalidateUser(ctx, userID)
	if e.plugins != nil {
		e.plugins.EmitGroupAssigned(ctx, m)
	}
	return nil
}

// RevokeGroup deactivates the user's membership in a group.
func (e *Engine) RevokeGroup(ctx context.Context, userID string, groupID id.GroupID) error {
	if err := e.store.DeactivateMembership(ctx, userID, groupID); err != nil {
		return fmt.Errorf("sentinel: revoke group: %w", err)
	}
	e.invalidateUser(ctx, userID)
	if e.plugins != nil {
		e.plugins.EmitGroupRevoked(ctx, userID, groupID)
	}
	return nil
}

// GrantCapability creates an exceptional grant for one capability,
// effective immediately and optionally ending at endAt.
func (e *Engine) GrantCapability(ctx context.Context, userID, capabilityCode, reason, authorizedBy string, endAt *time.Time) error {
	return e.createGrant(ctx, userID, capabilityCode, grant.KindGrant, reason, authorizedBy, endAt)
}

// RevokeCapability creates an exceptional revoke for one capability,
// effective immediately and optionally ending at endAt. An effective revoke
// overrides group membership and any coexisting grant.
func (e *Engine) RevokeCapability(ctx context.Context, userID, capabilityCode, reason, authorizedBy string, endAt *time.Time) error {
	return e.createGrant(ctx, userID, capabilityCode, grant.KindRevoke, reason, authorizedBy, endAt)
}

func (e *Engine) createGrant(ctx context.Context, userID, capabilityCode string, kind grant.Kind, reason, authorizedBy string, endAt *time.Time) error {
	c, err := e.store.GetCapabilityByCode(ctx, capabilityCode)
	if err != nil {
		return fmt.Errorf("sentinel: %s capability: %w", kind, err)
	}
	if !c.Active {
		return fmt.Errorf("sentinel: %s capability %s: %w", kind, c.Code, ErrCapabilityInactive)
	}

	now := e.clock.Now()
	g := &grant.Grant{
		ID:             id.NewGrantID(),
		UserID:         userID,
		CapabilityCode: capabilityCode,
		Kind:           kind,
		StartAt:        now,
		EndAt:          endAt,
		Reason:         reason,
		AuthorizedBy:   authorizedBy,
		Active:         true,
		CreatedAt:      now,
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("sentinel: %s capability: %w", kind, err)
	}
	if err := e.store.CreateGrant(ctx, g); err != nil {
		return fmt.Errorf("sentinel: %s capability: %w", kind, err)
	}

	e.invalidateUser(ctx, userID)
	if e.plugins != nil {
		e.plugins.EmitGrantCreated(ctx, g)
	}
	return nil
}

// SweepExpired deactivates memberships and grants whose time windows have
// lapsed. Housekeeping for external jobs: the decision path checks
// expiration at read time regardless of whether this has run.
func (e *Engine) SweepExpired(ctx context.Context) (int64, error) {
	now := e.clock.Now()
	m, err := e.store.DeactivateExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sentinel: sweep expired: %w", err)
	}
	e.logger.Debug("expiration sweep", slog.Int64("deactivated", m))
	return m, nil
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// recordDecision persists one audit entry for a settled decision.
func (e *Engine) recordDecision(ctx context.Context, st *evalState, dec *Decision) error {
	outcome := audit.OutcomeDenied
	if dec.Allowed {
		outcome = audit.OutcomeGranted
	}
	origin := OriginFromContext(ctx)
	ip := st.req.RequestIP
	if ip == "" {
		ip = origin.IP
	}
	ua := st.req.UserAgent
	if ua == "" {
		ua = origin.UserAgent
	}
	entry := &audit.Entry{
		ID:             id.NewAuditEntryID(),
		UserID:         st.req.UserID,
		CapabilityCode: st.req.Capability,
		Outcome:        outcome,
		Stage:          string(dec.Stage),
		Reason:         dec.Reason,
		ResourceID:     st.req.ResourceID,
		RequestIP:      ip,
		UserAgent:      ua,
		Metadata:       st.req.Metadata,
		CreatedAt:      st.now,
	}
	if err := e.store.CreateAuditEntry(ctx, entry); err != nil {
		return err
	}
	if e.plugins != nil {
		e.plugins.EmitAuditRecorded(ctx, entry)
	}
	return nil
}

// maybeCache stores the decision when it is safe to reuse: only allowed
// outcomes of capabilities that do not require auditing, bounded by the
// earliest contributing expiration edge so no entry survives its window.
func (e *Engine) maybeCache(ctx context.Context, st *evalState, dec *Decision) {
	if e.cache == nil || e.config.CacheTTL <= 0 {
		return
	}
	if !dec.Allowed || st.cap == nil || st.cap.RequiresAudit {
		return
	}
	ttl := e.config.CacheTTL
	if st.validUntil != nil {
		if bound := st.validUntil.Sub(st.now); bound < ttl {
			ttl = bound
		}
	}
	if ttl <= 0 {
		return
	}
	e.cache.Set(ctx, st.req, dec, ttl)
}

func (e *Engine) invalidateUser(ctx context.Context, userID string) {
	if e.cache != nil {
		e.cache.InvalidateUser(ctx, userID)
	}
}

// InvalidateUser drops all cached decisions for a user. Callers that
// mutate grants or memberships through the store directly must invalidate
// here, the engine's own mutation paths already do.
func (e *Engine) InvalidateUser(ctx context.Context, userID string) {
	e.invalidateUser(ctx, userID)
}
