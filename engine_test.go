package sentinel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/group"
	"github.com/xraph/sentinel/id"
	"github.com/xraph/sentinel/membership"
	"github.com/xraph/sentinel/store"
	"github.com/xraph/sentinel/store/memory"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	opts = append([]Option{WithStore(s), WithClock(FixedClock(testNow))}, opts...)
	eng, err := NewEngine(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return eng, s
}

func membershipRow(userID string, groupID id.GroupID, expiresAt *time.Time) *membership.Membership {
	return &membership.Membership{
		ID:         id.NewMembershipID(),
		UserID:     userID,
		GroupID:    groupID,
		Active:     true,
		ExpiresAt:  expiresAt,
		AssignedBy: "admin-1",
		AssignedAt: testNow.Add(-time.Hour),
		UpdatedAt:  testNow.Add(-time.Hour),
	}
}

func seedCapability(t *testing.T, s *memory.Store, code string, requiresAudit bool) *capability.Capability {
	t.Helper()
	c := &capability.Capability{
		ID:            id.NewCapabilityID(),
		Code:          code,
		Name:          code,
		Sensitivity:   capability.SensitivityNormal,
		RequiresAudit: requiresAudit,
		Active:        true,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	if err := s.CreateCapability(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return c
}

func seedGroup(t *testing.T, s *memory.Store, code string, caps ...*capability.Capability) *group.Group {
	t.Helper()
	g := &group.Group{
		ID:        id.NewGroupID(),
		Code:      code,
		Name:      code,
		Active:    true,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if err := s.CreateGroup(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	for _, c := range caps {
		if err := s.AttachCapability(context.Background(), g.ID, c.ID); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestGroupGrantsCapability(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allowed, got %s: %s", dec.Stage, dec.Reason)
	}
	if dec.Stage != StageGroup {
		t.Fatalf("expected group stage, got %s", dec.Stage)
	}
	if dec.Audited {
		t.Fatal("plain allowed check must not be audited")
	}

	// No audit entry was written.
	count, _ := s.CountAuditEntries(ctx, nil)
	if count != 0 {
		t.Fatalf("expected 0 audit entries, got %d", count)
	}
}

func TestDefaultDeny(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	seedCapability(t, s, "ops.calls.make", false)

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("expected denied for user with no memberships")
	}
	if dec.Stage != StageDefault {
		t.Fatalf("expected default stage, got %s", dec.Stage)
	}
	if !dec.Audited {
		t.Fatal("denied decisions must be audited")
	}

	entries, _ := s.ListAuditEntries(ctx, &audit.QueryFilter{UserID: "user-1"})
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Outcome != audit.OutcomeDenied {
		t.Fatalf("expected denied outcome, got %s", entries[0].Outcome)
	}
}

func TestUnknownCapabilityDenied(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "no.such.capability"})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("unknown capability must be denied")
	}
	if dec.Stage != StageCatalog {
		t.Fatalf("expected catalog stage, got %s", dec.Stage)
	}
	if !dec.Audited {
		t.Fatal("unknown capability denials must be audited")
	}

	entries, _ := s.ListAuditEntries(ctx, &audit.QueryFilter{CapabilityCode: "no.such.capability"})
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
}

func TestInactiveCapabilityDenied(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}

	c.Active = false
	if err := s.UpdateCapability(ctx, c); err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("inactive capability must be denied even when a group carries it")
	}
	if dec.Stage != StageCatalog {
		t.Fatalf("expected catalog stage, got %s", dec.Stage)
	}
}

func TestInactiveGroupIgnored(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}

	g.Active = false
	if err := s.UpdateGroup(ctx, g); err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("deactivated group must not grant capabilities")
	}
}

func TestRevokeOverridesGrantAndGroup(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.GrantCapability(ctx, "user-1", "ops.calls.make", "escalation", "admin-1", nil); err != nil {
		t.Fatal(err)
	}
	if err := eng.RevokeCapability(ctx, "user-1", "ops.calls.make", "incident 4711", "admin-2", nil); err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("revoke must override both grant and group")
	}
	if dec.Stage != StageRevoke {
		t.Fatalf("expected revoke stage, got %s", dec.Stage)
	}
}

func TestGrantWithoutGroup(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	seedCapability(t, s, "finance.payouts.approve", true)

	endAt := testNow.Add(48 * time.Hour)
	if err := eng.GrantCapability(ctx, "user-1", "finance.payouts.approve", "covering for manager", "admin-1", &endAt); err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "finance.payouts.approve"})
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allowed via grant, got %s: %s", dec.Stage, dec.Reason)
	}
	if dec.Stage != StageGrant {
		t.Fatalf("expected grant stage, got %s", dec.Stage)
	}
	if !dec.Audited {
		t.Fatal("audit-required capability must be audited even when allowed")
	}

	entries, _ := s.ListAuditEntries(ctx, &audit.QueryFilter{UserID: "user-1"})
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].Outcome != audit.OutcomeGranted {
		t.Fatalf("expected granted outcome, got %s", entries[0].Outcome)
	}
	if entries[0].Stage != string(StageGrant) {
		t.Fatalf("expected grant stage in entry, got %s", entries[0].Stage)
	}
}

func TestExpiredGrantDenied(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	seedCapability(t, s, "finance.payouts.approve", true)

	// Seed an already-lapsed grant directly; the engine rejects past windows.
	past := testNow.Add(-time.Hour)
	start := testNow.Add(-48 * time.Hour)
	if err := s.CreateGrant(ctx, &grant.Grant{
		ID:             id.NewGrantID(),
		UserID:         "user-1",
		CapabilityCode: "finance.payouts.approve",
		Kind:           grant.KindGrant,
		StartAt:        start,
		EndAt:          &past,
		Reason:         "covering for manager",
		AuthorizedBy:   "admin-1",
		Active:         true,
		CreatedAt:      start,
	}); err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "finance.payouts.approve"})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("lapsed grant must not allow")
	}
	if dec.Stage != StageDefault {
		t.Fatalf("expected default stage, got %s", dec.Stage)
	}
	if !dec.Audited {
		t.Fatal("denied decision must be audited")
	}
}

func TestGrantWindowInclusiveEnd(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	seedCapability(t, s, "finance.payouts.approve", false)

	// EndAt exactly now: the grant is still effective.
	end := testNow
	if err := s.CreateGrant(ctx, &grant.Grant{
		ID:             id.NewGrantID(),
		UserID:         "user-1",
		CapabilityCode: "finance.payouts.approve",
		Kind:           grant.KindGrant,
		StartAt:        testNow.Add(-time.Hour),
		EndAt:          &end,
		Reason:         "r",
		AuthorizedBy:   "admin-1",
		Active:         true,
		CreatedAt:      testNow.Add(-time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "finance.payouts.approve"})
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatal("grant ending exactly now must still be effective")
	}
}

func TestMembershipExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)

	// ExpiresAt exactly now: the membership is already expired.
	exp := testNow
	if err := s.UpsertMembership(ctx, membershipRow("user-1", g.ID, &exp)); err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("membership expiring exactly now must not grant")
	}

	// One second later it grants.
	later := testNow.Add(time.Second)
	if err := s.UpsertMembership(ctx, membershipRow("user-1", g.ID, &later)); err != nil {
		t.Fatal(err)
	}
	dec, err = eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if err != nil {
		t.Fatal(err)
	}
	if !dec.Allowed {
		t.Fatal("membership expiring later must grant now")
	}
}

func TestAssignGroupIdempotent(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)

	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}
	exp := testNow.Add(24 * time.Hour)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, &exp, "admin-2"); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ListMembershipsForUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 membership row after re-assign, got %d", len(rows))
	}
	if rows[0].ExpiresAt == nil || !rows[0].ExpiresAt.Equal(exp) {
		t.Fatal("re-assign must update expiration in place")
	}
}

func TestAssignGroupValidation(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	g := seedGroup(t, s, "support-agents")

	// Past expiration is rejected.
	past := testNow.Add(-time.Minute)
	err := eng.AssignGroup(ctx, "user-1", g.ID, &past, "admin-1")
	if !errors.Is(err, ErrInvalidTimeWindow) {
		t.Fatalf("expected ErrInvalidTimeWindow, got %v", err)
	}

	// Inactive group is rejected.
	g.Active = false
	if err := s.UpdateGroup(ctx, g); err != nil {
		t.Fatal(err)
	}
	err = eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1")
	if !errors.Is(err, ErrGroupInactive) {
		t.Fatalf("expected ErrGroupInactive, got %v", err)
	}

	// Unknown group surfaces not found.
	err = eng.AssignGroup(ctx, "user-1", id.NewGroupID(), nil, "admin-1")
	if !errors.Is(err, group.ErrNotFound) {
		t.Fatalf("expected group.ErrNotFound, got %v", err)
	}
}

func TestRevokeGroup(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.RevokeGroup(ctx, "user-1", g.ID); err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if err != nil {
		t.Fatal(err)
	}
	if dec.Allowed {
		t.Fatal("revoked membership must not grant")
	}
}

func TestGrantCapabilityValidation(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	err := eng.GrantCapability(ctx, "user-1", "no.such.capability", "r", "admin-1", nil)
	if !errors.Is(err, capability.ErrNotFound) {
		t.Fatalf("expected capability.ErrNotFound, got %v", err)
	}

	c := seedCapability(t, s, "ops.calls.make", false)
	c.Active = false
	if err := s.UpdateCapability(ctx, c); err != nil {
		t.Fatal(err)
	}
	err = eng.GrantCapability(ctx, "user-1", "ops.calls.make", "r", "admin-1", nil)
	if !errors.Is(err, ErrCapabilityInactive) {
		t.Fatalf("expected ErrCapabilityInactive, got %v", err)
	}
}

func TestEnforce(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}

	if err := eng.Enforce(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"}); err != nil {
		t.Fatal(err)
	}

	err := eng.Enforce(ctx, &AuthorizeRequest{UserID: "user-2", Capability: "ops.calls.make"})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestCanI(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}

	ok, err := eng.CanI(ctx, "user-1", "ops.calls.make")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected allowed")
	}
	ok, err = eng.CanI(ctx, "user-2", "ops.calls.make")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected denied")
	}
}

func TestEffectiveCapabilities(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	calls := seedCapability(t, s, "ops.calls.make", false)
	tickets := seedCapability(t, s, "ops.tickets.view", false)
	seedCapability(t, s, "finance.payouts.approve", true)
	inactive := seedCapability(t, s, "ops.legacy.export", false)
	inactive.Active = false
	if err := s.UpdateCapability(ctx, inactive); err != nil {
		t.Fatal(err)
	}

	g := seedGroup(t, s, "support-agents", calls, tickets, inactive)
	if err := eng.AssignGroup(ctx, "user-1", g.ID, nil, "admin-1"); err != nil {
		t.Fatal(err)
	}
	if err := eng.GrantCapability(ctx, "user-1", "finance.payouts.approve", "covering", "admin-1", nil); err != nil {
		t.Fatal(err)
	}
	if err := eng.RevokeCapability(ctx, "user-1", "ops.tickets.view", "incident", "admin-1", nil); err != nil {
		t.Fatal(err)
	}

	codes, err := eng.EffectiveCapabilities(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ops.calls.make", "finance.payouts.approve"}
	if codes.Cardinality() != len(want) {
		t.Fatalf("expected %d capabilities, got %d: %v", len(want), codes.Cardinality(), codes.ToSlice())
	}
	for _, w := range want {
		if !codes.Contains(w) {
			t.Fatalf("expected %s in effective set", w)
		}
	}
	if codes.Contains("ops.tickets.view") {
		t.Fatal("revoked capability must not appear")
	}
	if codes.Contains("ops.legacy.export") {
		t.Fatal("inactive capability must not appear")
	}

	// Discovery is not audited by default.
	count, _ := s.CountAuditEntries(ctx, nil)
	if count != 0 {
		t.Fatalf("expected 0 audit entries, got %d", count)
	}
}

func TestEffectiveCapabilitiesAuditDiscovery(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, WithConfig(Config{AuditDiscovery: true}))

	if _, err := eng.EffectiveCapabilities(ctx, "user-1"); err != nil {
		t.Fatal(err)
	}
	entries, _ := s.ListAuditEntries(ctx, &audit.QueryFilter{UserID: "user-1"})
	if len(entries) != 1 {
		t.Fatalf("expected 1 summary entry, got %d", len(entries))
	}
	if entries[0].CapabilityCode != "*" || entries[0].Stage != "discovery" {
		t.Fatalf("unexpected summary entry: %+v", entries[0])
	}
}

func TestAuditCompleteness(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	seedCapability(t, s, "finance.payouts.approve", true)
	if err := eng.GrantCapability(ctx, "user-1", "finance.payouts.approve", "covering", "admin-1", nil); err != nil {
		t.Fatal(err)
	}

	// Every call against an audit-required capability writes exactly one
	// entry, allowed or not.
	for i := 0; i < 3; i++ {
		if _, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "finance.payouts.approve"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-2", Capability: "finance.payouts.approve"}); err != nil {
		t.Fatal(err)
	}

	count, _ := s.CountAuditEntries(ctx, &audit.QueryFilter{CapabilityCode: "finance.payouts.approve"})
	if count != 4 {
		t.Fatalf("expected 4 audit entries, got %d", count)
	}
}

func TestAuditEntryOrigin(t *testing.T) {
	ctx := WithOrigin(context.Background(), Origin{IP: "10.1.2.3", UserAgent: "cli/1.0"})
	eng, s := newTestEngine(t)

	seedCapability(t, s, "finance.payouts.approve", true)
	if err := eng.GrantCapability(ctx, "user-1", "finance.payouts.approve", "covering", "admin-1", nil); err != nil {
		t.Fatal(err)
	}

	if _, err := eng.Authorize(ctx, &AuthorizeRequest{
		UserID:     "user-1",
		Capability: "finance.payouts.approve",
		ResourceID: "payout-77",
	}); err != nil {
		t.Fatal(err)
	}

	entries, _ := s.ListAuditEntries(ctx, &audit.QueryFilter{UserID: "user-1"})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.RequestIP != "10.1.2.3" || e.UserAgent != "cli/1.0" {
		t.Fatalf("origin not recorded: %+v", e)
	}
	if e.ResourceID != "payout-77" {
		t.Fatalf("resource not recorded: %+v", e)
	}
	if !e.CreatedAt.Equal(testNow) {
		t.Fatalf("entry must use the evaluation clock, got %s", e.CreatedAt)
	}
}

// failingAuditStore wraps a store and fails every audit write.
type failingAuditStore struct {
	store.Store
}

func (f *failingAuditStore) CreateAuditEntry(context.Context, *audit.Entry) error {
	return errors.New("disk full")
}

func TestAuditFailureIsSecondary(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	eng, err := NewEngine(WithStore(&failingAuditStore{Store: mem}), WithClock(FixedClock(testNow)))
	if err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "no.such.capability"})
	if dec == nil {
		t.Fatal("decision must be returned despite audit failure")
	}
	if dec.Allowed {
		t.Fatal("expected denied")
	}
	if dec.Audited {
		t.Fatal("failed audit write must not be reported as audited")
	}
	var auditErr *AuditError
	if !errors.As(err, &auditErr) {
		t.Fatalf("expected AuditError, got %v", err)
	}
	if auditErr.Decision != dec {
		t.Fatal("AuditError must carry the decision")
	}
}

func TestEnforceDeniedAuditFailureSurfaced(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	eng, err := NewEngine(WithStore(&failingAuditStore{Store: mem}), WithClock(FixedClock(testNow)))
	if err != nil {
		t.Fatal(err)
	}

	err = eng.Enforce(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "no.such.capability"})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	var auditErr *AuditError
	if !errors.As(err, &auditErr) {
		t.Fatalf("audit failure must ride along with the deny, got %v", err)
	}
}

// failingMembershipStore wraps a store and fails every membership read.
type failingMembershipStore struct {
	store.Store
}

func (f *failingMembershipStore) ListMembershipsForUser(context.Context, string) ([]*membership.Membership, error) {
	return nil, errors.New("connection reset")
}

func TestStorageErrorIsNotADeny(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	seedCapability(t, mem, "ops.calls.make", false)

	eng, err := NewEngine(WithStore(&failingMembershipStore{Store: mem}), WithClock(FixedClock(testNow)))
	if err != nil {
		t.Fatal(err)
	}

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if err == nil {
		t.Fatal("expected a storage error, got a decision")
	}
	if dec != nil {
		t.Fatalf("storage failure must not produce a decision, got %+v", dec)
	}
}

// failingCapabilityStore wraps a store and fails every capability-by-code read.
type failingCapabilityStore struct {
	store.Store
}

func (f *failingCapabilityStore) GetCapabilityByCode(context.Context, string) (*capability.Capability, error) {
	return nil, errors.New("connection reset")
}

func TestEffectiveCapabilitiesStorageError(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	seedCapability(t, mem, "finance.payouts.approve", true)
	g := &grant.Grant{
		ID:             id.NewGrantID(),
		UserID:         "user-1",
		CapabilityCode: "finance.payouts.approve",
		Kind:           grant.KindGrant,
		StartAt:        testNow.Add(-time.Hour),
		Reason:         "covering",
		AuthorizedBy:   "admin-1",
		Active:         true,
		CreatedAt:      testNow.Add(-time.Hour),
	}
	if err := mem.CreateGrant(ctx, g); err != nil {
		t.Fatal(err)
	}

	eng, err := NewEngine(WithStore(&failingCapabilityStore{Store: mem}), WithClock(FixedClock(testNow)))
	if err != nil {
		t.Fatal(err)
	}

	codes, err := eng.EffectiveCapabilities(ctx, "user-1")
	if err == nil {
		t.Fatalf("expected a storage error, got set %v", codes)
	}
	if codes != nil {
		t.Fatalf("storage failure must not produce a partial set, got %v", codes)
	}
}

func TestEffectiveCapabilitiesSkipsUnknownGrant(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedCapability(t, s, "ops.calls.make", false)

	for _, code := range []string{"ops.calls.make", "no.such.capability"} {
		g := &grant.Grant{
			ID:             id.NewGrantID(),
			UserID:         "user-1",
			CapabilityCode: code,
			Kind:           grant.KindGrant,
			StartAt:        testNow.Add(-time.Hour),
			Reason:         "covering",
			AuthorizedBy:   "admin-1",
			Active:         true,
			CreatedAt:      testNow.Add(-time.Hour),
		}
		if err := s.CreateGrant(ctx, g); err != nil {
			t.Fatal(err)
		}
	}

	codes, err := eng.EffectiveCapabilities(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if !codes.Contains("ops.calls.make") || codes.Cardinality() != 1 {
		t.Fatalf("expected only the known capability, got %v", codes)
	}
}

func TestContextCancellation(t *testing.T) {
	eng, s := newTestEngine(t)
	seedCapability(t, s, "ops.calls.make", false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	c := seedCapability(t, s, "ops.calls.make", false)
	g := seedGroup(t, s, "support-agents", c)
	past := testNow.Add(-time.Hour)
	if err := s.UpsertMembership(ctx, membershipRow("user-1", g.ID, &past)); err != nil {
		t.Fatal(err)
	}

	n, err := eng.SweepExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deactivated, got %d", n)
	}
}

func TestCheckEvalTime(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	seedCapability(t, s, "ops.calls.make", false)

	dec, err := eng.Authorize(ctx, &AuthorizeRequest{UserID: "user-1", Capability: "ops.calls.make"})
	if err != nil {
		t.Fatal(err)
	}
	if dec.EvalTimeNs <= 0 {
		t.Fatal("expected positive eval time")
	}
}
