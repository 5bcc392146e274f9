package memory

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
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestCapabilityCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := &capability.Capability{
		ID:          id.NewCapabilityID(),
		Code:        "ops.calls.make",
		Name:        "Make outbound calls",
		Sensitivity: capability.SensitivityNormal,
		Active:      true,
	}

	// Create
	if err := s.CreateCapability(ctx, c); err != nil {
		t.Fatal(err)
	}

	// Duplicate code rejected
	dup := &capability.Capability{ID: id.NewCapabilityID(), Code: "ops.calls.make", Name: "dup", Active: true}
	if err := s.CreateCapability(ctx, dup); err == nil {
		t.Fatal("expected duplicate code error")
	}

	// Get
	got, err := s.GetCapability(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Code != "ops.calls.make" {
		t.Fatalf("expected ops.calls.make, got %s", got.Code)
	}

	// GetByCode
	got, err = s.GetCapabilityByCode(ctx, "ops.calls.make")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != c.ID {
		t.Fatal("code lookup mismatch")
	}

	// Update
	c.Name = "Make and transfer calls"
	if err := s.UpdateCapability(ctx, c); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetCapability(ctx, c.ID)
	if got.Name != "Make and transfer calls" {
		t.Fatal("update failed")
	}

	// List
	list, _ := s.ListCapabilities(ctx, &capability.ListFilter{Search: "calls"})
	if len(list) != 1 {
		t.Fatalf("expected 1 capability, got %d", len(list))
	}

	// Count
	count, _ := s.CountCapabilities(ctx, nil)
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	// Delete
	if err := s.DeleteCapability(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetCapability(ctx, c.ID)
	if !errors.Is(err, capability.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestGroupCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := &group.Group{
		ID:     id.NewGroupID(),
		Code:   "support-agents",
		Name:   "Support Agents",
		Active: true,
	}
	if err := s.CreateGroup(ctx, g); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetGroupByCode(ctx, "support-agents")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != g.ID {
		t.Fatal("code lookup mismatch")
	}

	g.Name = "Support Agents (EU)"
	if err := s.UpdateGroup(ctx, g); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetGroup(ctx, g.ID)
	if got.Name != "Support Agents (EU)" {
		t.Fatal("update failed")
	}

	list, _ := s.ListGroups(ctx, &group.ListFilter{Search: "support"})
	if len(list) != 1 {
		t.Fatalf("expected 1 group, got %d", len(list))
	}

	if err := s.DeleteGroup(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetGroup(ctx, g.ID)
	if !errors.Is(err, group.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestGroupCapabilityAttach(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := &group.Group{ID: id.NewGroupID(), Code: "support-agents", Name: "Support Agents", Active: true}
	c1 := &capability.Capability{ID: id.NewCapabilityID(), Code: "ops.calls.make", Name: "Calls", Active: true}
	c2 := &capability.Capability{ID: id.NewCapabilityID(), Code: "ops.tickets.view", Name: "Tickets", Active: true}
	if err := s.CreateGroup(ctx, g); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateCapability(ctx, c1); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateCapability(ctx, c2); err != nil {
		t.Fatal(err)
	}

	if err := s.AttachCapability(ctx, g.ID, c1.ID); err != nil {
		t.Fatal(err)
	}
	// Attaching twice is a no-op.
	if err := s.AttachCapability(ctx, g.ID, c1.ID); err != nil {
		t.Fatal(err)
	}

	caps, err := s.ListGroupCapabilities(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(caps) != 1 {
		t.Fatalf("expected 1 capability, got %d", len(caps))
	}

	if err := s.SetGroupCapabilities(ctx, g.ID, []id.CapabilityID{c1.ID, c2.ID}); err != nil {
		t.Fatal(err)
	}
	caps, _ = s.ListGroupCapabilities(ctx, g.ID)
	if len(caps) != 2 {
		t.Fatalf("expected 2 capabilities, got %d", len(caps))
	}

	if err := s.DetachCapability(ctx, g.ID, c1.ID); err != nil {
		t.Fatal(err)
	}
	caps, _ = s.ListGroupCapabilities(ctx, g.ID)
	if len(caps) != 1 || caps[0].Code != "ops.tickets.view" {
		t.Fatalf("unexpected capabilities after detach: %v", caps)
	}

	// Deleting a capability removes it from junctions.
	if err := s.DeleteCapability(ctx, c2.ID); err != nil {
		t.Fatal(err)
	}
	caps, _ = s.ListGroupCapabilities(ctx, g.ID)
	if len(caps) != 0 {
		t.Fatalf("expected no capabilities, got %d", len(caps))
	}
}

func TestMembershipUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	groupID := id.NewGroupID()
	assignedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := &membership.Membership{
		ID:         id.NewMembershipID(),
		UserID:     "user-1",
		GroupID:    groupID,
		Active:     true,
		AssignedBy: "admin-1",
		AssignedAt: assignedAt,
		UpdatedAt:  assignedAt,
	}
	if err := s.UpsertMembership(ctx, m); err != nil {
		t.Fatal(err)
	}

	// Upsert with the same (user, group) updates in place.
	exp := assignedAt.Add(24 * time.Hour)
	again := &membership.Membership{
		ID:         id.NewMembershipID(),
		UserID:     "user-1",
		GroupID:    groupID,
		Active:     true,
		ExpiresAt:  &exp,
		AssignedBy: "admin-2",
		AssignedAt: assignedAt.Add(time.Hour),
		UpdatedAt:  assignedAt.Add(time.Hour),
	}
	if err := s.UpsertMembership(ctx, again); err != nil {
		t.Fatal(err)
	}

	count, _ := s.CountMemberships(ctx, &membership.ListFilter{UserID: "user-1"})
	if count != 1 {
		t.Fatalf("expected 1 membership row, got %d", count)
	}

	got, err := s.GetMembershipByUserGroup(ctx, "user-1", groupID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != m.ID {
		t.Fatal("upsert must keep the original row ID")
	}
	if !got.AssignedAt.Equal(assignedAt) {
		t.Fatal("upsert must keep the original AssignedAt")
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(exp) {
		t.Fatal("upsert must update expiration")
	}

	// Deactivate
	if err := s.DeactivateMembership(ctx, "user-1", groupID); err != nil {
		t.Fatal(err)
	}
	rows, _ := s.ListMembershipsForUser(ctx, "user-1")
	if len(rows) != 0 {
		t.Fatalf("expected no active rows, got %d", len(rows))
	}

	if err := s.DeactivateMembership(ctx, "user-2", groupID); !errors.Is(err, membership.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGrantCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := &grant.Grant{
		ID:             id.NewGrantID(),
		UserID:         "user-1",
		CapabilityCode: "finance.payouts.approve",
		Kind:           grant.KindGrant,
		StartAt:        now,
		Reason:         "covering for manager",
		AuthorizedBy:   "admin-1",
		Active:         true,
		CreatedAt:      now,
	}
	if err := s.CreateGrant(ctx, g); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetGrant(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Reason != "covering for manager" {
		t.Fatal("grant fields lost")
	}

	list, _ := s.ListGrants(ctx, &grant.ListFilter{UserID: "user-1", Kind: grant.KindGrant})
	if len(list) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(list))
	}

	if err := s.DeactivateGrant(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	rows, _ := s.ListGrantsForUser(ctx, "user-1")
	if len(rows) != 0 {
		t.Fatalf("expected no active grants, got %d", len(rows))
	}
}

func TestDeactivateExpired(t *testing.T) {
	ctx := context.Background()
	s := New()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	groupA := id.NewGroupID()
	groupB := id.NewGroupID()
	if err := s.UpsertMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "user-1", GroupID: groupA,
		Active: true, ExpiresAt: &past, AssignedAt: past, UpdatedAt: past,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "user-1", GroupID: groupB,
		Active: true, ExpiresAt: &future, AssignedAt: past, UpdatedAt: past,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateGrant(ctx, &grant.Grant{
		ID: id.NewGrantID(), UserID: "user-1", CapabilityCode: "ops.calls.make",
		Kind: grant.KindGrant, StartAt: past, EndAt: &past, Reason: "r",
		AuthorizedBy: "a", Active: true, CreatedAt: past,
	}); err != nil {
		t.Fatal(err)
	}

	n, err := s.DeactivateExpired(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deactivated, got %d", n)
	}

	rows, _ := s.ListMembershipsForUser(ctx, "user-1")
	if len(rows) != 1 || rows[0].GroupID != groupB {
		t.Fatalf("expected only the unexpired membership to survive")
	}
}

func TestAuditEntries(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		e := &audit.Entry{
			ID:             id.NewAuditEntryID(),
			UserID:         "user-1",
			CapabilityCode: "finance.payouts.approve",
			Outcome:        audit.OutcomeDenied,
			Stage:          "default",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateAuditEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListAuditEntries(ctx, &audit.QueryFilter{UserID: "user-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(list))
	}
	if !list[0].CreatedAt.Before(list[1].CreatedAt) {
		t.Fatal("entries must be ordered by creation time")
	}

	after := base.Add(30 * time.Second)
	list, _ = s.ListAuditEntries(ctx, &audit.QueryFilter{After: &after})
	if len(list) != 2 {
		t.Fatalf("expected 2 entries after cutoff, got %d", len(list))
	}

	count, _ := s.CountAuditEntries(ctx, &audit.QueryFilter{Outcome: audit.OutcomeDenied})
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	s := New()

	codes := []string{"a.one", "b.two", "c.three", "d.four"}
	for _, code := range codes {
		if err := s.CreateCapability(ctx, &capability.Capability{
			ID: id.NewCapabilityID(), Code: code, Name: code, Active: true,
		}); err != nil {
			t.Fatal(err)
		}
	}

	list, _ := s.ListCapabilities(ctx, &capability.ListFilter{Limit: 2, Offset: 1})
	if len(list) != 2 {
		t.Fatalf("expected 2 capabilities, got %d", len(list))
	}
	if list[0].Code != "b.two" || list[1].Code != "c.three" {
		t.Fatalf("unexpected page: %s, %s", list[0].Code, list[1].Code)
	}

	list, _ = s.ListCapabilities(ctx, &capability.ListFilter{Offset: 10})
	if len(list) != 0 {
		t.Fatalf("expected empty page, got %d", len(list))
	}
}

func TestMigratePingClose(t *testing.T) {
	s := New()
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
