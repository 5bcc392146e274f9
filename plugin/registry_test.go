package plugin

import (
	"context"
	"log/slog"
	"testing"

	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/id"
	"github.com/xraph/sentinel/membership"
)

// testPlugin implements Plugin + GroupAssigned + AfterAuthorize + CapabilityAttached.
type testPlugin struct {
	groupAssignedCalled  bool
	afterAuthorizeCalled bool
	capAttachedCalled    bool
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnCapabilityAttached(_ context.Context, _ id.GroupID, _ id.CapabilityID) error {
	t.capAttachedCalled = true
	return nil
}

func (t *testPlugin) OnGroupAssigned(_ context.Context, _ *membership.Membership) error {
	t.groupAssignedCalled = true
	return nil
}

func (t *testPlugin) OnAfterAuthorize(_ context.Context, _, _ any) error {
	t.afterAuthorizeCalled = true
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	// Should dispatch GroupAssigned to testPlugin only.
	reg.EmitGroupAssigned(ctx, &membership.Membership{ID: id.NewMembershipID(), UserID: "u1"})
	if !tp.groupAssignedCalled {
		t.Fatal("OnGroupAssigned was not called")
	}

	// Should dispatch AfterAuthorize.
	reg.EmitAfterAuthorize(ctx, nil, nil)
	if !tp.afterAuthorizeCalled {
		t.Fatal("OnAfterAuthorize was not called")
	}

	// Should dispatch CapabilityAttached.
	reg.EmitCapabilityAttached(ctx, id.NewGroupID(), id.NewCapabilityID())
	if !tp.capAttachedCalled {
		t.Fatal("OnCapabilityAttached was not called")
	}

	// Should not panic on hooks with no listeners.
	reg.EmitCapabilityDetached(ctx, id.NewGroupID(), id.NewCapabilityID())
	reg.EmitBeforeAuthorize(ctx, nil)
	reg.EmitGroupRevoked(ctx, "u1", id.NewGroupID())
	reg.EmitGrantCreated(ctx, &grant.Grant{ID: id.NewGrantID()})
	reg.EmitShutdown(ctx)
}
