package sentinel

import (
	"context"
	"errors"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
)

// stageOutcome is the tri-state verdict of one pipeline stage.
type stageOutcome int

const (
	// outcomeContinue passes evaluation to the next stage.
	outcomeContinue stageOutcome = iota
	// outcomeAllow settles the decision as allowed.
	outcomeAllow
	// outcomeDeny settles the decision as denied.
	outcomeDeny
)

// stageResult is what a stage returns: a verdict plus a human-readable
// reason for settled decisions.
type stageResult struct {
	outcome stageOutcome
	reason  string
}

func allow(reason string) stageResult { return stageResult{outcome: outcomeAllow, reason: reason} }
func deny(reason string) stageResult  { return stageResult{outcome: outcomeDeny, reason: reason} }

var next = stageResult{outcome: outcomeContinue}

// evalStage is one named step of the evaluation pipeline. The pipeline runs
// stages in declaration order and the first non-continue result wins, so the
// precedence contract survives refactors by construction.
type evalStage struct {
	name Stage
	fn   func(ctx context.Context, st *evalState) (stageResult, error)
}

// evalState carries per-call evaluation state between stages. The engine is
// stateless; everything request-scoped lives here.
type evalState struct {
	req *AuthorizeRequest
	now time.Time

	// cap is resolved by the catalog stage; nil when the code is unknown.
	cap *capability.Capability

	grantsLoaded bool
	granted      mapset.Set[string]
	revoked      mapset.Set[string]

	// validUntil is the earliest expiration boundary among the rows that
	// contributed to the decision. Cached decisions never outlive it.
	validUntil *time.Time
}

// noteBoundary records a time-window edge that bounds how long the decision
// remains valid.
func (st *evalState) noteBoundary(t *time.Time) {
	if t == nil {
		return
	}
	if st.validUntil == nil || t.Before(*st.validUntil) {
		st.validUntil = t
	}
}

// pipeline returns the evaluation stages in precedence order:
// catalog → revoke → grant → group. Default deny applies after the last.
func (e *Engine) pipeline() []evalStage {
	return []evalStage{
		{StageCatalog, e.stageCatalog},
		{StageRevoke, e.stageRevoke},
		{StageGrant, e.stageGrant},
		{StageGroup, e.stageGroup},
	}
}

// stageCatalog resolves the capability. Unknown and inactive codes are
// denied here and always audited, independent of any requires-audit flag
// they cannot carry.
func (e *Engine) stageCatalog(ctx context.Context, st *evalState) (stageResult, error) {
	c, err := e.store.GetCapabilityByCode(ctx, st.req.Capability)
	if err != nil {
		if errors.Is(err, capability.ErrNotFound) {
			return deny("unknown capability"), nil
		}
		return next, fmt.Errorf("resolve capability: %w", err)
	}
	if !c.Active {
		return deny("capability is inactive"), nil
	}
	st.cap = c
	return next, nil
}

// stageRevoke denies when a currently-effective exceptional revoke exists.
// Runs before any group lookup: a revoke overrides every other source.
func (e *Engine) stageRevoke(ctx context.Context, st *evalState) (stageResult, error) {
	if err := st.loadGrants(ctx, e); err != nil {
		return next, err
	}
	if st.revoked.Contains(st.req.Capability) {
		return deny("capability revoked by exceptional grant"), nil
	}
	return next, nil
}

// stageGrant allows when a currently-effective exceptional grant exists.
func (e *Engine) stageGrant(ctx context.Context, st *evalState) (stageResult, error) {
	if err := st.loadGrants(ctx, e); err != nil {
		return next, err
	}
	if st.granted.Contains(st.req.Capability) {
		return allow("capability granted by exceptional grant"), nil
	}
	return next, nil
}

// stageGroup allows when any effective group membership carries the
// capability. Groups are unioned; there is no ordering or weighting.
func (e *Engine) stageGroup(ctx context.Context, st *evalState) (stageResult, error) {
	memberships, err := e.store.ListMembershipsForUser(ctx, st.req.UserID)
	if err != nil {
		return next, fmt.Errorf("list memberships: %w", err)
	}
	for _, m := range memberships {
		if !m.EffectiveAt(st.now) {
			continue
		}
		st.noteBoundary(m.ExpiresAt)
		g, err := e.store.GetGroup(ctx, m.GroupID)
		if err != nil {
			return next, fmt.Errorf("resolve group %s: %w", m.GroupID, err)
		}
		if !g.Active {
			continue
		}
		caps, err := e.store.ListGroupCapabilities(ctx, m.GroupID)
		if err != nil {
			return next, fmt.Errorf("list group capabilities: %w", err)
		}
		for _, c := range caps {
			if c.Active && c.Code == st.req.Capability {
				return allow("granted by group " + g.Code), nil
			}
		}
	}
	return next, nil
}

// loadGrants partitions the user's currently-effective exceptional grants
// into granted and revoked capability code sets. Loaded once per call; the
// revoke and grant stages share the result.
func (st *evalState) loadGrants(ctx context.Context, e *Engine) error {
	if st.grantsLoaded {
		return nil
	}
	rows, err := e.store.ListGrantsForUser(ctx, st.req.UserID)
	if err != nil {
		return fmt.Errorf("list grants: %w", err)
	}
	st.granted = mapset.NewThreadUnsafeSet[string]()
	st.revoked = mapset.NewThreadUnsafeSet[string]()
	for _, g := range rows {
		if !g.EffectiveAt(st.now) {
			continue
		}
		st.noteBoundary(g.EndAt)
		switch g.Kind {
		case grant.KindGrant:
			st.granted.Add(g.CapabilityCode)
		case grant.KindRevoke:
			st.revoked.Add(g.CapabilityCode)
		}
	}
	st.grantsLoaded = true
	return nil
}
