// Package memory provides an in-memory implementation of the Sentinel
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/group"
	"github.com/xraph/sentinel/id"
	"github.com/xraph/sentinel/membership"
)

// Compile-time interface checks.
var (
	_ capability.Store = (*Store)(nil)
	_ group.Store      = (*Store)(nil)
	_ membership.Store = (*Store)(nil)
	_ grant.Store      = (*Store)(nil)
	_ audit.Store      = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all Sentinel entities.
type Store struct {
	mu sync.RWMutex

	capabilities map[string]*capability.Capability
	groups       map[string]*group.Group
	groupCaps    map[string]map[string]struct{} // groupID -> set of capIDs
	memberships  map[string]*membership.Membership
	grants       map[string]*grant.Grant
	auditEntries map[string]*audit.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		capabilities: make(map[string]*capability.Capability),
		groups:       make(map[string]*group.Group),
		groupCaps:    make(map[string]map[string]struct{}),
		memberships:  make(map[string]*membership.Membership),
		grants:       make(map[string]*grant.Grant),
		auditEntries: make(map[string]*audit.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Capability Store
// ──────────────────────────────────────────────────

func (s *Store) CreateCapability(_ context.Context, c *capability.Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.capabilities {
		if existing.Code == c.Code {
			return fmt.Errorf("capability code %q already exists", c.Code)
		}
	}
	s.capabilities[c.ID.String()] = copyCapability(c)
	return nil
}

func (s *Store) GetCapability(_ context.Context, capID id.CapabilityID) (*capability.Capability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.capabilities[capID.String()]
	if !ok {
		return nil, fmt.Errorf("capability %s: %w", capID, capability.ErrNotFound)
	}
	return copyCapability(c), nil
}

func (s *Store) GetCapabilityByCode(_ context.Context, code string) (*capability.Capability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.capabilities {
		if c.Code == code {
			return copyCapability(c), nil
		}
	}
	return nil, fmt.Errorf("capability code %q: %w", code, capability.ErrNotFound)
}

func (s *Store) UpdateCapability(_ context.Context, c *capability.Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.capabilities[c.ID.String()]; !ok {
		return fmt.Errorf("capability %s: %w", c.ID, capability.ErrNotFound)
	}
	s.capabilities[c.ID.String()] = copyCapability(c)
	return nil
}

func (s *Store) DeleteCapability(_ context.Context, capID id.CapabilityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.capabilities, capID.String())
	for _, caps := range s.groupCaps {
		delete(caps, capID.String())
	}
	return nil
}

func (s *Store) ListCapabilities(_ context.Context, filter *capability.ListFilter) ([]*capability.Capability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*capability.Capability, 0)
	for _, c := range s.capabilities {
		if !matchCapability(c, filter) {
			continue
		}
		result = append(result, copyCapability(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return applyPagination(result, paginationOptsCap(filter)), nil
}

func (s *Store) CountCapabilities(_ context.Context, filter *capability.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, c := range s.capabilities {
		if matchCapability(c, filter) {
			n++
		}
	}
	return n, nil
}

func matchCapability(c *capability.Capability, f *capability.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.Sensitivity != "" && c.Sensitivity != f.Sensitivity {
		return false
	}
	if f.RequiresAudit != nil && c.RequiresAudit != *f.RequiresAudit {
		return false
	}
	if f.Active != nil && c.Active != *f.Active {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.Code), needle) &&
			!strings.Contains(strings.ToLower(c.Name), needle) {
			return false
		}
	}
	return true
}

// ──────────────────────────────────────────────────
// Group Store
// ──────────────────────────────────────────────────

func (s *Store) CreateGroup(_ context.Context, g *group.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.groups {
		if existing.Code == g.Code {
			return fmt.Errorf("group code %q already exists", g.Code)
		}
	}
	s.groups[g.ID.String()] = copyGroup(g)
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID id.GroupID) (*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID.String()]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, group.ErrNotFound)
	}
	return copyGroup(g), nil
}

func (s *Store) GetGroupByCode(_ context.Context, code string) (*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.Code == code {
			return copyGroup(g), nil
		}
	}
	return nil, fmt.Errorf("group code %q: %w", code, group.ErrNotFound)
}

func (s *Store) UpdateGroup(_ context.Context, g *group.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID.String()]; !ok {
		return fmt.Errorf("group %s: %w", g.ID, group.ErrNotFound)
	}
	s.groups[g.ID.String()] = copyGroup(g)
	return nil
}

func (s *Store) DeleteGroup(_ context.Context, groupID id.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, groupID.String())
	delete(s.groupCaps, groupID.String())
	return nil
}

func (s *Store) ListGroups(_ context.Context, filter *group.ListFilter) ([]*group.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*group.Group, 0)
	for _, g := range s.groups {
		if !matchGroup(g, filter) {
			continue
		}
		result = append(result, copyGroup(g))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return applyPagination(result, paginationOptsGroup(filter)), nil
}

func (s *Store) CountGroups(_ context.Context, filter *group.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, g := range s.groups {
		if matchGroup(g, filter) {
			n++
		}
	}
	return n, nil
}

func matchGroup(g *group.Group, f *group.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.Active != nil && g.Active != *f.Active {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(g.Code), needle) &&
			!strings.Contains(strings.ToLower(g.Name), needle) {
			return false
		}
	}
	return true
}

func (s *Store) AttachCapability(_ context.Context, groupID id.GroupID, capID id.CapabilityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID.String()]; !ok {
		return fmt.Errorf("group %s: %w", groupID, group.ErrNotFound)
	}
	if _, ok := s.capabilities[capID.String()]; !ok {
		return fmt.Errorf("capability %s: %w", capID, capability.ErrNotFound)
	}
	caps, ok := s.groupCaps[groupID.String()]
	if !ok {
		caps = make(map[string]struct{})
		s.groupCaps[groupID.String()] = caps
	}
	caps[capID.String()] = struct{}{}
	return nil
}

func (s *Store) DetachCapability(_ context.Context, groupID id.GroupID, capID id.CapabilityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if caps, ok := s.groupCaps[groupID.String()]; ok {
		delete(caps, capID.String())
	}
	return nil
}

func (s *Store) SetGroupCapabilities(_ context.Context, groupID id.GroupID, capIDs []id.CapabilityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID.String()]; !ok {
		return fmt.Errorf("group %s: %w", groupID, group.ErrNotFound)
	}
	caps := make(map[string]struct{}, len(capIDs))
	for _, capID := range capIDs {
		if _, ok := s.capabilities[capID.String()]; !ok {
			return fmt.Errorf("capability %s: %w", capID, capability.ErrNotFound)
		}
		caps[capID.String()] = struct{}{}
	}
	s.groupCaps[groupID.String()] = caps
	return nil
}

func (s *Store) ListGroupCapabilities(_ context.Context, groupID id.GroupID) ([]*capability.Capability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*capability.Capability, 0)
	for capID := range s.groupCaps[groupID.String()] {
		if c, ok := s.capabilities[capID]; ok {
			result = append(result, copyCapability(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// ──────────────────────────────────────────────────
// Membership Store
// ──────────────────────────────────────────────────

func (s *Store) UpsertMembership(_ context.Context, m *membership.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memberships {
		if existing.UserID == m.UserID && existing.GroupID == m.GroupID {
			updated := copyMembership(m)
			updated.ID = existing.ID
			updated.AssignedAt = existing.AssignedAt
			s.memberships[existing.ID.String()] = updated
			return nil
		}
	}
	s.memberships[m.ID.String()] = copyMembership(m)
	return nil
}

func (s *Store) GetMembership(_ context.Context, memID id.MembershipID) (*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[memID.String()]
	if !ok {
		return nil, fmt.Errorf("membership %s: %w", memID, membership.ErrNotFound)
	}
	return copyMembership(m), nil
}

func (s *Store) GetMembershipByUserGroup(_ context.Context, userID string, groupID id.GroupID) (*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships {
		if m.UserID == userID && m.GroupID == groupID {
			return copyMembership(m), nil
		}
	}
	return nil, fmt.Errorf("membership user %q group %s: %w", userID, groupID, membership.ErrNotFound)
}

func (s *Store) DeactivateMembership(_ context.Context, userID string, groupID id.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships {
		if m.UserID == userID && m.GroupID == groupID {
			m.Active = false
			return nil
		}
	}
	return fmt.Errorf("membership user %q group %s: %w", userID, groupID, membership.ErrNotFound)
}

func (s *Store) ListMemberships(_ context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*membership.Membership, 0)
	for _, m := range s.memberships {
		if !matchMembership(m, filter) {
			continue
		}
		result = append(result, copyMembership(m))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AssignedAt.Before(result[j].AssignedAt) })
	return applyPagination(result, paginationOptsMem(filter)), nil
}

func (s *Store) CountMemberships(_ context.Context, filter *membership.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.memberships {
		if matchMembership(m, filter) {
			n++
		}
	}
	return n, nil
}

func matchMembership(m *membership.Membership, f *membership.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.UserID != "" && m.UserID != f.UserID {
		return false
	}
	if f.GroupID != nil && m.GroupID != *f.GroupID {
		return false
	}
	if f.Active != nil && m.Active != *f.Active {
		return false
	}
	return true
}

func (s *Store) ListMembershipsForUser(_ context.Context, userID string) ([]*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*membership.Membership, 0)
	for _, m := range s.memberships {
		if m.UserID == userID && m.Active {
			result = append(result, copyMembership(m))
		}
	}
	return result, nil
}

func (s *Store) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.memberships {
		if m.Active && m.ExpiresAt != nil && !m.ExpiresAt.After(now) {
			m.Active = false
			n++
		}
	}
	for _, g := range s.grants {
		if g.Active && g.EndAt != nil && g.EndAt.Before(now) {
			g.Active = false
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Grant Store
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.ID.String()] = copyGrant(g)
	return nil
}

func (s *Store) GetGrant(_ context.Context, grantID id.GrantID) (*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantID.String()]
	if !ok {
		return nil, fmt.Errorf("grant %s: %w", grantID, grant.ErrNotFound)
	}
	return copyGrant(g), nil
}

func (s *Store) DeactivateGrant(_ context.Context, grantID id.GrantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantID.String()]
	if !ok {
		return fmt.Errorf("grant %s: %w", grantID, grant.ErrNotFound)
	}
	g.Active = false
	return nil
}

func (s *Store) ListGrants(_ context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*grant.Grant, 0)
	for _, g := range s.grants {
		if !matchGrant(g, filter) {
			continue
		}
		result = append(result, copyGrant(g))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return applyPagination(result, paginationOptsGrant(filter)), nil
}

func (s *Store) CountGrants(_ context.Context, filter *grant.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, g := range s.grants {
		if matchGrant(g, filter) {
			n++
		}
	}
	return n, nil
}

func matchGrant(g *grant.Grant, f *grant.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.UserID != "" && g.UserID != f.UserID {
		return false
	}
	if f.CapabilityCode != "" && g.CapabilityCode != f.CapabilityCode {
		return false
	}
	if f.Kind != "" && g.Kind != f.Kind {
		return false
	}
	if f.Active != nil && g.Active != *f.Active {
		return false
	}
	return true
}

func (s *Store) ListGrantsForUser(_ context.Context, userID string) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*grant.Grant, 0)
	for _, g := range s.grants {
		if g.UserID == userID && g.Active {
			result = append(result, copyGrant(g))
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Audit Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditEntries[e.ID.String()] = copyAuditEntry(e)
	return nil
}

func (s *Store) GetAuditEntry(_ context.Context, entryID id.AuditEntryID) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.auditEntries[entryID.String()]
	if !ok {
		return nil, fmt.Errorf("audit entry %s: %w", entryID, audit.ErrNotFound)
	}
	return copyAuditEntry(e), nil
}

func (s *Store) ListAuditEntries(_ context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*audit.Entry, 0)
	for _, e := range s.auditEntries {
		if !matchAuditEntry(e, filter) {
			continue
		}
		result = append(result, copyAuditEntry(e))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return applyPagination(result, paginationOptsAudit(filter)), nil
}

func (s *Store) CountAuditEntries(_ context.Context, filter *audit.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.auditEntries {
		if matchAuditEntry(e, filter) {
			n++
		}
	}
	return n, nil
}

func matchAuditEntry(e *audit.Entry, f *audit.QueryFilter) bool {
	if f == nil {
		return true
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.CapabilityCode != "" && e.CapabilityCode != f.CapabilityCode {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	if f.After != nil && e.CreatedAt.Before(*f.After) {
		return false
	}
	if f.Before != nil && !e.CreatedAt.Before(*f.Before) {
		return false
	}
	return true
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyCapability(c *capability.Capability) *capability.Capability {
	out := *c
	out.Metadata = copyMeta(c.Metadata)
	return &out
}

func copyGroup(g *group.Group) *group.Group {
	out := *g
	out.Metadata = copyMeta(g.Metadata)
	return &out
}

func copyMembership(m *membership.Membership) *membership.Membership {
	out := *m
	out.Metadata = copyMeta(m.Metadata)
	return &out
}

func copyGrant(g *grant.Grant) *grant.Grant {
	out := *g
	out.Metadata = copyMeta(g.Metadata)
	return &out
}

func copyAuditEntry(e *audit.Entry) *audit.Entry {
	out := *e
	out.Metadata = copyMeta(e.Metadata)
	return &out
}

func copyMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type pagOpts struct{ limit, offset int }

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 {
		if p.offset >= len(items) {
			return nil
		}
		items = items[p.offset:]
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}

func paginationOptsCap(f *capability.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsGroup(f *group.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsMem(f *membership.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsGrant(f *grant.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsAudit(f *audit.QueryFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}
