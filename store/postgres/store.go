// Package postgres provides a PostgreSQL implementation of the Sentinel
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/group"
	"github.com/xraph/sentinel/id"
	"github.com/xraph/sentinel/membership"
	"github.com/xraph/sentinel/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of the composite Sentinel store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("sentinel: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("sentinel: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ──────────────────────────────────────────────────
// Capability operations
// ──────────────────────────────────────────────────

func (s *Store) CreateCapability(ctx context.Context, c *capability.Capability) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	m := capabilityToModel(c)
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: create capability: %w", err)
	}
	return nil
}

func (s *Store) GetCapability(ctx context.Context, capID id.CapabilityID) (*capability.Capability, error) {
	m := new(capabilityModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", capID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("capability %s: %w", capID, capability.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get capability: %w", err)
	}
	return capabilityFromModel(m), nil
}

func (s *Store) GetCapabilityByCode(ctx context.Context, code string) (*capability.Capability, error) {
	m := new(capabilityModel)
	err := s.pgdb.NewSelect(m).Where("code = ?", code).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("capability code %q: %w", code, capability.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get capability by code: %w", err)
	}
	return capabilityFromModel(m), nil
}

func (s *Store) UpdateCapability(ctx context.Context, c *capability.Capability) error {
	c.UpdatedAt = time.Now().UTC()
	m := capabilityToModel(c)
	_, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: update capability: %w", err)
	}
	return nil
}

func (s *Store) DeleteCapability(ctx context.Context, capID id.CapabilityID) error {
	_, err := s.pgdb.NewDelete((*capabilityModel)(nil)).
		Where("id = ?", capID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: delete capability: %w", err)
	}
	return nil
}

func (s *Store) ListCapabilities(ctx context.Context, filter *capability.ListFilter) ([]*capability.Capability, error) {
	var models []capabilityModel
	q := s.pgdb.NewSelect(&models).OrderExpr("code ASC")
	if filter != nil {
		if filter.Sensitivity != "" {
			q = q.Where("sensitivity = ?", string(filter.Sensitivity))
		}
		if filter.RequiresAudit != nil {
			q = q.Where("requires_audit = ?", *filter.RequiresAudit)
		}
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
		if filter.Search != "" {
			q = q.Where("(LOWER(code) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?))",
				"%"+filter.Search+"%", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list capabilities: %w", err)
	}
	result := make([]*capability.Capability, len(models))
	for i := range models {
		result[i] = capabilityFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountCapabilities(ctx context.Context, filter *capability.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*capabilityModel)(nil))
	if filter != nil {
		if filter.Sensitivity != "" {
			q = q.Where("sensitivity = ?", string(filter.Sensitivity))
		}
		if filter.RequiresAudit != nil {
			q = q.Where("requires_audit = ?", *filter.RequiresAudit)
		}
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
		if filter.Search != "" {
			q = q.Where("(LOWER(code) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?))",
				"%"+filter.Search+"%", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count capabilities: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Group operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGroup(ctx context.Context, g *group.Group) error {
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	m := groupToModel(g)
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: create group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID id.GroupID) (*group.Group, error) {
	m := new(groupModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", groupID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group %s: %w", groupID, group.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get group: %w", err)
	}
	return groupFromModel(m), nil
}

func (s *Store) GetGroupByCode(ctx context.Context, code string) (*group.Group, error) {
	m := new(groupModel)
	err := s.pgdb.NewSelect(m).Where("code = ?", code).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group code %q: %w", code, group.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get group by code: %w", err)
	}
	return groupFromModel(m), nil
}

func (s *Store) UpdateGroup(ctx context.Context, g *group.Group) error {
	g.UpdatedAt = time.Now().UTC()
	m := groupToModel(g)
	_, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: update group: %w", err)
	}
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, groupID id.GroupID) error {
	_, err := s.pgdb.NewDelete((*groupModel)(nil)).
		Where("id = ?", groupID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: delete group: %w", err)
	}
	return nil
}

func (s *Store) ListGroups(ctx context.Context, filter *group.ListFilter) ([]*group.Group, error) {
	var models []groupModel
	q := s.pgdb.NewSelect(&models).OrderExpr("code ASC")
	if filter != nil {
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
		if filter.Search != "" {
			q = q.Where("(LOWER(code) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?))",
				"%"+filter.Search+"%", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list groups: %w", err)
	}
	result := make([]*group.Group, len(models))
	for i := range models {
		result[i] = groupFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountGroups(ctx context.Context, filter *group.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*groupModel)(nil))
	if filter != nil {
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
		if filter.Search != "" {
			q = q.Where("(LOWER(code) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?))",
				"%"+filter.Search+"%", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count groups: %w", err)
	}
	return count, nil
}

func (s *Store) AttachCapability(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) error {
	m := &groupCapabilityModel{
		GroupID:      groupID.String(),
		CapabilityID: capID.String(),
	}
	_, err := s.pgdb.NewInsert(m).
		OnConflict("(group_id, capability_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: attach capability: %w", err)
	}
	return nil
}

func (s *Store) DetachCapability(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) error {
	_, err := s.pgdb.NewDelete((*groupCapabilityModel)(nil)).
		Where("group_id = ?", groupID.String()).
		Where("capability_id = ?", capID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: detach capability: %w", err)
	}
	return nil
}

func (s *Store) SetGroupCapabilities(ctx context.Context, groupID id.GroupID, capIDs []id.CapabilityID) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("sentinel: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*groupCapabilityModel)(nil)).
		Where("group_id = ?", groupID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: clear group capabilities: %w", err)
	}

	if len(capIDs) > 0 {
		models := make([]groupCapabilityModel, len(capIDs))
		for i, capID := range capIDs {
			models[i] = groupCapabilityModel{
				GroupID:      groupID.String(),
				CapabilityID: capID.String(),
			}
		}
		_, err = tx.NewInsert(&models).Exec(ctx)
		if err != nil {
			return fmt.Errorf("sentinel: set group capabilities: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sentinel: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListGroupCapabilities(ctx context.Context, groupID id.GroupID) ([]*capability.Capability, error) {
	var junctions []groupCapabilityModel
	err := s.pgdb.NewSelect(&junctions).
		Where("group_id = ?", groupID.String()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentinel: list group capability bindings: %w", err)
	}
	if len(junctions) == 0 {
		return []*capability.Capability{}, nil
	}
	ids := make([]string, len(junctions))
	for i, j := range junctions {
		ids[i] = j.CapabilityID
	}
	var models []capabilityModel
	err = s.pgdb.NewSelect(&models).
		Where("id IN (?)", ids).
		OrderExpr("code ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentinel: list group capabilities: %w", err)
	}
	result := make([]*capability.Capability, len(models))
	for i := range models {
		result[i] = capabilityFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) UpsertMembership(ctx context.Context, m *membership.Membership) error {
	model := membershipToModel(m)
	_, err := s.pgdb.NewInsert(model).
		OnConflict(`(user_id, group_id) DO UPDATE SET
active = EXCLUDED.active,
expires_at = EXCLUDED.expires_at,
assigned_by = EXCLUDED.assigned_by,
updated_at = EXCLUDED.updated_at,
metadata = EXCLUDED.metadata`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: upsert membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, memID id.MembershipID) (*membership.Membership, error) {
	m := new(membershipModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", memID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("membership %s: %w", memID, membership.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get membership: %w", err)
	}
	return membershipFromModel(m), nil
}

func (s *Store) GetMembershipByUserGroup(ctx context.Context, userID string, groupID id.GroupID) (*membership.Membership, error) {
	m := new(membershipModel)
	err := s.pgdb.NewSelect(m).
		Where("user_id = ?", userID).
		Where("group_id = ?", groupID.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("membership user %q group %s: %w", userID, groupID, membership.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get membership by user group: %w", err)
	}
	return membershipFromModel(m), nil
}

func (s *Store) DeactivateMembership(ctx context.Context, userID string, groupID id.GroupID) error {
	res, err := s.pgdb.NewUpdate((*membershipModel)(nil)).
		Set("active = ?", false).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Where("group_id = ?", groupID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: deactivate membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sentinel: deactivate membership rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("membership user %q group %s: %w", userID, groupID, membership.ErrNotFound)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	q := s.pgdb.NewSelect(&models).OrderExpr("assigned_at ASC")
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.GroupID != nil {
			q = q.Where("group_id = ?", filter.GroupID.String())
		}
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list memberships: %w", err)
	}
	result := make([]*membership.Membership, len(models))
	for i := range models {
		result[i] = membershipFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*membershipModel)(nil))
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.GroupID != nil {
			q = q.Where("group_id = ?", filter.GroupID.String())
		}
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count memberships: %w", err)
	}
	return count, nil
}

func (s *Store) ListMembershipsForUser(ctx context.Context, userID string) ([]*membership.Membership, error) {
	var models []membershipModel
	err := s.pgdb.NewSelect(&models).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentinel: list memberships for user: %w", err)
	}
	result := make([]*membership.Membership, len(models))
	for i := range models {
		result[i] = membershipFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.pgdb.NewUpdate((*membershipModel)(nil)).
		Set("active = ?", false).
		Set("updated_at = ?", now).
		Where("active = ?", true).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: deactivate expired memberships: %w", err)
	}
	memberships, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sentinel: deactivate expired membership rows: %w", err)
	}

	res, err = s.pgdb.NewUpdate((*grantModel)(nil)).
		Set("active = ?", false).
		Where("active = ?", true).
		Where("end_at IS NOT NULL").
		Where("end_at < ?", now).
		Exec(ctx)
	if err != nil {
		return memberships, fmt.Errorf("sentinel: deactivate expired grants: %w", err)
	}
	grants, err := res.RowsAffected()
	if err != nil {
		return memberships, fmt.Errorf("sentinel: deactivate expired grant rows: %w", err)
	}
	return memberships + grants, nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	m := grantToModel(g)
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	m := new(grantModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", grantID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("grant %s: %w", grantID, grant.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get grant: %w", err)
	}
	return grantFromModel(m), nil
}

func (s *Store) DeactivateGrant(ctx context.Context, grantID id.GrantID) error {
	res, err := s.pgdb.NewUpdate((*grantModel)(nil)).
		Set("active = ?", false).
		Where("id = ?", grantID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: deactivate grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sentinel: deactivate grant rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("grant %s: %w", grantID, grant.ErrNotFound)
	}
	return nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.CapabilityCode != "" {
			q = q.Where("capability_code = ?", filter.CapabilityCode)
		}
		if filter.Kind != "" {
			q = q.Where("kind = ?", string(filter.Kind))
		}
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*grantModel)(nil))
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.CapabilityCode != "" {
			q = q.Where("capability_code = ?", filter.CapabilityCode)
		}
		if filter.Kind != "" {
			q = q.Where("kind = ?", string(filter.Kind))
		}
		if filter.Active != nil {
			q = q.Where("active = ?", *filter.Active)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) ListGrantsForUser(ctx context.Context, userID string) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.pgdb.NewSelect(&models).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentinel: list grants for user: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Audit operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	m := auditEntryToModel(e)
	_, err := s.pgdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, entryID id.AuditEntryID) (*audit.Entry, error) {
	m := new(auditEntryModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", entryID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("audit entry %s: %w", entryID, audit.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get audit entry: %w", err)
	}
	return auditEntryFromModel(m), nil
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditEntryModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.CapabilityCode != "" {
			q = q.Where("capability_code = ?", filter.CapabilityCode)
		}
		if filter.Outcome != "" {
			q = q.Where("outcome = ?", string(filter.Outcome))
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list audit entries: %w", err)
	}
	result := make([]*audit.Entry, len(models))
	for i := range models {
		result[i] = auditEntryFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	q := s.pgdb.NewSelect((*auditEntryModel)(nil))
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.CapabilityCode != "" {
			q = q.Where("capability_code = ?", filter.CapabilityCode)
		}
		if filter.Outcome != "" {
			q = q.Where("outcome = ?", string(filter.Outcome))
		}
		if filter.ResourceID != "" {
			q = q.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count audit entries: %w", err)
	}
	return count, nil
}

