// Package sqlite provides a SQLite implementation of the Sentinel composite
// store using grove ORM with Go-based migrations. Suited to embedded and
// single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
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

// Store is a SQLite implementation of the composite Sentinel store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("sentinel/sqlite: migration failed: %w", err)
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

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Capability operations
// ──────────────────────────────────────────────────

func (s *Store) CreateCapability(ctx context.Context, c *capability.Capability) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	m, err := capabilityToModel(c)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: create capability: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel/sqlite: create capability: %w", err)
	}
	return nil
}

func (s *Store) GetCapability(ctx context.Context, capID id.CapabilityID) (*capability.Capability, error) {
	m := new(capabilityModel)
	err := s.sdb.NewSelect(m).Where("id = ?", capID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("capability %s: %w", capID, capability.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel/sqlite: get capability: %w", err)
	}
	return capabilityFromModel(m)
}

func (s *Store) GetCapabilityByCode(ctx context.Context, code string) (*capability.Capability, error) {
	m := new(capabilityModel)
	err := s.sdb.NewSelect(m).Where("code = ?", code).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("capability code %q: %w", code, capability.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel/sqlite: get capability by code: %w", err)
	}
	return capabilityFromModel(m)
}

func (s *Store) UpdateCapability(ctx context.Context, c *capability.Capability) error {
	c.UpdatedAt = time.Now().UTC()
	m, err := capabilityToModel(c)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: update capability: %w", err)
	}
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("sentinel/sqlite: update capability: %w", err)
	}
	return nil
}

func (s *Store) DeleteCapability(ctx context.Context, capID id.CapabilityID) error {
	_, err := s.sdb.NewDelete((*capabilityModel)(nil)).
		Where("id = ?", capID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: delete capability: %w", err)
	}
	return nil
}

func (s *Store) ListCapabilities(ctx context.Context, filter *capability.ListFilter) ([]*capability.Capability, error) {
	var models []capabilityModel
	q := s.sdb.NewSelect(&models).OrderExpr("code ASC")
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
		return nil, fmt.Errorf("sentinel/sqlite: list capabilities: %w", err)
	}
	result := make([]*capability.Capability, 0, len(models))
	for i := range models {
		c, err := capabilityFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

func (s *Store) CountCapabilities(ctx context.Context, filter *capability.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*capabilityModel)(nil))
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
		return 0, fmt.Errorf("sentinel/sqlite: count capabilities: %w", err)
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
	m, err := groupToModel(g)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: create group: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel/sqlite: create group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID id.GroupID) (*group.Group, error) {
	m := new(groupModel)
	err := s.sdb.NewSelect(m).Where("id = ?", groupID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("group %s: %w", groupID, group.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel/sqlite: get group: %w", err)
	}
	return groupFromModel(m)
}

func (s *Store) GetGroupByCode(ctx context.Context, code string) (*group.Group, error) {
	m := new(groupModel)
	err := s.sdb.NewSelect(m).Where("code = ?", code).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("group code %q: %w", code, group.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel/sqlite: get group by code: %w", err)
	}
	return groupFromModel(m)
}

func (s *Store) UpdateGroup(ctx context.Context, g *group.Group) error {
	g.UpdatedAt = time.Now().UTC()
	m, err := groupToModel(g)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: update group: %w", err)
	}
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("sentinel/sqlite: update group: %w", err)
	}
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, groupID id.GroupID) error {
	_, err := s.sdb.NewDelete((*groupModel)(nil)).
		Where("id = ?", groupID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: delete group: %w", err)
	}
	return nil
}

func (s *Store) ListGroups(ctx context.Context, filter *group.ListFilter) ([]*group.Group, error) {
	var models []groupModel
	q := s.sdb.NewSelect(&models).OrderExpr("code ASC")
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
		return nil, fmt.Errorf("sentinel/sqlite: list groups: %w", err)
	}
	result := make([]*group.Group, 0, len(models))
	for i := range models {
		g, err := groupFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, nil
}

func (s *Store) CountGroups(ctx context.Context, filter *group.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*groupModel)(nil))
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
		return 0, fmt.Errorf("sentinel/sqlite: count groups: %w", err)
	}
	return count, nil
}

func (s *Store) AttachCapability(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) error {
	m := &groupCapabilityModel{
		GroupID:      groupID.String(),
		CapabilityID: capID.String(),
	}
	_, err := s.sdb.NewInsert(m).
		OnConflict("(group_id, capability_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: attach capability: %w", err)
	}
	return nil
}

func (s *Store) DetachCapability(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) error {
	_, err := s.sdb.NewDelete((*groupCapabilityModel)(nil)).
		Where("group_id = ?", groupID.String()).
		Where("capability_id = ?", capID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: detach capability: %w", err)
	}
	return nil
}

func (s *Store) SetGroupCapabilities(ctx context.Context, groupID id.GroupID, capIDs []id.CapabilityID) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*groupCapabilityModel)(nil)).
		Where("group_id = ?", groupID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: clear group capabilities: %w", err)
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
			return fmt.Errorf("sentinel/sqlite: set group capabilities: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sentinel/sqlite: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListGroupCapabilities(ctx context.Context, groupID id.GroupID) ([]*capability.Capability, error) {
	var junctions []groupCapabilityModel
	err := s.sdb.NewSelect(&junctions).
		Where("group_id = ?", groupID.String()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentinel/sqlite: list group capability bindings: %w", err)
	}
	if len(junctions) == 0 {
		return []*capability.Capability{}, nil
	}
	ids := make([]string, len(junctions))
	for i, j := range junctions {
		ids[i] = j.CapabilityID
	}
	var models []capabilityModel
	err = s.sdb.NewSelect(&models).
		Where("id IN (?)", ids).
		OrderExpr("code ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentinel/sqlite: list group capabilities: %w", err)
	}
	result := make([]*capability.Capability, 0, len(models))
	for i := range models {
		c, err := capabilityFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) UpsertMembership(ctx context.Context, m *membership.Membership) error {
	model, err := membershipToModel(m)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: upsert membership: %w", err)
	}
	_, err = s.sdb.NewInsert(model).
		OnConflict(`(user_id, group_id) DO UPDATE SET
active = EXCLUDED.active,
expires_at = EXCLUDED.expires_at,
assigned_by = EXCLUDED.assigned_by,
updated_at = EXCLUDED.updated_at,
metadata = EXCLUDED.metadata`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: upsert membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, memID id.MembershipID) (*membership.Membership, error) {
	m := new(membershipModel)
	err := s.sdb.NewSelect(m).Where("id = ?", memID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("membership %s: %w", memID, membership.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel/sqlite: get membership: %w", err)
	}
	return membershipFromModel(m)
}

func (s *Store) GetMembershipByUserGroup(ctx context.Context, userID string, groupID id.GroupID) (*membership.Membership, error) {
	m := new(membershipModel)
	err := s.sdb.NewSelect(m).
		Where("user_id = ?", userID).
		Where("group_id = ?", groupID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("membership user %q group %s: %w", userID, groupID, membership.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel/sqlite: get membership by user group: %w", err)
	}
	return membershipFromModel(m)
}

func (s *Store) DeactivateMembership(ctx context.Context, userID string, groupID id.GroupID) error {
	res, err := s.sdb.NewUpdate((*membershipModel)(nil)).
		Set("active = ?", false).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Where("group_id = ?", groupID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: deactivate membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: deactivate membership rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("membership user %q group %s: %w", userID, groupID, membership.ErrNotFound)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	q := s.sdb.NewSelect(&models).OrderExpr("assigned_at ASC")
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
		return nil, fmt.Errorf("sentinel/sqlite: list memberships: %w", err)
	}
	result := make([]*membership.Membership, 0, len(models))
	for i := range models {
		m, err := membershipFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*membershipModel)(nil))
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
		return 0, fmt.Errorf("sentinel/sqlite: count memberships: %w", err)
	}
	return count, nil
}

func (s *Store) ListMembershipsForUser(ctx context.Context, userID string) ([]*membership.Membership, error) {
	var models []membershipModel
	err := s.sdb.NewSelect(&models).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentinel/sqlite: list memberships for user: %w", err)
	}
	result := make([]*membership.Membership, 0, len(models))
	for i := range models {
		m, err := membershipFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, nil
}

func (s *Store) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.sdb.NewUpdate((*membershipModel)(nil)).
		Set("active = ?", false).
		Set("updated_at = ?", now).
		Where("active = ?", true).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel/sqlite: deactivate expired memberships: %w", err)
	}
	memberships, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sentinel/sqlite: deactivate expired membership rows: %w", err)
	}

	res, err = s.sdb.NewUpdate((*grantModel)(nil)).
		Set("active = ?", false).
		Where("active = ?", true).
		Where("end_at IS NOT NULL").
		Where("end_at < ?", now).
		Exec(ctx)
	if err != nil {
		return memberships, fmt.Errorf("sentinel/sqlite: deactivate expired grants: %w", err)
	}
	grants, err := res.RowsAffected()
	if err != nil {
		return memberships, fmt.Errorf("sentinel/sqlite: deactivate expired grant rows: %w", err)
	}
	return memberships + grants, nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	m, err := grantToModel(g)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: create grant: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel/sqlite: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	m := new(grantModel)
	err := s.sdb.NewSelect(m).Where("id = ?", grantID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("grant %s: %w", grantID, grant.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel/sqlite: get grant: %w", err)
	}
	return grantFromModel(m)
}

func (s *Store) DeactivateGrant(ctx context.Context, grantID id.GrantID) error {
	res, err := s.sdb.NewUpdate((*grantModel)(nil)).
		Set("active = ?", false).
		Where("id = ?", grantID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: deactivate grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: deactivate grant rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("grant %s: %w", grantID, grant.ErrNotFound)
	}
	return nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
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
		return nil, fmt.Errorf("sentinel/sqlite: list grants: %w", err)
	}
	result := make([]*grant.Grant, 0, len(models))
	for i := range models {
		g, err := grantFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*grantModel)(nil))
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
		return 0, fmt.Errorf("sentinel/sqlite: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) ListGrantsForUser(ctx context.Context, userID string) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.sdb.NewSelect(&models).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentinel/sqlite: list grants for user: %w", err)
	}
	result := make([]*grant.Grant, 0, len(models))
	for i := range models {
		g, err := grantFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Audit operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	m, err := auditEntryToModel(e)
	if err != nil {
		return fmt.Errorf("sentinel/sqlite: create audit entry: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel/sqlite: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, entryID id.AuditEntryID) (*audit.Entry, error) {
	m := new(auditEntryModel)
	err := s.sdb.NewSelect(m).Where("id = ?", entryID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("audit entry %s: %w", entryID, audit.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel/sqlite: get audit entry: %w", err)
	}
	return auditEntryFromModel(m)
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditEntryModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
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
		return nil, fmt.Errorf("sentinel/sqlite: list audit entries: %w", err)
	}
	result := make([]*audit.Entry, 0, len(models))
	for i := range models {
		e, err := auditEntryFromModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*auditEntryModel)(nil))
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
		return 0, fmt.Errorf("sentinel/sqlite: count audit entries: %w", err)
	}
	return count, nil
}
