// Package mongo provides a MongoDB implementation of the Sentinel composite
// store using grove ORM with index-based migrations.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/group"
	"github.com/xraph/sentinel/id"
	"github.com/xraph/sentinel/membership"
	"github.com/xraph/sentinel/store"
)

// Collection name constants.
const (
	colCapabilities      = "sentinel_capabilities"
	colGroups            = "sentinel_groups"
	colGroupCapabilities = "sentinel_group_capabilities"
	colMemberships       = "sentinel_memberships"
	colGrants            = "sentinel_grants"
	colAuditEntries      = "sentinel_audit_entries"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite Sentinel store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all sentinel collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("sentinel/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all sentinel collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colCapabilities: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "active", Value: 1}}},
			{Keys: bson.D{{Key: "sensitivity", Value: 1}}},
		},
		colGroups: {
			{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "active", Value: 1}}},
		},
		colGroupCapabilities: {
			{
				Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "capability_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "group_id", Value: 1}}},
			{Keys: bson.D{{Key: "capability_id", Value: 1}}},
		},
		colMemberships: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "group_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "active", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
		colGrants: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "active", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "capability_code", Value: 1}, {Key: "kind", Value: 1}}},
			{Keys: bson.D{{Key: "end_at", Value: 1}}},
		},
		colAuditEntries: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "capability_code", Value: 1}}},
			{Keys: bson.D{{Key: "outcome", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Capability operations
// ──────────────────────────────────────────────────

func (s *Store) CreateCapability(ctx context.Context, c *capability.Capability) error {
	t := now()
	c.CreatedAt = t
	c.UpdatedAt = t
	m := capabilityToModel(c)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: create capability: %w", err)
	}
	return nil
}

func (s *Store) GetCapability(ctx context.Context, capID id.CapabilityID) (*capability.Capability, error) {
	var m capabilityModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": capID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("capability %s: %w", capID, capability.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get capability: %w", err)
	}
	return capabilityFromModel(&m), nil
}

func (s *Store) GetCapabilityByCode(ctx context.Context, code string) (*capability.Capability, error) {
	var m capabilityModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"code": code}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("capability code %q: %w", code, capability.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get capability by code: %w", err)
	}
	return capabilityFromModel(&m), nil
}

func (s *Store) UpdateCapability(ctx context.Context, c *capability.Capability) error {
	c.UpdatedAt = now()
	m := capabilityToModel(c)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: update capability: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("capability %s: %w", c.ID, capability.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteCapability(ctx context.Context, capID id.CapabilityID) error {
	_, err := s.mdb.NewDelete((*capabilityModel)(nil)).
		Filter(bson.M{"_id": capID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: delete capability: %w", err)
	}
	_, err = s.mdb.NewDelete((*groupCapabilityModel)(nil)).
		Many().
		Filter(bson.M{"capability_id": capID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: delete capability bindings: %w", err)
	}
	return nil
}

func (s *Store) ListCapabilities(ctx context.Context, filter *capability.ListFilter) ([]*capability.Capability, error) {
	var models []capabilityModel
	f := bson.M{}
	if filter != nil {
		if filter.Sensitivity != "" {
			f["sensitivity"] = string(filter.Sensitivity)
		}
		if filter.RequiresAudit != nil {
			f["requires_audit"] = *filter.RequiresAudit
		}
		if filter.Active != nil {
			f["active"] = *filter.Active
		}
		if filter.Search != "" {
			f["$or"] = []bson.M{
				{"code": bson.M{"$regex": filter.Search, "$options": "i"}},
				{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "code", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	f := bson.M{}
	if filter != nil {
		if filter.Sensitivity != "" {
			f["sensitivity"] = string(filter.Sensitivity)
		}
		if filter.RequiresAudit != nil {
			f["requires_audit"] = *filter.RequiresAudit
		}
		if filter.Active != nil {
			f["active"] = *filter.Active
		}
		if filter.Search != "" {
			f["$or"] = []bson.M{
				{"code": bson.M{"$regex": filter.Search, "$options": "i"}},
				{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			}
		}
	}
	count, err := s.mdb.NewFind((*capabilityModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count capabilities: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Group operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGroup(ctx context.Context, g *group.Group) error {
	t := now()
	g.CreatedAt = t
	g.UpdatedAt = t
	m := groupToModel(g)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: create group: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID id.GroupID) (*group.Group, error) {
	var m groupModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": groupID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("group %s: %w", groupID, group.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get group: %w", err)
	}
	return groupFromModel(&m), nil
}

func (s *Store) GetGroupByCode(ctx context.Context, code string) (*group.Group, error) {
	var m groupModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"code": code}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("group code %q: %w", code, group.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get group by code: %w", err)
	}
	return groupFromModel(&m), nil
}

func (s *Store) UpdateGroup(ctx context.Context, g *group.Group) error {
	g.UpdatedAt = now()
	m := groupToModel(g)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: update group: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("group %s: %w", g.ID, group.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, groupID id.GroupID) error {
	_, err := s.mdb.NewDelete((*groupModel)(nil)).
		Filter(bson.M{"_id": groupID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: delete group: %w", err)
	}
	_, err = s.mdb.NewDelete((*groupCapabilityModel)(nil)).
		Many().
		Filter(bson.M{"group_id": groupID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: delete group bindings: %w", err)
	}
	return nil
}

func (s *Store) ListGroups(ctx context.Context, filter *group.ListFilter) ([]*group.Group, error) {
	var models []groupModel
	f := bson.M{}
	if filter != nil {
		if filter.Active != nil {
			f["active"] = *filter.Active
		}
		if filter.Search != "" {
			f["$or"] = []bson.M{
				{"code": bson.M{"$regex": filter.Search, "$options": "i"}},
				{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "code", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	f := bson.M{}
	if filter != nil {
		if filter.Active != nil {
			f["active"] = *filter.Active
		}
		if filter.Search != "" {
			f["$or"] = []bson.M{
				{"code": bson.M{"$regex": filter.Search, "$options": "i"}},
				{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			}
		}
	}
	count, err := s.mdb.NewFind((*groupModel)(nil)).
		Filter(f).
		Count(ctx)
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return nil // already attached
		}
		return fmt.Errorf("sentinel: attach capability: %w", err)
	}
	return nil
}

func (s *Store) DetachCapability(ctx context.Context, groupID id.GroupID, capID id.CapabilityID) error {
	_, err := s.mdb.NewDelete((*groupCapabilityModel)(nil)).
		Filter(bson.M{"group_id": groupID.String(), "capability_id": capID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: detach capability: %w", err)
	}
	return nil
}

func (s *Store) SetGroupCapabilities(ctx context.Context, groupID id.GroupID, capIDs []id.CapabilityID) error {
	// Delete all existing bindings.
	_, err := s.mdb.NewDelete((*groupCapabilityModel)(nil)).
		Many().
		Filter(bson.M{"group_id": groupID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: clear group capabilities: %w", err)
	}

	// Insert new bindings.
	if len(capIDs) > 0 {
		models := make([]groupCapabilityModel, len(capIDs))
		for i, capID := range capIDs {
			models[i] = groupCapabilityModel{
				GroupID:      groupID.String(),
				CapabilityID: capID.String(),
			}
		}
		if _, err := s.mdb.NewInsert(&models).Exec(ctx); err != nil {
			return fmt.Errorf("sentinel: set group capabilities: %w", err)
		}
	}
	return nil
}

func (s *Store) ListGroupCapabilities(ctx context.Context, groupID id.GroupID) ([]*capability.Capability, error) {
	var junctions []groupCapabilityModel
	if err := s.mdb.NewFind(&junctions).
		Filter(bson.M{"group_id": groupID.String()}).
		Scan(ctx); err != nil {
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
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": ids}}).
		Sort(bson.D{{Key: "code", Value: 1}}).
		Scan(ctx); err != nil {
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
	var existing membershipModel
	err := s.mdb.NewFind(&existing).
		Filter(bson.M{"user_id": m.UserID, "group_id": m.GroupID.String()}).
		Scan(ctx)
	if err != nil {
		if !isNoDocuments(err) {
			return fmt.Errorf("sentinel: upsert membership: %w", err)
		}
		model := membershipToModel(m)
		if _, err := s.mdb.NewInsert(model).Exec(ctx); err != nil {
			return fmt.Errorf("sentinel: upsert membership: %w", err)
		}
		return nil
	}

	// Existing row keeps its identity and original assignment time.
	_, err = s.mdb.NewUpdate((*membershipModel)(nil)).
		Filter(bson.M{"_id": existing.ID}).
		Set("active", m.Active).
		Set("expires_at", m.ExpiresAt).
		Set("assigned_by", m.AssignedBy).
		Set("updated_at", m.UpdatedAt).
		Set("metadata", m.Metadata).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: upsert membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, memID id.MembershipID) (*membership.Membership, error) {
	var m membershipModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": memID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("membership %s: %w", memID, membership.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get membership: %w", err)
	}
	return membershipFromModel(&m), nil
}

func (s *Store) GetMembershipByUserGroup(ctx context.Context, userID string, groupID id.GroupID) (*membership.Membership, error) {
	var m membershipModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"user_id": userID, "group_id": groupID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("membership user %q group %s: %w", userID, groupID, membership.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get membership by user group: %w", err)
	}
	return membershipFromModel(&m), nil
}

func (s *Store) DeactivateMembership(ctx context.Context, userID string, groupID id.GroupID) error {
	res, err := s.mdb.NewUpdate((*membershipModel)(nil)).
		Filter(bson.M{"user_id": userID, "group_id": groupID.String()}).
		Set("active", false).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: deactivate membership: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("membership user %q group %s: %w", userID, groupID, membership.ErrNotFound)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.GroupID != nil {
			f["group_id"] = filter.GroupID.String()
		}
		if filter.Active != nil {
			f["active"] = *filter.Active
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "assigned_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.GroupID != nil {
			f["group_id"] = filter.GroupID.String()
		}
		if filter.Active != nil {
			f["active"] = *filter.Active
		}
	}
	count, err := s.mdb.NewFind((*membershipModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count memberships: %w", err)
	}
	return count, nil
}

func (s *Store) ListMembershipsForUser(ctx context.Context, userID string) ([]*membership.Membership, error) {
	var models []membershipModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"user_id": userID, "active": true}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list memberships for user: %w", err)
	}
	result := make([]*membership.Membership, len(models))
	for i := range models {
		result[i] = membershipFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeactivateExpired(ctx context.Context, t time.Time) (int64, error) {
	memRes, err := s.mdb.Collection(colMemberships).UpdateMany(ctx,
		bson.M{
			"active": true,
			"expires_at": bson.M{
				"$ne":  nil,
				"$lte": t,
			},
		},
		bson.M{"$set": bson.M{"active": false, "updated_at": t}},
	)
	if err != nil {
		return 0, fmt.Errorf("sentinel: deactivate expired memberships: %w", err)
	}

	grantRes, err := s.mdb.Collection(colGrants).UpdateMany(ctx,
		bson.M{
			"active": true,
			"end_at": bson.M{
				"$ne": nil,
				"$lt": t,
			},
		},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return memRes.ModifiedCount, fmt.Errorf("sentinel: deactivate expired grants: %w", err)
	}
	return memRes.ModifiedCount + grantRes.ModifiedCount, nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	m := grantToModel(g)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": grantID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("grant %s: %w", grantID, grant.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get grant: %w", err)
	}
	return grantFromModel(&m), nil
}

func (s *Store) DeactivateGrant(ctx context.Context, grantID id.GrantID) error {
	res, err := s.mdb.NewUpdate((*grantModel)(nil)).
		Filter(bson.M{"_id": grantID.String()}).
		Set("active", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: deactivate grant: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("grant %s: %w", grantID, grant.ErrNotFound)
	}
	return nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.CapabilityCode != "" {
			f["capability_code"] = filter.CapabilityCode
		}
		if filter.Kind != "" {
			f["kind"] = string(filter.Kind)
		}
		if filter.Active != nil {
			f["active"] = *filter.Active
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.CapabilityCode != "" {
			f["capability_code"] = filter.CapabilityCode
		}
		if filter.Kind != "" {
			f["kind"] = string(filter.Kind)
		}
		if filter.Active != nil {
			f["active"] = *filter.Active
		}
	}
	count, err := s.mdb.NewFind((*grantModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) ListGrantsForUser(ctx context.Context, userID string) ([]*grant.Grant, error) {
	var models []grantModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"user_id": userID, "active": true}).
		Scan(ctx); err != nil {
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
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, entryID id.AuditEntryID) (*audit.Entry, error) {
	var m auditEntryModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": entryID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("audit entry %s: %w", entryID, audit.ErrNotFound)
		}
		return nil, fmt.Errorf("sentinel: get audit entry: %w", err)
	}
	return auditEntryFromModel(&m), nil
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditEntryModel
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.CapabilityCode != "" {
			f["capability_code"] = filter.CapabilityCode
		}
		if filter.Outcome != "" {
			f["outcome"] = string(filter.Outcome)
		}
		if filter.ResourceID != "" {
			f["resource_id"] = filter.ResourceID
		}
		if filter.After != nil || filter.Before != nil {
			dateFilter := bson.M{}
			if filter.After != nil {
				dateFilter["$gte"] = *filter.After
			}
			if filter.Before != nil {
				dateFilter["$lt"] = *filter.Before
			}
			f["created_at"] = dateFilter
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.CapabilityCode != "" {
			f["capability_code"] = filter.CapabilityCode
		}
		if filter.Outcome != "" {
			f["outcome"] = string(filter.Outcome)
		}
		if filter.ResourceID != "" {
			f["resource_id"] = filter.ResourceID
		}
		if filter.After != nil || filter.Before != nil {
			dateFilter := bson.M{}
			if filter.After != nil {
				dateFilter["$gte"] = *filter.After
			}
			if filter.Before != nil {
				dateFilter["$lt"] = *filter.Before
			}
			f["created_at"] = dateFilter
		}
	}
	count, err := s.mdb.NewFind((*auditEntryModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count audit entries: %w", err)
	}
	return count, nil
}
