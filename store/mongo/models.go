package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/group"
	"github.com/xraph/sentinel/id"
	"github.com/xraph/sentinel/membership"
)

// ──────────────────────────────────────────────────
// Capability model
// ──────────────────────────────────────────────────

type capabilityModel struct {
	grove.BaseModel `grove:"table:sentinel_capabilities"`
	ID              string         `grove:"id,pk"           bson:"_id"`
	Code            string         `grove:"code"            bson:"code"`
	Name            string         `grove:"name"            bson:"name"`
	Description     string         `grove:"description"     bson:"description"`
	Sensitivity     string         `grove:"sensitivity"     bson:"sensitivity"`
	RequiresAudit   bool           `grove:"requires_audit"  bson:"requires_audit"`
	Active          bool           `grove:"active"          bson:"active"`
	Metadata        map[string]any `grove:"metadata"        bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"      bson:"updated_at"`
}

func capabilityToModel(c *capability.Capability) *capabilityModel {
	return &capabilityModel{
		ID:            c.ID.String(),
		Code:          c.Code,
		Name:          c.Name,
		Description:   c.Description,
		Sensitivity:   string(c.Sensitivity),
		RequiresAudit: c.RequiresAudit,
		Active:        c.Active,
		Metadata:      c.Metadata,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func capabilityFromModel(m *capabilityModel) *capability.Capability {
	cid, _ := id.ParseCapabilityID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &capability.Capability{
		ID:            cid,
		Code:          m.Code,
		Name:          m.Name,
		Description:   m.Description,
		Sensitivity:   capability.Sensitivity(m.Sensitivity),
		RequiresAudit: m.RequiresAudit,
		Active:        m.Active,
		Metadata:      m.Metadata,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Group model
// ──────────────────────────────────────────────────

type groupModel struct {
	grove.BaseModel `grove:"table:sentinel_groups"`
	ID              string         `grove:"id,pk"           bson:"_id"`
	Code            string         `grove:"code"            bson:"code"`
	Name            string         `grove:"name"            bson:"name"`
	Description     string         `grove:"description"     bson:"description"`
	Active          bool           `grove:"active"          bson:"active"`
	Metadata        map[string]any `grove:"metadata"        bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"      bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at"      bson:"updated_at"`
}

func groupToModel(g *group.Group) *groupModel {
	return &groupModel{
		ID:          g.ID.String(),
		Code:        g.Code,
		Name:        g.Name,
		Description: g.Description,
		Active:      g.Active,
		Metadata:    g.Metadata,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func groupFromModel(m *groupModel) *group.Group {
	gid, _ := id.ParseGroupID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &group.Group{
		ID:          gid,
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
		Active:      m.Active,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Group-Capability junction model
// ──────────────────────────────────────────────────

type groupCapabilityModel struct {
	grove.BaseModel `grove:"table:sentinel_group_capabilities"`
	GroupID         string `grove:"group_id,pk"      bson:"group_id"`
	CapabilityID    string `grove:"capability_id,pk" bson:"capability_id"`
}

// ──────────────────────────────────────────────────
// Membership model
// ──────────────────────────────────────────────────

type membershipModel struct {
	grove.BaseModel `grove:"table:sentinel_memberships"`
	ID              string         `grove:"id,pk"           bson:"_id"`
	UserID          string         `grove:"user_id"         bson:"user_id"`
	GroupID         string         `grove:"group_id"        bson:"group_id"`
	Active          bool           `grove:"active"          bson:"active"`
	ExpiresAt       *time.Time     `grove:"expires_at"      bson:"expires_at,omitempty"`
	AssignedBy      string         `grove:"assigned_by"     bson:"assigned_by"`
	AssignedAt      time.Time      `grove:"assigned_at"     bson:"assigned_at"`
	UpdatedAt       time.Time      `grove:"updated_at"      bson:"updated_at"`
	Metadata        map[string]any `grove:"metadata"        bson:"metadata,omitempty"`
}

func membershipToModel(m *membership.Membership) *membershipModel {
	return &membershipModel{
		ID:         m.ID.String(),
		UserID:     m.UserID,
		GroupID:    m.GroupID.String(),
		Active:     m.Active,
		ExpiresAt:  m.ExpiresAt,
		AssignedBy: m.AssignedBy,
		AssignedAt: m.AssignedAt,
		UpdatedAt:  m.UpdatedAt,
		Metadata:   m.Metadata,
	}
}

func membershipFromModel(m *membershipModel) *membership.Membership {
	mid, _ := id.ParseMembershipID(m.ID) //nolint:errcheck // stored IDs are always valid
	gid, _ := id.ParseGroupID(m.GroupID) //nolint:errcheck
	return &membership.Membership{
		ID:         mid,
		UserID:     m.UserID,
		GroupID:    gid,
		Active:     m.Active,
		ExpiresAt:  m.ExpiresAt,
		AssignedBy: m.AssignedBy,
		AssignedAt: m.AssignedAt,
		UpdatedAt:  m.UpdatedAt,
		Metadata:   m.Metadata,
	}
}

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:sentinel_grants"`
	ID              string         `grove:"id,pk"           bson:"_id"`
	UserID          string         `grove:"user_id"         bson:"user_id"`
	CapabilityCode  string         `grove:"capability_code" bson:"capability_code"`
	Kind            string         `grove:"kind"            bson:"kind"`
	StartAt         time.Time      `grove:"start_at"        bson:"start_at"`
	EndAt           *time.Time     `grove:"end_at"          bson:"end_at,omitempty"`
	Reason          string         `grove:"reason"          bson:"reason"`
	AuthorizedBy    string         `grove:"authorized_by"   bson:"authorized_by"`
	Active          bool           `grove:"active"          bson:"active"`
	Metadata        map[string]any `grove:"metadata"        bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"      bson:"created_at"`
}

func grantToModel(g *grant.Grant) *grantModel {
	return &grantModel{
		ID:             g.ID.String(),
		UserID:         g.UserID,
		CapabilityCode: g.CapabilityCode,
		Kind:           string(g.Kind),
		StartAt:        g.StartAt,
		EndAt:          g.EndAt,
		Reason:         g.Reason,
		AuthorizedBy:   g.AuthorizedBy,
		Active:         g.Active,
		Metadata:       g.Metadata,
		CreatedAt:      g.CreatedAt,
	}
}

func grantFromModel(m *grantModel) *grant.Grant {
	gid, _ := id.ParseGrantID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &grant.Grant{
		ID:             gid,
		UserID:         m.UserID,
		CapabilityCode: m.CapabilityCode,
		Kind:           grant.Kind(m.Kind),
		StartAt:        m.StartAt,
		EndAt:          m.EndAt,
		Reason:         m.Reason,
		AuthorizedBy:   m.AuthorizedBy,
		Active:         m.Active,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Audit entry model
// ──────────────────────────────────────────────────

type auditEntryModel struct {
	grove.BaseModel `grove:"table:sentinel_audit_entries"`
	ID              string         `grove:"id,pk"           bson:"_id"`
	UserID          string         `grove:"user_id"         bson:"user_id"`
	CapabilityCode  string         `grove:"capability_code" bson:"capability_code"`
	Outcome         string         `grove:"outcome"         bson:"outcome"`
	Stage           string         `grove:"stage"           bson:"stage"`
	Reason          string         `grove:"reason"          bson:"reason"`
	ResourceID      string         `grove:"resource_id"     bson:"resource_id"`
	RequestIP       string         `grove:"request_ip"      bson:"request_ip"`
	UserAgent       string         `grove:"user_agent"      bson:"user_agent"`
	Metadata        map[string]any `grove:"metadata"        bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at"      bson:"created_at"`
}

func auditEntryToModel(e *audit.Entry) *auditEntryModel {
	return &auditEntryModel{
		ID:             e.ID.String(),
		UserID:         e.UserID,
		CapabilityCode: e.CapabilityCode,
		Outcome:        string(e.Outcome),
		Stage:          e.Stage,
		Reason:         e.Reason,
		ResourceID:     e.ResourceID,
		RequestIP:      e.RequestIP,
		UserAgent:      e.UserAgent,
		Metadata:       e.Metadata,
		CreatedAt:      e.CreatedAt,
	}
}

func auditEntryFromModel(m *auditEntryModel) *audit.Entry {
	eid, _ := id.ParseAuditEntryID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &audit.Entry{
		ID:             eid,
		UserID:         m.UserID,
		CapabilityCode: m.CapabilityCode,
		Outcome:        audit.Outcome(m.Outcome),
		Stage:          m.Stage,
		Reason:         m.Reason,
		ResourceID:     m.ResourceID,
		RequestIP:      m.RequestIP,
		UserAgent:      m.UserAgent,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt,
	}
}
