package sqlite

import (
	"encoding/json"
	"fmt"
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
	ID              string    `grove:"id,pk"`
	Code            string    `grove:"code,notnull"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	Sensitivity     string    `grove:"sensitivity,notnull"`
	RequiresAudit   bool      `grove:"requires_audit,notnull"`
	Active          bool      `grove:"active,notnull"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func capabilityToModel(c *capability.Capability) (*capabilityModel, error) {
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal capability metadata: %w", err)
	}
	return &capabilityModel{
		ID:            c.ID.String(),
		Code:          c.Code,
		Name:          c.Name,
		Description:   c.Description,
		Sensitivity:   string(c.Sensitivity),
		RequiresAudit: c.RequiresAudit,
		Active:        c.Active,
		Metadata:      string(metadata),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}, nil
}

func capabilityFromModel(m *capabilityModel) (*capability.Capability, error) {
	metadata, err := unmarshalMeta(m.Metadata)
	if err != nil {
		return nil, fmt.Errorf("unmarshal capability metadata: %w", err)
	}
	cid, _ := id.ParseCapabilityID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &capability.Capability{
		ID:            cid,
		Code:          m.Code,
		Name:          m.Name,
		Description:   m.Description,
		Sensitivity:   capability.Sensitivity(m.Sensitivity),
		RequiresAudit: m.RequiresAudit,
		Active:        m.Active,
		Metadata:      metadata,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Group model
// ──────────────────────────────────────────────────

type groupModel struct {
	grove.BaseModel `grove:"table:sentinel_groups"`
	ID              string    `grove:"id,pk"`
	Code            string    `grove:"code,notnull"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	Active          bool      `grove:"active,notnull"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func groupToModel(g *group.Group) (*groupModel, error) {
	metadata, err := json.Marshal(g.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal group metadata: %w", err)
	}
	return &groupModel{
		ID:          g.ID.String(),
		Code:        g.Code,
		Name:        g.Name,
		Description: g.Description,
		Active:      g.Active,
		Metadata:    string(metadata),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}, nil
}

func groupFromModel(m *groupModel) (*group.Group, error) {
	metadata, err := unmarshalMeta(m.Metadata)
	if err != nil {
		return nil, fmt.Errorf("unmarshal group metadata: %w", err)
	}
	gid, _ := id.ParseGroupID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &group.Group{
		ID:          gid,
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
		Active:      m.Active,
		Metadata:    metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Group capability junction model
// ──────────────────────────────────────────────────

type groupCapabilityModel struct {
	grove.BaseModel `grove:"table:sentinel_group_capabilities"`
	GroupID         string `grove:"group_id,pk"`
	CapabilityID    string `grove:"capability_id,pk"`
}

// ──────────────────────────────────────────────────
// Membership model
// ──────────────────────────────────────────────────

type membershipModel struct {
	grove.BaseModel `grove:"table:sentinel_memberships"`
	ID              string     `grove:"id,pk"`
	UserID          string     `grove:"user_id,notnull"`
	GroupID         string     `grove:"group_id,notnull"`
	Active          bool       `grove:"active,notnull"`
	ExpiresAt       *time.Time `grove:"expires_at"`
	AssignedBy      string     `grove:"assigned_by"`
	AssignedAt      time.Time  `grove:"assigned_at,notnull"`
	UpdatedAt       time.Time  `grove:"updated_at,notnull"`
	Metadata        string     `grove:"metadata"` // JSON text
}

func membershipToModel(m *membership.Membership) (*membershipModel, error) {
	metadata, err := json.Marshal(m.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal membership metadata: %w", err)
	}
	return &membershipModel{
		ID:         m.ID.String(),
		UserID:     m.UserID,
		GroupID:    m.GroupID.String(),
		Active:     m.Active,
		ExpiresAt:  m.ExpiresAt,
		AssignedBy: m.AssignedBy,
		AssignedAt: m.AssignedAt,
		UpdatedAt:  m.UpdatedAt,
		Metadata:   string(metadata),
	}, nil
}

func membershipFromModel(m *membershipModel) (*membership.Membership, error) {
	metadata, err := unmarshalMeta(m.Metadata)
	if err != nil {
		return nil, fmt.Errorf("unmarshal membership metadata: %w", err)
	}
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
		Metadata:   metadata,
	}, nil
}

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:sentinel_grants"`
	ID              string     `grove:"id,pk"`
	UserID          string     `grove:"user_id,notnull"`
	CapabilityCode  string     `grove:"capability_code,notnull"`
	Kind            string     `grove:"kind,notnull"`
	StartAt         time.Time  `grove:"start_at,notnull"`
	EndAt           *time.Time `grove:"end_at"`
	Reason          string     `grove:"reason,notnull"`
	AuthorizedBy    string     `grove:"authorized_by,notnull"`
	Active          bool       `grove:"active,notnull"`
	Metadata        string     `grove:"metadata"` // JSON text
	CreatedAt       time.Time  `grove:"created_at,notnull"`
}

func grantToModel(g *grant.Grant) (*grantModel, error) {
	metadata, err := json.Marshal(g.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal grant metadata: %w", err)
	}
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
		Metadata:       string(metadata),
		CreatedAt:      g.CreatedAt,
	}, nil
}

func grantFromModel(m *grantModel) (*grant.Grant, error) {
	metadata, err := unmarshalMeta(m.Metadata)
	if err != nil {
		return nil, fmt.Errorf("unmarshal grant metadata: %w", err)
	}
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
		Metadata:       metadata,
		CreatedAt:      m.CreatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Audit entry model
// ──────────────────────────────────────────────────

type auditEntryModel struct {
	grove.BaseModel `grove:"table:sentinel_audit_entries"`
	ID              string    `grove:"id,pk"`
	UserID          string    `grove:"user_id,notnull"`
	CapabilityCode  string    `grove:"capability_code,notnull"`
	Outcome         string    `grove:"outcome,notnull"`
	Stage           string    `grove:"stage"`
	Reason          string    `grove:"reason"`
	ResourceID      string    `grove:"resource_id"`
	RequestIP       string    `grove:"request_ip"`
	UserAgent       string    `grove:"user_agent"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func auditEntryToModel(e *audit.Entry) (*auditEntryModel, error) {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal audit metadata: %w", err)
	}
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
		Metadata:       string(metadata),
		CreatedAt:      e.CreatedAt,
	}, nil
}

func auditEntryFromModel(m *auditEntryModel) (*audit.Entry, error) {
	metadata, err := unmarshalMeta(m.Metadata)
	if err != nil {
		return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
	}
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
		Metadata:       metadata,
		CreatedAt:      m.CreatedAt,
	}, nil
}

func unmarshalMeta(s string) (map[string]any, error) {
	if s == "" || s == "null" {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(s), &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}
