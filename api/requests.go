package api

// ──────────────────────────────────────────────────
// Authorization requests
// ──────────────────────────────────────────────────

// AuthorizeRequest is the request body for an authorization decision.
type AuthorizeRequest struct {
	UserID     string         `json:"user_id" description:"User identifier"`
	Capability string         `json:"capability" description:"Capability code (e.g. billing.refund.issue)"`
	ResourceID string         `json:"resource_id,omitempty" description:"Target resource identifier"`
	Metadata   map[string]any `json:"metadata,omitempty" description:"Additional request attributes"`
}

// BatchAuthorizeRequest contains multiple authorization requests.
type BatchAuthorizeRequest struct {
	Requests []AuthorizeRequest `json:"requests" description:"List of authorization requests"`
}

// ──────────────────────────────────────────────────
// Capability requests
// ──────────────────────────────────────────────────

// CreateCapabilityRequest is the body for registering a capability.
type CreateCapabilityRequest struct {
	Code          string         `json:"code" description:"Dot-separated capability code"`
	Name          string         `json:"name" description:"Display name"`
	Description   string         `json:"description,omitempty" description:"Human-readable description"`
	Sensitivity   string         `json:"sensitivity,omitempty" description:"Sensitivity level (low, normal, high, critical)"`
	RequiresAudit bool           `json:"requires_audit,omitempty" description:"Whether every use must be audited"`
	Metadata      map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateCapabilityRequest is the body for updating a capability.
type UpdateCapabilityRequest struct {
	Name          string         `json:"name,omitempty" description:"Display name"`
	Description   string         `json:"description,omitempty" description:"Human-readable description"`
	Sensitivity   string         `json:"sensitivity,omitempty" description:"Sensitivity level"`
	RequiresAudit *bool          `json:"requires_audit,omitempty" description:"Audit requirement flag"`
	Active        *bool          `json:"active,omitempty" description:"Active flag"`
	Metadata      map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetCapabilityRequest is the path parameter for getting a capability.
type GetCapabilityRequest struct {
	CapabilityID string `path:"capabilityId" description:"Capability ID"`
}

// ListCapabilitiesRequest holds query parameters for listing capabilities.
type ListCapabilitiesRequest struct {
	Sensitivity   string `query:"sensitivity" description:"Filter by sensitivity level"`
	RequiresAudit string `query:"requires_audit" description:"Filter by audit requirement (true/false)"`
	Active        string `query:"active" description:"Filter by active status (true/false)"`
	Search        string `query:"search" description:"Search by code or name"`
	Limit         int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset        int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Group requests
// ──────────────────────────────────────────────────

// CreateGroupRequest is the body for creating a group.
type CreateGroupRequest struct {
	Code        string         `json:"code" description:"URL-safe group code"`
	Name        string         `json:"name" description:"Display name"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateGroupRequest is the body for updating a group.
type UpdateGroupRequest struct {
	Name        string         `json:"name,omitempty" description:"Display name"`
	Description string         `json:"description,omitempty" description:"Human-readable description"`
	Active      *bool          `json:"active,omitempty" description:"Active flag"`
	Metadata    map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetGroupRequest is the path parameter for getting a group.
type GetGroupRequest struct {
	GroupID string `path:"groupId" description:"Group ID"`
}

// ListGroupsRequest holds query parameters for listing groups.
type ListGroupsRequest struct {
	Active string `query:"active" description:"Filter by active status (true/false)"`
	Search string `query:"search" description:"Search by code or name"`
	Limit  int    `query:"limit" description:"Maximum results"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// AttachCapabilityRequest is the body for attaching a capability to a group.
type AttachCapabilityRequest struct {
	CapabilityID string `json:"capability_id" description:"Capability ID to attach"`
}

// SetGroupCapabilitiesRequest replaces a group's capability set.
type SetGroupCapabilitiesRequest struct {
	CapabilityIDs []string `json:"capability_ids" description:"Full capability ID set for the group"`
}

// ──────────────────────────────────────────────────
// Membership requests
// ──────────────────────────────────────────────────

// AssignGroupRequest is the body for assigning a user to a group.
type AssignGroupRequest struct {
	UserID     string `json:"user_id" description:"User identifier"`
	GroupID    string `json:"group_id" description:"Group ID to assign"`
	ExpiresAt  string `json:"expires_at,omitempty" description:"Expiration time (RFC3339)"`
	AssignedBy string `json:"assigned_by,omitempty" description:"Actor performing the assignment"`
}

// ListMembershipsRequest holds query parameters.
type ListMembershipsRequest struct {
	UserID  string `query:"user_id" description:"Filter by user ID"`
	GroupID string `query:"group_id" description:"Filter by group ID"`
	Active  string `query:"active" description:"Filter by active status (true/false)"`
	Limit   int    `query:"limit" description:"Maximum results"`
	Offset  int    `query:"offset" description:"Results to skip"`
}

// UserRequest is the path parameter for user-scoped lookups.
type UserRequest struct {
	UserID string `path:"userId" description:"User identifier"`
}

// ──────────────────────────────────────────────────
// Grant requests
// ──────────────────────────────────────────────────

// CreateGrantRequest is the body for creating an exceptional grant or revoke.
type CreateGrantRequest struct {
	UserID         string `json:"user_id" description:"User identifier"`
	CapabilityCode string `json:"capability_code" description:"Capability code"`
	Kind           string `json:"kind" description:"Grant kind (grant or revoke)"`
	Reason         string `json:"reason" description:"Justification for the override"`
	AuthorizedBy   string `json:"authorized_by" description:"Actor authorizing the override"`
	EndAt          string `json:"end_at,omitempty" description:"Expiration time (RFC3339)"`
}

// GetGrantRequest is the path parameter for getting a grant.
type GetGrantRequest struct {
	GrantID string `path:"grantId" description:"Grant ID"`
}

// ListGrantsRequest holds query parameters.
type ListGrantsRequest struct {
	UserID         string `query:"user_id" description:"Filter by user ID"`
	CapabilityCode string `query:"capability_code" description:"Filter by capability code"`
	Kind           string `query:"kind" description:"Filter by kind (grant/revoke)"`
	Active         string `query:"active" description:"Filter by active status (true/false)"`
	Limit          int    `query:"limit" description:"Maximum results"`
	Offset         int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Audit requests
// ──────────────────────────────────────────────────

// ListAuditEntriesRequest holds query parameters for querying audit entries.
type ListAuditEntriesRequest struct {
	UserID         string `query:"user_id" description:"Filter by user ID"`
	CapabilityCode string `query:"capability_code" description:"Filter by capability code"`
	Outcome        string `query:"outcome" description:"Filter by outcome (granted/denied)"`
	ResourceID     string `query:"resource_id" description:"Filter by resource ID"`
	After          string `query:"after" description:"After timestamp (RFC3339)"`
	Before         string `query:"before" description:"Before timestamp (RFC3339)"`
	Limit          int    `query:"limit" description:"Maximum results"`
	Offset         int    `query:"offset" description:"Results to skip"`
}

// GetAuditEntryRequest is the path parameter for getting an audit entry.
type GetAuditEntryRequest struct {
	EntryID string `path:"entryId" description:"Audit entry ID"`
}
