package api

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/sentinel/id"
	"github.com/xraph/sentinel/membership"
)

func (a *API) registerMembershipRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("memberships"))

	if err := g.POST("/memberships", a.assignGroup,
		forge.WithSummary("Assign group"),
		forge.WithDescription("Assigns a user to a group, optionally with an expiration. Re-assignment refreshes the expiration."),
		forge.WithOperationID("assignGroup"),
		forge.WithRequestSchema(AssignGroupRequest{}),
		forge.WithCreatedResponse(&membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/users/:userId/groups/:groupId", a.revokeGroup,
		forge.WithSummary("Revoke group"),
		forge.WithDescription("Deactivates a user's group membership."),
		forge.WithOperationID("revokeGroup"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/memberships", a.listMemberships,
		forge.WithSummary("List memberships"),
		forge.WithOperationID("listMemberships"),
		forge.WithRequestSchema(ListMembershipsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Membership list", []*membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users/:userId/groups", a.listUserGroups,
		forge.WithSummary("List user groups"),
		forge.WithDescription("Returns the active group memberships of a user."),
		forge.WithOperationID("listUserGroups"),
		forge.WithResponseSchema(http.StatusOK, "Membership list", []*membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/users/:userId/capabilities", a.listUserCapabilities,
		forge.WithSummary("List user capabilities"),
		forge.WithDescription("Returns the effective capability set of a user after applying grants and revokes."),
		forge.WithOperationID("listUserCapabilities"),
		forge.WithResponseSchema(http.StatusOK, "Effective capabilities", UserCapabilitiesResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) assignGroup(ctx forge.Context, req *AssignGroupRequest) (*membership.Membership, error) {
	if req.UserID == "" || req.GroupID == "" {
		return nil, forge.BadRequest("user_id and group_id are required")
	}

	groupID, err := id.ParseGroupID(req.GroupID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid group_id: %v", err))
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid expires_at: %v", err))
		}
		expiresAt = &t
	}

	if err := a.eng.AssignGroup(ctx.Context(), req.UserID, groupID, expiresAt, req.AssignedBy); err != nil {
		return nil, mapError(err)
	}

	m, err := a.eng.Store().GetMembershipByUserGroup(ctx.Context(), req.UserID, groupID)
	if err != nil {
		return nil, mapError(err)
	}

	return m, ctx.JSON(http.StatusCreated, m)
}

func (a *API) revokeGroup(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	userID := ctx.Param("userId")
	groupID, err := id.ParseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid group ID: %v", err))
	}

	if err := a.eng.RevokeGroup(ctx.Context(), userID, groupID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listMemberships(ctx forge.Context, req *ListMembershipsRequest) ([]*membership.Membership, error) {
	filter := &membership.ListFilter{
		UserID: req.UserID,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	if req.GroupID != "" {
		gid, err := id.ParseGroupID(req.GroupID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid group_id: %v", err))
		}
		filter.GroupID = &gid
	}
	switch req.Active {
	case "true":
		t := true
		filter.Active = &t
	case "false":
		f := false
		filter.Active = &f
	}

	memberships, err := a.eng.Store().ListMemberships(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return memberships, ctx.JSON(http.StatusOK, memberships)
}

func (a *API) listUserGroups(ctx forge.Context, _ *UserRequest) ([]*membership.Membership, error) {
	userID := ctx.Param("userId")

	memberships, err := a.eng.Store().ListMembershipsForUser(ctx.Context(), userID)
	if err != nil {
		return nil, mapError(err)
	}

	return memberships, ctx.JSON(http.StatusOK, memberships)
}

func (a *API) listUserCapabilities(ctx forge.Context, _ *UserRequest) (*UserCapabilitiesResponse, error) {
	userID := ctx.Param("userId")

	codes, err := a.eng.EffectiveCapabilities(ctx.Context(), userID)
	if err != nil {
		return nil, mapError(err)
	}

	sorted := codes.ToSlice()
	sort.Strings(sorted)

	resp := &UserCapabilitiesResponse{
		UserID:       userID,
		Capabilities: sorted,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
