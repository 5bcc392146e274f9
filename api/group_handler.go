package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/group"
	"github.com/xraph/sentinel/id"
)

func (a *API) registerGroupRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("groups"))

	if err := g.POST("/groups", a.createGroup,
		forge.WithSummary("Create group"),
		forge.WithDescription("Creates a new permission group."),
		forge.WithOperationID("createGroup"),
		forge.WithRequestSchema(CreateGroupRequest{}),
		forge.WithCreatedResponse(&group.Group{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/groups/:groupId", a.getGroup,
		forge.WithSummary("Get group"),
		forge.WithDescription("Returns details of a specific group."),
		forge.WithOperationID("getGroup"),
		forge.WithResponseSchema(http.StatusOK, "Group details", &group.Group{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/groups/:groupId", a.updateGroup,
		forge.WithSummary("Update group"),
		forge.WithDescription("Updates an existing group. The code is immutable."),
		forge.WithOperationID("updateGroup"),
		forge.WithRequestSchema(UpdateGroupRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated group", &group.Group{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/groups/:groupId", a.deleteGroup,
		forge.WithSummary("Delete group"),
		forge.WithDescription("Deletes a group and its capability bindings."),
		forge.WithOperationID("deleteGroup"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/groups", a.listGroups,
		forge.WithSummary("List groups"),
		forge.WithDescription("Lists groups with optional filters."),
		forge.WithOperationID("listGroups"),
		forge.WithRequestSchema(ListGroupsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Group list", []*group.Group{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/groups/:groupId/capabilities", a.attachCapabilityToGroup,
		forge.WithSummary("Attach capability to group"),
		forge.WithDescription("Attaches a capability to a group."),
		forge.WithOperationID("attachCapability"),
		forge.WithRequestSchema(AttachCapabilityRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/groups/:groupId/capabilities", a.setGroupCapabilities,
		forge.WithSummary("Replace group capabilities"),
		forge.WithDescription("Replaces the full capability set of a group."),
		forge.WithOperationID("setGroupCapabilities"),
		forge.WithRequestSchema(SetGroupCapabilitiesRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/groups/:groupId/capabilities", a.listGroupCapabilities,
		forge.WithSummary("List group capabilities"),
		forge.WithDescription("Returns the capabilities attached to a group."),
		forge.WithOperationID("listGroupCapabilities"),
		forge.WithResponseSchema(http.StatusOK, "Capability list", []*capability.Capability{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/groups/:groupId/capabilities/:capabilityId", a.detachCapabilityFromGroup,
		forge.WithSummary("Detach capability from group"),
		forge.WithDescription("Detaches a capability from a group."),
		forge.WithOperationID("detachCapability"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createGroup(ctx forge.Context, req *CreateGroupRequest) (*group.Group, error) {
	g := &group.Group{
		ID:          id.NewGroupID(),
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
		Metadata:    req.Metadata,
	}
	if err := g.Validate(); err != nil {
		return nil, mapError(err)
	}

	if err := a.eng.Store().CreateGroup(ctx.Context(), g); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitGroupCreated(ctx.Context(), g)
	}

	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) getGroup(ctx forge.Context, _ *GetGroupRequest) (*group.Group, error) {
	groupID, err := id.ParseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid group ID: %v", err))
	}

	g, err := a.eng.Store().GetGroup(ctx.Context(), groupID)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusOK, g)
}

func (a *API) updateGroup(ctx forge.Context, req *UpdateGroupRequest) (*group.Group, error) {
	groupID, err := id.ParseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid group ID: %v", err))
	}

	g, err := a.eng.Store().GetGroup(ctx.Context(), groupID)
	if err != nil {
		return nil, mapError(err)
	}

	if req.Name != "" {
		g.Name = req.Name
	}
	if req.Description != "" {
		g.Description = req.Description
	}
	if req.Active != nil {
		g.Active = *req.Active
	}
	if req.Metadata != nil {
		g.Metadata = req.Metadata
	}
	if err := g.Validate(); err != nil {
		return nil, mapError(err)
	}

	if err := a.eng.Store().UpdateGroup(ctx.Context(), g); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitGroupUpdated(ctx.Context(), g)
	}

	return g, ctx.JSON(http.StatusOK, g)
}

func (a *API) deleteGroup(ctx forge.Context, _ *GetGroupRequest) (*struct{}, error) {
	groupID, err := id.ParseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid group ID: %v", err))
	}

	if err := a.eng.Store().DeleteGroup(ctx.Context(), groupID); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitGroupDeleted(ctx.Context(), groupID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listGroups(ctx forge.Context, req *ListGroupsRequest) ([]*group.Group, error) {
	filter := &group.ListFilter{
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	switch req.Active {
	case "true":
		t := true
		filter.Active = &t
	case "false":
		f := false
		filter.Active = &f
	}

	groups, err := a.eng.Store().ListGroups(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return groups, ctx.JSON(http.StatusOK, groups)
}

func (a *API) attachCapabilityToGroup(ctx forge.Context, req *AttachCapabilityRequest) (*struct{}, error) {
	groupID, err := id.ParseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid group ID: %v", err))
	}

	capID, err := id.ParseCapabilityID(req.CapabilityID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid capability ID: %v", err))
	}

	if err := a.eng.Store().AttachCapability(ctx.Context(), groupID, capID); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitCapabilityAttached(ctx.Context(), groupID, capID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) setGroupCapabilities(ctx forge.Context, req *SetGroupCapabilitiesRequest) (*struct{}, error) {
	groupID, err := id.ParseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid group ID: %v", err))
	}

	capIDs := make([]id.CapabilityID, len(req.CapabilityIDs))
	for i, raw := range req.CapabilityIDs {
		capID, err := id.ParseCapabilityID(raw)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid capability ID %q: %v", raw, err))
		}
		capIDs[i] = capID
	}

	if err := a.eng.Store().SetGroupCapabilities(ctx.Context(), groupID, capIDs); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listGroupCapabilities(ctx forge.Context, _ *GetGroupRequest) ([]*capability.Capability, error) {
	groupID, err := id.ParseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid group ID: %v", err))
	}

	caps, err := a.eng.Store().ListGroupCapabilities(ctx.Context(), groupID)
	if err != nil {
		return nil, mapError(err)
	}

	return caps, ctx.JSON(http.StatusOK, caps)
}

func (a *API) detachCapabilityFromGroup(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	groupID, err := id.ParseGroupID(ctx.Param("groupId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid group ID: %v", err))
	}

	capID, err := id.ParseCapabilityID(ctx.Param("capabilityId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid capability ID: %v", err))
	}

	if err := a.eng.Store().DetachCapability(ctx.Context(), groupID, capID); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitCapabilityDetached(ctx.Context(), groupID, capID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
