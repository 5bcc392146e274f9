package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/sentinel/capability"
	"github.com/xraph/sentinel/id"
)

func (a *API) registerCapabilityRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("capabilities"))

	if err := g.POST("/capabilities", a.createCapability,
		forge.WithSummary("Register capability"),
		forge.WithDescription("Registers a new capability in the catalog."),
		forge.WithOperationID("createCapability"),
		forge.WithRequestSchema(CreateCapabilityRequest{}),
		forge.WithCreatedResponse(&capability.Capability{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/capabilities/:capabilityId", a.getCapability,
		forge.WithSummary("Get capability"),
		forge.WithDescription("Returns details of a specific capability."),
		forge.WithOperationID("getCapability"),
		forge.WithResponseSchema(http.StatusOK, "Capability details", &capability.Capability{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/capabilities/:capabilityId", a.updateCapability,
		forge.WithSummary("Update capability"),
		forge.WithDescription("Updates an existing capability. The code is immutable."),
		forge.WithOperationID("updateCapability"),
		forge.WithRequestSchema(UpdateCapabilityRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated capability", &capability.Capability{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/capabilities/:capabilityId", a.deleteCapability,
		forge.WithSummary("Delete capability"),
		forge.WithDescription("Deletes a capability and its group bindings."),
		forge.WithOperationID("deleteCapability"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/capabilities", a.listCapabilities,
		forge.WithSummary("List capabilities"),
		forge.WithDescription("Lists capabilities with optional filters."),
		forge.WithOperationID("listCapabilities"),
		forge.WithRequestSchema(ListCapabilitiesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Capability list", []*capability.Capability{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createCapability(ctx forge.Context, req *CreateCapabilityRequest) (*capability.Capability, error) {
	sensitivity := capability.Sensitivity(req.Sensitivity)
	if req.Sensitivity == "" {
		sensitivity = capability.SensitivityNormal
	}

	c := &capability.Capability{
		ID:            id.NewCapabilityID(),
		Code:          req.Code,
		Name:          req.Name,
		Description:   req.Description,
		Sensitivity:   sensitivity,
		RequiresAudit: req.RequiresAudit,
		Active:        true,
		Metadata:      req.Metadata,
	}
	if err := c.Validate(); err != nil {
		return nil, mapError(err)
	}

	if err := a.eng.Store().CreateCapability(ctx.Context(), c); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitCapabilityCreated(ctx.Context(), c)
	}

	return c, ctx.JSON(http.StatusCreated, c)
}

func (a *API) getCapability(ctx forge.Context, _ *GetCapabilityRequest) (*capability.Capability, error) {
	capID, err := id.ParseCapabilityID(ctx.Param("capabilityId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid capability ID: %v", err))
	}

	c, err := a.eng.Store().GetCapability(ctx.Context(), capID)
	if err != nil {
		return nil, mapError(err)
	}

	return c, ctx.JSON(http.StatusOK, c)
}

func (a *API) updateCapability(ctx forge.Context, req *UpdateCapabilityRequest) (*capability.Capability, error) {
	capID, err := id.ParseCapabilityID(ctx.Param("capabilityId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid capability ID: %v", err))
	}

	c, err := a.eng.Store().GetCapability(ctx.Context(), capID)
	if err != nil {
		return nil, mapError(err)
	}

	if req.Name != "" {
		c.Name = req.Name
	}
	if req.Description != "" {
		c.Description = req.Description
	}
	if req.Sensitivity != "" {
		c.Sensitivity = capability.Sensitivity(req.Sensitivity)
	}
	if req.RequiresAudit != nil {
		c.RequiresAudit = *req.RequiresAudit
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if req.Metadata != nil {
		c.Metadata = req.Metadata
	}
	if err := c.Validate(); err != nil {
		return nil, mapError(err)
	}

	if err := a.eng.Store().UpdateCapability(ctx.Context(), c); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitCapabilityUpdated(ctx.Context(), c)
	}

	return c, ctx.JSON(http.StatusOK, c)
}

func (a *API) deleteCapability(ctx forge.Context, _ *GetCapabilityRequest) (*struct{}, error) {
	capID, err := id.ParseCapabilityID(ctx.Param("capabilityId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid capability ID: %v", err))
	}

	if err := a.eng.Store().DeleteCapability(ctx.Context(), capID); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitCapabilityDeleted(ctx.Context(), capID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listCapabilities(ctx forge.Context, req *ListCapabilitiesRequest) ([]*capability.Capability, error) {
	filter := &capability.ListFilter{
		Sensitivity: capability.Sensitivity(req.Sensitivity),
		Search:      req.Search,
		Limit:       defaultLimit(req.Limit),
		Offset:      req.Offset,
	}

	switch req.RequiresAudit {
	case "true":
		t := true
		filter.RequiresAudit = &t
	case "false":
		f := false
		filter.RequiresAudit = &f
	}
	switch req.Active {
	case "true":
		t := true
		filter.Active = &t
	case "false":
		f := false
		filter.Active = &f
	}

	caps, err := a.eng.Store().ListCapabilities(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return caps, ctx.JSON(http.StatusOK, caps)
}
