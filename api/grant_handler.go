package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/sentinel/grant"
	"github.com/xraph/sentinel/id"
)

func (a *API) registerGrantRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("grants"))

	if err := g.POST("/grants", a.createGrant,
		forge.WithSummary("Create exceptional grant"),
		forge.WithDescription("Creates an exceptional grant or revoke for a user, effective immediately."),
		forge.WithOperationID("createGrant"),
		forge.WithRequestSchema(CreateGrantRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/grants/:grantId", a.getGrant,
		forge.WithSummary("Get grant"),
		forge.WithDescription("Returns details of a specific grant."),
		forge.WithOperationID("getGrant"),
		forge.WithResponseSchema(http.StatusOK, "Grant details", &grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/grants/:grantId", a.deactivateGrant,
		forge.WithSummary("Deactivate grant"),
		forge.WithDescription("Deactivates a grant so it no longer participates in evaluation."),
		forge.WithOperationID("deactivateGrant"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/grants", a.listGrants,
		forge.WithSummary("List grants"),
		forge.WithOperationID("listGrants"),
		forge.WithRequestSchema(ListGrantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Grant list", []*grant.Grant{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createGrant(ctx forge.Context, req *CreateGrantRequest) (*struct{}, error) {
	if req.UserID == "" || req.CapabilityCode == "" {
		return nil, forge.BadRequest("user_id and capability_code are required")
	}

	var endAt *time.Time
	if req.EndAt != "" {
		t, err := time.Parse(time.RFC3339, req.EndAt)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid end_at: %v", err))
		}
		endAt = &t
	}

	switch grant.Kind(req.Kind) {
	case grant.KindGrant:
		if err := a.eng.GrantCapability(ctx.Context(), req.UserID, req.CapabilityCode, req.Reason, req.AuthorizedBy, endAt); err != nil {
			return nil, mapError(err)
		}
	case grant.KindRevoke:
		if err := a.eng.RevokeCapability(ctx.Context(), req.UserID, req.CapabilityCode, req.Reason, req.AuthorizedBy, endAt); err != nil {
			return nil, mapError(err)
		}
	default:
		return nil, forge.BadRequest("kind must be grant or revoke")
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) getGrant(ctx forge.Context, _ *GetGrantRequest) (*grant.Grant, error) {
	grantID, err := id.ParseGrantID(ctx.Param("grantId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid grant ID: %v", err))
	}

	g, err := a.eng.Store().GetGrant(ctx.Context(), grantID)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusOK, g)
}

func (a *API) deactivateGrant(ctx forge.Context, _ *GetGrantRequest) (*struct{}, error) {
	grantID, err := id.ParseGrantID(ctx.Param("grantId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid grant ID: %v", err))
	}

	// Get before deactivate for cache invalidation.
	g, getErr := a.eng.Store().GetGrant(ctx.Context(), grantID)

	if err := a.eng.Store().DeactivateGrant(ctx.Context(), grantID); err != nil {
		return nil, mapError(err)
	}

	if getErr == nil {
		a.eng.InvalidateUser(ctx.Context(), g.UserID)
	}
	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitGrantDeactivated(ctx.Context(), grantID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listGrants(ctx forge.Context, req *ListGrantsRequest) ([]*grant.Grant, error) {
	filter := &grant.ListFilter{
		UserID:         req.UserID,
		CapabilityCode: req.CapabilityCode,
		Limit:          defaultLimit(req.Limit),
		Offset:         req.Offset,
	}

	if req.Kind != "" {
		filter.Kind = grant.Kind(req.Kind)
	}
	switch req.Active {
	case "true":
		t := true
		filter.Active = &t
	case "false":
		f := false
		filter.Active = &f
	}

	grants, err := a.eng.Store().ListGrants(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}
