package api

import (
	"errors"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/sentinel"
)

func (a *API) registerAuthorizeRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/authorize", a.authorize,
		forge.WithSummary("Authorization decision"),
		forge.WithDescription("Evaluates whether the user holds the capability, applying revoke, grant, and group stages in order."),
		forge.WithOperationID("authzAuthorize"),
		forge.WithRequestSchema(AuthorizeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Decision", AuthorizeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce authorization"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(AuthorizeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", AuthorizeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/batch-authorize", a.batchAuthorize,
		forge.WithSummary("Batch authorization"),
		forge.WithDescription("Evaluates multiple authorization requests in one call."),
		forge.WithOperationID("authzBatchAuthorize"),
		forge.WithRequestSchema(BatchAuthorizeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch decisions", BatchAuthorizeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) authorize(ctx forge.Context, req *AuthorizeRequest) (*AuthorizeResponse, error) {
	if req.UserID == "" || req.Capability == "" {
		return nil, forge.BadRequest("user_id and capability are required")
	}

	dec, err := a.evaluate(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toAuthorizeResponse(dec)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *AuthorizeRequest) (*AuthorizeResponse, error) {
	if req.UserID == "" || req.Capability == "" {
		return nil, forge.BadRequest("user_id and capability are required")
	}

	dec, err := a.evaluate(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toAuthorizeResponse(dec)
	if !dec.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchAuthorize(ctx forge.Context, req *BatchAuthorizeRequest) (*BatchAuthorizeResponse, error) {
	if len(req.Requests) == 0 {
		return nil, forge.BadRequest("requests cannot be empty")
	}

	results := make([]AuthorizeResponse, len(req.Requests))
	for i, r := range req.Requests {
		dec, err := a.evaluate(ctx, &r)
		if err != nil {
			return nil, mapError(err)
		}
		results[i] = *toAuthorizeResponse(dec)
	}

	resp := &BatchAuthorizeResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

// evaluate runs the engine and tolerates audit sink failures. The decision
// already reflects Audited=false in that case, which the caller can inspect.
func (a *API) evaluate(ctx forge.Context, req *AuthorizeRequest) (*sentinel.Decision, error) {
	dec, err := a.eng.Authorize(ctx.Context(), toEngineRequest(req))
	if err != nil {
		var auditErr *sentinel.AuditError
		if !errors.As(err, &auditErr) {
			return nil, err
		}
	}
	return dec, nil
}

// Request origin (IP, user agent) is resolved by the engine from the
// context, see sentinel.WithOrigin.
func toEngineRequest(r *AuthorizeRequest) *sentinel.AuthorizeRequest {
	return &sentinel.AuthorizeRequest{
		UserID:     r.UserID,
		Capability: r.Capability,
		ResourceID: r.ResourceID,
		Metadata:   r.Metadata,
	}
}

func toAuthorizeResponse(d *sentinel.Decision) *AuthorizeResponse {
	return &AuthorizeResponse{
		Allowed:    d.Allowed,
		Stage:      string(d.Stage),
		Reason:     d.Reason,
		Audited:    d.Audited,
		EvalTimeNs: d.EvalTimeNs,
	}
}
