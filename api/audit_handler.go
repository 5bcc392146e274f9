package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/sentinel/audit"
	"github.com/xraph/sentinel/id"
)

func (a *API) registerAuditRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("audit"))

	if err := g.GET("/audit-entries", a.listAuditEntries,
		forge.WithSummary("Query audit entries"),
		forge.WithDescription("Returns audit entries with optional filters. The audit trail is append-only."),
		forge.WithOperationID("listAuditEntries"),
		forge.WithRequestSchema(ListAuditEntriesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Audit entry list", []*audit.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/audit-entries/:entryId", a.getAuditEntry,
		forge.WithSummary("Get audit entry"),
		forge.WithDescription("Returns a single audit entry."),
		forge.WithOperationID("getAuditEntry"),
		forge.WithResponseSchema(http.StatusOK, "Audit entry", &audit.Entry{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listAuditEntries(ctx forge.Context, req *ListAuditEntriesRequest) ([]*audit.Entry, error) {
	filter := &audit.QueryFilter{
		UserID:         req.UserID,
		CapabilityCode: req.CapabilityCode,
		ResourceID:     req.ResourceID,
		Limit:          defaultLimit(req.Limit),
		Offset:         req.Offset,
	}

	if req.Outcome != "" {
		filter.Outcome = audit.Outcome(req.Outcome)
	}
	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}

	entries, err := a.eng.Store().ListAuditEntries(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return entries, ctx.JSON(http.StatusOK, entries)
}

func (a *API) getAuditEntry(ctx forge.Context, _ *GetAuditEntryRequest) (*audit.Entry, error) {
	entryID, err := id.ParseAuditEntryID(ctx.Param("entryId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid audit entry ID: %v", err))
	}

	e, err := a.eng.Store().GetAuditEntry(ctx.Context(), entryID)
	if err != nil {
		return nil, mapError(err)
	}

	return e, ctx.JSON(http.StatusOK, e)
}
