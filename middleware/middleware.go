// Package middleware provides HTTP authorization middleware for Sentinel.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	"github.com/xraph/sentinel"
)

// Require enforces a single capability. It resolves the user from the
// request context (Forge user > Sentinel actor > anonymous) and denies
// with 403 when the capability is not held.
func Require(eng *sentinel.Engine, capabilityCode string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			err := eng.Enforce(ctx.Context(), &sentinel.AuthorizeRequest{
				UserID:     resolveUser(ctx),
				Capability: capabilityCode,
				ResourceID: ctx.Param("id"),
			})
			if err != nil {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if the user holds ANY of the capabilities.
func RequireAny(eng *sentinel.Engine, capabilityCodes ...string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			userID := resolveUser(ctx)
			resourceID := ctx.Param("id")
			for _, code := range capabilityCodes {
				err := eng.Enforce(ctx.Context(), &sentinel.AuthorizeRequest{
					UserID:     userID,
					Capability: code,
					ResourceID: resourceID,
				})
				if err == nil {
					return next(ctx)
				}
			}
			return denyResponse(ctx)
		}
	}
}

// RequireAll allows the request only if the user holds ALL capabilities.
func RequireAll(eng *sentinel.Engine, capabilityCodes ...string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			userID := resolveUser(ctx)
			resourceID := ctx.Param("id")
			for _, code := range capabilityCodes {
				err := eng.Enforce(ctx.Context(), &sentinel.AuthorizeRequest{
					UserID:     userID,
					Capability: code,
					ResourceID: resourceID,
				})
				if err != nil {
					return denyResponse(ctx)
				}
			}
			return next(ctx)
		}
	}
}

// resolveUser extracts the user from context.
// Priority: Forge user ID (from Authsome) → Sentinel actor → anonymous.
func resolveUser(ctx forge.Context) string {
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return userID
	}
	if actor := sentinel.ActorFromContext(ctx.Context()); actor != "" {
		return actor
	}
	return "anonymous"
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}
