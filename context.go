package sentinel

import "context"

type contextKey int

const (
	ctxKeyActor contextKey = iota
	ctxKeyOrigin
)

// Origin carries the network origin of a request for audit purposes.
type Origin struct {
	IP        string
	UserAgent string
}

// WithActor returns a context carrying the authenticated user's ID.
// Authentication itself is an external concern; callers record the already
// identified user here so middleware and handlers can resolve it.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, userID)
}

// ActorFromContext returns the user ID recorded by WithActor, or "" for an
// anonymous or system caller.
func ActorFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyActor).(string)
	if !ok {
		return ""
	}
	return v
}

// WithOrigin returns a context carrying the request's network origin.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, ctxKeyOrigin, o)
}

// OriginFromContext returns the origin recorded by WithOrigin.
func OriginFromContext(ctx context.Context) Origin {
	v, ok := ctx.Value(ctxKeyOrigin).(Origin)
	if !ok {
		return Origin{}
	}
	return v
}
