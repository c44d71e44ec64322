package shared

import "context"

type contextKey string

const actorKey contextKey = "actor"

// Actor identifies the authenticated caller. Business membership is
// verified by the caller-side authorization layer before any request
// reaches this engine; it is carried here for attribution only.
type Actor struct {
	UserID     int64
	BusinessID int64
}

// ContextWithActor stores the actor in the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the actor stored in the context, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
