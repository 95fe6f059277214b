package api

import (
	"context"
	"time"

	"github.com/linesmerrill/forum-api/services"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying the authenticated actor
func WithActor(ctx context.Context, actor services.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the authenticated actor of a request context
func ActorFrom(ctx context.Context) (services.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(services.Actor)
	return actor, ok
}
