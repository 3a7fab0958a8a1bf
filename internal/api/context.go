package api

import (
	"context"

	"eventmarket/internal/actor"
)

type ctxKey string

const ctxKeyActor ctxKey = "actor"

func WithActor(ctx context.Context, a *actor.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

// ActorFromContext returns the authenticated actor, or nil. Handlers use
// it only to pass the actor on explicitly; the engine never reads it.
func ActorFromContext(ctx context.Context) *actor.Actor {
	v := ctx.Value(ctxKeyActor)
	if v == nil {
		return nil
	}
	a, _ := v.(*actor.Actor)
	return a
}
