package auth

import (
	"context"
	"errors"
)

// Actor is the authenticated identity performing an operation.
// Lifecycle services take it as an explicit parameter; it is never read from
// ambient/global state inside business logic.
type Actor struct {
	ID     string
	Role   string
	Active bool
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

var ErrNoActor = errors.New("auth: no actor in context")

// ActorFrom extracts the request actor placed by the auth middleware.
func ActorFrom(ctx context.Context) (Actor, error) {
	if a, ok := ctx.Value(ctxKey{}).(Actor); ok && a.ID != "" {
		return a, nil
	}
	return Actor{}, ErrNoActor
}
