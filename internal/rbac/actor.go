// AngelaMos | 2026
// actor.go

package rbac

import (
	"context"
)

// Actor is the authenticated caller with its resolved role. Services take
// it as an explicit argument; the context helpers only carry it from the
// middleware to the handler.
type Actor struct {
	UserID int64
	Email  string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
