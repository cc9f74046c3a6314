package security

import "context"

type actorKey struct{}

// WithActor adds the authenticated actor to context.
// Used by middleware to propagate the principal through the request chain.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor retrieves the actor from context.
// Returns nil when the request is unauthenticated.
func GetActor(ctx context.Context) *Actor {
	if a, ok := ctx.Value(actorKey{}).(*Actor); ok {
		return a
	}
	return nil
}

// GetActorID retrieves the actor ID from context as a string.
// Returns empty string if not found.
//
// Usage in domain layer:
//
//	if actorID := security.GetActorID(ctx); actorID != "" {
//	    entity.CreatedBy = actorID
//	}
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.ID.String()
	}
	return ""
}
