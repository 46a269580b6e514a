package util

import "context"

// ContextKey is a type-safe key for context values.
type ContextKey string

const (
	ContextKeyUserID ContextKey = "userId"
)

// GetUserIDFromContext extracts the authenticated user id a run context
// was built with.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	return userID, ok
}

// WithUserID attaches a user id to a context, the way a run context is
// seeded before a workflow run starts.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}
