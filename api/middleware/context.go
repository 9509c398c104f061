package middleware

import "context"

type contextKey string

const (
	ctxOwnerID    contextKey = "owner_id"
	ctxOwnerEmail contextKey = "owner_email"
)

func OwnerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOwnerID).(string); ok {
		return v
	}
	return ""
}

func OwnerEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOwnerEmail).(string); ok {
		return v
	}
	return ""
}

// WithOwnerID injects the authenticated owner into the context.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOwnerID, ownerID)
}
