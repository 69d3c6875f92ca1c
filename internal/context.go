package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextUserKey        ctxKey = "userID"
	ContextClientRouteKey ctxKey = "clientRoute"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(ContextUserKey).(string); ok {
		return userID
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextUserKey, userID)
}

// ContextWithClientRoute marks the request as client-facing. Navigation and
// module visibility branch on this flag; admin route groups leave it unset.
func ContextWithClientRoute(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextClientRouteKey, true)
}

func IsClientRoute(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if isClient, ok := ctx.Value(ContextClientRouteKey).(bool); ok {
		return isClient
	}
	return false
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
