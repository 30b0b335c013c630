package middleware

import "context"

type contextKey string

const (
	ctxCallerID    contextKey = "caller_id"
	ctxCallerEmail contextKey = "caller_email"
)

func CallerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCallerID).(string); ok {
		return v
	}
	return ""
}

func CallerEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCallerEmail).(string); ok {
		return v
	}
	return ""
}

// WithCallerID injects the authenticated caller into the context.
func WithCallerID(ctx context.Context, callerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCallerID, callerID)
}
