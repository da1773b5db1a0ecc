package middleware

import "context"

type contextKey int

const (
	ctxUserID contextKey = iota
	ctxWorkflowToken
	ctxRequestID
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// UserIDFromContext returns the authenticated user id or "".
func UserIDFromContext(ctx context.Context) string { return stringFrom(ctx, ctxUserID) }

// WithUserID stores the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withString(ctx, ctxUserID, userID)
}

// WorkflowTokenFromContext returns the relocation workflow token sent with the request.
func WorkflowTokenFromContext(ctx context.Context) string { return stringFrom(ctx, ctxWorkflowToken) }

func WithWorkflowToken(ctx context.Context, token string) context.Context {
	return withString(ctx, ctxWorkflowToken, token)
}

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string { return stringFrom(ctx, ctxRequestID) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, ctxRequestID, requestID)
}
