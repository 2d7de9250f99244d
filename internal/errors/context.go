// Package errors retains the request-id / production-mode context
// helpers middleware packages are built against; the rest of this
// package's original error-category hierarchy and GraphQL presenter have
// been trimmed (see DESIGN.md) since nothing in this module serves
// GraphQL requests.
package errors

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey is the context key for request correlation ID.
	RequestIDKey contextKey = "requestId"
	// ProductionModeKey is the context key for production mode flag.
	ProductionModeKey contextKey = "productionMode"
)

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// IsProductionMode checks if running in production mode.
func IsProductionMode(ctx context.Context) bool {
	if prod, ok := ctx.Value(ProductionModeKey).(bool); ok {
		return prod
	}
	return false
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithProductionMode sets the production mode flag in context.
func WithProductionMode(ctx context.Context, production bool) context.Context {
	return context.WithValue(ctx, ProductionModeKey, production)
}
