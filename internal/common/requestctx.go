package common

import "context"

// RequestContext carries per-request values set by the HTTP middleware.
type RequestContext struct {
	CorrelationID string
}

type contextKey int

const requestContextKey contextKey = iota

// WithRequestContext stores a RequestContext in ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// RequestContextFrom returns the RequestContext stored in ctx, or nil.
func RequestContextFrom(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey).(*RequestContext)
	return rc
}

// CorrelationID returns the request's correlation id, or "" outside a request.
func CorrelationID(ctx context.Context) string {
	if rc := RequestContextFrom(ctx); rc != nil {
		return rc.CorrelationID
	}
	return ""
}
