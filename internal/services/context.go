package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	invoiceIDKey contextKey = "invoice_id"
	requestIDKey contextKey = "request_id"
)

// WithSessionID annotates context with the browser or CLI session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithInvoiceID annotates context with the checkout invoice being confirmed.
func WithInvoiceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, invoiceIDKey, id)
}

// InvoiceIDFromContext returns the invoice identifier if present.
func InvoiceIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(invoiceIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
