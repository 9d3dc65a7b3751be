package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	filenameKey  contextKey = "filename"
)

// WithRequestID annotates context with the translation request identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(requestIDKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithFilename annotates context with the uploaded file name.
func WithFilename(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, filenameKey, name)
}

// FilenameFromContext returns the uploaded file name if present.
func FilenameFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(filenameKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
