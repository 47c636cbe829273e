// Package reqcontext carries per-request identifiers and a scoped logger
// through context.Context across the control plane's middleware chain.
package reqcontext

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContextKey is the type for context keys, kept unexported-safe by using a
// distinct defined type rather than a bare string.
type ContextKey string

const (
	requestIDKey ContextKey = "request_id"
	loggerKey    ContextKey = "logger"

	// RequestIDHeader is the HTTP header carrying a caller-supplied or
	// server-generated request ID.
	RequestIDHeader = "X-Request-Id"

	// MaxRequestIDLength bounds a caller-supplied request ID.
	MaxRequestIDLength = 256
)

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,256}$`)

// IsValidRequestID reports whether id is a well-formed request ID.
func IsValidRequestID(id string) bool {
	if id == "" || len(id) > MaxRequestIDLength {
		return false
	}
	return requestIDPattern.MatchString(id)
}

// GenerateRequestID returns a fresh UUID v4 request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// GetOrGenerateRequestID returns providedID if it is valid, otherwise a
// freshly generated one.
func GetOrGenerateRequestID(providedID string) string {
	if IsValidRequestID(providedID) {
		return providedID
	}
	return GenerateRequestID()
}

// WithRequestID attaches a request ID to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request ID from ctx, or "" if absent.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithLogger attaches a logger to ctx.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger retrieves the logger from ctx, falling back to a no-op logger.
func GetLogger(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok && logger != nil {
			return logger
		}
	}
	return zap.NewNop().Sugar()
}
