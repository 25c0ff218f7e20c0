package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/platform/logger"
)

// TraceIDLength is the number of hex characters in a generated trace ID.
const TraceIDLength = 32

// SetTraceID adds a fresh trace ID to the context.
// This is useful for correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	return logger.WithTraceID(ctx, generateTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	return logger.TraceID(ctx)
}

// generateTraceID returns a random UUID in its 32-character hex form.
func generateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
