package review

import "context"

// Logger is the structured logging port for the review use case. It lets the
// orchestrator report dropped candidates and submission progress without
// binding to a concrete logging backend.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}
