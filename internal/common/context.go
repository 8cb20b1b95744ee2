package common

import "context"

type contextKey string

const contextKeyJobID contextKey = "job_id"

// WithJobID tags a context with the pipeline job id so lower layers can
// attribute their log lines without threading the id through every call.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, contextKeyJobID, jobID)
}

// JobIDFromContext returns the job id or "" when the context carries none.
func JobIDFromContext(ctx context.Context) string {
	if jobID, ok := ctx.Value(contextKeyJobID).(string); ok {
		return jobID
	}
	return ""
}
