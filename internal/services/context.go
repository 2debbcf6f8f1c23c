package services

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	stageKey   contextKey = "stage"
	subjectKey contextKey = "subject"
)

// WithRunID annotates context with the batch run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithSubject annotates context with the entity being processed (restaurant
// slug or dish name).
func WithSubject(ctx context.Context, subject string) context.Context {
	if subject == "" {
		return ctx
	}
	return context.WithValue(ctx, subjectKey, subject)
}

// SubjectFromContext returns the subject if present.
func SubjectFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(subjectKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
