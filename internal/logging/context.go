package logging

import (
	"context"
	"log/slog"

	"menuscope/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldSubject is the standardized structured logging key for the restaurant or dish being processed.
	FieldSubject = "subject"
	// FieldCorrelationID is the standardized structured logging key for run correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering (e.g. estimator_failed).
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if subject, ok := services.SubjectFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSubject, subject))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return logger.With(args...)
}
