package logging

import (
	"context"
	"log/slog"

	"plexshelf/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for matching run identifiers.
	FieldRunID = "run_id"
	// FieldItemID is the standardized structured logging key for catalog item identifiers.
	FieldItemID = "item_id"
	// FieldMatchID is the standardized structured logging key for series match identifiers.
	FieldMatchID = "match_id"
	// FieldSeries is the standardized structured logging key for series names.
	FieldSeries = "series"
	// FieldStage is the standardized structured logging key for matching stage names.
	FieldStage = "stage"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for log filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldDecisionType names the kind of automated decision being logged.
	FieldDecisionType = "decision_type"
	// FieldDecisionResult is the outcome of a logged decision.
	FieldDecisionResult = "decision_result"
	// FieldDecisionReason explains a logged decision.
	FieldDecisionReason = "decision_reason"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if id, ok := services.ItemIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldItemID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
