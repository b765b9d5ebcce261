package logging

import (
	"context"
	"log/slog"

	"ffqueue/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for run identifiers.
	FieldRunID = "run_id"
	// FieldTaskIndex is the standardized structured logging key for the 1-based overall task position.
	FieldTaskIndex = "task_index"
	// FieldPreset is the standardized structured logging key for the preset/profile label.
	FieldPreset = "preset"
	// FieldEventType classifies a log line for filtering (task_started, task_failed, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator-facing next step for warnings and errors.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if idx, ok := services.TaskIndexFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldTaskIndex, idx))
	}
	if preset, ok := services.PresetFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPreset, preset))
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
	return logger.With(Args(fields...)...)
}
