package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	taskIndexKey contextKey = "task_index"
	presetKey    contextKey = "preset"
)

// WithRunID annotates context with the run identifier.
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

// WithTaskIndex annotates context with the 1-based overall task position.
func WithTaskIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, taskIndexKey, index)
}

// TaskIndexFromContext extracts the task position if present.
func TaskIndexFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(taskIndexKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithPreset annotates context with the preset/profile label in use.
func WithPreset(ctx context.Context, label string) context.Context {
	if label == "" {
		return ctx
	}
	return context.WithValue(ctx, presetKey, label)
}

// PresetFromContext returns the preset label if present.
func PresetFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(presetKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
