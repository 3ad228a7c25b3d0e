package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID is the standardized structured logging key for conversion job identifiers.
	FieldJobID = "job_id"
	// FieldMode is the standardized structured logging key for the source mode (mpo, sbs, pair).
	FieldMode = "mode"
	// FieldSource is the standardized structured logging key for the input file name.
	FieldSource = "source"
	// FieldOutput is the standardized structured logging key for the written file.
	FieldOutput = "output"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the user.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey string

const (
	jobIDKey  contextKey = "job_id"
	modeKey   contextKey = "mode"
	sourceKey contextKey = "source"
)

// WithJobID tags ctx with a conversion job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	return withString(ctx, jobIDKey, id)
}

// WithMode tags ctx with the source mode.
func WithMode(ctx context.Context, mode string) context.Context {
	return withString(ctx, modeKey, mode)
}

// WithSource tags ctx with the input file being converted.
func WithSource(ctx context.Context, source string) context.Context {
	return withString(ctx, sourceKey, source)
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	return value, ok && value != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	fields := make([]slog.Attr, 0, 3)
	if mode, ok := stringFrom(ctx, modeKey); ok {
		fields = append(fields, slog.String(FieldMode, mode))
	}
	if id, ok := stringFrom(ctx, jobIDKey); ok {
		fields = append(fields, slog.String(FieldJobID, id))
	}
	if source, ok := stringFrom(ctx, sourceKey); ok {
		fields = append(fields, slog.String(FieldSource, source))
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
