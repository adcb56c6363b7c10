package logging

import (
	"context"
	"log/slog"

	"danmu/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTitle is the standardized structured logging key for the raw video title.
	FieldTitle = "title"
	// FieldSourceID is the standardized structured logging key for remote source identifiers.
	FieldSourceID = "source_id"
	// FieldEpisodeIndex is the standardized structured logging key for the 0-based episode index.
	FieldEpisodeIndex = "episode_index"
	// FieldEpisodeID is the standardized structured logging key for remote episode identifiers.
	FieldEpisodeID = "episode_id"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldDecisionType tags log lines that record a pipeline decision.
	FieldDecisionType = "decision_type"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if title, ok := services.TitleFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTitle, title))
	}
	if index, ok := services.EpisodeIndexFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldEpisodeIndex, index))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}
	return logger.With(args...)
}
