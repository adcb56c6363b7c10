package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	titleKey     contextKey = "title"
	episodeKey   contextKey = "episode_index"
)

// WithRequestID annotates context with a correlation identifier for one
// resolution run.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTitle annotates context with the raw title being resolved.
func WithTitle(ctx context.Context, title string) context.Context {
	if title == "" {
		return ctx
	}
	return context.WithValue(ctx, titleKey, title)
}

// TitleFromContext returns the title under resolution if present.
func TitleFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(titleKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithEpisodeIndex annotates context with the requested episode index.
func WithEpisodeIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, episodeKey, index)
}

// EpisodeIndexFromContext extracts the episode index if present.
func EpisodeIndexFromContext(ctx context.Context) (int, bool) {
	switch v := ctx.Value(episodeKey).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}
