// Package logging builds the slog loggers used across the resolution
// pipeline and defines the standardized structured field names.
package logging
