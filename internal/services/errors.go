package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNetwork marks transient network failures (connection refused, resets,
	// 5xx responses). Retried before being surfaced.
	ErrNetwork = errors.New("network failure")
	// ErrTimeout marks per-call deadline expiry. Kept distinct from ErrNetwork
	// for logging, same retry treatment.
	ErrTimeout = errors.New("timeout")
	// ErrNotFound marks a remote resource that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed input or responses.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrNetwork
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
