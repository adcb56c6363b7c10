// Package dandan provides the minimal danmaku API client used during
// comment resolution.
//
// It exposes the three endpoints the pipeline consumes: anime search,
// bangumi (series) detail, and episode comments. Every call is rate limited,
// retried with the shared backoff policy, and bounded by a per-call timeout
// whose expiry surfaces as services.ErrTimeout, distinct from generic network
// failures. Options allow tests to supply custom HTTP clients without
// modifying production code.
package dandan
