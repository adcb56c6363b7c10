// Package services provides the shared error taxonomy and retry helpers used
// by every external call in the resolution pipeline.
//
// Errors are tagged with sentinel markers (ErrTimeout, ErrNetwork, ...) via
// Wrap so callers can classify failures without string matching. Retry applies
// the single backoff policy the whole pipeline shares: exponential doubling
// from a base delay, capped attempts, context-aware sleeps.
package services
