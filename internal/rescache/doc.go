// Package rescache persists resolution results between player sessions.
//
// Three namespaces share one SQLite database: series-detail entries (24 hour
// TTL, oldest-evicted size cap), per-title source preferences (no TTL, LRU
// cap), and viewing history rows managed by the history package. A single
// in-memory slot additionally holds the most recently resolved episode's
// comment list. Persisted entries carry a schema version; rows that fail
// validation are discarded and treated as misses so a corrupt cache can
// never break resolution.
package rescache
