// Package episode resolves a requested 0-based episode index against a
// remote episode list. It classifies the program as anime or variety, parses
// episode numbers or broadcast dates out of episode titles, and falls back
// to positional and near-number matching. Resolution degrades to the first
// episode rather than failing, so a non-nil result does not guarantee the
// index was matched exactly.
package episode
