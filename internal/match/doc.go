// Package match ranks danmaku search candidates against a normalized target
// title. Scoring is additive over a fixed rule table (title similarity,
// season and year congruence, episode-count plausibility, type conflicts) so
// each rule can be tested in isolation. Selection applies a short-title
// pre-filter, a minimum score threshold, and episode-count tie-breaking for
// ambiguous top scores.
package match
