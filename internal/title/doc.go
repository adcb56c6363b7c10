// Package title normalizes loosely-formatted video titles for matching.
//
// Raw titles arrive with parenthetical notes, bracketed tags, season and year
// markers, and mixed-width punctuation. Normalize strips the noise, extracts
// season and year information plus content-type feature flags, and produces a
// set of comparison variants consumed by the similarity scorer and the source
// matcher.
package title
