// Package textutil provides low-level text helpers shared by the title
// normalization and matching packages.
//
// The primary use cases are:
//   - Converting Chinese and roman numerals found in season markers
//   - Folding fullwidth characters and collapsing whitespace
//   - Classifying runes (CJK, Latin) for variant generation
package textutil
