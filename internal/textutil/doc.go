// Package textutil provides tokenization and string similarity primitives for
// comparing audiobook titles, series names, and author names.
//
// All scores are integers on a 0-100 scale so that downstream thresholds and
// confidence arithmetic are exactly reproducible. Inputs are expected to be
// normalized already (lower-cased, punctuation collapsed); the functions do not
// fold case themselves.
package textutil
