// Package textutil provides text processing utilities for title
// normalization and similarity scoring.
//
// The primary use cases are:
//   - Reducing a noisy indexer release title to its canonical content title
//   - Computing Levenshtein edit distance and a normalized similarity score
//   - Extracting capitalized tokens as a cheap proxy for person names
//
// Normalization strips noise through an ordered rule table and runs to a
// fixed point, so normalizing an already-normalized title is a no-op.
package textutil
