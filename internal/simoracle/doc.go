// Package simoracle provides the optional semantic similarity oracle used
// to supplement edit-distance matching.
//
// The oracle is modeled as an explicit state machine (Unconfigured,
// Uninitialized, Ready, Failed) so the pipeline checks availability in
// one place instead of null-checking throughout the matching logic. Any
// call failure moves the client to Failed for the remainder of the run and
// callers fall back to structural matching.
package simoracle
