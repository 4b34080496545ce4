// Package release defines the release data model shared by the search,
// grouping, matching, and selection stages.
//
// A RawRelease is a single indexer search result. Releases are immutable
// once ingested; all derived state (content titles, groups, selections)
// lives in the downstream packages. Quality and source labels are inferred
// from the raw title at ingestion using ordered keyword tables so the
// heuristics stay independently testable.
package release
