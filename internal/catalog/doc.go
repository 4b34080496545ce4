// Package catalog provides the tracked-entity catalog backed by SQLite:
// entities (performers and studios), their known scenes, and ordered
// quality profiles.
//
// The reconciliation engine only reads from this package. Scenes are the
// ground truth releases are matched against; KnownScenes supports
// limit/offset paging so callers can bound memory on large catalogs.
package catalog
