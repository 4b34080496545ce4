package release

// RawRelease is a single downloadable candidate returned by an indexer
// search. Missing numeric fields are zero and missing URLs are empty;
// unknown indexer payload fields are dropped at the ingestion boundary.
type RawRelease struct {
	Title       string
	SizeBytes   int64
	Seeders     int
	Quality     string
	Source      string
	IndexerID   string
	IndexerName string
	DownloadURL string
	InfoHash    string
}

// CandidateGroup is a cluster of releases believed to represent the same
// underlying content. Groups are mutable while the grouper runs and are
// treated as immutable afterward.
type CandidateGroup struct {
	Title    string
	Releases []RawRelease
}

// Add appends a release to the group.
func (g *CandidateGroup) Add(r RawRelease) {
	g.Releases = append(g.Releases, r)
}

// DistinctIndexers counts the unique indexer IDs contributing releases to
// the group. Releases without an indexer ID are counted under their
// indexer name, and under a single anonymous bucket when both are empty.
func (g *CandidateGroup) DistinctIndexers() int {
	if g == nil || len(g.Releases) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(g.Releases))
	for _, r := range g.Releases {
		key := r.IndexerID
		if key == "" {
			key = r.IndexerName
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}

// Selected pairs a chosen release with the catalog scene it satisfies.
// SceneID is empty for releases accepted without a catalog match.
type Selected struct {
	Release RawRelease
	SceneID string
}
