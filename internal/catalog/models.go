package catalog

import "context"

// Entity is a tracked performer or studio whose releases are monitored.
type Entity struct {
	ID      string
	Type    string
	Name    string
	Aliases []string
}

// Entity types.
const (
	EntityPerformer = "performer"
	EntityStudio    = "studio"
)

// SearchNames returns the canonical name followed by any aliases, in a
// stable order, for use as search terms and filter names.
func (e *Entity) SearchNames() []string {
	names := make([]string, 0, len(e.Aliases)+1)
	names = append(names, e.Name)
	names = append(names, e.Aliases...)
	return names
}

// Scene is a known content item already tracked in the catalog. The
// engine never mutates scenes.
type Scene struct {
	ID           string
	Title        string
	Date         string
	StudioID     string
	PerformerIDs []string
}

// QualityProfileItem is one acceptable quality tier. MinSeeders zero means
// any seeder count; MaxSizeGB zero means unlimited size.
type QualityProfileItem struct {
	Quality    string
	Source     string
	MinSeeders int
	MaxSizeGB  float64
}

// QualityProfile is an ordered preference list, most preferred first.
type QualityProfile struct {
	ID    string
	Name  string
	Items []QualityProfileItem
}

// SceneStore is the read interface the matcher consumes. Implementations
// must support limit/offset paging.
type SceneStore interface {
	KnownScenes(ctx context.Context, entityType, entityID string, limit, offset int) ([]Scene, error)
}

// ProfileStore resolves quality profiles by ID.
type ProfileStore interface {
	Profile(ctx context.Context, id string) (*QualityProfile, error)
}

// EntityStore resolves tracked entities by ID.
type EntityStore interface {
	Entity(ctx context.Context, id string) (*Entity, error)
}
