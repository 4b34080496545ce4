package testsupport

import (
	"context"
	"testing"

	"fetcharr/internal/catalog"
	"fetcharr/internal/config"
)

// OpenStore opens the catalog store from the test config and closes it on
// cleanup.
func OpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(cfg.Catalog.DatabasePath)
	if err != nil {
		t.Fatalf("open catalog store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close catalog store: %v", err)
		}
	})
	return store
}

// SeedEntity writes an entity and fails the test on error.
func SeedEntity(t testing.TB, store *catalog.Store, entity catalog.Entity) {
	t.Helper()
	if err := store.UpsertEntity(context.Background(), entity); err != nil {
		t.Fatalf("seed entity %s: %v", entity.ID, err)
	}
}

// SeedScene writes a scene linked to the given entities.
func SeedScene(t testing.TB, store *catalog.Store, scene catalog.Scene, refs ...catalog.Entity) {
	t.Helper()
	if err := store.SaveScene(context.Background(), scene, refs...); err != nil {
		t.Fatalf("seed scene %s: %v", scene.ID, err)
	}
}

// SeedProfile writes a quality profile.
func SeedProfile(t testing.TB, store *catalog.Store, profile catalog.QualityProfile) {
	t.Helper()
	if err := store.SaveProfile(context.Background(), profile); err != nil {
		t.Fatalf("seed profile %s: %v", profile.ID, err)
	}
}
