package matcher

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"fetcharr/internal/catalog"
	"fetcharr/internal/release"
	"fetcharr/internal/simoracle"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// sliceStore serves scenes from memory with real paging semantics.
type sliceStore struct {
	scenes []catalog.Scene
	calls  int
}

func (s *sliceStore) KnownScenes(_ context.Context, _, _ string, limit, offset int) ([]catalog.Scene, error) {
	s.calls++
	if offset >= len(s.scenes) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.scenes) {
		end = len(s.scenes)
	}
	return s.scenes[offset:end], nil
}

type failingStore struct{}

func (failingStore) KnownScenes(context.Context, string, string, int, int) ([]catalog.Scene, error) {
	return nil, errors.New("malformed catalog row")
}

type scriptedOracle struct {
	scores map[string]float64
	err    error
	state  simoracle.State
}

func (o *scriptedOracle) State() simoracle.State { return o.state }

func (o *scriptedOracle) Similarity(_ context.Context, a, b string) (float64, error) {
	if o.err != nil {
		o.state = simoracle.StateFailed
		return 0, o.err
	}
	o.state = simoracle.StateReady
	return o.scores[a+"|"+b], nil
}

func group(title string, releases ...release.RawRelease) release.CandidateGroup {
	if len(releases) == 0 {
		releases = []release.RawRelease{{Title: title}}
	}
	return release.CandidateGroup{Title: title, Releases: releases}
}

func TestLevenshteinFallbackMatch(t *testing.T) {
	store := &sliceStore{scenes: []catalog.Scene{
		{ID: "s1", Title: "Jane Doe Hot Tub Extravaganza"},
		{ID: "s2", Title: "Jane Doe Beach Day"},
	}}
	m := New(store, nil, Config{}, discard())

	matches, unmatched, err := m.Run(context.Background(), catalog.EntityPerformer, "perf-1",
		[]release.CandidateGroup{group("Jane Doe Beach Day")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(matches) != 1 || len(unmatched) != 0 {
		t.Fatalf("got %d matches / %d unmatched, want 1 / 0", len(matches), len(unmatched))
	}
	if matches[0].Scene.ID != "s2" {
		t.Errorf("matched scene %q, want s2", matches[0].Scene.ID)
	}
	if matches[0].Method != MethodLevenshtein {
		t.Errorf("method = %q, want levenshtein", matches[0].Method)
	}
}

func TestTruncatedTitleMatch(t *testing.T) {
	store := &sliceStore{scenes: []catalog.Scene{
		{ID: "s1", Title: "Jane Doe Hot Tub Extravaganza Part Two Directors Cut"},
	}}
	m := New(store, nil, Config{}, discard())

	matches, _, err := m.Run(context.Background(), catalog.EntityPerformer, "perf-1",
		[]release.CandidateGroup{group("Jane Doe Hot Tub Extravaganza")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Method != MethodTruncated {
		t.Errorf("method = %q, want truncated", matches[0].Method)
	}
}

func TestSceneClaimedOnlyOnce(t *testing.T) {
	store := &sliceStore{scenes: []catalog.Scene{
		{ID: "s1", Title: "Jane Doe Hot Tub Extravaganza"},
	}}
	m := New(store, nil, Config{}, discard())

	matches, unmatched, err := m.Run(context.Background(), catalog.EntityPerformer, "perf-1",
		[]release.CandidateGroup{
			group("Jane Doe Hot Tub Extravaganza"),
			group("Jane Doe Hot Tub Extravaganzas"),
		})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if len(unmatched) != 1 {
		t.Fatalf("got %d unmatched, want 1 (scene already claimed)", len(unmatched))
	}
	seen := map[string]int{}
	for _, match := range matches {
		seen[match.Scene.ID]++
	}
	for id, count := range seen {
		if count > 1 {
			t.Errorf("scene %s claimed %d times", id, count)
		}
	}
}

func TestEmptyGroupTitleClaimsNothing(t *testing.T) {
	store := &sliceStore{scenes: []catalog.Scene{
		{ID: "s1", Title: "Jane Doe Hot Tub Extravaganza"},
	}}
	m := New(store, nil, Config{}, discard())

	// The empty-title group comes first so a spurious prefix match would
	// claim the scene away from the real group.
	matches, unmatched, err := m.Run(context.Background(), catalog.EntityPerformer, "perf-1",
		[]release.CandidateGroup{
			group(""),
			group("Jane Doe Hot Tub Extravaganza"),
		})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(matches) != 1 || len(unmatched) != 1 {
		t.Fatalf("got %d matches / %d unmatched, want 1 / 1", len(matches), len(unmatched))
	}
	if matches[0].Group.Title == "" {
		t.Error("empty-title group claimed a scene")
	}
	if matches[0].Scene.ID != "s1" {
		t.Errorf("matched scene %q, want s1", matches[0].Scene.ID)
	}
	if unmatched[0].Title != "" {
		t.Errorf("unmatched group %q, want the empty-title group", unmatched[0].Title)
	}
}

func TestOraclePreferredOverLevenshtein(t *testing.T) {
	store := &sliceStore{scenes: []catalog.Scene{
		{ID: "s1", Title: "Completely Different Wording"},
	}}
	oracle := &scriptedOracle{
		state:  simoracle.StateUninitialized,
		scores: map[string]float64{"Jane Doe Hot Tub|Completely Different Wording": 0.9},
	}
	m := New(store, oracle, Config{OracleThreshold: 0.85}, discard())

	matches, _, err := m.Run(context.Background(), catalog.EntityPerformer, "perf-1",
		[]release.CandidateGroup{group("Jane Doe Hot Tub")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Method != MethodAI || matches[0].Score != 0.9 {
		t.Errorf("match = %q/%v, want ai/0.9", matches[0].Method, matches[0].Score)
	}
}

func TestOracleErrorFallsBack(t *testing.T) {
	store := &sliceStore{scenes: []catalog.Scene{
		{ID: "s1", Title: "Jane Doe Beach Day"},
	}}
	oracle := &scriptedOracle{state: simoracle.StateUninitialized, err: errors.New("oracle down")}
	m := New(store, oracle, Config{}, discard())

	matches, _, err := m.Run(context.Background(), catalog.EntityPerformer, "perf-1",
		[]release.CandidateGroup{group("Jane Doe Beach Day")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1 via fallback", len(matches))
	}
	if matches[0].Method != MethodLevenshtein {
		t.Errorf("method = %q, want levenshtein after oracle failure", matches[0].Method)
	}
}

func TestFetchScenesBatches(t *testing.T) {
	scenes := make([]catalog.Scene, 120)
	for i := range scenes {
		scenes[i] = catalog.Scene{ID: string(rune('a' + i%26)) + "-scene", Title: "filler title"}
	}
	store := &sliceStore{scenes: scenes}
	m := New(store, nil, Config{FetchCap: 100, BatchSize: 40}, discard())

	fetched, err := m.fetchScenes(context.Background(), catalog.EntityPerformer, "perf-1")
	if err != nil {
		t.Fatalf("fetchScenes: %v", err)
	}
	if len(fetched) != 100 {
		t.Errorf("fetched %d scenes, want cap of 100", len(fetched))
	}
	if store.calls != 3 {
		t.Errorf("store called %d times, want 3 batches", store.calls)
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	m := New(failingStore{}, nil, Config{}, discard())
	_, _, err := m.Run(context.Background(), catalog.EntityPerformer, "perf-1",
		[]release.CandidateGroup{group("Jane Doe Beach Day")})
	if err == nil {
		t.Fatal("expected store error to propagate")
	}
}
