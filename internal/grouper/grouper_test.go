package grouper

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"fetcharr/internal/release"
	"fetcharr/internal/simoracle"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestStructuralExactMatchJoins(t *testing.T) {
	g := New(DefaultThreshold, nil, discard())
	groups := g.Group(context.Background(), []release.RawRelease{
		{Title: "Jane Doe Hot Tub Scene 1080p", IndexerID: "a"},
		{Title: "Jane Doe Hot Tub Scene 720p", IndexerID: "b"},
	})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if len(groups[0].Releases) != 2 {
		t.Errorf("group has %d releases, want 2", len(groups[0].Releases))
	}
	if groups[0].Title != "Jane Doe Hot Tub Scene" {
		t.Errorf("group title = %q", groups[0].Title)
	}
}

func TestStructuralShortTitlesStaySingletons(t *testing.T) {
	g := New(DefaultThreshold, nil, discard())
	groups := g.Group(context.Background(), []release.RawRelease{
		{Title: "Tiny Scene"},
		{Title: "Tiny Scene"},
	})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2 singletons for short titles", len(groups))
	}
}

func TestStructuralPrefixMerge(t *testing.T) {
	shorter := strings.Repeat("a", 30)
	longer := shorter + strings.Repeat("b", 10) // ratio 0.75 >= 0.7
	farLonger := shorter + strings.Repeat("b", 30)

	t.Run("ratio above threshold merges under longer key", func(t *testing.T) {
		g := New(DefaultThreshold, nil, discard())
		groups := g.Group(context.Background(), []release.RawRelease{
			{Title: shorter, IndexerID: "a"},
			{Title: longer, IndexerID: "b"},
		})
		if len(groups) != 1 {
			t.Fatalf("got %d groups, want 1", len(groups))
		}
		if groups[0].Title != longer {
			t.Errorf("group keyed by %q, want the longer title", groups[0].Title)
		}
		if len(groups[0].Releases) != 2 {
			t.Errorf("group has %d releases, want 2", len(groups[0].Releases))
		}
	})

	t.Run("longer seen first also merges", func(t *testing.T) {
		g := New(DefaultThreshold, nil, discard())
		groups := g.Group(context.Background(), []release.RawRelease{
			{Title: longer, IndexerID: "a"},
			{Title: shorter, IndexerID: "b"},
		})
		if len(groups) != 1 {
			t.Fatalf("got %d groups, want 1", len(groups))
		}
		if groups[0].Title != longer {
			t.Errorf("group keyed by %q, want the longer title", groups[0].Title)
		}
	})

	t.Run("ratio below threshold stays separate", func(t *testing.T) {
		g := New(DefaultThreshold, nil, discard())
		groups := g.Group(context.Background(), []release.RawRelease{
			{Title: shorter},
			{Title: farLonger}, // ratio 0.5
		})
		if len(groups) != 2 {
			t.Fatalf("got %d groups, want 2", len(groups))
		}
	})
}

// fakeOracle serves canned scores and records calls.
type fakeOracle struct {
	state simoracle.State
	score float64
	err   error
	calls int
}

func (f *fakeOracle) State() simoracle.State { return f.state }

func (f *fakeOracle) Similarity(_ context.Context, a, b string) (float64, error) {
	f.calls++
	if f.err != nil {
		f.state = simoracle.StateFailed
		return 0, f.err
	}
	f.state = simoracle.StateReady
	return f.score, nil
}

func TestSemanticMerge(t *testing.T) {
	oracle := &fakeOracle{state: simoracle.StateUninitialized, score: 0.95}
	g := New(DefaultThreshold, oracle, discard())
	groups := g.Group(context.Background(), []release.RawRelease{
		{Title: "Jane Doe Hot Tub Scene Alpha", IndexerID: "a"},
		{Title: "Jane Doe Hot Tub Take Alfa", IndexerID: "b"},
	})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1 after semantic merge", len(groups))
	}
	if groups[0].Title != "Jane Doe Hot Tub Scene Alpha" {
		t.Errorf("merged title = %q, want the longer key", groups[0].Title)
	}
	if len(groups[0].Releases) != 2 {
		t.Errorf("merged group has %d releases, want 2", len(groups[0].Releases))
	}
	if oracle.calls != 1 {
		t.Errorf("oracle called %d times, want 1", oracle.calls)
	}
}

func TestSemanticMergeBelowThresholdKeepsGroups(t *testing.T) {
	oracle := &fakeOracle{state: simoracle.StateUninitialized, score: 0.85}
	g := New(DefaultThreshold, oracle, discard())
	groups := g.Group(context.Background(), []release.RawRelease{
		{Title: "Jane Doe Hot Tub Scene Alpha"},
		{Title: "Jane Doe Hot Tub Take Alfa"},
	})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2 when score below 0.92", len(groups))
	}
}

func TestSemanticGuardSkipsDisjointNames(t *testing.T) {
	oracle := &fakeOracle{state: simoracle.StateUninitialized, score: 0.99}
	g := New(DefaultThreshold, oracle, discard())
	groups := g.Group(context.Background(), []release.RawRelease{
		{Title: "Jane Doe Hot Tub Scene Alpha"},
		{Title: "Amy Smith Beach Bonfire Special"},
	})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if oracle.calls != 0 {
		t.Errorf("oracle called %d times, want 0 (guard should skip)", oracle.calls)
	}
}

func TestSemanticOracleFailureDegrades(t *testing.T) {
	oracle := &fakeOracle{state: simoracle.StateUninitialized, err: errors.New("oracle down")}
	g := New(DefaultThreshold, oracle, discard())
	groups := g.Group(context.Background(), []release.RawRelease{
		{Title: "Jane Doe Hot Tub Scene Alpha"},
		{Title: "Jane Doe Hot Tub Take Alfa"},
	})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2 (phase 1 result preserved)", len(groups))
	}
	if oracle.calls != 1 {
		t.Errorf("oracle called %d times, want 1", oracle.calls)
	}
}

func TestSemanticSkippedWithoutOracle(t *testing.T) {
	g := New(DefaultThreshold, nil, discard())
	groups := g.Group(context.Background(), []release.RawRelease{
		{Title: "Jane Doe Hot Tub Scene Alpha"},
		{Title: "Jane Doe Hot Tub Take Alfa"},
	})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
}
