// Package grouper clusters raw releases into candidate groups that
// represent one piece of content.
//
// Phase 1 is structural and deterministic: exact content-title matches
// join a group, and long titles merge when the shorter is a prefix of the
// longer and covers enough of it. Phase 2 optionally consults the semantic
// similarity oracle at a much higher threshold than matching uses, so only
// near-certain duplicates merge.
package grouper

import (
	"context"
	"log/slog"
	"strings"

	"fetcharr/internal/release"
	"fetcharr/internal/simoracle"
	"fetcharr/internal/textutil"
)

const (
	// MinKeyLength is the minimum content-title length for a group to be
	// eligible for any merging. Shorter titles form unique singleton
	// groups; merging them would collide unrelated content.
	MinKeyLength = 15

	// prefixKeyLength is the minimum length both titles need before the
	// prefix-merge rule applies.
	prefixKeyLength = 30

	// DefaultThreshold is the default minimum len(shorter)/len(longer)
	// ratio for a prefix merge.
	DefaultThreshold = 0.7

	// SemanticMergeThreshold is the oracle score required to merge two
	// groups in phase 2. Deliberately far above the matching threshold:
	// a false merge poisons every downstream decision for the group.
	SemanticMergeThreshold = 0.92
)

// Grouper builds candidate groups from filtered releases.
type Grouper struct {
	threshold float64
	oracle    simoracle.Oracle
	logger    *slog.Logger
}

// New constructs a Grouper. A zero or negative threshold falls back to
// DefaultThreshold. The oracle may be nil.
func New(threshold float64, oracle simoracle.Oracle, logger *slog.Logger) *Grouper {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Grouper{threshold: threshold, oracle: oracle, logger: logger}
}

// Group partitions releases into candidate groups: structural grouping
// first, then the optional semantic merge pass.
func (g *Grouper) Group(ctx context.Context, releases []release.RawRelease) []release.CandidateGroup {
	groups := g.structural(releases)
	return g.semantic(ctx, groups)
}

// arena holds the mutable grouping state for one run. Keys are the
// lowercased content titles; order preserves first-seen sequence so runs
// are reproducible. Merges are explicit rekey operations, never aliased
// references.
type arena struct {
	order  []string
	groups map[string]*release.CandidateGroup
}

func newArena() *arena {
	return &arena{groups: make(map[string]*release.CandidateGroup)}
}

func (a *arena) add(key string, group *release.CandidateGroup) {
	a.order = append(a.order, key)
	a.groups[key] = group
}

// rekey replaces oldKey with newKey in place, preserving arena order. If
// newKey already names a group, the two groups collapse into it.
func (a *arena) rekey(oldKey, newKey, title string) {
	group := a.groups[oldKey]
	delete(a.groups, oldKey)

	if target, ok := a.groups[newKey]; ok {
		target.Releases = append(target.Releases, group.Releases...)
		a.dropFromOrder(oldKey)
		return
	}

	group.Title = title
	a.groups[newKey] = group
	for i, key := range a.order {
		if key == oldKey {
			a.order[i] = newKey
			break
		}
	}
}

func (a *arena) dropFromOrder(key string) {
	for i, k := range a.order {
		if k == key {
			a.order = append(a.order[:i], a.order[i+1:]...)
			return
		}
	}
}

func (a *arena) list() []release.CandidateGroup {
	out := make([]release.CandidateGroup, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, *a.groups[key])
	}
	return out
}

// structural is phase 1: iterate releases in order and place each into a
// group using only exact and long-prefix title rules. First-seen groups
// act as merge targets.
func (g *Grouper) structural(releases []release.RawRelease) []release.CandidateGroup {
	groups := newArena()
	var singletons []release.CandidateGroup

	for _, r := range releases {
		title := textutil.Normalize(r.Title)
		if len(title) < MinKeyLength {
			singletons = append(singletons, release.CandidateGroup{Title: title, Releases: []release.RawRelease{r}})
			continue
		}

		key := strings.ToLower(title)
		placed := false
		for _, existing := range groups.order {
			if existing == key {
				groups.groups[existing].Add(r)
				placed = true
				break
			}
			if merged := g.tryPrefixMerge(groups, existing, key, title, r); merged {
				placed = true
				break
			}
		}
		if !placed {
			groups.add(key, &release.CandidateGroup{Title: title, Releases: []release.RawRelease{r}})
		}
	}

	return append(groups.list(), singletons...)
}

// tryPrefixMerge merges the release into the group at existing when one
// key is a strict prefix of the other, both are long enough, and the
// shorter covers at least the configured share of the longer. The longer
// title becomes the group key.
func (g *Grouper) tryPrefixMerge(groups *arena, existing, key, title string, r release.RawRelease) bool {
	if len(existing) < prefixKeyLength || len(key) < prefixKeyLength {
		return false
	}
	shorter, longer := existing, key
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == len(longer) || !strings.HasPrefix(longer, shorter) {
		return false
	}
	if float64(len(shorter))/float64(len(longer)) < g.threshold {
		return false
	}

	if longer == key {
		// Incoming title is more specific: re-key the existing group.
		groups.rekey(existing, key, title)
		groups.groups[key].Add(r)
	} else {
		groups.groups[existing].Add(r)
	}
	return true
}

// semantic is phase 2: merge groups the structural pass missed, using the
// oracle at SemanticMergeThreshold. Runs only when an oracle is available
// and there is more than one group.
func (g *Grouper) semantic(ctx context.Context, groups []release.CandidateGroup) []release.CandidateGroup {
	if !simoracle.Available(g.oracle) || len(groups) < 2 {
		return groups
	}

	for i := 0; i < len(groups); i++ {
		if len(groups[i].Title) < MinKeyLength {
			continue
		}
		for j := i + 1; j < len(groups); j++ {
			if len(groups[j].Title) < MinKeyLength {
				continue
			}
			if !simoracle.Available(g.oracle) {
				return groups
			}
			if skipPair(groups[i].Title, groups[j].Title) {
				continue
			}

			score, err := g.oracle.Similarity(ctx, groups[i].Title, groups[j].Title)
			if err != nil {
				g.logger.Warn("semantic merge pass degraded",
					"error", err,
					"oracle_state", g.oracle.State().String())
				return groups
			}
			if score < SemanticMergeThreshold {
				continue
			}

			g.logger.Info("semantic merge accepted",
				"kept", groups[i].Title,
				"absorbed", groups[j].Title,
				"score", score)
			groups[i] = mergeGroups(groups[i], groups[j])
			groups = append(groups[:j], groups[j+1:]...)
			j--
		}
	}
	return groups
}

// skipPair is the cheap pre-oracle guard: capitalized tokens stand in for
// person names, and two titles that each carry names but share none cannot
// be the same content.
func skipPair(a, b string) bool {
	tokensA := textutil.CapitalTokens(a)
	tokensB := textutil.CapitalTokens(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return false
	}
	return !textutil.ShareToken(tokensA, tokensB)
}

// mergeGroups combines two groups under the longer title.
func mergeGroups(a, b release.CandidateGroup) release.CandidateGroup {
	title := a.Title
	if len(b.Title) > len(a.Title) {
		title = b.Title
	}
	return release.CandidateGroup{
		Title:    title,
		Releases: append(append([]release.RawRelease{}, a.Releases...), b.Releases...),
	}
}
