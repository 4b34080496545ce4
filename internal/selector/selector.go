// Package selector picks the single best release from a candidate group
// according to an ordered quality profile.
//
// The profile is a strict preference order: the first tier with at least
// one qualifying release wins outright, and among its qualifiers the most
// seeded release is chosen. Without a usable profile the selector degrades
// to most seeders across the whole group. Unmatched groups pass a
// distinct-indexer gate first so a single noisy indexer cannot drive a
// download on its own.
package selector

import (
	"log/slog"
	"strings"

	"fetcharr/internal/catalog"
	"fetcharr/internal/release"
)

// Wildcard accepts any quality or source in a profile item.
const Wildcard = "any"

const bytesPerGB = 1e9

// Selector applies quality profiles to candidate groups.
type Selector struct {
	logger *slog.Logger
}

// New constructs a Selector.
func New(logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selector{logger: logger}
}

// Select returns the best release of the group under the profile, or
// false when no release qualifies anywhere in the profile. A nil or empty
// profile falls back to most seeders.
func (s *Selector) Select(group release.CandidateGroup, profile *catalog.QualityProfile) (release.RawRelease, bool) {
	if len(group.Releases) == 0 {
		return release.RawRelease{}, false
	}

	if profile == nil || len(profile.Items) == 0 {
		best := mostSeeded(group.Releases)
		s.logger.Info("release selected without profile",
			"group", group.Title,
			"release", best.Title,
			"seeders", best.Seeders)
		return best, true
	}

	for tier, item := range profile.Items {
		qualifiers := filterQualifiers(group.Releases, item)
		if len(qualifiers) == 0 {
			continue
		}
		best := mostSeeded(qualifiers)
		s.logger.Info("release selected",
			"group", group.Title,
			"release", best.Title,
			"tier", tier,
			"quality", item.Quality,
			"source", item.Source,
			"seeders", best.Seeders)
		return best, true
	}
	return release.RawRelease{}, false
}

// SelectUnmatched applies the distinct-indexer gate before selecting for
// a group with no catalog match. minIndexers below one disables the gate.
func (s *Selector) SelectUnmatched(group release.CandidateGroup, profile *catalog.QualityProfile, minIndexers int) (release.RawRelease, bool) {
	if distinct := group.DistinctIndexers(); minIndexers > 0 && distinct < minIndexers {
		s.logger.Info("unmatched group skipped",
			"group", group.Title,
			"indexers", distinct,
			"minimum", minIndexers)
		return release.RawRelease{}, false
	}
	return s.Select(group, profile)
}

// filterQualifiers keeps releases satisfying one profile item.
func filterQualifiers(releases []release.RawRelease, item catalog.QualityProfileItem) []release.RawRelease {
	var out []release.RawRelease
	for _, r := range releases {
		if !labelMatches(r.Quality, item.Quality) || !labelMatches(r.Source, item.Source) {
			continue
		}
		if r.Seeders < item.MinSeeders {
			continue
		}
		if item.MaxSizeGB > 0 && float64(r.SizeBytes) > item.MaxSizeGB*bytesPerGB {
			continue
		}
		out = append(out, r)
	}
	return out
}

func labelMatches(value, want string) bool {
	return strings.EqualFold(want, Wildcard) || strings.EqualFold(value, want)
}

// mostSeeded returns the release with the most seeders; ties keep the
// earliest release.
func mostSeeded(releases []release.RawRelease) release.RawRelease {
	best := releases[0]
	for _, r := range releases[1:] {
		if r.Seeders > best.Seeders {
			best = r
		}
	}
	return best
}
