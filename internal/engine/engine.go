// Package engine wires the reconciliation pipeline: search, filter,
// group, match, select. One Run processes a single tracked entity end to
// end and returns the selected releases. Runs share no mutable state, so
// an external scheduler may process many entities in parallel.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fetcharr/internal/catalog"
	"fetcharr/internal/config"
	"fetcharr/internal/grouper"
	"fetcharr/internal/matcher"
	"fetcharr/internal/namefilter"
	"fetcharr/internal/release"
	"fetcharr/internal/search"
	"fetcharr/internal/selector"
	"fetcharr/internal/simoracle"
)

// Options control one run.
type Options struct {
	// ProfileID selects the quality profile. Empty or unknown IDs fall
	// back to most-seeders selection.
	ProfileID string
	// AcceptUnmatched allows confident releases with no catalog match,
	// subject to the distinct-indexer gate.
	AcceptUnmatched bool
}

// Deps bundles the engine's collaborators. Gateway and Oracle may be nil.
type Deps struct {
	Entities catalog.EntityStore
	Scenes   catalog.SceneStore
	Profiles catalog.ProfileStore
	Gateway  search.Gateway
	Oracle   simoracle.Oracle
	Logger   *slog.Logger
}

// Engine runs the reconciliation pipeline for tracked entities.
type Engine struct {
	cfg  *config.Config
	deps Deps
}

// New constructs an Engine.
func New(cfg *config.Config, deps Deps) *Engine {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{cfg: cfg, deps: deps}
}

// Run executes one search-to-selection pass for the entity. It returns
// the selected releases, possibly empty. Catalog contract violations
// propagate as errors; transient indexer and oracle failures degrade
// inside the stages and never fail the run.
func (e *Engine) Run(ctx context.Context, entityID string, opts Options) ([]release.Selected, error) {
	logger := e.deps.Logger.With("run_id", uuid.NewString(), "entity_id", entityID)

	entity, err := e.deps.Entities.Entity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("resolve entity: %w", err)
	}
	logger = logger.With("entity", entity.Name)

	orchestrator := search.NewOrchestrator(e.deps.Gateway, e.cfg.Indexer.SearchAliases, logger)
	raw := orchestrator.Collect(ctx, entity.Name, entity.Aliases)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		logger.Info("no releases found for entity")
		return nil, nil
	}

	filter, err := namefilter.New(entity.SearchNames()...)
	if err != nil {
		return nil, fmt.Errorf("build name filter: %w", err)
	}
	kept := filter.Apply(raw, logger)

	groups := grouper.New(e.cfg.Matching.GroupingThreshold, e.deps.Oracle, logger).Group(ctx, kept)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := matcher.New(e.deps.Scenes, e.deps.Oracle, matcher.Config{
		OracleThreshold: e.cfg.Oracle.MatchThreshold,
		FetchCap:        e.cfg.Catalog.FetchCap,
		BatchSize:       e.cfg.Catalog.BatchSize,
	}, logger)
	matches, unmatched, err := m.Run(ctx, entity.Type, entity.ID, groups)
	if err != nil {
		return nil, err
	}

	profile, err := e.loadProfile(ctx, opts.ProfileID, logger)
	if err != nil {
		return nil, err
	}

	sel := selector.New(logger)
	var selected []release.Selected
	for _, match := range matches {
		if best, ok := sel.Select(match.Group, profile); ok {
			selected = append(selected, release.Selected{Release: best, SceneID: match.Scene.ID})
		}
	}
	if opts.AcceptUnmatched || e.cfg.Matching.AcceptUnmatched {
		for _, group := range unmatched {
			if best, ok := sel.SelectUnmatched(group, profile, e.cfg.Matching.MinimumIndexers); ok {
				selected = append(selected, release.Selected{Release: best})
			}
		}
	}

	// A cancelled run must not hand back partial selections.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Info("run completed",
		"groups", len(groups),
		"matched", len(matches),
		"unmatched", len(unmatched),
		"selected", len(selected))
	return selected, nil
}

// loadProfile resolves the quality profile. A missing profile is an
// expected state and yields nil, which the selector treats as
// most-seeders fallback.
func (e *Engine) loadProfile(ctx context.Context, profileID string, logger *slog.Logger) (*catalog.QualityProfile, error) {
	if profileID == "" {
		return nil, nil
	}
	profile, err := e.deps.Profiles.Profile(ctx, profileID)
	if errors.Is(err, catalog.ErrNotFound) {
		logger.Info("quality profile not found, using most-seeders fallback", "profile_id", profileID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load quality profile: %w", err)
	}
	return profile, nil
}
