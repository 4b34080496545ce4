package search

import (
	"context"
	"log/slog"
	"strings"

	"fetcharr/internal/release"
)

// Orchestrator aggregates search results for one entity across its name
// and aliases.
type Orchestrator struct {
	gateway       Gateway
	searchAliases bool
	logger        *slog.Logger
}

// NewOrchestrator builds an orchestrator. A nil gateway is valid and
// yields empty results, so a system without a configured indexer degrades
// instead of erroring.
func NewOrchestrator(gateway Gateway, searchAliases bool, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{gateway: gateway, searchAliases: searchAliases, logger: logger}
}

// Collect issues one query per search term and concatenates the results
// in term order. A failed term is logged and skipped; the whole search
// never aborts because one term failed.
func (o *Orchestrator) Collect(ctx context.Context, name string, aliases []string) []release.RawRelease {
	if o.gateway == nil {
		o.logger.Debug("no indexer gateway configured, returning no releases")
		return nil
	}

	var out []release.RawRelease
	for _, term := range o.terms(name, aliases) {
		if ctx.Err() != nil {
			return out
		}
		results, err := o.gateway.Search(ctx, term)
		if err != nil {
			o.logger.Warn("search term failed", "term", term, "error", err)
			continue
		}
		for i := range results {
			if results[i].Quality == "" || results[i].Source == "" {
				quality, source := release.Infer(results[i].Title)
				if results[i].Quality == "" {
					results[i].Quality = quality
				}
				if results[i].Source == "" {
					results[i].Source = source
				}
			}
		}
		o.logger.Info("search term completed", "term", term, "results", len(results))
		out = append(out, results...)
	}
	return out
}

// terms returns the deduplicated search terms: the canonical name, then
// aliases when alias searching is enabled.
func (o *Orchestrator) terms(name string, aliases []string) []string {
	terms := make([]string, 0, len(aliases)+1)
	seen := make(map[string]struct{}, len(aliases)+1)
	add := func(term string) {
		term = strings.TrimSpace(term)
		if term == "" {
			return
		}
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		terms = append(terms, term)
	}
	add(name)
	if o.searchAliases {
		for _, alias := range aliases {
			add(alias)
		}
	}
	return terms
}
