// Package search queries indexers for candidate releases.
//
// The Gateway interface abstracts the indexer aggregator; the production
// implementation speaks Torznab (the RSS dialect served by Prowlarr and
// Jackett). The Orchestrator fans one entity's search terms (canonical
// name plus optional aliases) across the gateway and aggregates the raw
// results, tagging quality and source inferred from each title. A failed
// term never aborts the whole search, and a missing gateway yields empty
// results rather than an error.
package search
