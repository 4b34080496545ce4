package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"fetcharr/internal/catalog"
	"fetcharr/internal/engine"
	"fetcharr/internal/logging"
	"fetcharr/internal/release"
	"fetcharr/internal/search"
	"fetcharr/internal/simoracle"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var profileID string
	var acceptUnmatched bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <entity-id>",
		Short: "Search indexers and select releases for a tracked entity",
		Long: `Search the configured indexer for a tracked entity, reconcile the
results against the entity's known catalog scenes, and print one selected
release per matched scene. A quality profile orders candidates within each
group; without one the most-seeded release wins.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}

			// One run per catalog database at a time. Concurrent runs for
			// the same entity would double-select releases.
			lock := flock.New(cfg.Catalog.DatabasePath + ".lock")
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another fetcharr run is active (lock %s)", lock.Path())
			}
			defer func() { _ = lock.Unlock() }()

			store, err := catalog.Open(cfg.Catalog.DatabasePath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			var gateway search.Gateway
			if cfg.Indexer.BaseURL != "" {
				client, err := search.NewTorznab(cfg.Indexer.BaseURL, cfg.Indexer.APIKey,
					search.WithTimeout(time.Duration(cfg.Indexer.TimeoutSeconds)*time.Second))
				if err != nil {
					return fmt.Errorf("build indexer client: %w", err)
				}
				gateway = client
			}

			var oracle simoracle.Oracle
			if cfg.Oracle.Enabled {
				oracle = simoracle.New(simoracle.Config{
					Enabled:        cfg.Oracle.Enabled,
					BaseURL:        cfg.Oracle.BaseURL,
					APIKey:         cfg.Oracle.APIKey,
					TimeoutSeconds: cfg.Oracle.TimeoutSeconds,
				})
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			eng := engine.New(cfg, engine.Deps{
				Entities: store,
				Scenes:   store,
				Profiles: store,
				Gateway:  gateway,
				Oracle:   oracle,
				Logger:   logger,
			})
			selected, err := eng.Run(runCtx, args[0], engine.Options{
				ProfileID:       profileID,
				AcceptUnmatched: acceptUnmatched,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), selectionReport(selected))
			}
			out := cmd.OutOrStdout()
			if len(selected) == 0 {
				fmt.Fprintln(out, "No releases selected.")
				return nil
			}
			fmt.Fprintln(out, renderSelections(selected))
			return nil
		},
	}

	cmd.Flags().StringVarP(&profileID, "profile", "p", "", "Quality profile ID (default: most seeders)")
	cmd.Flags().BoolVar(&acceptUnmatched, "accept-unmatched", false, "Accept confident releases with no catalog match")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit selections as JSON")

	return cmd
}

type selectionRow struct {
	SceneID     string `json:"scene_id,omitempty"`
	Title       string `json:"title"`
	Quality     string `json:"quality"`
	Source      string `json:"source"`
	Seeders     int    `json:"seeders"`
	SizeBytes   int64  `json:"size_bytes"`
	Indexer     string `json:"indexer,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

func selectionReport(selected []release.Selected) []selectionRow {
	rows := make([]selectionRow, 0, len(selected))
	for _, sel := range selected {
		rows = append(rows, selectionRow{
			SceneID:     sel.SceneID,
			Title:       sel.Release.Title,
			Quality:     sel.Release.Quality,
			Source:      sel.Release.Source,
			Seeders:     sel.Release.Seeders,
			SizeBytes:   sel.Release.SizeBytes,
			Indexer:     indexerLabel(sel.Release),
			DownloadURL: sel.Release.DownloadURL,
		})
	}
	return rows
}

func renderSelections(selected []release.Selected) string {
	headers := []string{"Scene", "Release", "Quality", "Source", "Seeders", "Size", "Indexer"}
	rows := make([][]string, 0, len(selected))
	for _, sel := range selected {
		scene := sel.SceneID
		if scene == "" {
			scene = "(unmatched)"
		}
		rows = append(rows, []string{
			scene,
			sel.Release.Title,
			sel.Release.Quality,
			sel.Release.Source,
			fmt.Sprintf("%d", sel.Release.Seeders),
			formatSize(sel.Release.SizeBytes),
			indexerLabel(sel.Release),
		})
	}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	return renderTable(headers, rows, aligns)
}

func indexerLabel(rel release.RawRelease) string {
	if rel.IndexerName != "" {
		return rel.IndexerName
	}
	return rel.IndexerID
}

func formatSize(bytes int64) string {
	const (
		kib = 1 << 10
		mib = 1 << 20
		gib = 1 << 30
	)
	switch {
	case bytes >= gib:
		return fmt.Sprintf("%.2f GiB", float64(bytes)/gib)
	case bytes >= mib:
		return fmt.Sprintf("%.1f MiB", float64(bytes)/mib)
	case bytes >= kib:
		return fmt.Sprintf("%.1f KiB", float64(bytes)/kib)
	case bytes > 0:
		return fmt.Sprintf("%d B", bytes)
	default:
		return "-"
	}
}
