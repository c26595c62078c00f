package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/newsreel/newsreel/internal/cache"
	"github.com/newsreel/newsreel/internal/config"
	"github.com/newsreel/newsreel/internal/logging"
)

var flagPruneOlderThan string

// openCache opens the cache for a one-shot command, logging to stderr.
func openCache(cmd *cobra.Command) (*config.Config, *slog.Logger, *cache.Cache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	db, err := cache.Open(cmd.Context(), dbPath(), log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening cache: %w", err)
	}
	return cfg, log, db, nil
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old headline pages from the local cache",
	Long: `Delete cached headline pages older than the retention period and reclaim disk space.
Pinned items are never pruned.

Uses the retention value from config (default: 7d) unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := config.ParseDays(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := db.Prune(cmd.Context(), retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		out := cmd.OutOrStdout()
		if deleted == 0 {
			fmt.Fprintln(out, "Nothing to prune.")
		} else {
			fmt.Fprintf(out, "Pruned %d headline(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		s, err := db.Stats(cmd.Context(), dbPath())
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Cache: %s\n", dbPath())
		fmt.Fprintf(out, "Headlines: %d (%d pages)\n", s.Headlines, s.Pages)
		fmt.Fprintf(out, "Pinned: %d\n", s.Pinned)
		fmt.Fprintf(out, "Size: %s\n", formatBytes(s.Size))
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
