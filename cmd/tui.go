package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/newsreel/newsreel/internal/cache"
	"github.com/newsreel/newsreel/internal/config"
	"github.com/newsreel/newsreel/internal/feed"
	"github.com/newsreel/newsreel/internal/logging"
	"github.com/newsreel/newsreel/internal/scheduler"
	"github.com/newsreel/newsreel/internal/store"
	"github.com/newsreel/newsreel/internal/tui"
)

func httpClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	log, closeLog, err := logging.OpenFile(config.LogPath(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer closeLog.Close()

	db, err := cache.Open(ctx, dbPath(), log)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	provider, err := feed.New(cfg, log)
	if err != nil {
		return err
	}

	sched := scheduler.New(ctx, db, cfg.RetentionDuration(), log)
	if err := sched.Start(cfg.PruneSchedule); err != nil {
		return err
	}
	defer sched.Stop()

	log.InfoContext(ctx, "Starting newsreel", "version", version, "provider", cfg.Provider, "page_size", cfg.GetPageSize())

	return tui.Run(tui.RunOpts{
		Ctx:          ctx,
		Store:        store.New(provider, db, log),
		Log:          log,
		EndThreshold: cfg.GetEndThreshold(),
	})
}
