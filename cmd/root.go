package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/newsreel/newsreel/internal/config"
	"github.com/newsreel/newsreel/internal/logging"
	"github.com/newsreel/newsreel/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagDB       string
	flagPageSize int
	flagCheck    bool
)

var rootCmd = &cobra.Command{
	Use:          "newsreel",
	Short:        "Terminal news reader",
	Long:         "newsreel shows today's headlines page by page and keeps the stories you pin.",
	RunE:         runTUI,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to the cache database")
	rootCmd.PersistentFlags().IntVar(&flagPageSize, "page-size", 0, "headlines per page (overrides config)")
	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "check for a newer release")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(pinnedCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

// releasesURL is where version --check looks for the latest release.
var releasesURL = update.ReleasesURL

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "newsreel %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagCheck {
			return nil
		}

		log := logging.New(cmd.ErrOrStderr(), "warn")
		rel, err := update.NewChecker(httpClient(), releasesURL, log).Latest(cmd.Context(), version)
		if err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}
		if rel.Newer() {
			fmt.Fprintf(out, "newsreel %s is available: %s\n", rel.Latest, rel.URL)
		} else {
			fmt.Fprintf(out, "Latest release is %s; no update needed.\n", rel.Latest)
		}
		return nil
	},
}

// loadConfig reads the config and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagPageSize > 0 {
		cfg.PageSize = flagPageSize
	}
	return cfg, nil
}

func dbPath() string {
	if flagDB != "" {
		return flagDB
	}
	return config.CachePath()
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
