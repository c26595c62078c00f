package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newsreel/newsreel/internal/feed"
	"github.com/newsreel/newsreel/internal/store"
)

var flagFetchPage int

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one page of headlines into the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagFetchPage < 1 {
			return fmt.Errorf("invalid --page %d: pages start at 1", flagFetchPage)
		}

		cfg, log, db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		provider, err := feed.New(cfg, log)
		if err != nil {
			return err
		}

		s := store.New(provider, db, log)
		if err := s.Dispatch(cmd.Context(), store.FetchAndStoreHeadlines(flagFetchPage)); err != nil {
			return err
		}

		// A single fetch of page N leaves exactly page N in state.
		out := cmd.OutOrStdout()
		items := s.State().News.Headlines
		if len(items) == 0 {
			fmt.Fprintf(out, "Page %d is empty.\n", flagFetchPage)
			return nil
		}
		for i, h := range items {
			fmt.Fprintf(out, "%3d. %s\n     %s\n", i+1, h.Title, h.URL)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().IntVar(&flagFetchPage, "page", 1, "page number to fetch")
}
