package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/newsreel/newsreel/internal/browser"
	"github.com/newsreel/newsreel/internal/headline"
)

var (
	flagPinTitle string
	flagPinURL   string
)

var pinnedCmd = &cobra.Command{
	Use:   "pinned",
	Short: "List pinned headlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.Pinned(cmd.Context())
		if err != nil {
			return fmt.Errorf("loading pinned: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No pinned headlines.")
			return nil
		}
		for _, h := range items {
			fmt.Fprintf(out, "* %s\n  %s\n", h.Title, h.URL)
		}
		return nil
	},
}

var pinAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Pin a headline by title and URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagPinTitle == "" {
			return errors.New("--title is required")
		}
		if flagPinURL != "" {
			if err := browser.Validate(flagPinURL); err != nil {
				return fmt.Errorf("invalid --url: %w", err)
			}
		}

		_, _, db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		h := headline.Headline{Title: flagPinTitle, URL: flagPinURL, PublishedAt: time.Now()}
		if err := db.Pin(cmd.Context(), h); err != nil {
			return fmt.Errorf("pinning: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pinned %q.\n", h.Title)
		return nil
	},
}

var pinRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Unpin every headline with the given title",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagPinTitle == "" {
			return errors.New("--title is required")
		}

		_, _, db, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		removed, err := db.Unpin(cmd.Context(), flagPinTitle)
		if err != nil {
			return fmt.Errorf("unpinning: %w", err)
		}
		out := cmd.OutOrStdout()
		if removed {
			fmt.Fprintf(out, "Unpinned %q.\n", flagPinTitle)
		} else {
			fmt.Fprintf(out, "Nothing pinned as %q.\n", flagPinTitle)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{pinAddCmd, pinRemoveCmd} {
		c.Flags().StringVar(&flagPinTitle, "title", "", "headline title")
	}
	pinAddCmd.Flags().StringVar(&flagPinURL, "url", "", "headline URL")

	pinnedCmd.AddCommand(pinAddCmd)
	pinnedCmd.AddCommand(pinRemoveCmd)
}
