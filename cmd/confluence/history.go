package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/cmd"
	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/format"
	"github.com/cristianoliveira/confluence-cli/internal/storage"
)

const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command group.
func NewHistoryCmd(open historyFactory, now func() time.Time) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show pages published from this machine",
		Long:  `Show and prune the local record of create and update operations.`,
	}

	var spaceKey, action string
	var sinceDays, limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded creates and updates, newest first",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			f := storage.Filter{SpaceKey: spaceKey, Action: storage.Action(action), Limit: limit}
			switch f.Action {
			case "", storage.ActionCreate, storage.ActionUpdate:
			default:
				return fmt.Errorf("invalid --action %q: must be create or update", action)
			}
			if sinceDays > 0 {
				f.Since = now().AddDate(0, 0, -sinceDays)
			}
			h := open()
			defer h.Close()
			entries, err := h.List(c.Context(), f)
			if err != nil {
				return err
			}
			return cmd.Print(c, historyTable(entries, now()))
		},
	}
	listCmd.Flags().StringVar(&spaceKey, "space-key", "", "only this space")
	listCmd.Flags().StringVar(&action, "action", "", "only create or update")
	listCmd.Flags().IntVar(&sinceDays, "since", 0, "only the last N days")
	listCmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "at most N entries (0 = all)")

	var olderThan int
	var dryRun bool
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete entries older than N days",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("prune: --older-than must be a positive number of days")
			}
			h := open()
			defer h.Close()
			n, err := h.Prune(c.Context(), olderThan, dryRun)
			if err != nil {
				return err
			}
			if dryRun {
				colors.Info(fmt.Sprintf("Would delete %d entries older than %d days", n, olderThan))
				return nil
			}
			colors.Success(fmt.Sprintf("Deleted %d entries older than %d days", n, olderThan))
			return nil
		},
	}
	pruneCmd.Flags().IntVar(&olderThan, "older-than", 90, "age in days")
	pruneCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only count what would be deleted")

	historyCmd.AddCommand(listCmd, pruneCmd)
	return historyCmd
}

func historyTable(entries []storage.Entry, now time.Time) format.Table {
	if entries == nil {
		entries = []storage.Entry{}
	}
	table := format.Table{
		Columns: []format.Column{
			{Name: "WHEN"},
			{Name: "ACTION"},
			{Name: "ID"},
			{Name: "SPACE"},
			{Name: "TITLE", MaxWidth: 50},
			{Name: "URL"},
		},
		Data:  entries,
		Empty: "No history yet",
	}
	for _, e := range entries {
		table.AddRow(humanize.RelTime(e.CreatedAt, now, "ago", "from now"), string(e.Action), e.PageID, e.SpaceKey, e.Title, e.URL)
	}
	return table
}

func init() {
	cmd.RootCmd.AddCommand(NewHistoryCmd(openHistory, time.Now))
}
