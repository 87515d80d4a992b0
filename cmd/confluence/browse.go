package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gobwas/glob"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cristianoliveira/confluence-cli/cmd"
	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/format"
	"github.com/cristianoliveira/confluence-cli/internal/opener"
	"github.com/cristianoliveira/confluence-cli/internal/tui/pager"
)

const browseCommandLong = `Browse Confluence pages: list, children, tree, search, open, view and interactive.

USAGE:
    confluence browse list [--space-key KEY] [--title-contains TEXT | --title-match GLOB | --fuzzy TEXT]
    confluence browse children <page-id>
    confluence browse tree [--space-key KEY] [--max-depth N]
    confluence browse search (--query TEXT | --cql CQL)
    confluence browse open (<page-id> | --title TITLE)
    confluence browse view (<page-id> | --title TITLE)
    confluence browse interactive [--space-key KEY]`

// browseDeps are the collaborators of the browse commands.
type browseDeps struct {
	client clientFactory
	opener func() opener.Opener
	// pager shows rendered text full screen.
	pager func(title, text string) error
	// run drives a bubbletea model until it quits.
	run func(m tea.Model) error
}

func defaultBrowseDeps() browseDeps {
	return browseDeps{
		client: newClient,
		opener: newOpener,
		pager: func(title, text string) error {
			return pager.Run(title, text)
		},
		run: func(m tea.Model) error {
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

// NewBrowseCmd creates the browse command group.
func NewBrowseCmd(d browseDeps) *cobra.Command {
	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse, search and read pages",
		Long:  browseCommandLong,
	}
	browseCmd.AddCommand(
		newBrowseListCmd(d),
		newBrowseChildrenCmd(d),
		newBrowseTreeCmd(d),
		newBrowseSearchCmd(d),
		newBrowseOpenCmd(d),
		newBrowseViewCmd(d),
		newBrowseInteractiveCmd(d),
	)
	return browseCmd
}

func newBrowseListCmd(d browseDeps) *cobra.Command {
	var spaceKey, titleContains, titleMatch, fuzzyQuery string
	var limit, start int
	var openFirst bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List current pages in a space (flat)",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			space, err := spaceKeyOr(spaceKey)
			if err != nil {
				return err
			}
			client, err := d.client()
			if err != nil {
				return err
			}
			list, err := client.ListSpace(c.Context(), space, confluence.ListOptions{
				Limit:         pageSizeOr(limit),
				Start:         start,
				TitleContains: titleContains,
			})
			if err != nil {
				return fmt.Errorf("list pages in %s: %w", space, err)
			}
			entries, err := filterEntries(list.Entries, titleMatch, fuzzyQuery)
			if err != nil {
				return err
			}
			return printPages(c, d, client, entries, start, openFirst)
		},
	}

	flags := listCmd.Flags()
	flags.StringVar(&spaceKey, "space-key", "", "space key (default: default_space_key)")
	flags.IntVar(&limit, "limit", 0, "number of results, at most 100 (default: page_size)")
	flags.IntVar(&start, "start", 0, "pagination start offset")
	flags.StringVar(&titleContains, "title-contains", "", "keep titles containing this text (case-insensitive)")
	flags.StringVar(&titleMatch, "title-match", "", "keep titles matching this glob, e.g. 'Runbook*'")
	flags.StringVar(&fuzzyQuery, "fuzzy", "", "keep titles fuzzy-matching this text, best match first")
	flags.BoolVar(&openFirst, "open", false, "open the first result in the browser")
	return listCmd
}

func newBrowseChildrenCmd(d browseDeps) *cobra.Command {
	var limit, start int
	var openFirst bool

	childrenCmd := &cobra.Command{
		Use:   "children <page-id>",
		Short: "List current child pages of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := d.client()
			if err != nil {
				return err
			}
			list, err := client.ListChildren(c.Context(), args[0], pageSizeOr(limit), start)
			if err != nil {
				return fmt.Errorf("list children of %s: %w", args[0], err)
			}
			return printPages(c, d, client, list.Entries, start, openFirst)
		},
	}

	flags := childrenCmd.Flags()
	flags.IntVar(&limit, "limit", 0, "number of results, at most 100 (default: page_size)")
	flags.IntVar(&start, "start", 0, "pagination start offset")
	flags.BoolVar(&openFirst, "open", false, "open the first result in the browser")
	return childrenCmd
}

func newBrowseSearchCmd(d browseDeps) *cobra.Command {
	var cql, query, spaceKey string
	var limit, start int
	var openFirst bool

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search current pages with CQL or plain text",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if cql == "" && query == "" {
				return errors.New("search: provide either --cql or --query")
			}
			if cql == "" {
				if spaceKey == "" {
					spaceKey = config.Get("default_space_key", "")
				}
				cql = confluence.TextQuery{Text: query, SpaceKey: spaceKey, Newest: true}.CQL()
			}
			colors.Debug("cql:", cql)
			client, err := d.client()
			if err != nil {
				return err
			}
			list, err := client.Search(c.Context(), cql, pageSizeOr(limit), start)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			return printPages(c, d, client, list.Entries, start, openFirst)
		},
	}

	flags := searchCmd.Flags()
	flags.StringVar(&cql, "cql", "", `raw CQL, e.g. "type=page AND space=ENG ORDER BY lastmodified DESC"`)
	flags.StringVar(&query, "query", "", "plain text, converted to CQL for current pages")
	flags.StringVar(&spaceKey, "space-key", "", "limit --query to a space (default: default_space_key)")
	flags.IntVar(&limit, "limit", 0, "number of results, at most 100 (default: page_size)")
	flags.IntVar(&start, "start", 0, "pagination start offset")
	flags.BoolVar(&openFirst, "open", false, "open the first result in the browser")
	return searchCmd
}

func pageSizeOr(limit int) int {
	if limit > 0 {
		return min(limit, confluence.MaxPageSize)
	}
	return config.GetInt("page_size", confluence.DefaultPageSize)
}

// filterEntries applies the glob and then the fuzzy filter. Fuzzy matches are
// returned best first.
func filterEntries(entries []confluence.PageSummary, pattern, query string) ([]confluence.PageSummary, error) {
	if pattern != "" {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid --title-match pattern %q: %w", pattern, err)
		}
		kept := make([]confluence.PageSummary, 0, len(entries))
		for _, e := range entries {
			if g.Match(strings.ToLower(e.Title)) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if query != "" {
		matches := fuzzy.FindFrom(query, titles(entries))
		kept := make([]confluence.PageSummary, 0, len(matches))
		for _, m := range matches {
			kept = append(kept, entries[m.Index])
		}
		entries = kept
	}
	return entries, nil
}

// titles adapts a listing to fuzzy.Source.
type titles []confluence.PageSummary

func (t titles) String(i int) string { return t[i].Title }
func (t titles) Len() int            { return len(t) }

// printPages prints a numbered listing and optionally opens the first entry.
func printPages(c *cobra.Command, d browseDeps, client confluence.Client, entries []confluence.PageSummary, start int, openFirst bool) error {
	table := format.Table{
		Columns: []format.Column{
			{Name: "#", Align: format.AlignRight},
			{Name: "ID"},
			{Name: "TITLE", MaxWidth: 60},
			{Name: "URL"},
		},
		Empty: "No pages found",
	}
	rows := make([]confluence.PageSummary, len(entries))
	for i, e := range entries {
		e.WebURL = confluence.URLFor(client, e)
		rows[i] = e
		table.AddRow(strconv.Itoa(start+i+1), e.ID, e.Title, e.WebURL)
	}
	table.Data = rows
	if err := cmd.Print(c, table); err != nil {
		return err
	}
	if !openFirst || len(rows) == 0 {
		return nil
	}
	colors.Info("Opening: " + rows[0].WebURL)
	return d.opener().OpenURL(rows[0].WebURL)
}

// terminalWidth reports the width of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, false
	}
	return width, true
}

func init() {
	cmd.RootCmd.AddCommand(NewBrowseCmd(defaultBrowseDeps()))
}
