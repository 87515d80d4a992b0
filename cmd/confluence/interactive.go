package main

import (
	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/document"
	"github.com/cristianoliveira/confluence-cli/internal/tui/state"
)

const interactiveCommandLong = `Browse a space page by page, starting at its homepage.

KEYS:
    ↑/↓ k/j      Move selection
    → l          Drill into children
    ← h esc      Go back
    enter        Open in browser
    v            View in terminal
    /            Search the space
    s            Switch space
    g            Go to page by id or URL
    a            List every page of the space
    n/p          Next/previous page of results
    [ ]          Smaller/larger pages
    r            Refresh
    y            Copy link
    q            Quit`

func newBrowseInteractiveCmd(d browseDeps) *cobra.Command {
	var spaceKey string
	var pageSize int
	var export bool

	interactiveCmd := &cobra.Command{
		Use:   "interactive",
		Short: "Browse a space interactively",
		Long:  interactiveCommandLong,
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
			if pageSize <= 0 {
				pageSize = config.GetInt("page_size", 0)
			}
			model, err := state.NewModel(state.Options{
				Client:   client,
				Renderer: document.NewRenderer(config.Get("markdown_style", document.DefaultStyle)),
				Linker:   d.opener(),
				SpaceKey: space,
				PageSize: pageSize,
				Export:   export,
			})
			if err != nil {
				return err
			}

			// JSON debug lines would corrupt the screen; the file log still gets them.
			colors.DisableStructuredConsole()
			defer colors.EnableStructuredConsole()
			colors.StructuredInfo("browse", "interactive", "started", nil, "", colors.Fields("space", space))
			return d.run(model)
		},
	}

	flags := interactiveCmd.Flags()
	flags.StringVar(&spaceKey, "space-key", "", "space to start in (default: default_space_key)")
	flags.IntVar(&pageSize, "page-size", 0, "entries per page, 5 to 100 (default: page_size)")
	flags.BoolVar(&export, "export", true, "render pages from the export view")
	return interactiveCmd
}
