package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/document"
)

const defaultViewWidth = 100

// pageFlags select a page by id argument or by title within a space.
type pageFlags struct {
	title    string
	spaceKey string
}

func (f *pageFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.title, "title", "", "resolve the page by exact title")
	c.Flags().StringVar(&f.spaceKey, "space-key", "", "space of --title (default: default_space_key)")
}

func (f *pageFlags) resolve(c *cobra.Command, client confluence.Client, args []string) (confluence.Page, error) {
	if len(args) == 1 {
		return client.GetPage(c.Context(), args[0])
	}
	if f.title == "" {
		return confluence.Page{}, errors.New("provide a page id or --title (with --space-key or default_space_key)")
	}
	space, err := spaceKeyOr(f.spaceKey)
	if err != nil {
		return confluence.Page{}, err
	}
	page, err := client.FindPageByTitle(c.Context(), space, f.title, "")
	if confluence.KindOf(err) == confluence.KindNotFound {
		return confluence.Page{}, fmt.Errorf("page %q not found in space %s", f.title, space)
	}
	return page, err
}

func newBrowseOpenCmd(d browseDeps) *cobra.Command {
	var pf pageFlags
	openCmd := &cobra.Command{
		Use:   "open [page-id]",
		Short: "Open a page in the web browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := d.client()
			if err != nil {
				return err
			}
			page, err := pf.resolve(c, client, args)
			if err != nil {
				return err
			}
			link := confluence.URLFor(client, page.Summary())
			colors.Info("Opening: " + link)
			return d.opener().OpenURL(link)
		},
	}
	pf.register(openCmd)
	return openCmd
}

func newBrowseViewCmd(d browseDeps) *cobra.Command {
	var pf pageFlags
	var export, noPager bool
	var width int

	viewCmd := &cobra.Command{
		Use:   "view [page-id]",
		Short: "Render a page in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := d.client()
			if err != nil {
				return err
			}
			page, err := pf.resolve(c, client, args)
			if err != nil {
				return err
			}
			html, err := client.RenderedBody(c.Context(), page.ID, export)
			if err != nil {
				return fmt.Errorf("load page %s: %w", page.ID, err)
			}
			if html == "" {
				colors.Warning("No rendered content returned by the API.")
				return nil
			}

			termWidth, isTerminal := terminalWidth(c.OutOrStdout())
			if width <= 0 {
				width = defaultViewWidth
				if isTerminal {
					width = termWidth - 2
				}
			}
			renderer := document.NewRenderer(config.Get("markdown_style", document.DefaultStyle))
			result, err := renderer.Render(html, width)
			if err != nil {
				return fmt.Errorf("render page %s: %w", page.ID, err)
			}
			if result.Degraded {
				colors.Warning("Rendered as plain text")
			}
			title := untitled(page.Title)
			if noPager || !isTerminal {
				_, err := fmt.Fprintf(c.OutOrStdout(), "%s\n\n%s\n", title, result.Text)
				return err
			}
			return d.pager(title, result.Text)
		},
	}
	pf.register(viewCmd)
	viewCmd.Flags().BoolVar(&export, "export", true, "render the export view (cleaner HTML) instead of the plain view")
	viewCmd.Flags().BoolVar(&noPager, "no-pager", false, "print instead of opening the pager")
	viewCmd.Flags().IntVar(&width, "width", 0, "wrap width (default: terminal width)")
	return viewCmd
}
