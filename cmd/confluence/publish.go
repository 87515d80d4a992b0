package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/cmd"
	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/format"
	"github.com/cristianoliveira/confluence-cli/internal/opener"
	"github.com/cristianoliveira/confluence-cli/internal/publish"
)

// publishDeps are the collaborators of create, update and author.
type publishDeps struct {
	client     clientFactory
	history    historyFactory
	opener     func() opener.Opener
	converters converterFactory
	now        func() time.Time
}

func defaultPublishDeps() publishDeps {
	return publishDeps{
		client:     newClient,
		history:    openHistory,
		opener:     newOpener,
		converters: newConverter,
		now:        time.Now,
	}
}

// publisher wires a Publisher; the returned func closes the history.
func (d publishDeps) publisher() (*publish.Publisher, func(), error) {
	client, err := d.client()
	if err != nil {
		return nil, nil, err
	}
	history := d.history()
	closeFn := func() {
		if err := history.Close(); err != nil {
			colors.Debug("close history:", err.Error())
		}
	}
	return publish.New(client, history, d.opener()), closeFn, nil
}

// publishFlags are shared by create and update.
type publishFlags struct {
	converterFlags
	file           string
	htmlFile       string
	labels         []string
	minorEdit      bool
	notifyWatchers bool
	dryRun         bool
	open           bool
}

func (f *publishFlags) register(c *cobra.Command, minorDefault bool) {
	f.converterFlags.register(c)
	flags := c.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "Markdown file to publish")
	flags.StringVar(&f.htmlFile, "html-file", "", "also write the converted HTML here")
	flags.StringArrayVar(&f.labels, "label", nil, "add a label (repeatable)")
	flags.BoolVar(&f.minorEdit, "minor-edit", minorDefault, "mark the change as a minor edit")
	flags.BoolVar(&f.notifyWatchers, "notify-watchers", true, "notify page watchers")
	flags.BoolVar(&f.dryRun, "dry-run", false, "resolve and convert without changing anything")
	flags.BoolVar(&f.open, "open", false, "open the page in the browser afterwards")
	_ = c.MarkFlagRequired("file")
}

// html converts the Markdown file, writing a copy when --html-file is set.
func (f *publishFlags) html(c *cobra.Command, converters converterFactory) (string, error) {
	conv, err := converters(f.engine, f.pandocArgs)
	if err != nil {
		return "", err
	}
	src, err := os.ReadFile(f.file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.file, err)
	}
	out, err := conv.ToHTML(c.Context(), src)
	if err != nil {
		return "", err
	}
	if f.htmlFile != "" {
		if err := os.WriteFile(f.htmlFile, out, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", f.htmlFile, err)
		}
	}
	return string(out), nil
}

// NewCreateCmd creates the create command.
func NewCreateCmd(d publishDeps) *cobra.Command {
	var pf publishFlags
	var title, spaceKey, parentID, ifExists string
	var noDate, updateIfExists bool

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Convert Markdown and create a page",
		Long: `Convert a Markdown file and create a Confluence page titled "<title> - YYYY-MM-DD".

--if-exists decides what happens when the title is already taken under the
same parent (or space root): fail, open the existing page, update it, or
create "<title> (2)", "<title> (3)", ...`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			space, err := spaceKeyOr(spaceKey)
			if err != nil {
				return err
			}
			if updateIfExists {
				ifExists = string(publish.IfExistsUpdate)
			}
			strategy, err := publish.ParseStrategy(ifExists)
			if err != nil {
				return err
			}
			if parentID == "" {
				parentID = config.Get("parent_page_id", "")
			}
			html, err := pf.html(c, d.converters)
			if err != nil {
				return err
			}
			p, closeHistory, err := d.publisher()
			if err != nil {
				return err
			}
			defer closeHistory()

			res, err := p.Create(c.Context(), publish.CreateRequest{
				Title:          publish.DatedTitle(title, noDate, d.now()),
				SpaceKey:       space,
				ParentID:       parentID,
				HTML:           html,
				Labels:         pf.labels,
				IfExists:       strategy,
				MinorEdit:      pf.minorEdit,
				NotifyWatchers: pf.notifyWatchers,
				Source:         pf.file,
				DryRun:         pf.dryRun,
			})
			if errors.Is(err, publish.ErrExists) {
				return fmt.Errorf("%w\nuse --if-exists open|update|suffix to handle it", err)
			}
			if err != nil {
				return err
			}
			return reportPublish(c, d, res, pf.open)
		},
	}

	pf.register(createCmd, false)
	flags := createCmd.Flags()
	flags.StringVarP(&title, "title", "t", "", "title prefix of the page")
	flags.StringVar(&spaceKey, "space-key", "", "space key (default: default_space_key)")
	flags.StringVar(&parentID, "parent-id", "", "parent page id (default: parent_page_id)")
	flags.BoolVar(&noDate, "no-date", false, `do not append " - YYYY-MM-DD" to the title`)
	flags.StringVar(&ifExists, "if-exists", string(publish.IfExistsFail), "when the title exists: fail, open, update, suffix")
	flags.BoolVar(&updateIfExists, "update-if-exists", false, "same as --if-exists update")
	_ = flags.MarkDeprecated("update-if-exists", "use --if-exists update")
	_ = createCmd.MarkFlagRequired("title")
	return createCmd
}

// NewUpdateCmd creates the update command.
func NewUpdateCmd(d publishDeps) *cobra.Command {
	var pf publishFlags
	var pageID, title, spaceKey, parentID, newTitle string

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Convert Markdown and update an existing page",
		Long: `Convert a Markdown file and replace the body of an existing page.

The page is selected by --page-id, or by --title within --space-key and an
optional --parent-id. A version conflict is retried once.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if pageID == "" && title == "" {
				return errors.New("update: provide --page-id or --title")
			}
			req := publish.UpdateRequest{
				PageID:         pageID,
				Title:          title,
				ParentID:       parentID,
				NewTitle:       newTitle,
				Labels:         pf.labels,
				MinorEdit:      pf.minorEdit,
				NotifyWatchers: pf.notifyWatchers,
				Source:         pf.file,
				DryRun:         pf.dryRun,
			}
			if pageID == "" {
				space, err := spaceKeyOr(spaceKey)
				if err != nil {
					return err
				}
				req.SpaceKey = space
			}
			html, err := pf.html(c, d.converters)
			if err != nil {
				return err
			}
			req.HTML = html

			p, closeHistory, err := d.publisher()
			if err != nil {
				return err
			}
			defer closeHistory()
			res, err := p.Update(c.Context(), req)
			if err != nil {
				return err
			}
			return reportPublish(c, d, res, pf.open)
		},
	}

	pf.register(updateCmd, true)
	flags := updateCmd.Flags()
	flags.StringVar(&pageID, "page-id", "", "id of the page to update")
	flags.StringVar(&title, "title", "", "exact title of the page to update")
	flags.StringVar(&spaceKey, "space-key", "", "space of --title (default: default_space_key)")
	flags.StringVar(&parentID, "parent-id", "", "parent of --title, to disambiguate")
	flags.StringVar(&newTitle, "new-title", "", "rename the page")
	return updateCmd
}

func reportPublish(c *cobra.Command, d publishDeps, res publish.Result, open bool) error {
	if res.LabelErr != nil {
		colors.Warning("page published but labels were not added")
	}
	id := ""
	switch {
	case res.Page != nil:
		id = res.Page.ID
	case res.Existing != nil:
		id = res.Existing.ID
	}
	table := format.Table{
		Columns: []format.Column{{Name: "ACTION"}, {Name: "ID"}, {Name: "TITLE", MaxWidth: 60}, {Name: "URL"}},
		Data:    res,
	}
	table.AddRow(res.Action, id, res.Title, res.URL)
	if err := cmd.Print(c, table); err != nil {
		return err
	}
	if open && res.URL != "" && res.Action != publish.ActionOpen && res.Action != publish.ActionDryRun {
		return d.opener().OpenURL(res.URL)
	}
	return nil
}

func init() {
	cmd.RootCmd.AddCommand(NewCreateCmd(defaultPublishDeps()), NewUpdateCmd(defaultPublishDeps()))
}
