package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/cmd"
	"github.com/cristianoliveira/confluence-cli/internal/author"
	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/llm"
	"github.com/cristianoliveira/confluence-cli/internal/publish"
)

// authorDeps are the collaborators of the author command.
type authorDeps struct {
	publishDeps
	llm     func() (llm.Client, error)
	prompts func(c *cobra.Command) prompter
}

func defaultAuthorDeps() authorDeps {
	return authorDeps{
		publishDeps: defaultPublishDeps(),
		llm:         newLLM,
		prompts:     newLinePrompter,
	}
}

// NewAuthorCmd creates the guided authoring command.
func NewAuthorCmd(d authorDeps) *cobra.Command {
	var meta author.Meta
	var spaceKey, parentID, ifExists string
	var labels []string
	var noLLM, yes bool
	var cf converterFlags

	authorCmd := &cobra.Command{
		Use:   "author",
		Short: "Write a page with an LLM outline and draft, then publish it",
		Long: `Guided authoring: answer a few questions, get an outline and a draft from
the configured LLM (or a template with --no-llm), refine both in $EDITOR and
publish the result. The draft is always saved under drafts_dir.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			space, err := spaceKeyOr(spaceKey)
			if err != nil {
				return err
			}
			if parentID == "" {
				parentID = config.Get("parent_page_id", "")
			}
			strategy, err := publish.ParseStrategy(ifExists)
			if err != nil {
				return err
			}
			p := d.prompts(c)
			if err := askMeta(p, &meta); err != nil {
				return err
			}

			session := &author.Session{Editor: d.opener()}
			if !noLLM {
				client, err := d.llm()
				switch {
				case errors.Is(err, llm.ErrNotConfigured):
					colors.Warning("no LLM configured; using templates")
				case err != nil:
					return err
				default:
					session.LLM = client
					colors.Info("Generating with " + client.Name())
				}
			}

			colors.Info("Outline: edit it in your editor")
			outline, err := session.Outline(c.Context(), meta)
			if err != nil {
				return err
			}
			colors.Info("Draft: edit it in your editor")
			draft, err := session.Draft(c.Context(), meta, outline)
			if err != nil {
				return err
			}

			path, err := author.SaveDraft(config.Get("drafts_dir", ""), meta.Title, draft)
			if err != nil {
				return err
			}
			colors.Info("Saved draft: " + path)

			where := "space " + space
			if parentID != "" {
				where += ", parent " + parentID
			}
			if !yes {
				ok, err := p.Confirm(fmt.Sprintf("Publish to %s now?", where), true)
				if err != nil {
					return err
				}
				if !ok {
					colors.Info("Aborted (draft not published).")
					return nil
				}
			}

			conv, err := d.converters(cf.engine, cf.pandocArgs)
			if err != nil {
				return err
			}
			html, err := conv.ToHTML(c.Context(), []byte(draft))
			if err != nil {
				return err
			}
			pub, closeHistory, err := d.publisher()
			if err != nil {
				return err
			}
			defer closeHistory()
			res, err := pub.Create(c.Context(), publish.CreateRequest{
				Title:          publish.DatedTitle(meta.Title, false, d.now()),
				SpaceKey:       space,
				ParentID:       parentID,
				HTML:           string(html),
				Labels:         labels,
				IfExists:       strategy,
				NotifyWatchers: true,
				Source:         path,
			})
			if err != nil {
				return err
			}
			return reportPublish(c, d.publishDeps, res, false)
		},
	}

	cf.register(authorCmd)
	flags := authorCmd.Flags()
	flags.StringVar(&spaceKey, "space-key", "", "space key (default: default_space_key)")
	flags.StringVar(&parentID, "parent-id", "", "parent page id (default: parent_page_id)")
	flags.StringVar(&meta.Title, "title", "", "document title (asked when omitted)")
	flags.StringVar(&meta.Audience, "audience", "", "who the page is for (asked when omitted)")
	flags.StringVar(&meta.Purpose, "purpose", "", "what readers should achieve (asked when omitted)")
	flags.StringVar(&meta.Tone, "tone", author.DefaultTone, "style and tone for the model")
	flags.StringArrayVar(&labels, "label", nil, "add a label (repeatable)")
	flags.StringVar(&ifExists, "if-exists", string(publish.IfExistsSuffix), "when the title exists: fail, open, update, suffix")
	flags.BoolVar(&noLLM, "no-llm", false, "use templates instead of the LLM")
	flags.BoolVarP(&yes, "yes", "y", false, "publish without asking")
	return authorCmd
}

func askMeta(p prompter, meta *author.Meta) error {
	fields := []struct {
		value *string
		label string
	}{
		{&meta.Title, "Document title"},
		{&meta.Audience, "Audience (e.g. SREs, backend devs, everyone)"},
		{&meta.Purpose, "Purpose (what should readers achieve?)"},
	}
	for _, f := range fields {
		for *f.value == "" {
			v, err := p.Ask(f.label, "")
			if err != nil {
				return err
			}
			*f.value = v
		}
	}
	return nil
}

func init() {
	cmd.RootCmd.AddCommand(NewAuthorCmd(defaultAuthorDeps()))
}
