package state

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/document"
)

// safeCmd runs fn and turns a panic into a failure for the same request.
func safeCmd(tag requestTag, action string, fn func(ctx context.Context) tea.Msg) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = fetchFailedMsg{tag: tag, action: action, err: fmt.Errorf("%s panic: %v", action, r)}
			}
		}()
		return fn(context.Background())
	}
}

func failed(tag requestTag, action string, err error) tea.Msg {
	colors.StructuredDebug("tui", action, "failed", err, tag.String(), colors.Fields("kind", confluence.KindOf(err).String()))
	return fetchFailedMsg{tag: tag, action: action, err: err}
}

func resolveHomepageCmd(client confluence.Client, tag requestTag) tea.Cmd {
	return safeCmd(tag, "resolve-homepage", func(ctx context.Context) tea.Msg {
		page, err := client.SpaceHomepage(ctx, tag.Location.SpaceKey)
		if err != nil {
			return failed(tag, "resolve-homepage", err)
		}
		return homepageResolvedMsg{tag: tag, page: page}
	})
}

func resolvePageCmd(client confluence.Client, tag requestTag, id string) tea.Cmd {
	return safeCmd(tag, "goto", func(ctx context.Context) tea.Msg {
		page, err := client.GetPage(ctx, id)
		if err != nil {
			return failed(tag, "goto", err)
		}
		return pageResolvedMsg{tag: tag, page: page}
	})
}

// listRequest describes the listing to fetch for the tagged location.
type listRequest struct {
	source   Source
	spaceKey string
	query    string
	limit    int
	start    int
}

func fetchListingCmd(client confluence.Client, tag requestTag, req listRequest) tea.Cmd {
	action := "list-" + req.source.String()
	return safeCmd(tag, action, func(ctx context.Context) tea.Msg {
		var (
			list confluence.PageList
			err  error
		)
		switch req.source {
		case SourceSpace:
			list, err = client.ListSpace(ctx, req.spaceKey, confluence.ListOptions{Limit: req.limit, Start: req.start})
		case SourceSearch:
			list, err = client.Search(ctx, req.query, req.limit, req.start)
		default:
			list, err = client.ListChildren(ctx, tag.Location.PageID, req.limit, req.start)
		}
		if err != nil {
			return failed(tag, action, err)
		}
		return listingLoadedMsg{tag: tag, listing: Listing{
			Source:   req.source,
			Location: tag.Location,
			Entries:  list.Entries,
			Start:    req.start,
			Limit:    req.limit,
			LastPage: lastPage(req, list),
			Query:    req.query,
			Loaded:   true,
		}}
	})
}

// lastPage marks short pages as final. Search results are filtered to pages
// by the gateway, so only its HasMore is trusted there.
func lastPage(req listRequest, list confluence.PageList) bool {
	if !list.HasMore {
		return true
	}
	return req.source != SourceSearch && len(list.Entries) < req.limit
}

// Renderer turns a rendered page body into terminal text.
type Renderer interface {
	Render(html string, width int) (document.Result, error)
}

func renderBodyCmd(client confluence.Client, renderer Renderer, tag requestTag, summary confluence.PageSummary, export bool, width int) tea.Cmd {
	return safeCmd(tag, "view", func(ctx context.Context) tea.Msg {
		body, err := client.RenderedBody(ctx, summary.ID, export)
		if err != nil {
			return failed(tag, "view", err)
		}
		result, err := renderer.Render(body, width)
		if err != nil {
			return failed(tag, "view", err)
		}
		if result.Degraded {
			colors.StructuredWarn("tui", "view", "degraded", document.ErrConversion, summary.ID, nil)
		}
		return bodyRenderedMsg{tag: tag, summary: summary, result: result}
	})
}

// Linker performs the browser and clipboard side effects.
type Linker interface {
	OpenURL(url string) error
	CopyText(text string) error
}

func openCmd(linker Linker, url string) tea.Cmd {
	return func() tea.Msg {
		if err := linker.OpenURL(url); err != nil {
			return actionDoneMsg{err: fmt.Errorf("open %s: %w", url, err)}
		}
		return actionDoneMsg{text: "Opened " + url}
	}
}

func copyCmd(linker Linker, url string) tea.Cmd {
	return func() tea.Msg {
		if err := linker.CopyText(url); err != nil {
			return actionDoneMsg{err: fmt.Errorf("copy link: %w", err)}
		}
		return actionDoneMsg{text: "Copied " + url}
	}
}

var actionLabels = map[string]string{
	"resolve-homepage": "Resolving space homepage",
	"goto":             "Opening page",
	"list-children":    "Loading children",
	"list-space":       "Listing space",
	"list-search":      "Searching",
	"view":             "Rendering page",
}

// describeError turns a gateway failure into footer text.
func describeError(action string, err error) string {
	if label, ok := actionLabels[action]; ok {
		action = label
	}
	switch confluence.KindOf(err) {
	case confluence.KindAuth:
		return "Authentication failed: check your token (" + err.Error() + ")"
	case confluence.KindNotFound:
		return action + ": not found"
	case confluence.KindTransient, confluence.KindRateLimited:
		return action + ": network error, press r to retry (" + err.Error() + ")"
	}
	if errors.Is(err, document.ErrConversion) {
		return action + ": could not render page"
	}
	return action + ": " + err.Error()
}
