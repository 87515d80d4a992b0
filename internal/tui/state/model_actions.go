package state

import (
	"net/url"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	tuierrors "github.com/cristianoliveira/confluence-cli/internal/errors"
)

var pagePathID = regexp.MustCompile(`/pages/(\d+)`)

// blockedWhileLoading lists triggers that wait for the request in flight.
func blockedWhileLoading(t Trigger) bool {
	if t.supersedes() {
		return false
	}
	switch t {
	case TriggerEnterSearch, TriggerSwitchSpace, TriggerGoto:
		return true
	}
	return t.fetches()
}

// fire runs a trigger if the transition table allows it in the current mode.
func (m *Model) fire(trigger Trigger) tea.Cmd {
	target, ok := Next(m.mode, trigger)
	if !ok {
		return nil
	}
	if m.pending != nil && blockedWhileLoading(trigger) {
		return m.notify(tuierrors.MessageTypeInfo, "Still loading…")
	}

	switch trigger {
	case TriggerQuit:
		return m.quit()
	case TriggerMoveUp:
		m.uiState.SetCursor(m.uiState.GetCursor()-1, len(m.listing.Entries))
	case TriggerMoveDown:
		m.uiState.SetCursor(m.uiState.GetCursor()+1, len(m.listing.Entries))
	case TriggerDrillIn:
		return m.drillIn()
	case TriggerGoBack:
		return m.goBack()
	case TriggerView:
		return m.view(target)
	case TriggerExitView:
		m.uiState.ClearDocument()
		m.viewing = PageRef{}
		m.enter(target)
	case TriggerOpen:
		return m.open()
	case TriggerCopyLink:
		return m.copyLink()
	case TriggerEnterSearch:
		m.startPrompt(target, "text, or cql:<query>")
	case TriggerSwitchSpace:
		m.startPrompt(target, "space key")
	case TriggerGoto:
		m.startPrompt(target, "page id or URL")
	case TriggerCancel:
		m.uiState.StopPrompt()
		m.enter(target)
	case TriggerSubmit:
		return m.submit(target)
	case TriggerNextPage:
		return m.nextPage()
	case TriggerPrevPage:
		return m.prevPage()
	case TriggerRefresh:
		return m.refresh()
	case TriggerListSpace:
		return m.listSpace(target)
	case TriggerPageSizeUp:
		return m.resize(m.pageSize + PageSizeStep)
	case TriggerPageSizeDown:
		return m.resize(m.pageSize - PageSizeStep)
	}
	return nil
}

func (m *Model) quit() tea.Cmd {
	if m.mode.IsPrompt() {
		m.uiState.StopPrompt()
		m.enter(modeReturn)
	}
	m.quitting = true
	m.pending = nil
	return tea.Quit
}

// selected returns the entry under the cursor.
func (m *Model) selected() (confluence.PageSummary, bool) {
	entries := m.listing.Entries
	cursor := m.uiState.GetCursor()
	if cursor < 0 || cursor >= len(entries) {
		return confluence.PageSummary{}, false
	}
	return entries[cursor], true
}

func (m *Model) fetchChildren(loc Location, target Mode, start, limit int) tea.Cmd {
	req := listRequest{source: SourceChildren, spaceKey: loc.SpaceKey, limit: limit, start: start}
	return m.issue(loc, "list-children", target, func(tag requestTag) tea.Cmd {
		return fetchListingCmd(m.client, tag, req)
	})
}

func (m *Model) fetchListing(target Mode, req listRequest) tea.Cmd {
	top, _ := m.stack.Top()
	return m.issue(top, "list-"+req.source.String(), target, func(tag requestTag) tea.Cmd {
		return fetchListingCmd(m.client, tag, req)
	})
}

// reloadTop lists the children of the top location, resolving the space
// homepage first when the root is still pending.
func (m *Model) reloadTop(start, limit int) tea.Cmd {
	top, _ := m.stack.Top()
	if !top.Resolved() {
		return m.issue(top, "resolve-homepage", ModeBrowsing, func(tag requestTag) tea.Cmd {
			return resolveHomepageCmd(m.client, tag)
		})
	}
	return m.fetchChildren(top, ModeBrowsing, start, limit)
}

func (m *Model) drillIn() tea.Cmd {
	entry, ok := m.selected()
	if !ok {
		return nil
	}
	loc := pageLocation(entry, m.space.Key)
	m.stack.Push(loc)
	m.mode = ModeBrowsing
	m.listing = m.placeholder(loc)
	m.uiState.ResetCursor()
	return m.fetchChildren(loc, ModeBrowsing, 0, m.pageSize)
}

// goBack pops the stack. From results it returns to the children page the
// results replaced, at the same offset, without popping.
func (m *Model) goBack() tea.Cmd {
	fromResults := m.mode == ModeSearchResults
	if !fromResults && !m.stack.Pop() {
		return nil
	}
	top, _ := m.stack.Top()
	m.mode = ModeBrowsing
	m.listing = m.placeholder(top)
	m.uiState.ResetCursor()
	start := 0
	if r := m.resume; fromResults && r != nil && r.location == top && r.limit == m.pageSize {
		r.restore = true
		start = r.start
		m.listing.Start = start
	} else {
		m.resume = nil
	}
	return m.reloadTop(start, m.pageSize)
}

func (m *Model) view(target Mode) tea.Cmd {
	entry, ok := m.selected()
	if !ok {
		return nil
	}
	top, _ := m.stack.Top()
	width := m.uiState.GetWidth() - 2
	return m.issue(top, "view", target, func(tag requestTag) tea.Cmd {
		return renderBodyCmd(m.client, m.renderer, tag, entry, m.export, width)
	})
}

// link returns the URL for open and copy: the viewed page in the viewer,
// otherwise the selected entry.
func (m *Model) link() (string, bool) {
	if m.mode == ModeViewing {
		return m.viewing.URL, m.viewing.URL != ""
	}
	entry, ok := m.selected()
	if !ok {
		return "", false
	}
	return confluence.URLFor(m.client, entry), true
}

func (m *Model) open() tea.Cmd {
	link, ok := m.link()
	if !ok {
		return nil
	}
	if m.linker == nil {
		return m.notify(tuierrors.MessageTypeInfo, link)
	}
	return openCmd(m.linker, link)
}

func (m *Model) copyLink() tea.Cmd {
	link, ok := m.link()
	if !ok {
		return nil
	}
	if m.linker == nil {
		return m.notify(tuierrors.MessageTypeInfo, link)
	}
	return copyCmd(m.linker, link)
}

func (m *Model) startPrompt(target Mode, placeholder string) {
	m.returnMode = m.mode
	m.mode = target
	m.uiState.StartPrompt(placeholder)
}

// submit closes the prompt and issues its request. An empty buffer behaves
// like cancel.
func (m *Model) submit(target Mode) tea.Cmd {
	prompt := m.mode
	value := strings.TrimSpace(m.uiState.GetInput().Value())
	m.uiState.StopPrompt()
	m.enter(modeReturn)
	if value == "" {
		return nil
	}

	switch prompt {
	case ModeSearchPrompt:
		query := confluence.TextQuery{Text: value, SpaceKey: m.space.Key}.CQL()
		colors.StructuredDebug("tui", "search", "submit", nil, "", colors.Fields("cql", query))
		return m.fetchListing(target, listRequest{source: SourceSearch, query: query, limit: m.pageSize})
	case ModeSpacePrompt:
		root := Location{Kind: LocationSpaceHome, SpaceKey: value}
		return m.issue(root, "resolve-homepage", target, func(tag requestTag) tea.Cmd {
			return resolveHomepageCmd(m.client, tag)
		})
	case ModeGotoPrompt:
		id := pageIDFromInput(value)
		top, _ := m.stack.Top()
		return m.issue(top, "goto", target, func(tag requestTag) tea.Cmd {
			return resolvePageCmd(m.client, tag, id)
		})
	}
	return nil
}

// pageIDFromInput accepts a bare id or a page URL.
func pageIDFromInput(value string) string {
	if u, err := url.Parse(value); err == nil && u.Host != "" {
		if id := u.Query().Get("pageId"); id != "" {
			return id
		}
		if match := pagePathID.FindStringSubmatch(u.Path); match != nil {
			return match[1]
		}
	}
	return value
}

// requestAt rebuilds the current listing's request at another offset.
func (m *Model) requestAt(start, limit int) listRequest {
	return listRequest{
		source:   m.listing.Source,
		spaceKey: m.space.Key,
		query:    m.listing.Query,
		limit:    limit,
		start:    start,
	}
}

func (m *Model) currentLimit() int {
	if m.listing.Limit > 0 {
		return m.listing.Limit
	}
	return m.pageSize
}

func (m *Model) nextPage() tea.Cmd {
	if !m.listing.Loaded || m.listing.LastPage {
		return nil
	}
	limit := m.currentLimit()
	return m.fetchListing(m.mode, m.requestAt(m.listing.Start+limit, limit))
}

func (m *Model) prevPage() tea.Cmd {
	if !m.listing.Loaded || m.listing.Start == 0 {
		return nil
	}
	limit := m.currentLimit()
	return m.fetchListing(m.mode, m.requestAt(max(0, m.listing.Start-limit), limit))
}

// refresh re-issues the request that produced the current listing.
func (m *Model) refresh() tea.Cmd {
	if m.listing.Source == SourceChildren {
		return m.reloadTop(m.listing.Start, m.currentLimit())
	}
	return m.fetchListing(m.mode, m.requestAt(m.listing.Start, m.currentLimit()))
}

func (m *Model) listSpace(target Mode) tea.Cmd {
	return m.fetchListing(target, listRequest{source: SourceSpace, spaceKey: m.space.Key, limit: m.pageSize})
}

// resize changes the page size and reloads from the first entry. The new
// size is committed when the listing arrives.
func (m *Model) resize(size int) tea.Cmd {
	size = min(max(size, MinPageSize), confluence.MaxPageSize)
	top, _ := m.stack.Top()
	if size == m.pageSize || (!top.Resolved() && m.listing.Source == SourceChildren) {
		return nil
	}
	if m.listing.Source == SourceChildren {
		return m.fetchChildren(top, m.mode, 0, size)
	}
	return m.fetchListing(m.mode, m.requestAt(0, size))
}
