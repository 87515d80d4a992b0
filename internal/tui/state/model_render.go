package state

import (
	"strings"

	"github.com/cristianoliveira/confluence-cli/internal/tui/render"
)

// View renders the browser.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.uiState.GetWidth()

	var s strings.Builder
	s.WriteString(render.Header(m.headerState()))
	s.WriteString("\n")
	if m.mode == ModeViewing {
		s.WriteString(m.uiState.GetViewport().View())
	} else {
		s.WriteString(m.listView(width))
	}
	s.WriteString("\n")
	s.WriteString(render.Footer(m.footerState()))
	return s.String()
}

func (m *Model) headerState() render.HeaderState {
	locations := m.stack.Locations()
	crumbs := make([]string, len(locations))
	for i, l := range locations {
		crumbs[i] = l.Label()
	}
	state := render.HeaderState{
		SpaceKey: m.space.Key,
		Crumbs:   crumbs,
		Width:    m.uiState.GetWidth(),
	}
	if m.mode == ModeViewing {
		state.Title = m.uiState.ViewTitle()
		state.Degraded = m.uiState.Degraded()
	} else if m.listing.Source != SourceChildren {
		state.Source = m.listing.Source.String()
	}
	return state
}

// listView draws the visible window of the listing, padded to the body
// height so the footer stays at the bottom.
func (m *Model) listView(width int) string {
	height := m.uiState.BodyHeight()
	entries := m.listing.Entries
	lines := make([]string, 0, height)
	if len(entries) == 0 {
		lines = append(lines, render.Empty(m.pending != nil))
	}
	first, last := m.uiState.ListWindow(len(entries))
	cursor := m.uiState.GetCursor()
	for i := first; i < last; i++ {
		e := entries[i]
		lines = append(lines, render.Row(render.RowState{
			Title:       e.Title,
			ID:          e.ID,
			HasChildren: e.HasChildren,
			Selected:    i == cursor,
			Width:       width,
		}))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

var promptLabels = map[Mode]string{
	ModeSearchPrompt: "Search",
	ModeSpacePrompt:  "Switch space",
	ModeGotoPrompt:   "Go to page",
}

func (m *Model) footerState() render.FooterState {
	state := render.FooterState{
		Context:  render.FooterBrowsing,
		Loading:  m.pending != nil,
		Spinner:  m.uiState.GetSpinner().View(),
		Start:    m.listing.Start,
		Count:    len(m.listing.Entries),
		Limit:    m.pageSize,
		LastPage: m.listing.LastPage,
		Width:    m.uiState.GetWidth(),
	}
	switch {
	case m.mode.IsPrompt():
		state.Context = render.FooterPrompt
		state.PromptLabel = promptLabels[m.mode]
		if m.mode == ModeSearchPrompt {
			state.PromptLabel += " " + m.space.Key
		}
		state.PromptView = m.uiState.GetInput().View()
	case m.mode == ModeViewing:
		state.Context = render.FooterViewer
		state.ScrollPercent = m.uiState.GetViewport().ScrollPercent()
	case m.mode == ModeSearchResults:
		state.Context = render.FooterResults
	}
	if notice, ok := m.errorHandler.Active(); ok {
		state.Notice = notice.Text
		state.NoticeKind = notice.Type.String()
	}
	return state
}
