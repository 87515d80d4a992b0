package state

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/document"
)

// requestTag identifies one gateway request. A result is applied only when
// its tag is still the latest issued and its location is still on top.
type requestTag struct {
	Seq      uint64
	Location Location
}

func (t requestTag) String() string {
	return fmt.Sprintf("#%d %s", t.Seq, t.Location)
}

// homepageResolvedMsg carries the homepage of a space at startup or after a
// space switch.
type homepageResolvedMsg struct {
	tag  requestTag
	page confluence.Page
}

// listingLoadedMsg carries one page of a listing.
type listingLoadedMsg struct {
	tag     requestTag
	listing Listing
}

// pageResolvedMsg carries the target of a goto.
type pageResolvedMsg struct {
	tag  requestTag
	page confluence.Page
}

// bodyRenderedMsg carries a page rendered for the viewer.
type bodyRenderedMsg struct {
	tag     requestTag
	summary confluence.PageSummary
	result  document.Result
}

// fetchFailedMsg reports a failed request. Its tag is checked like a success.
type fetchFailedMsg struct {
	tag    requestTag
	action string
	err    error
}

// actionDoneMsg reports the outcome of a side effect (open, copy).
type actionDoneMsg struct {
	text string
	err  error
}

// noticeExpiredMsg clears the footer notice it was scheduled for.
type noticeExpiredMsg struct {
	id uint64
}

func noticeAfter(id uint64, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}
