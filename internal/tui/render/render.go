// Package render projects the browser state onto strings. Functions here
// read their inputs and never change them.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
)

const (
	crumbSeparator = " › "
	ellipsis       = "…"
	childMarker    = "▸"
	selectMarker   = "›"
	hintSeparator  = "  ·  "
)

// FooterContext selects the key hints shown in the footer.
type FooterContext int

const (
	FooterBrowsing FooterContext = iota
	FooterResults
	FooterViewer
	FooterPrompt
)

// HeaderState defines the inputs of the title bar.
type HeaderState struct {
	SpaceKey string
	// Crumbs are the stack labels, root first.
	Crumbs []string
	// Title replaces the breadcrumb tail in the viewer.
	Title    string
	Degraded bool
	// Source names non-children listings ("search", "space").
	Source string
	Width  int
}

// RowState defines the inputs needed to render a listing row.
type RowState struct {
	Title       string
	ID          string
	HasChildren bool
	Selected    bool
	Width       int
}

// FooterState defines the inputs of the two footer lines.
type FooterState struct {
	Context     FooterContext
	PromptLabel string
	// PromptView is the rendered text input.
	PromptView string
	Notice     string
	NoticeKind string
	Loading    bool
	Spinner    string
	Start      int
	Count      int
	Limit      int
	LastPage   bool
	// ScrollPercent is the viewer position, 0..1.
	ScrollPercent float64
	Width         int
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ansiColorNumber(colors.Blue)))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Bold(true).
			Background(lipgloss.Color(ansiColorNumber(colors.Blue))).
			Foreground(lipgloss.Color("0"))
	noticeStyles = map[string]lipgloss.Style{
		"error":   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"success": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"info":    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
)

// Header renders "[SPACE] root › ... › top (depth N)", dropping the oldest
// crumbs first when the line is too wide.
func Header(state HeaderState) string {
	prefix := "[" + state.SpaceKey + "] "
	crumbs := state.Crumbs
	if state.Title != "" {
		crumbs = append(append([]string{}, crumbs...), state.Title)
	}
	suffix := fmt.Sprintf("  (depth %d)", len(state.Crumbs))
	if state.Source != "" {
		suffix = "  [" + state.Source + "]" + suffix
	}
	if state.Degraded {
		suffix += "  (plain text)"
	}

	budget := state.Width - ansi.StringWidth(prefix) - ansi.StringWidth(suffix)
	line := prefix + Breadcrumb(crumbs, budget) + suffix
	if state.Width > 0 {
		line = ansi.Truncate(line, state.Width, ellipsis)
	}
	return titleStyle.Render(line)
}

// Breadcrumb joins crumbs, replacing leading ones with an ellipsis until the
// result fits in width. A non-positive width disables trimming.
func Breadcrumb(crumbs []string, width int) string {
	full := strings.Join(crumbs, crumbSeparator)
	if width <= 0 || ansi.StringWidth(full) <= width {
		return full
	}
	for i := 1; i < len(crumbs); i++ {
		trimmed := ellipsis + crumbSeparator + strings.Join(crumbs[i:], crumbSeparator)
		if ansi.StringWidth(trimmed) <= width {
			return trimmed
		}
	}
	return ansi.Truncate(crumbs[len(crumbs)-1], width, ellipsis)
}

// Row renders one listing entry.
func Row(state RowState) string {
	marker := "  "
	if state.Selected {
		marker = selectMarker + " "
	}
	children := "  "
	if state.HasChildren {
		children = childMarker + " "
	}
	id := "  " + dimStyle.Render(state.ID)
	if state.Selected {
		id = "  " + state.ID
	}

	title := state.Title
	if state.Width > 0 {
		available := state.Width - ansi.StringWidth(marker+children) - ansi.StringWidth(state.ID) - 2
		if available < 1 {
			available = 1
		}
		title = ansi.Truncate(title, available, ellipsis)
	}
	row := marker + children + title + id
	if state.Selected {
		return selectedStyle.Render(row)
	}
	return row
}

// Empty renders the placeholder for an empty or loading listing.
func Empty(loading bool) string {
	if loading {
		return dimStyle.Render("Loading…")
	}
	return dimStyle.Render("No pages found")
}

// Footer renders the status line and the key hints.
func Footer(state FooterState) string {
	return statusLine(state) + "\n" + hintLine(state)
}

func statusLine(state FooterState) string {
	var parts []string
	switch {
	case state.Context == FooterPrompt:
		parts = append(parts, state.PromptLabel+": "+state.PromptView)
	case state.Context == FooterViewer:
		parts = append(parts, fmt.Sprintf("%3.0f%%", state.ScrollPercent*100))
	default:
		parts = append(parts, PageInfo(state.Start, state.Count, state.LastPage))
	}
	if state.Loading {
		parts = append(parts, state.Spinner+" loading")
	}
	line := strings.Join(parts, "  ")
	if state.Notice != "" {
		style, ok := noticeStyles[state.NoticeKind]
		if !ok {
			style = noticeStyles["info"]
		}
		line += "  " + style.Render(state.Notice)
	}
	if state.Width > 0 {
		line = ansi.Truncate(line, state.Width, ellipsis)
	}
	return line
}

// PageInfo describes the visible range, e.g. "26-50" or "26-31 (last)".
func PageInfo(start, count int, last bool) string {
	if count == 0 {
		if start == 0 {
			return "0 pages"
		}
		return fmt.Sprintf("%d- (last)", start+1)
	}
	info := fmt.Sprintf("%d-%d", start+1, start+count)
	if last {
		info += " (last)"
	}
	return info
}

// Hints returns the key help for a context.
func Hints(context FooterContext) []string {
	switch context {
	case FooterPrompt:
		return []string{"enter: submit", "esc: cancel"}
	case FooterViewer:
		return []string{"↑/↓ pgup/pgdn: scroll", "esc: back", "enter: open", "y: copy link", "q: quit"}
	case FooterResults:
		return []string{"↑/↓: move", "→: open children", "←: back", "v: view", "enter: browser", "n/p: page", "/: search", "q: quit"}
	default:
		return []string{"↑/↓: move", "→/←: in/out", "v: view", "enter: browser", "/: search", "n/p: page", "[/]: size", "r: refresh", "a: all", "s: space", "g: goto", "y: copy", "q: quit"}
	}
}

func hintLine(state FooterState) string {
	line := strings.Join(Hints(state.Context), hintSeparator)
	if state.Context != FooterPrompt && state.Limit > 0 {
		line += hintSeparator + fmt.Sprintf("size %d", state.Limit)
	}
	if state.Width > 0 {
		line = ansi.Truncate(line, state.Width, ellipsis)
	}
	return dimStyle.Render(line)
}

// ansiColorNumber extracts the color number from an ANSI escape sequence.
// Example: "\033[0;34m" -> "34"
func ansiColorNumber(seq string) string {
	if len(seq) < 2 {
		return ""
	}
	lastSemicolon := strings.LastIndex(seq, ";")
	if lastSemicolon == -1 {
		return ""
	}
	return seq[lastSemicolon+1 : len(seq)-1]
}
