package state

import (
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/confluence-cli/internal/confluence"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func screen(m *Model) []string {
	return strings.Split(ansi.Strip(m.View()), "\n")
}

func TestViewBrowsing(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 10})

	lines := screen(m)
	require.Len(t, lines, 10)
	assert.Equal(t, "[ENG] Home  (depth 1)", lines[0])
	assert.Equal(t, "›   A  201", strings.TrimRight(lines[1], " "))
	assert.Equal(t, "    B  202", lines[2])
	assert.Equal(t, "1-2 (last)", lines[8])
	assert.True(t, strings.HasPrefix(lines[9], "↑/↓: move"), lines[9])
}

func TestViewPromptAndResults(t *testing.T) {
	m, _ := newTestModel(t, func(c *confluence.MockClient) {
		c.On("Search", ctxArg, `type=page AND status=current AND space=ENG AND text~"db"`, 25, 0).
			Return(pageList(false, 25, 0, "501", "DB runbook"), nil)
	})
	pressAndSettle(m, "/")
	typeText(m, "db")

	lines := screen(m)
	footer := lines[len(lines)-2]
	assert.True(t, strings.HasPrefix(footer, "Search ENG: "), footer)
	assert.Contains(t, footer, "db")

	pressAndSettle(m, "enter")
	lines = screen(m)
	assert.Equal(t, "[ENG] Home  [search]  (depth 1)", lines[0])
	assert.Contains(t, lines[1], "DB runbook")
}

func TestViewLoadingAndNotice(t *testing.T) {
	m, _ := newTestModel(t, func(c *confluence.MockClient) {
		c.On("ListChildren", ctxArg, "201", 25, 0).Return(confluence.PageList{}, transientErr())
	})

	drill := press(m, "right")
	lines := screen(m)
	assert.Equal(t, "[ENG] Home › A  (depth 2)", lines[0])
	assert.Equal(t, "Loading…", lines[1])
	assert.Contains(t, lines[len(lines)-2], "loading")

	settle(m, drill)
	lines = screen(m)
	assert.Equal(t, "No pages found", lines[1])
	assert.Contains(t, lines[len(lines)-2], "Loading children: network error")
}

func TestViewViewer(t *testing.T) {
	m, _ := newTestModel(t, func(c *confluence.MockClient) {
		c.On("RenderedBody", ctxArg, "201", false).Return("<p>x</p>", nil)
	})
	pressAndSettle(m, "v")

	lines := screen(m)
	assert.Equal(t, "[ENG] Home › A  (depth 1)", lines[0])
	assert.Equal(t, "rendered: <p>x</p>", strings.TrimRight(lines[1], " "))
	assert.Contains(t, lines[len(lines)-1], "esc: back")
}
