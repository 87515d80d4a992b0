// Package pager shows long text in a scrollable full-screen viewport.
package pager

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Faint(true)
)

// Model is a read-only viewer with a title line and a scroll footer.
type Model struct {
	title    string
	content  string
	viewport viewport.Model
	ready    bool
}

// New creates a pager. Nothing is drawn until the first WindowSizeMsg.
func New(title, content string) *Model {
	return &Model{title: title, content: content}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := max(msg.Height-2, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	if !m.ready {
		return ""
	}
	header := titleStyle.Render(ansi.Truncate(m.title, m.viewport.Width, "…"))
	footer := hintStyle.Render(fmt.Sprintf("%3.f%%  ↑/↓ pgup/pgdn: scroll  ·  q: quit", m.viewport.ScrollPercent()*100))
	return header + "\n" + m.viewport.View() + "\n" + footer
}

// Run shows content until the user quits.
func Run(title, content string, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(New(title, content), opts...).Run()
	return err
}
