package state

import (
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/document"
)

var specialKeys = map[string]tea.KeyType{
	"up":        tea.KeyUp,
	"down":      tea.KeyDown,
	"left":      tea.KeyLeft,
	"right":     tea.KeyRight,
	"enter":     tea.KeyEnter,
	"esc":       tea.KeyEsc,
	"backspace": tea.KeyBackspace,
	"ctrl+c":    tea.KeyCtrlC,
}

func keyMsg(key string) tea.KeyMsg {
	if kt, ok := specialKeys[key]; ok {
		return tea.KeyMsg{Type: kt}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// press sends one key and returns the command without running it.
func press(m *Model, key string) tea.Cmd {
	_, cmd := m.Update(keyMsg(key))
	return cmd
}

// typeText sends runes to the prompt. Cursor blink commands are dropped.
func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// run executes cmd and everything it batches, dropping spinner ticks.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(c)...)
		}
		return out
	case spinner.TickMsg:
		return nil
	case nil:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

// settle runs cmd and feeds every resulting message back into the model
// until no commands are left.
func settle(m *Model, cmd tea.Cmd) {
	queue := run(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		_, next := m.Update(msg)
		queue = append(queue, run(next)...)
	}
}

// pressAndSettle sends keys one by one, settling after each.
func pressAndSettle(m *Model, keys ...string) {
	for _, k := range keys {
		settle(m, press(m, k))
	}
}

type fakeRenderer struct {
	result document.Result
	err    error
	widths []int
}

func (f *fakeRenderer) Render(html string, width int) (document.Result, error) {
	f.widths = append(f.widths, width)
	if f.err != nil {
		return document.Result{}, f.err
	}
	result := f.result
	if result.Text == "" {
		result.Text = "rendered: " + html
	}
	return result, nil
}

type fakeLinker struct {
	opened []string
	copied []string
	err    error
}

func (f *fakeLinker) OpenURL(url string) error {
	f.opened = append(f.opened, url)
	return f.err
}

func (f *fakeLinker) CopyText(text string) error {
	f.copied = append(f.copied, text)
	return f.err
}

func summaries(pairs ...string) []confluence.PageSummary {
	out := make([]confluence.PageSummary, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, confluence.PageSummary{ID: pairs[i], Title: pairs[i+1], SpaceKey: "ENG"})
	}
	return out
}

func pageList(hasMore bool, limit, start int, pairs ...string) confluence.PageList {
	return confluence.PageList{Entries: summaries(pairs...), Start: start, Limit: limit, HasMore: hasMore}
}

var ctxArg = mock.Anything

type testEnv struct {
	client   *confluence.MockClient
	renderer *fakeRenderer
	linker   *fakeLinker
	notices  []uint64
}

// newTestModel builds a model for space ENG whose homepage is page 100
// with children A (201) and B (202). The startup sequence has been settled.
func newTestModel(t *testing.T, setup ...func(*confluence.MockClient)) (*Model, *testEnv) {
	t.Helper()
	env := &testEnv{client: new(confluence.MockClient), renderer: &fakeRenderer{}, linker: &fakeLinker{}}
	env.client.On("SpaceHomepage", ctxArg, "ENG").
		Return(confluence.Page{ID: "100", Title: "Home", SpaceKey: "ENG"}, nil).Maybe()
	for _, fn := range setup {
		fn(env.client)
	}
	env.client.On("ListChildren", ctxArg, "100", 25, 0).
		Return(pageList(false, 25, 0, "201", "A", "202", "B"), nil).Maybe()

	m, err := NewModel(Options{Client: env.client, Renderer: env.renderer, Linker: env.linker, SpaceKey: "ENG"})
	require.NoError(t, err)
	m.scheduleNotice = func(id uint64, _ time.Duration) tea.Cmd {
		env.notices = append(env.notices, id)
		return nil
	}
	settle(m, m.Init())
	return m, env
}

func transientErr() error {
	return &confluence.APIError{Kind: confluence.KindTransient, Method: "GET", Path: "/rest/api/content", Err: context.DeadlineExceeded}
}
