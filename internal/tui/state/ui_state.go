package state

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
)

const (
	headerFooterLines     = 3
	defaultViewportWidth  = 80
	defaultViewportHeight = 22
)

// UIState holds the widget and layout state of the browser: terminal size,
// selection cursor, the viewer viewport, the prompt input and the spinner.
type UIState struct {
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	width    int
	height   int
	cursor   int
	// viewTitle is the title of the page shown in the viewer.
	viewTitle string
	degraded  bool
}

// NewUIState creates a UIState with default dimensions.
func NewUIState() *UIState {
	input := textinput.New()
	input.CharLimit = 512
	return &UIState{
		viewport: viewport.New(defaultViewportWidth, defaultViewportHeight),
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:    defaultViewportWidth,
		height:   defaultViewportHeight + headerFooterLines,
	}
}

func (u *UIState) GetViewport() *viewport.Model { return &u.viewport }
func (u *UIState) GetInput() *textinput.Model   { return &u.input }
func (u *UIState) GetSpinner() *spinner.Model   { return &u.spinner }

func (u *UIState) GetWidth() int { return u.width }

// SetWidth updates the width; non-positive values reset to the default.
func (u *UIState) SetWidth(width int) {
	u.width = width
	if width <= 0 {
		u.width = defaultViewportWidth
	}
}

func (u *UIState) GetHeight() int { return u.height }

// SetHeight updates the height; non-positive values reset to the default.
func (u *UIState) SetHeight(height int) {
	u.height = height
	if height <= 0 {
		u.height = defaultViewportHeight + headerFooterLines
	}
}

// BodyHeight is the number of lines between header and footer.
func (u *UIState) BodyHeight() int {
	h := u.height - headerFooterLines
	if h < 1 {
		return 1
	}
	return h
}

// UpdateViewportSize resizes the viewer to the body area, keeping content.
func (u *UIState) UpdateViewportSize() {
	u.viewport.Width = u.width
	u.viewport.Height = u.BodyHeight()
}

func (u *UIState) GetCursor() int { return u.cursor }

// SetCursor moves the cursor, clamped to [0, listLen).
func (u *UIState) SetCursor(cursor, listLen int) {
	switch {
	case listLen <= 0 || cursor < 0:
		u.cursor = 0
	case cursor >= listLen:
		u.cursor = listLen - 1
	default:
		u.cursor = cursor
	}
}

// ResetCursor puts the cursor on the first entry.
func (u *UIState) ResetCursor() {
	u.cursor = 0
}

// ListWindow returns the [first, last) range of rows to draw so the cursor
// stays visible.
func (u *UIState) ListWindow(listLen int) (int, int) {
	height := u.BodyHeight()
	if listLen <= height {
		return 0, listLen
	}
	first := u.cursor - height/2
	if first < 0 {
		first = 0
	}
	if first+height > listLen {
		first = listLen - height
	}
	return first, first + height
}

// StartPrompt focuses an empty input with the given placeholder.
func (u *UIState) StartPrompt(placeholder string) {
	u.input.Reset()
	u.input.Placeholder = placeholder
	u.input.Focus()
}

// StopPrompt blurs and clears the input.
func (u *UIState) StopPrompt() {
	u.input.Blur()
	u.input.Reset()
}

// ShowDocument loads rendered text into the viewer.
func (u *UIState) ShowDocument(title, text string, degraded bool) {
	u.viewTitle = title
	u.degraded = degraded
	u.UpdateViewportSize()
	u.viewport.SetContent(text)
	u.viewport.GotoTop()
}

// ClearDocument drops the viewer content.
func (u *UIState) ClearDocument() {
	u.viewTitle = ""
	u.degraded = false
	u.viewport.SetContent("")
}

func (u *UIState) ViewTitle() string { return u.viewTitle }
func (u *UIState) Degraded() bool    { return u.degraded }
