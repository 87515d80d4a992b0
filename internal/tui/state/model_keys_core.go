package state

import (
	tea "github.com/charmbracelet/bubbletea"
)

type keyBindingContext int

const (
	keyBindingContextList keyBindingContext = iota
	keyBindingContextViewer
	keyBindingContextPrompt
)

// keyBindingPolicy says what happens to keys with no binding in a context.
type keyBindingPolicy struct {
	forwardToViewport bool
	forwardToInput    bool
}

var listBindings = map[string]Trigger{
	"up":        TriggerMoveUp,
	"k":         TriggerMoveUp,
	"down":      TriggerMoveDown,
	"j":         TriggerMoveDown,
	"right":     TriggerDrillIn,
	"l":         TriggerDrillIn,
	"left":      TriggerGoBack,
	"h":         TriggerGoBack,
	"backspace": TriggerGoBack,
	"esc":       TriggerGoBack,
	"enter":     TriggerOpen,
	"v":         TriggerView,
	"/":         TriggerEnterSearch,
	"n":         TriggerNextPage,
	"p":         TriggerPrevPage,
	"r":         TriggerRefresh,
	"a":         TriggerListSpace,
	"s":         TriggerSwitchSpace,
	"g":         TriggerGoto,
	"]":         TriggerPageSizeUp,
	"[":         TriggerPageSizeDown,
	"y":         TriggerCopyLink,
	"q":         TriggerQuit,
	"ctrl+c":    TriggerQuit,
}

var viewerBindings = map[string]Trigger{
	"esc":       TriggerExitView,
	"left":      TriggerExitView,
	"h":         TriggerExitView,
	"v":         TriggerExitView,
	"backspace": TriggerExitView,
	"enter":     TriggerOpen,
	"o":         TriggerOpen,
	"y":         TriggerCopyLink,
	"q":         TriggerQuit,
	"ctrl+c":    TriggerQuit,
}

var promptBindings = map[string]Trigger{
	"enter":  TriggerSubmit,
	"esc":    TriggerCancel,
	"ctrl+c": TriggerQuit,
}

var contextBindings = map[keyBindingContext]map[string]Trigger{
	keyBindingContextList:   listBindings,
	keyBindingContextViewer: viewerBindings,
	keyBindingContextPrompt: promptBindings,
}

// handleKeyMsg maps a key to a trigger for the current mode. Unbound keys
// scroll the viewer or edit the prompt; elsewhere they are ignored.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	context := m.currentKeyBindingContext()
	if trigger, ok := contextBindings[context][msg.String()]; ok {
		return m, m.fire(trigger)
	}

	policy := m.keyBindingPolicyForContext(context)
	var cmd tea.Cmd
	switch {
	case policy.forwardToInput:
		*m.uiState.GetInput(), cmd = m.uiState.GetInput().Update(msg)
	case policy.forwardToViewport:
		*m.uiState.GetViewport(), cmd = m.uiState.GetViewport().Update(msg)
	}
	return m, cmd
}

func (m *Model) currentKeyBindingContext() keyBindingContext {
	switch {
	case m.mode.IsPrompt():
		return keyBindingContextPrompt
	case m.mode == ModeViewing:
		return keyBindingContextViewer
	default:
		return keyBindingContextList
	}
}

func (m *Model) keyBindingPolicyForContext(context keyBindingContext) keyBindingPolicy {
	switch context {
	case keyBindingContextPrompt:
		return keyBindingPolicy{forwardToInput: true}
	case keyBindingContextViewer:
		return keyBindingPolicy{forwardToViewport: true}
	default:
		return keyBindingPolicy{}
	}
}

// Bindings returns the key to trigger table for a mode.
func Bindings(mode Mode) map[string]Trigger {
	switch {
	case mode.IsPrompt():
		return promptBindings
	case mode == ModeViewing:
		return viewerBindings
	default:
		return listBindings
	}
}
