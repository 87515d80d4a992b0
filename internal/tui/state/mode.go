package state

// Mode is the interaction mode of the browser. Notices are an overlay and
// not a mode.
type Mode int

const (
	ModeBrowsing Mode = iota
	ModeViewing
	ModeSearchPrompt
	ModeSearchResults
	ModeSpacePrompt
	ModeGotoPrompt
)

// modeReturn is a table target meaning "the mode we came from".
const modeReturn Mode = -1

func (m Mode) String() string {
	switch m {
	case ModeBrowsing:
		return "browsing"
	case ModeViewing:
		return "viewing"
	case ModeSearchPrompt:
		return "search-prompt"
	case ModeSearchResults:
		return "search-results"
	case ModeSpacePrompt:
		return "space-prompt"
	case ModeGotoPrompt:
		return "goto-prompt"
	case modeReturn:
		return "return"
	default:
		return "unknown"
	}
}

// IsPrompt reports whether runes go to the text input.
func (m Mode) IsPrompt() bool {
	return m == ModeSearchPrompt || m == ModeSpacePrompt || m == ModeGotoPrompt
}

// IsList reports whether the mode shows a listing.
func (m Mode) IsList() bool {
	return m == ModeBrowsing || m == ModeSearchResults
}

// Trigger is an input-level intent, produced by the key dispatcher.
type Trigger int

const (
	TriggerMoveUp Trigger = iota
	TriggerMoveDown
	TriggerDrillIn
	TriggerGoBack
	TriggerView
	TriggerExitView
	TriggerOpen
	TriggerCopyLink
	TriggerEnterSearch
	TriggerSubmit
	TriggerCancel
	TriggerNextPage
	TriggerPrevPage
	TriggerRefresh
	TriggerListSpace
	TriggerSwitchSpace
	TriggerGoto
	TriggerPageSizeUp
	TriggerPageSizeDown
	TriggerQuit
)

var triggerNames = map[Trigger]string{
	TriggerMoveUp:       "move-up",
	TriggerMoveDown:     "move-down",
	TriggerDrillIn:      "drill-in",
	TriggerGoBack:       "go-back",
	TriggerView:         "view",
	TriggerExitView:     "exit-view",
	TriggerOpen:         "open",
	TriggerCopyLink:     "copy-link",
	TriggerEnterSearch:  "enter-search",
	TriggerSubmit:       "submit",
	TriggerCancel:       "cancel",
	TriggerNextPage:     "next-page",
	TriggerPrevPage:     "prev-page",
	TriggerRefresh:      "refresh",
	TriggerListSpace:    "list-space",
	TriggerSwitchSpace:  "switch-space",
	TriggerGoto:         "goto",
	TriggerPageSizeUp:   "page-size-up",
	TriggerPageSizeDown: "page-size-down",
	TriggerQuit:         "quit",
}

func (t Trigger) String() string {
	if name, ok := triggerNames[t]; ok {
		return name
	}
	return "unknown"
}

// supersedes reports whether the trigger may start a request while another
// one is in flight. The older request becomes stale.
func (t Trigger) supersedes() bool {
	switch t {
	case TriggerGoBack, TriggerSubmit, TriggerQuit:
		return true
	}
	return false
}

// fetches reports whether the trigger issues a gateway request.
func (t Trigger) fetches() bool {
	switch t {
	case TriggerDrillIn, TriggerGoBack, TriggerView, TriggerSubmit, TriggerNextPage,
		TriggerPrevPage, TriggerRefresh, TriggerListSpace, TriggerPageSizeUp, TriggerPageSizeDown:
		return true
	}
	return false
}

// listTransitions are shared by the two listing modes; the target for the
// listing mode itself is filled in by the table below.
func listTransitions(self Mode) map[Trigger]Mode {
	return map[Trigger]Mode{
		TriggerMoveUp:       self,
		TriggerMoveDown:     self,
		TriggerDrillIn:      ModeBrowsing,
		TriggerGoBack:       ModeBrowsing,
		TriggerView:         ModeViewing,
		TriggerOpen:         self,
		TriggerCopyLink:     self,
		TriggerEnterSearch:  ModeSearchPrompt,
		TriggerNextPage:     self,
		TriggerPrevPage:     self,
		TriggerRefresh:      self,
		TriggerListSpace:    ModeSearchResults,
		TriggerSwitchSpace:  ModeSpacePrompt,
		TriggerGoto:         ModeGotoPrompt,
		TriggerPageSizeUp:   self,
		TriggerPageSizeDown: self,
		TriggerQuit:         self,
	}
}

func promptTransitions(submitted Mode) map[Trigger]Mode {
	return map[Trigger]Mode{
		TriggerSubmit: submitted,
		TriggerCancel: modeReturn,
		TriggerQuit:   modeReturn,
	}
}

// transitions is the Mode x Trigger table. A missing entry means the trigger
// is a no-op in that mode. Targets of fetching triggers are entered once the
// fetch succeeds.
var transitions = map[Mode]map[Trigger]Mode{
	ModeBrowsing:      listTransitions(ModeBrowsing),
	ModeSearchResults: listTransitions(ModeSearchResults),
	ModeViewing: {
		TriggerExitView: modeReturn,
		TriggerOpen:     ModeViewing,
		TriggerCopyLink: ModeViewing,
		TriggerQuit:     ModeViewing,
	},
	ModeSearchPrompt: promptTransitions(ModeSearchResults),
	ModeSpacePrompt:  promptTransitions(ModeBrowsing),
	ModeGotoPrompt:   promptTransitions(ModeBrowsing),
}

// Next looks up the target mode for a trigger. A trigger that is a no-op
// in mode returns mode unchanged.
func Next(mode Mode, trigger Trigger) (Mode, bool) {
	row, ok := transitions[mode]
	if !ok {
		return mode, false
	}
	if target, ok := row[trigger]; ok {
		return target, true
	}
	return mode, false
}
