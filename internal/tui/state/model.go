// Package state implements the interactive browser: the navigation stack,
// listings and pagination, interaction modes, and the key dispatcher. All
// state is owned by the bubbletea Update loop; gateway calls run as commands
// and come back as tagged messages.
package state

import (
	"errors"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/document"
	tuierrors "github.com/cristianoliveira/confluence-cli/internal/errors"
)

const (
	// MinPageSize and PageSizeStep bound the [ and ] keys.
	MinPageSize  = 5
	PageSizeStep = 5

	defaultPageSize       = 25
	defaultNoticeDuration = 5 * time.Second
)

var (
	ErrNoClient = errors.New("a confluence client is required")
	ErrNoSpace  = errors.New("a space key is required")
)

// Options configures a browser session.
type Options struct {
	Client   confluence.Client
	Renderer Renderer
	Linker   Linker
	SpaceKey string
	PageSize int
	// Export renders pages from the export view instead of the plain view.
	Export bool
	// NoticeDuration is how long footer notices stay up.
	NoticeDuration time.Duration
}

// pendingRequest is the request in flight, if any.
type pendingRequest struct {
	tag    requestTag
	action string
	// target is the mode entered when the request succeeds.
	target Mode
}

// Model is the bubbletea model of the interactive browser.
type Model struct {
	uiState      *UIState
	errorHandler *tuierrors.TUIHandler

	client         confluence.Client
	renderer       Renderer
	linker         Linker
	export         bool
	noticeDuration time.Duration

	space    SpaceContext
	stack    Stack
	listing  Listing
	mode     Mode
	pageSize int
	// returnMode is restored when the viewer or a prompt closes.
	returnMode Mode
	viewing    PageRef
	// resume is the children page left for search or space results.
	resume *listPosition

	seq      uint64
	pending  *pendingRequest
	quitting bool

	scheduleNotice func(id uint64, d time.Duration) tea.Cmd
}

// listPosition is a children page and the cursor row within it.
type listPosition struct {
	location Location
	start    int
	limit    int
	cursor   int
	restore  bool
}

// PageRef is the page shown in the viewer.
type PageRef struct {
	ID    string
	Title string
	URL   string
}

// NewModel creates a browser for a space. The homepage is resolved by Init.
func NewModel(opts Options) (*Model, error) {
	if opts.Client == nil {
		return nil, ErrNoClient
	}
	if opts.SpaceKey == "" {
		return nil, ErrNoSpace
	}
	if opts.Renderer == nil {
		opts.Renderer = document.NewRenderer(document.DefaultStyle)
	}
	if opts.NoticeDuration <= 0 {
		opts.NoticeDuration = defaultNoticeDuration
	}

	m := &Model{
		uiState:        NewUIState(),
		errorHandler:   tuierrors.NewTUIHandler(logNotice),
		client:         opts.Client,
		renderer:       opts.Renderer,
		linker:         opts.Linker,
		export:         opts.Export,
		noticeDuration: opts.NoticeDuration,
		space:          SpaceContext{Key: opts.SpaceKey},
		mode:           ModeBrowsing,
		returnMode:     ModeBrowsing,
		pageSize:       normalizePageSize(opts.PageSize),
		scheduleNotice: noticeAfter,
	}
	root := Location{Kind: LocationSpaceHome, SpaceKey: opts.SpaceKey}
	m.stack.Reset(root)
	m.listing = m.placeholder(root)
	return m, nil
}

func normalizePageSize(size int) int {
	switch {
	case size <= 0:
		return defaultPageSize
	case size < MinPageSize:
		return MinPageSize
	case size > confluence.MaxPageSize:
		return confluence.MaxPageSize
	}
	return size
}

// Init resolves the space homepage.
func (m *Model) Init() tea.Cmd {
	root, _ := m.stack.Bottom()
	return m.issue(root, "resolve-homepage", ModeBrowsing, func(tag requestTag) tea.Cmd {
		return resolveHomepageCmd(m.client, tag)
	})
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)
	case spinner.TickMsg:
		if m.pending == nil {
			return m, nil
		}
		var cmd tea.Cmd
		*m.uiState.GetSpinner(), cmd = m.uiState.GetSpinner().Update(msg)
		return m, cmd
	case homepageResolvedMsg:
		return m, m.handleHomepageResolved(msg)
	case listingLoadedMsg:
		return m, m.handleListingLoaded(msg)
	case pageResolvedMsg:
		return m, m.handlePageResolved(msg)
	case bodyRenderedMsg:
		return m, m.handleBodyRendered(msg)
	case fetchFailedMsg:
		return m, m.handleFetchFailed(msg)
	case actionDoneMsg:
		if msg.err != nil {
			return m, m.notify(tuierrors.MessageTypeError, msg.err.Error())
		}
		return m, m.notify(tuierrors.MessageTypeSuccess, msg.text)
	case noticeExpiredMsg:
		m.errorHandler.Dismiss(msg.id)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.uiState.SetWidth(msg.Width)
	m.uiState.SetHeight(msg.Height)
	m.uiState.UpdateViewportSize()
	m.uiState.GetInput().Width = m.uiState.GetWidth() - 20
	return m, nil
}

// issue tags a new request, marks it as the one in flight and returns its
// command batched with the spinner.
func (m *Model) issue(loc Location, action string, target Mode, build func(requestTag) tea.Cmd) tea.Cmd {
	m.seq++
	tag := requestTag{Seq: m.seq, Location: loc}
	if m.pending != nil {
		colors.StructuredDebug("tui", m.pending.action, "superseded", nil, m.pending.tag.String(), nil)
	}
	m.pending = &pendingRequest{tag: tag, action: action, target: target}
	colors.StructuredDebug("tui", action, "issued", nil, tag.String(), nil)
	return tea.Batch(build(tag), m.uiState.GetSpinner().Tick)
}

// accept reports whether a result belongs to the request in flight. With
// checkTop it also requires the tagged location to still be on top.
func (m *Model) accept(tag requestTag, action string, checkTop bool) bool {
	current := m.pending != nil && m.pending.tag.Seq == tag.Seq
	if current && checkTop {
		top, _ := m.stack.Top()
		current = top == tag.Location
	}
	if !current {
		colors.StructuredDebug("tui", action, "stale", nil, tag.String(), nil)
		return false
	}
	m.pending = nil
	return true
}

// placeholder is the empty listing shown while loc's children load.
func (m *Model) placeholder(loc Location) Listing {
	return Listing{Source: SourceChildren, Location: loc, Limit: m.pageSize}
}

func (m *Model) handleHomepageResolved(msg homepageResolvedMsg) tea.Cmd {
	if !m.accept(msg.tag, "resolve-homepage", false) {
		return nil
	}
	key := msg.tag.Location.SpaceKey
	m.space = SpaceContext{Key: key, HomepageID: msg.page.ID, HomepageTitle: msg.page.Title}
	root := Location{Kind: LocationSpaceHome, PageID: msg.page.ID, Title: msg.page.Title, SpaceKey: key}
	m.stack.Reset(root)
	m.mode = ModeBrowsing
	m.listing = m.placeholder(root)
	m.resume = nil
	m.uiState.ResetCursor()
	return m.fetchChildren(root, ModeBrowsing, 0, m.pageSize)
}

func (m *Model) handleListingLoaded(msg listingLoadedMsg) tea.Cmd {
	target := ModeBrowsing
	if m.pending != nil {
		target = m.pending.target
	}
	if !m.accept(msg.tag, "list-"+msg.listing.Source.String(), true) {
		return nil
	}
	cursor := m.trackPosition(msg.listing)
	m.listing = msg.listing
	m.pageSize = msg.listing.Limit
	m.uiState.ResetCursor()
	if cursor > 0 {
		m.uiState.SetCursor(cursor, len(m.listing.Entries))
	}
	m.enter(target)
	m.dismissError()
	return nil
}

// trackPosition remembers the children page being replaced by results and
// returns the cursor to restore when that page loads again.
func (m *Model) trackPosition(next Listing) int {
	if next.Source != SourceChildren {
		if m.listing.Source == SourceChildren && m.listing.Loaded {
			m.resume = &listPosition{
				location: m.listing.Location,
				start:    m.listing.Start,
				limit:    m.listing.Limit,
				cursor:   m.uiState.GetCursor(),
			}
		}
		return 0
	}
	r := m.resume
	m.resume = nil
	if r != nil && r.restore && r.location == next.Location && r.start == next.Start {
		return r.cursor
	}
	return 0
}

func (m *Model) handlePageResolved(msg pageResolvedMsg) tea.Cmd {
	if !m.accept(msg.tag, "goto", true) {
		return nil
	}
	loc := Location{Kind: LocationPage, PageID: msg.page.ID, Title: msg.page.Title, SpaceKey: msg.page.SpaceKey}
	if loc.SpaceKey == "" {
		loc.SpaceKey = m.space.Key
	}
	m.stack.Push(loc)
	m.mode = ModeBrowsing
	m.listing = m.placeholder(loc)
	m.uiState.ResetCursor()
	return m.fetchChildren(loc, ModeBrowsing, 0, m.pageSize)
}

func (m *Model) handleBodyRendered(msg bodyRenderedMsg) tea.Cmd {
	if !m.accept(msg.tag, "view", true) {
		return nil
	}
	m.returnMode = m.mode
	m.mode = ModeViewing
	m.viewing = PageRef{ID: msg.summary.ID, Title: msg.summary.Title, URL: confluence.URLFor(m.client, msg.summary)}
	m.uiState.ShowDocument(msg.summary.Title, msg.result.Text, msg.result.Degraded)
	m.dismissError()
	if msg.result.Degraded {
		return m.notify(tuierrors.MessageTypeWarning, "Rendered as plain text")
	}
	return nil
}

func (m *Model) handleFetchFailed(msg fetchFailedMsg) tea.Cmd {
	if !m.accept(msg.tag, msg.action, msg.action != "resolve-homepage") {
		return nil
	}
	text := describeError(msg.action, msg.err)
	if msg.action == "resolve-homepage" && confluence.KindOf(msg.err) == confluence.KindNotFound {
		text = "Space " + msg.tag.Location.SpaceKey + " has no homepage"
	}
	colors.StructuredError("tui", msg.action, "failed", msg.err, msg.tag.String(), nil)
	return m.notify(tuierrors.MessageTypeError, text)
}

// enter switches to a mode reached through the transition table.
func (m *Model) enter(target Mode) {
	if target == modeReturn {
		target = m.returnMode
	}
	m.mode = target
}

// notify shows a footer notice and schedules its removal.
func (m *Model) notify(kind tuierrors.MessageType, text string) tea.Cmd {
	switch kind {
	case tuierrors.MessageTypeError:
		m.errorHandler.Error(text)
	case tuierrors.MessageTypeWarning:
		m.errorHandler.Warning(text)
	case tuierrors.MessageTypeSuccess:
		m.errorHandler.Success(text)
	default:
		m.errorHandler.Info(text)
	}
	active, _ := m.errorHandler.Active()
	return m.scheduleNotice(active.ID, m.noticeDuration)
}

// logNotice records every footer notice in the log file, since the footer
// only keeps the latest one.
func logNotice(msg tuierrors.Message) {
	colors.StructuredInfo("tui", "notice", msg.Type.String(), nil, strconv.FormatUint(msg.ID, 10), colors.Fields("text", msg.Text))
}

// dismissError clears an error notice after a successful action.
func (m *Model) dismissError() {
	if active, ok := m.errorHandler.Active(); ok && active.Type == tuierrors.MessageTypeError {
		m.errorHandler.Dismiss(active.ID)
	}
}

// Mode returns the active interaction mode.
func (m *Model) Mode() Mode { return m.mode }

// Stack returns the navigation stack, root first.
func (m *Model) Stack() []Location { return m.stack.Locations() }

// Listing returns the current listing.
func (m *Model) Listing() Listing { return m.listing }

// Cursor returns the selection index.
func (m *Model) Cursor() int { return m.uiState.GetCursor() }

// Space returns the active space.
func (m *Model) Space() SpaceContext { return m.space }

// PageSize returns the committed page size.
func (m *Model) PageSize() int { return m.pageSize }

// Loading reports whether a request is in flight.
func (m *Model) Loading() bool { return m.pending != nil }

// Viewing returns the page shown in the viewer.
func (m *Model) Viewing() PageRef { return m.viewing }

// Notice returns the footer notice, if one is shown.
func (m *Model) Notice() (tuierrors.Message, bool) { return m.errorHandler.Active() }

// Quitting reports whether the user asked to quit.
func (m *Model) Quitting() bool { return m.quitting }
