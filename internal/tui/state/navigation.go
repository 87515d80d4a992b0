package state

import (
	"strings"

	"github.com/cristianoliveira/confluence-cli/internal/confluence"
)

// LocationKind tells a page apart from a space root.
type LocationKind int

const (
	// LocationSpaceHome is the root of a space. PageID is empty while the
	// homepage lookup is pending.
	LocationSpaceHome LocationKind = iota
	LocationPage
)

// Location is one entry of the navigation stack.
type Location struct {
	Kind     LocationKind
	PageID   string
	Title    string
	SpaceKey string
}

// Resolved reports whether the location names a page that can be listed.
func (l Location) Resolved() bool {
	return l.PageID != ""
}

// Label is the breadcrumb text for the location.
func (l Location) Label() string {
	switch {
	case l.Title != "":
		return l.Title
	case l.PageID != "":
		return l.PageID
	default:
		return l.SpaceKey + " (resolving)"
	}
}

func (l Location) String() string {
	if l.Kind == LocationSpaceHome {
		return "space:" + l.SpaceKey + "/" + l.PageID
	}
	return "page:" + l.PageID
}

func pageLocation(s confluence.PageSummary, spaceKey string) Location {
	if s.SpaceKey != "" {
		spaceKey = s.SpaceKey
	}
	return Location{Kind: LocationPage, PageID: s.ID, Title: s.Title, SpaceKey: spaceKey}
}

// Source is what produced a listing.
type Source int

const (
	SourceChildren Source = iota
	SourceSpace
	SourceSearch
)

func (s Source) String() string {
	switch s {
	case SourceSpace:
		return "space"
	case SourceSearch:
		return "search"
	default:
		return "children"
	}
}

// Listing is one page of results for the location on top of the stack.
type Listing struct {
	Source   Source
	Location Location
	Entries  []confluence.PageSummary
	Start    int
	Limit    int
	// LastPage is set when the fetch returned fewer than Limit entries.
	LastPage bool
	// Query is the CQL for search listings.
	Query string
	// Loaded is false until the first fetch for Location succeeds.
	Loaded bool
}

// SpaceContext is the active space and its homepage.
type SpaceContext struct {
	Key           string
	HomepageID    string
	HomepageTitle string
}

// Stack is the navigation stack. The bottom entry is the space root.
type Stack struct {
	entries []Location
}

// Reset replaces the whole stack with a single root.
func (s *Stack) Reset(root Location) {
	s.entries = []Location{root}
}

// Push adds a location on top.
func (s *Stack) Push(l Location) {
	s.entries = append(s.entries, l)
}

// Pop removes the top location. Popping the root is a no-op and returns false.
func (s *Stack) Pop() bool {
	if len(s.entries) <= 1 {
		return false
	}
	s.entries = s.entries[:len(s.entries)-1]
	return true
}

// Top returns the current location.
func (s *Stack) Top() (Location, bool) {
	if len(s.entries) == 0 {
		return Location{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Bottom returns the space root.
func (s *Stack) Bottom() (Location, bool) {
	if len(s.entries) == 0 {
		return Location{}, false
	}
	return s.entries[0], true
}

// Depth is the number of entries.
func (s *Stack) Depth() int {
	return len(s.entries)
}

// Locations returns a copy of the entries, root first.
func (s *Stack) Locations() []Location {
	out := make([]Location, len(s.entries))
	copy(out, s.entries)
	return out
}

// IDs returns the page ids, root first.
func (s *Stack) IDs() []string {
	ids := make([]string, len(s.entries))
	for i, l := range s.entries {
		ids[i] = l.PageID
	}
	return ids
}

func (s *Stack) String() string {
	labels := make([]string, len(s.entries))
	for i, l := range s.entries {
		labels[i] = l.Label()
	}
	return strings.Join(labels, " > ")
}
