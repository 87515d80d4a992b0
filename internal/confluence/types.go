package confluence

// PageSummary is one entry of a listing.
type PageSummary struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	// SpaceKey is empty when the listing did not expand the space.
	SpaceKey string `json:"space_key,omitempty" yaml:"space_key,omitempty"`
	// HasChildren is only a hint; false may mean unknown.
	HasChildren bool   `json:"has_children,omitempty" yaml:"has_children,omitempty"`
	WebURL      string `json:"url,omitempty" yaml:"url,omitempty"`
}

// PageList is one page of results from a paginated endpoint.
type PageList struct {
	Entries []PageSummary `json:"results" yaml:"results"`
	Start   int           `json:"start" yaml:"start"`
	Limit   int           `json:"limit" yaml:"limit"`
	// HasMore is false when the server returned fewer than Limit results or
	// did not advertise a next page.
	HasMore bool `json:"has_more" yaml:"has_more"`
}

// Page is a single page with the fields the CLI uses.
type Page struct {
	ID        string        `json:"id" yaml:"id"`
	Title     string        `json:"title" yaml:"title"`
	SpaceKey  string        `json:"space_key" yaml:"space_key"`
	Status    string        `json:"status,omitempty" yaml:"status,omitempty"`
	Version   int           `json:"version" yaml:"version"`
	Ancestors []PageSummary `json:"ancestors,omitempty" yaml:"ancestors,omitempty"`
	// StorageBody is the storage-format XHTML, present only when requested.
	StorageBody string `json:"-" yaml:"-"`
	WebURL      string `json:"url" yaml:"url"`
	TinyURL     string `json:"tiny_url,omitempty" yaml:"tiny_url,omitempty"`
}

// Summary converts a page to a listing entry.
func (p Page) Summary() PageSummary {
	return PageSummary{ID: p.ID, Title: p.Title, SpaceKey: p.SpaceKey, WebURL: p.WebURL}
}

// ParentID returns the direct parent id, or "" for a root page.
func (p Page) ParentID() string {
	if len(p.Ancestors) == 0 {
		return ""
	}
	return p.Ancestors[len(p.Ancestors)-1].ID
}

// ListOptions filters a flat space listing.
type ListOptions struct {
	Limit int
	Start int
	// Title is an exact server-side title match.
	Title string
	// TitleContains is a case-insensitive client-side substring filter.
	TitleContains string
}

// CreateRequest describes a new page.
type CreateRequest struct {
	SpaceKey string
	Title    string
	// HTML is the page body in storage format.
	HTML     string
	ParentID string
}

// UpdateRequest replaces the body (and optionally the title) of a page.
type UpdateRequest struct {
	ID    string
	Title string
	HTML  string
	// MinorEdit suppresses watcher notifications in the page history.
	MinorEdit      bool
	NotifyWatchers bool
}

// wire types

type linksJSON struct {
	Base   string `json:"base"`
	WebUI  string `json:"webui"`
	TinyUI string `json:"tinyui"`
	Next   string `json:"next"`
	Self   string `json:"self"`
}

type contentJSON struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"`
	Status  string        `json:"status"`
	Title   string        `json:"title"`
	Space   *spaceRefJSON `json:"space"`
	Version *struct {
		Number int `json:"number"`
	} `json:"version"`
	Ancestors []contentJSON `json:"ancestors"`
	Body      *struct {
		Storage    *bodyValueJSON `json:"storage"`
		View       *bodyValueJSON `json:"view"`
		ExportView *bodyValueJSON `json:"export_view"`
	} `json:"body"`
	Children *struct {
		Page *struct {
			Size int `json:"size"`
		} `json:"page"`
	} `json:"children"`
	Links linksJSON `json:"_links"`
}

type spaceRefJSON struct {
	Key string `json:"key"`
}

type bodyValueJSON struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type contentListJSON struct {
	Results []contentJSON `json:"results"`
	Start   int           `json:"start"`
	Limit   int           `json:"limit"`
	Size    int           `json:"size"`
	Links   *linksJSON    `json:"_links"`
}

type searchListJSON struct {
	Results []struct {
		Content *contentJSON `json:"content"`
		Title   string       `json:"title"`
		URL     string       `json:"url"`
	} `json:"results"`
	Start int        `json:"start"`
	Limit int        `json:"limit"`
	Size  int        `json:"size"`
	Links *linksJSON `json:"_links"`
}

type spaceJSON struct {
	Key      string       `json:"key"`
	Name     string       `json:"name"`
	Homepage *contentJSON `json:"homepage"`
	Links    linksJSON    `json:"_links"`
}

type errorBodyJSON struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}
