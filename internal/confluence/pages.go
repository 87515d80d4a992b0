package confluence

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	pageExpand = "version,ancestors,space,_links"
	// allChildrenBatch is the page size used when walking every child.
	allChildrenBatch = 100
)

// SpaceHomepage resolves the homepage of a space.
func (c *DefaultClient) SpaceHomepage(ctx context.Context, spaceKey string) (Page, error) {
	spaceKey = strings.TrimSpace(spaceKey)
	if spaceKey == "" {
		return Page{}, &APIError{Kind: KindValidation, Method: "GET", Path: "/rest/api/space", Message: "space key is empty"}
	}
	path := "/rest/api/space/" + url.PathEscape(spaceKey)
	var space spaceJSON
	if err := c.do(ctx, "GET", path, url.Values{"expand": {"homepage"}}, nil, &space); err != nil {
		return Page{}, err
	}
	if space.Homepage == nil || space.Homepage.ID == "" {
		return Page{}, &APIError{Kind: KindNotFound, Method: "GET", Path: path, Message: fmt.Sprintf("space %s has no homepage", spaceKey)}
	}
	if space.Homepage.Space == nil {
		space.Homepage.Space = &spaceRefJSON{Key: spaceKey}
	}
	return c.toPage(*space.Homepage, space.Links.Base), nil
}

// GetPage fetches a page with its version, ancestors and storage body.
func (c *DefaultClient) GetPage(ctx context.Context, id string) (Page, error) {
	if err := requireID(id); err != nil {
		return Page{}, err
	}
	var content contentJSON
	query := url.Values{"expand": {pageExpand + ",body.storage"}}
	if err := c.do(ctx, "GET", "/rest/api/content/"+url.PathEscape(id), query, nil, &content); err != nil {
		return Page{}, err
	}
	return c.toPage(content, ""), nil
}

// RenderedBody fetches the HTML view of a page.
func (c *DefaultClient) RenderedBody(ctx context.Context, id string, export bool) (string, error) {
	if err := requireID(id); err != nil {
		return "", err
	}
	expand := "body.view"
	if export {
		expand = "body.export_view"
	}
	var content contentJSON
	if err := c.do(ctx, "GET", "/rest/api/content/"+url.PathEscape(id), url.Values{"expand": {expand}}, nil, &content); err != nil {
		return "", err
	}
	if content.Body == nil {
		return "", nil
	}
	if export && content.Body.ExportView != nil {
		return content.Body.ExportView.Value, nil
	}
	if content.Body.View != nil {
		return content.Body.View.Value, nil
	}
	return "", nil
}

// ListChildren returns one page of direct child pages.
func (c *DefaultClient) ListChildren(ctx context.Context, id string, limit, start int) (PageList, error) {
	if err := requireID(id); err != nil {
		return PageList{}, err
	}
	limit, start = clampLimit(limit), clampStart(start)
	query := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"start":  {strconv.Itoa(start)},
		"expand": {"_links"},
	}
	var list contentListJSON
	if err := c.do(ctx, "GET", "/rest/api/content/"+url.PathEscape(id)+"/child/page", query, nil, &list); err != nil {
		return PageList{}, err
	}
	return c.toPageList(list, limit, start), nil
}

// ListAllChildren follows pagination until every child has been read.
func (c *DefaultClient) ListAllChildren(ctx context.Context, id string) ([]PageSummary, error) {
	var all []PageSummary
	start := 0
	for {
		list, err := c.ListChildren(ctx, id, allChildrenBatch, start)
		if err != nil {
			return nil, err
		}
		all = append(all, list.Entries...)
		if !list.HasMore || len(list.Entries) == 0 {
			return all, nil
		}
		start += len(list.Entries)
	}
}

// ListSpace returns one page of current pages in a space.
func (c *DefaultClient) ListSpace(ctx context.Context, spaceKey string, opts ListOptions) (PageList, error) {
	if strings.TrimSpace(spaceKey) == "" {
		return PageList{}, &APIError{Kind: KindValidation, Method: "GET", Path: "/rest/api/content", Message: "space key is empty"}
	}
	limit, start := clampLimit(opts.Limit), clampStart(opts.Start)
	query := url.Values{
		"type":     {"page"},
		"spaceKey": {spaceKey},
		"status":   {"current"},
		"limit":    {strconv.Itoa(limit)},
		"start":    {strconv.Itoa(start)},
		"expand":   {"_links"},
	}
	if opts.Title != "" {
		query.Set("title", opts.Title)
	}
	var list contentListJSON
	if err := c.do(ctx, "GET", "/rest/api/content", query, nil, &list); err != nil {
		return PageList{}, err
	}
	result := c.toPageList(list, limit, start)
	if needle := strings.ToLower(strings.TrimSpace(opts.TitleContains)); needle != "" {
		filtered := result.Entries[:0]
		for _, e := range result.Entries {
			if strings.Contains(strings.ToLower(e.Title), needle) {
				filtered = append(filtered, e)
			}
		}
		result.Entries = filtered
	}
	return result, nil
}

// FindPageByTitle looks up a current page by exact title. When parentID is
// set only a page directly under that parent matches.
func (c *DefaultClient) FindPageByTitle(ctx context.Context, spaceKey, title, parentID string) (Page, error) {
	query := url.Values{
		"type":     {"page"},
		"spaceKey": {spaceKey},
		"title":    {title},
		"status":   {"current"},
		"limit":    {"25"},
		"expand":   {pageExpand},
	}
	var list contentListJSON
	if err := c.do(ctx, "GET", "/rest/api/content", query, nil, &list); err != nil {
		return Page{}, err
	}
	base := ""
	if list.Links != nil {
		base = list.Links.Base
	}
	for _, content := range list.Results {
		page := c.toPage(content, base)
		if parentID == "" || page.ParentID() == parentID {
			return page, nil
		}
	}
	return Page{}, &APIError{Kind: KindNotFound, Method: "GET", Path: "/rest/api/content", Message: fmt.Sprintf("no page titled %q in space %s", title, spaceKey)}
}

type ancestorRef struct {
	ID string `json:"id"`
}

type storageBody struct {
	Storage bodyValueJSON `json:"storage"`
}

// CreatePage creates a page in storage format.
func (c *DefaultClient) CreatePage(ctx context.Context, req CreateRequest) (Page, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.SpaceKey) == "" {
		return Page{}, &APIError{Kind: KindValidation, Method: "POST", Path: "/rest/api/content", Message: "title and space key are required"}
	}
	payload := struct {
		Type      string        `json:"type"`
		Title     string        `json:"title"`
		Space     spaceRefJSON  `json:"space"`
		Body      storageBody   `json:"body"`
		Ancestors []ancestorRef `json:"ancestors,omitempty"`
	}{
		Type:  "page",
		Title: req.Title,
		Space: spaceRefJSON{Key: req.SpaceKey},
		Body:  storageBody{Storage: bodyValueJSON{Value: req.HTML, Representation: "storage"}},
	}
	if req.ParentID != "" {
		payload.Ancestors = []ancestorRef{{ID: req.ParentID}}
	}
	var content contentJSON
	if err := c.do(ctx, "POST", "/rest/api/content", url.Values{"expand": {pageExpand}}, payload, &content); err != nil {
		return Page{}, err
	}
	return c.toPage(content, ""), nil
}

// UpdatePage bumps the version of an existing page. A version conflict is
// retried once against the freshly fetched version.
func (c *DefaultClient) UpdatePage(ctx context.Context, req UpdateRequest) (Page, error) {
	if err := requireID(req.ID); err != nil {
		return Page{}, err
	}
	page, err := c.put(ctx, req)
	if errors.Is(err, ErrConflict) {
		return c.put(ctx, req)
	}
	return page, err
}

func (c *DefaultClient) put(ctx context.Context, req UpdateRequest) (Page, error) {
	current, err := c.GetPage(ctx, req.ID)
	if err != nil {
		return Page{}, err
	}
	title := req.Title
	if title == "" {
		title = current.Title
	}
	payload := struct {
		ID      string       `json:"id"`
		Type    string       `json:"type"`
		Title   string       `json:"title"`
		Space   spaceRefJSON `json:"space"`
		Body    storageBody  `json:"body"`
		Version struct {
			Number    int  `json:"number"`
			MinorEdit bool `json:"minorEdit"`
		} `json:"version"`
	}{
		ID:    req.ID,
		Type:  "page",
		Title: title,
		Space: spaceRefJSON{Key: current.SpaceKey},
		Body:  storageBody{Storage: bodyValueJSON{Value: req.HTML, Representation: "storage"}},
	}
	payload.Version.Number = current.Version + 1
	payload.Version.MinorEdit = req.MinorEdit

	query := url.Values{
		"expand":         {pageExpand},
		"notifyWatchers": {strconv.FormatBool(req.NotifyWatchers)},
	}
	var content contentJSON
	if err := c.do(ctx, "PUT", "/rest/api/content/"+url.PathEscape(req.ID), query, payload, &content); err != nil {
		return Page{}, err
	}
	return c.toPage(content, ""), nil
}

// AddLabels attaches global labels to a page. Empty labels are skipped.
func (c *DefaultClient) AddLabels(ctx context.Context, id string, labels []string) error {
	if err := requireID(id); err != nil {
		return err
	}
	type label struct {
		Prefix string `json:"prefix"`
		Name   string `json:"name"`
	}
	payload := make([]label, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			payload = append(payload, label{Prefix: "global", Name: l})
		}
	}
	if len(payload) == 0 {
		return nil
	}
	return c.do(ctx, "POST", "/rest/api/content/"+url.PathEscape(id)+"/label", nil, payload, nil)
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &APIError{Kind: KindValidation, Method: "GET", Path: "/rest/api/content", Message: "page id is empty"}
	}
	return nil
}

func (c *DefaultClient) toPage(content contentJSON, base string) Page {
	page := Page{
		ID:     content.ID,
		Title:  content.Title,
		Status: content.Status,
	}
	if content.Space != nil {
		page.SpaceKey = content.Space.Key
	}
	if content.Version != nil {
		page.Version = content.Version.Number
	}
	for _, a := range content.Ancestors {
		page.Ancestors = append(page.Ancestors, PageSummary{ID: a.ID, Title: a.Title})
	}
	if content.Body != nil && content.Body.Storage != nil {
		page.StorageBody = content.Body.Storage.Value
	}
	page.WebURL = c.linkFor(content, base)
	if content.Links.TinyUI != "" {
		page.TinyURL = c.join(firstNonEmpty(content.Links.Base, base), content.Links.TinyUI)
	}
	return page
}

func (c *DefaultClient) toSummary(content contentJSON, base string) PageSummary {
	s := PageSummary{ID: content.ID, Title: content.Title, WebURL: c.linkFor(content, base)}
	if content.Space != nil {
		s.SpaceKey = content.Space.Key
	}
	if content.Children != nil && content.Children.Page != nil {
		s.HasChildren = content.Children.Page.Size > 0
	}
	return s
}

func (c *DefaultClient) toPageList(list contentListJSON, limit, start int) PageList {
	base := ""
	if list.Links != nil {
		base = list.Links.Base
	}
	entries := make([]PageSummary, 0, len(list.Results))
	for _, content := range list.Results {
		entries = append(entries, c.toSummary(content, base))
	}
	return PageList{
		Entries: entries,
		Start:   start,
		Limit:   limit,
		HasMore: hasMore(len(list.Results), limit, list.Links),
	}
}

// hasMore trusts the next link when the server sends links at all and
// otherwise assumes more pages exist only after a full page.
func hasMore(count, limit int, links *linksJSON) bool {
	if count < limit {
		return false
	}
	if links == nil {
		return true
	}
	return links.Next != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
