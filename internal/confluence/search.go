package confluence

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Search runs a CQL query and keeps only page results.
func (c *DefaultClient) Search(ctx context.Context, cql string, limit, start int) (PageList, error) {
	if strings.TrimSpace(cql) == "" {
		return PageList{}, &APIError{Kind: KindValidation, Method: "GET", Path: "/rest/api/search", Message: "query is empty"}
	}
	limit, start = clampLimit(limit), clampStart(start)
	query := url.Values{
		"cql":    {cql},
		"limit":  {strconv.Itoa(limit)},
		"start":  {strconv.Itoa(start)},
		"expand": {"content.space,content._links"},
	}
	var list searchListJSON
	if err := c.do(ctx, "GET", "/rest/api/search", query, nil, &list); err != nil {
		return PageList{}, err
	}
	base := ""
	if list.Links != nil {
		base = list.Links.Base
	}
	entries := make([]PageSummary, 0, len(list.Results))
	for _, r := range list.Results {
		if r.Content == nil || r.Content.Type != "page" {
			continue
		}
		entry := c.toSummary(*r.Content, base)
		if entry.Title == "" {
			entry.Title = r.Title
		}
		if r.Content.Links.WebUI == "" && r.URL != "" {
			entry.WebURL = c.join(firstNonEmpty(base, c.baseURL), r.URL)
		}
		entries = append(entries, entry)
	}
	return PageList{
		Entries: entries,
		Start:   start,
		Limit:   limit,
		HasMore: hasMore(len(list.Results), limit, list.Links),
	}, nil
}

// TextQuery is a free-text page search, optionally scoped to a space.
type TextQuery struct {
	Text     string
	SpaceKey string
	// Newest orders results by last modification, newest first.
	Newest bool
}

// CQL renders the query. Raw CQL can be passed by prefixing Text with "cql:".
func (q TextQuery) CQL() string {
	text := strings.TrimSpace(q.Text)
	if raw, ok := strings.CutPrefix(text, "cql:"); ok {
		return strings.TrimSpace(raw)
	}
	clauses := []string{"type=page", "status=current"}
	if q.SpaceKey != "" {
		clauses = append(clauses, "space="+spaceTerm(q.SpaceKey))
	}
	clauses = append(clauses, "text~"+QuoteCQL(text))
	cql := strings.Join(clauses, " AND ")
	if q.Newest {
		cql += " ORDER BY lastmodified DESC"
	}
	return cql
}

// QuoteCQL wraps a value in double quotes, escaping quotes and backslashes.
func QuoteCQL(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
	return `"` + escaped + `"`
}

// spaceTerm leaves ordinary space keys (including personal ~user keys) bare.
func spaceTerm(key string) string {
	for _, r := range key {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '~') {
			return QuoteCQL(key)
		}
	}
	return key
}
