package confluence

import (
	"net/url"
	"strings"
)

// linkFor picks the best browser URL for content: the web UI link relative to
// the response base, then the tiny link, then a constructed URL.
func (c *DefaultClient) linkFor(content contentJSON, base string) string {
	base = firstNonEmpty(content.Links.Base, base, c.baseURL)
	if content.Links.WebUI != "" {
		return c.join(base, content.Links.WebUI)
	}
	if content.Links.TinyUI != "" {
		return c.join(base, content.Links.TinyUI)
	}
	spaceKey := ""
	if content.Space != nil {
		spaceKey = content.Space.Key
	}
	return PageLink(c.baseURL, spaceKey, content.ID)
}

func (c *DefaultClient) join(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// PageLink builds a browser URL from ids alone. Cloud style bases ending in
// /wiki use /spaces/<key>/pages/<id>; others use the viewpage action.
func PageLink(baseURL, spaceKey, id string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if id == "" {
		return baseURL
	}
	if strings.HasSuffix(baseURL, "/wiki") && spaceKey != "" {
		return baseURL + "/spaces/" + url.PathEscape(spaceKey) + "/pages/" + url.PathEscape(id)
	}
	return baseURL + "/pages/viewpage.action?pageId=" + url.QueryEscape(id)
}

// URLFor returns the summary's own link or a constructed one.
func URLFor(c Client, s PageSummary) string {
	if s.WebURL != "" {
		return s.WebURL
	}
	return PageLink(c.BaseURL(), s.SpaceKey, s.ID)
}
