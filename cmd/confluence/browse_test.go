package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/opener"
	"github.com/cristianoliveira/confluence-cli/internal/tui/state"
)

func viewURL(id string) string {
	return confluence.MockBaseURL + "/pages/viewpage.action?pageId=" + id
}

func TestBrowseList(t *testing.T) {
	useConfig(t, "default_space_key", "ENG")
	mc := new(confluence.MockClient)
	mc.On("ListSpace", mock.Anything, "ENG", confluence.ListOptions{Limit: 25, TitleContains: "run"}).
		Return(confluence.PageList{Entries: summaries("201", "Runbook", "202", "Rundown")}, nil)
	d, _ := testBrowseDeps(mc, new(opener.MockOpener))

	out, err := runCmd(t, NewBrowseCmd(d), "", "list", "--title-contains", "run")
	require.NoError(t, err)
	assert.Contains(t, out, "Runbook")
	assert.Contains(t, out, viewURL("202"))
	mc.AssertExpectations(t)
}

func TestBrowseListJSON(t *testing.T) {
	useConfig(t, "output_format", "json")
	mc := new(confluence.MockClient)
	mc.On("ListSpace", mock.Anything, "OPS", confluence.ListOptions{Limit: 10, Start: 20}).
		Return(confluence.PageList{Entries: summaries("7", "Pager duty")}, nil)
	d, _ := testBrowseDeps(mc, new(opener.MockOpener))

	out, err := runCmd(t, NewBrowseCmd(d), "", "list", "--space-key", "OPS", "--limit", "10", "--start", "20")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Pager duty"`)
	assert.Contains(t, out, `"url": "`+viewURL("7")+`"`)
}

func TestBrowseListOpensFirst(t *testing.T) {
	useConfig(t, "default_space_key", "ENG")
	captureConsole(t)
	mc := new(confluence.MockClient)
	mc.On("ListSpace", mock.Anything, "ENG", mock.Anything).
		Return(confluence.PageList{Entries: summaries("201", "Runbook", "202", "Deploy guide")}, nil)
	op := new(opener.MockOpener)
	op.On("OpenURL", viewURL("202")).Return(nil)
	d, _ := testBrowseDeps(mc, op)

	_, err := runCmd(t, NewBrowseCmd(d), "", "list", "--title-match", "deploy*", "--open")
	require.NoError(t, err)
	op.AssertExpectations(t)
}

func TestBrowseListNeedsSpace(t *testing.T) {
	useConfig(t)
	d, _ := testBrowseDeps(new(confluence.MockClient), new(opener.MockOpener))
	_, err := runCmd(t, NewBrowseCmd(d), "", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_space_key")
}

func TestBrowseListEmpty(t *testing.T) {
	useConfig(t, "default_space_key", "ENG")
	mc := new(confluence.MockClient)
	mc.On("ListSpace", mock.Anything, "ENG", mock.Anything).Return(confluence.PageList{}, nil)
	d, _ := testBrowseDeps(mc, new(opener.MockOpener))

	out, err := runCmd(t, NewBrowseCmd(d), "", "list")
	require.NoError(t, err)
	assert.Equal(t, "No pages found\n", out)
}

func TestFilterEntries(t *testing.T) {
	entries := summaries("1", "Runbook: database", "2", "Release notes", "3", "Database backups")

	got, err := filterEntries(entries, "*database*", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(got))

	got, err = filterEntries(entries, "", "dbb")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(got))

	got, err = filterEntries(entries, "", "")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = filterEntries(entries, "[", "")
	assert.Error(t, err)
}

func ids(entries []confluence.PageSummary) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestBrowseChildren(t *testing.T) {
	useConfig(t)
	mc := new(confluence.MockClient)
	mc.On("ListChildren", mock.Anything, "100", 25, 0).
		Return(confluence.PageList{Entries: summaries("201", "A", "202", "B")}, nil)
	d, _ := testBrowseDeps(mc, new(opener.MockOpener))

	out, err := runCmd(t, NewBrowseCmd(d), "", "children", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "201")
	assert.Contains(t, out, "202")

	_, err = runCmd(t, NewBrowseCmd(d), "", "children")
	assert.Error(t, err)
}

func TestBrowseChildrenFailure(t *testing.T) {
	useConfig(t)
	mc := new(confluence.MockClient)
	mc.On("ListChildren", mock.Anything, "100", 25, 0).
		Return(confluence.PageList{}, &confluence.APIError{Kind: confluence.KindNotFound, StatusCode: 404})
	d, _ := testBrowseDeps(mc, new(opener.MockOpener))

	_, err := runCmd(t, NewBrowseCmd(d), "", "children", "100")
	require.Error(t, err)
	assert.True(t, errors.Is(err, confluence.ErrNotFound))
}

func TestBrowseSearch(t *testing.T) {
	useConfig(t, "default_space_key", "ENG")
	mc := new(confluence.MockClient)
	mc.On("Search", mock.Anything, `type=page AND status=current AND space=ENG AND text~"db" ORDER BY lastmodified DESC`, 25, 0).
		Return(confluence.PageList{Entries: summaries("9", "DB runbook")}, nil)
	mc.On("Search", mock.Anything, "type=page AND title~ops", 5, 0).
		Return(confluence.PageList{}, nil)
	d, _ := testBrowseDeps(mc, new(opener.MockOpener))

	out, err := runCmd(t, NewBrowseCmd(d), "", "search", "--query", "db")
	require.NoError(t, err)
	assert.Contains(t, out, "DB runbook")

	_, err = runCmd(t, NewBrowseCmd(d), "", "search", "--cql", "type=page AND title~ops", "--limit", "5")
	require.NoError(t, err)

	_, err = runCmd(t, NewBrowseCmd(d), "", "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--cql or --query")
	mc.AssertExpectations(t)
}

func treeClient() *confluence.MockClient {
	mc := new(confluence.MockClient)
	mc.On("SpaceHomepage", mock.Anything, "ENG").Return(confluence.Page{ID: "100", Title: "Home"}, nil)
	mc.On("ListAllChildren", mock.Anything, "100").Return(summaries("201", "A", "202", "B"), nil)
	mc.On("ListAllChildren", mock.Anything, "201").Return(summaries("301", "C"), nil).Maybe()
	mc.On("ListAllChildren", mock.Anything, "202").Return([]confluence.PageSummary{}, nil).Maybe()
	mc.On("ListAllChildren", mock.Anything, "301").Return([]confluence.PageSummary{}, nil).Maybe()
	return mc
}

func TestBrowseTree(t *testing.T) {
	useConfig(t, "default_space_key", "ENG")
	mc := treeClient()
	d, _ := testBrowseDeps(mc, new(opener.MockOpener))

	out, err := runCmd(t, NewBrowseCmd(d), "", "tree")
	require.NoError(t, err)
	assert.Equal(t, "Home  [id:100]  (homepage)\n  • A  [id:201]\n    • C  [id:301]\n  • B  [id:202]\n", out)
	mc.AssertNumberOfCalls(t, "ListAllChildren", 4)
}

func TestBrowseTreeMaxDepth(t *testing.T) {
	useConfig(t, "default_space_key", "ENG")
	mc := treeClient()
	d, _ := testBrowseDeps(mc, new(opener.MockOpener))

	out, err := runCmd(t, NewBrowseCmd(d), "", "tree", "--max-depth", "1")
	require.NoError(t, err)
	assert.Equal(t, "Home  [id:100]  (homepage)\n  • A  [id:201]\n  • B  [id:202]\n", out)
	mc.AssertNumberOfCalls(t, "ListAllChildren", 1)
}

func TestBrowseTreeJSONAndErrors(t *testing.T) {
	useConfig(t, "default_space_key", "ENG", "output_format", "yaml")
	d, _ := testBrowseDeps(treeClient(), new(opener.MockOpener))
	out, err := runCmd(t, NewBrowseCmd(d), "", "tree", "--max-depth", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "children:\n")

	mc := new(confluence.MockClient)
	mc.On("SpaceHomepage", mock.Anything, "ENG").
		Return(confluence.Page{}, &confluence.APIError{Kind: confluence.KindNotFound})
	d, _ = testBrowseDeps(mc, new(opener.MockOpener))
	_, err = runCmd(t, NewBrowseCmd(d), "", "tree")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no homepage")

	mc = new(confluence.MockClient)
	mc.On("SpaceHomepage", mock.Anything, "ENG").Return(confluence.Page{ID: "100", Title: "Home"}, nil)
	mc.On("ListAllChildren", mock.Anything, "100").Return(nil, errors.New("boom"))
	d, _ = testBrowseDeps(mc, new(opener.MockOpener))
	_, err = runCmd(t, NewBrowseCmd(d), "", "tree")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list children of 100")
}

func TestBrowseOpen(t *testing.T) {
	useConfig(t, "default_space_key", "ENG")
	captureConsole(t)
	mc := new(confluence.MockClient)
	mc.On("GetPage", mock.Anything, "201").Return(confluence.Page{ID: "201", WebURL: "https://wiki/a"}, nil)
	mc.On("FindPageByTitle", mock.Anything, "ENG", "B", "").Return(confluence.Page{ID: "202"}, nil)
	mc.On("FindPageByTitle", mock.Anything, "ENG", "Nope", "").
		Return(confluence.Page{}, &confluence.APIError{Kind: confluence.KindNotFound})
	op := new(opener.MockOpener)
	op.On("OpenURL", "https://wiki/a").Return(nil)
	op.On("OpenURL", viewURL("202")).Return(nil)
	d, _ := testBrowseDeps(mc, op)

	_, err := runCmd(t, NewBrowseCmd(d), "", "open", "201")
	require.NoError(t, err)
	_, err = runCmd(t, NewBrowseCmd(d), "", "open", "--title", "B")
	require.NoError(t, err)
	op.AssertExpectations(t)

	_, err = runCmd(t, NewBrowseCmd(d), "", "open", "--title", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `page "Nope" not found in space ENG`)

	_, err = runCmd(t, NewBrowseCmd(d), "", "open")
	assert.Error(t, err)
}

func TestBrowseView(t *testing.T) {
	useConfig(t, "markdown_style", "notty")
	mc := new(confluence.MockClient)
	mc.On("GetPage", mock.Anything, "201").Return(confluence.Page{ID: "201", Title: "Runbook"}, nil)
	mc.On("RenderedBody", mock.Anything, "201", true).Return("<h1>Steps</h1><p>Restart the service.</p>", nil)
	d, _ := testBrowseDeps(mc, new(opener.MockOpener))

	out, err := runCmd(t, NewBrowseCmd(d), "", "view", "201", "--width", "60")
	require.NoError(t, err)
	plain := ansi.Strip(out)
	assert.True(t, strings.HasPrefix(plain, "Runbook\n\n"), plain)
	assert.Contains(t, plain, "Restart the service.")
}

func TestBrowseViewEmptyBody(t *testing.T) {
	useConfig(t)
	console := captureConsole(t)
	mc := new(confluence.MockClient)
	mc.On("GetPage", mock.Anything, "201").Return(confluence.Page{ID: "201", Title: "Runbook"}, nil)
	mc.On("RenderedBody", mock.Anything, "201", false).Return("", nil)
	d, _ := testBrowseDeps(mc, new(opener.MockOpener))

	out, err := runCmd(t, NewBrowseCmd(d), "", "view", "201", "--export=false")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, console.String(), "No rendered content")
}

func TestBrowseInteractive(t *testing.T) {
	useConfig(t, "default_space_key", "ENG", "page_size", "40")
	op := new(opener.MockOpener)
	d, ran := testBrowseDeps(new(confluence.MockClient), op)

	_, err := runCmd(t, NewBrowseCmd(d), "", "interactive")
	require.NoError(t, err)
	require.Len(t, *ran, 1)
	m, ok := (*ran)[0].(*state.Model)
	require.True(t, ok)
	assert.Equal(t, "ENG", m.Space().Key)
	assert.Equal(t, 40, m.PageSize())
	assert.Equal(t, state.ModeBrowsing, m.Mode())

	_, err = runCmd(t, NewBrowseCmd(d), "", "interactive", "--space-key", "OPS", "--page-size", "10")
	require.NoError(t, err)
	m = (*ran)[1].(*state.Model)
	assert.Equal(t, "OPS", m.Space().Key)
	assert.Equal(t, 10, m.PageSize())
}

func TestBrowseInteractiveNeedsSpace(t *testing.T) {
	useConfig(t)
	d, ran := testBrowseDeps(new(confluence.MockClient), new(opener.MockOpener))
	_, err := runCmd(t, NewBrowseCmd(d), "", "interactive")
	require.Error(t, err)
	assert.Empty(t, *ran)
}

func TestPageSizeOr(t *testing.T) {
	useConfig(t, "page_size", "30")
	assert.Equal(t, 30, pageSizeOr(0))
	assert.Equal(t, 10, pageSizeOr(10))
	assert.Equal(t, confluence.MaxPageSize, pageSizeOr(500))
	config.Set("page_size", "")
	assert.Equal(t, confluence.DefaultPageSize, pageSizeOr(0))
}
