package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) (*DefaultClient, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var slept []time.Duration
	all := append([]ClientOption{
		WithRetries(2),
		withSleep(func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return ctx.Err()
		}),
	}, opts...)
	c, err := NewDefaultClient(srv.URL+"/", "test-token", all...)
	require.NoError(t, err)
	return c, &slept
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestNewDefaultClientValidation(t *testing.T) {
	_, err := NewDefaultClient("wiki.example.com", "token")
	require.Error(t, err)

	_, err = NewDefaultClient("https://wiki.example.com", " ")
	require.Error(t, err)

	c, err := NewDefaultClient("https://wiki.example.com/wiki/", "token")
	require.NoError(t, err)
	assert.Equal(t, "https://wiki.example.com/wiki", c.BaseURL())
}

func TestRequestsCarryBearerToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "confluence-cli/")
		writeJSON(t, w, 200, map[string]any{"id": "1", "title": "Home", "version": map[string]any{"number": 3}})
	})

	page, err := c.GetPage(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Home", page.Title)
	assert.Equal(t, 3, page.Version)
}

func TestRetriesTransientStatusWithBackoff(t *testing.T) {
	var calls atomic.Int32
	c, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, 200, map[string]any{"id": "7", "title": "Runbook"})
	}, WithBackoff(100*time.Millisecond))

	page, err := c.GetPage(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Runbook", page.Title)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
}

func TestRetryAfterIsHonoured(t *testing.T) {
	var calls atomic.Int32
	c, slept := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(t, w, 200, map[string]any{"id": "7", "title": "Runbook"})
	}, WithBackoff(10*time.Millisecond))

	_, err := c.GetPage(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept)
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ListChildren(context.Background(), "1", 25, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.True(t, IsTransient(err))
	assert.EqualValues(t, 3, calls.Load())
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		kind     Kind
		sentinel error
	}{
		{http.StatusUnauthorized, KindAuth, ErrAuth},
		{http.StatusForbidden, KindAuth, ErrAuth},
		{http.StatusNotFound, KindNotFound, ErrNotFound},
		{http.StatusConflict, KindConflict, ErrConflict},
		{http.StatusBadRequest, KindValidation, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				writeJSON(t, w, tt.status, map[string]any{"message": "nope"})
			})

			_, err := c.GetPage(context.Background(), "1")
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), "nope")
			assert.EqualValues(t, 1, calls.Load(), "non-transient failures are not retried")
		})
	}
}

func TestLongErrorBodyIsTruncatedOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", 150) + strings.Repeat("日本", 100)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, body)
	})

	_, err := c.GetPage(context.Background(), "1")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, utf8.ValidString(apiErr.Message))
	assert.True(t, strings.HasPrefix(apiErr.Message, strings.Repeat("é", 150)))
	assert.True(t, strings.HasSuffix(apiErr.Message, "..."))
	assert.LessOrEqual(t, ansi.StringWidth(apiErr.Message), maxErrorWidth)

	assert.Equal(t, "short body", errorMessage([]byte("  short body\n")))
}

func TestNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := NewDefaultClient(base, "t", WithRetries(1), withSleep(func(ctx context.Context, d time.Duration) error { return nil }))
	require.NoError(t, err)

	_, err = c.GetPage(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestCanceledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetPage(ctx, "1")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestSpaceHomepage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/space/ENG", r.URL.Path)
		assert.Equal(t, "homepage", r.URL.Query().Get("expand"))
		writeJSON(t, w, 200, map[string]any{
			"key": "ENG",
			"homepage": map[string]any{
				"id": "100", "title": "Engineering",
				"_links": map[string]any{"webui": "/display/ENG/Engineering"},
			},
			"_links": map[string]any{"base": "https://wiki.example.com"},
		})
	})

	page, err := c.SpaceHomepage(context.Background(), "ENG")
	require.NoError(t, err)
	assert.Equal(t, "100", page.ID)
	assert.Equal(t, "ENG", page.SpaceKey)
	assert.Equal(t, "https://wiki.example.com/display/ENG/Engineering", page.WebURL)
}

func TestSpaceWithoutHomepageIsNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 200, map[string]any{"key": "ENG"})
	})

	_, err := c.SpaceHomepage(context.Background(), "ENG")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.SpaceHomepage(context.Background(), " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRenderedBodySelectsView(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("expand") {
		case "body.export_view":
			writeJSON(t, w, 200, map[string]any{"body": map[string]any{"export_view": map[string]any{"value": "<p>export</p>"}}})
		default:
			writeJSON(t, w, 200, map[string]any{"body": map[string]any{"view": map[string]any{"value": "<p>view</p>"}}})
		}
	})

	html, err := c.RenderedBody(context.Background(), "1", true)
	require.NoError(t, err)
	assert.Equal(t, "<p>export</p>", html)

	html, err = c.RenderedBody(context.Background(), "1", false)
	require.NoError(t, err)
	assert.Equal(t, "<p>view</p>", html)
}

func TestListChildrenPagination(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/content/100/child/page", r.URL.Path)
		q := r.URL.Query()
		switch q.Get("start") {
		case "0":
			writeJSON(t, w, 200, map[string]any{
				"results": []any{
					map[string]any{"id": "1", "title": "A", "_links": map[string]any{"webui": "/pages/1"}},
					map[string]any{"id": "2", "title": "B"},
				},
				"_links": map[string]any{"base": "https://wiki.example.com", "next": "/rest/api/content/100/child/page?start=2"},
			})
		default:
			writeJSON(t, w, 200, map[string]any{
				"results": []any{map[string]any{"id": "3", "title": "C"}},
				"_links":  map[string]any{"base": "https://wiki.example.com"},
			})
		}
	})

	first, err := c.ListChildren(context.Background(), "100", 2, 0)
	require.NoError(t, err)
	assert.True(t, first.HasMore)
	assert.Equal(t, 2, first.Limit)
	require.Len(t, first.Entries, 2)
	assert.Equal(t, "https://wiki.example.com/pages/1", first.Entries[0].WebURL)

	second, err := c.ListChildren(context.Background(), "100", 2, 2)
	require.NoError(t, err)
	assert.False(t, second.HasMore)
	assert.Equal(t, 2, second.Start)

	all, err := c.ListAllChildren(context.Background(), "100")
	require.NoError(t, err)
	assert.Len(t, all, 2, "batch of 100 returns fewer than limit so the walk stops")
}

func TestListChildrenClampsLimit(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("start"))
		writeJSON(t, w, 200, map[string]any{"results": []any{}})
	})

	list, err := c.ListChildren(context.Background(), "1", 500, -5)
	require.NoError(t, err)
	assert.Equal(t, 100, list.Limit)
	assert.False(t, list.HasMore)
}

func TestListSpaceFiltersTitle(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ENG", q.Get("spaceKey"))
		assert.Equal(t, "page", q.Get("type"))
		assert.Equal(t, "current", q.Get("status"))
		writeJSON(t, w, 200, map[string]any{
			"results": []any{
				map[string]any{"id": "1", "title": "Deploy Runbook"},
				map[string]any{"id": "2", "title": "Onboarding"},
			},
		})
	})

	list, err := c.ListSpace(context.Background(), "ENG", ListOptions{Limit: 25, TitleContains: "runbook"})
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "1", list.Entries[0].ID)
	assert.Equal(t, PageLink(c.BaseURL(), "", "2"), c.BaseURL()+"/pages/viewpage.action?pageId=2")
}

func TestSearchKeepsPagesOnly(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `type=page AND status=current AND space=ENG AND text~"runbook"`, r.URL.Query().Get("cql"))
		writeJSON(t, w, 200, map[string]any{
			"results": []any{
				map[string]any{"content": map[string]any{"id": "1", "type": "page", "title": "Runbook"}, "url": "/x/1"},
				map[string]any{"content": map[string]any{"id": "2", "type": "attachment", "title": "runbook.pdf"}},
				map[string]any{"title": "space result"},
			},
			"_links": map[string]any{"base": "https://wiki.example.com"},
		})
	})

	cql := TextQuery{Text: "runbook", SpaceKey: "ENG"}.CQL()
	list, err := c.Search(context.Background(), cql, 3, 0)
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "https://wiki.example.com/x/1", list.Entries[0].WebURL)
	assert.False(t, list.HasMore)

	_, err = c.Search(context.Background(), "  ", 3, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFindPageByTitleFiltersParent(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Notes", r.URL.Query().Get("title"))
		writeJSON(t, w, 200, map[string]any{
			"results": []any{
				map[string]any{"id": "1", "title": "Notes", "ancestors": []any{map[string]any{"id": "10"}}},
				map[string]any{"id": "2", "title": "Notes", "ancestors": []any{map[string]any{"id": "10"}, map[string]any{"id": "20"}}},
			},
		})
	})

	page, err := c.FindPageByTitle(context.Background(), "ENG", "Notes", "20")
	require.NoError(t, err)
	assert.Equal(t, "2", page.ID)

	page, err = c.FindPageByTitle(context.Background(), "ENG", "Notes", "")
	require.NoError(t, err)
	assert.Equal(t, "1", page.ID)

	_, err = c.FindPageByTitle(context.Background(), "ENG", "Notes", "99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePagePayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, "page", body["type"])
		assert.Equal(t, "Weekly", body["title"])
		assert.Equal(t, map[string]any{"key": "ENG"}, body["space"])
		assert.Equal(t, []any{map[string]any{"id": "10"}}, body["ancestors"])
		storage := body["body"].(map[string]any)["storage"].(map[string]any)
		assert.Equal(t, "storage", storage["representation"])
		assert.Equal(t, "<p>hi</p>", storage["value"])
		writeJSON(t, w, 200, map[string]any{"id": "55", "title": "Weekly", "version": map[string]any{"number": 1}})
	})

	page, err := c.CreatePage(context.Background(), CreateRequest{SpaceKey: "ENG", Title: "Weekly", HTML: "<p>hi</p>", ParentID: "10"})
	require.NoError(t, err)
	assert.Equal(t, "55", page.ID)

	_, err = c.CreatePage(context.Background(), CreateRequest{SpaceKey: "ENG"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdatePageRetriesConflictOnce(t *testing.T) {
	var gets, puts atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			n := gets.Add(1)
			writeJSON(t, w, 200, map[string]any{"id": "5", "title": "Old", "space": map[string]any{"key": "ENG"}, "version": map[string]any{"number": 3 + n}})
		case http.MethodPut:
			var body struct {
				Title   string `json:"title"`
				Version struct {
					Number    int  `json:"number"`
					MinorEdit bool `json:"minorEdit"`
				} `json:"version"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "false", r.URL.Query().Get("notifyWatchers"))
			if puts.Add(1) == 1 {
				assert.Equal(t, 5, body.Version.Number)
				writeJSON(t, w, http.StatusConflict, map[string]any{"message": "version conflict"})
				return
			}
			assert.Equal(t, 6, body.Version.Number)
			assert.True(t, body.Version.MinorEdit)
			assert.Equal(t, "Old", body.Title)
			writeJSON(t, w, 200, map[string]any{"id": "5", "title": "Old", "version": map[string]any{"number": 6}})
		}
	})

	page, err := c.UpdatePage(context.Background(), UpdateRequest{ID: "5", HTML: "<p>new</p>", MinorEdit: true})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Version)
	assert.EqualValues(t, 2, puts.Load())
}

func TestAddLabels(t *testing.T) {
	var called atomic.Bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		assert.Equal(t, "/rest/api/content/5/label", r.URL.Path)
		var body []map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []map[string]string{{"prefix": "global", "name": "ops"}}, body)
		w.WriteHeader(200)
	})

	require.NoError(t, c.AddLabels(context.Background(), "5", []string{" ops ", ""}))
	assert.True(t, called.Load())

	called.Store(false)
	require.NoError(t, c.AddLabels(context.Background(), "5", []string{" "}))
	assert.False(t, called.Load())
}

func TestKindOfPlainErrors(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", ErrNotFound)))
	assert.Equal(t, KindTransient, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindUnknown, KindOf(context.Canceled))
	assert.Equal(t, "authentication failed", KindAuth.String())
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Equal(t, maxRetryAfter, parseRetryAfter("3600"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-1"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)))
}
