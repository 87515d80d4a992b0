package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/convert"
	"github.com/cristianoliveira/confluence-cli/internal/opener"
	"github.com/cristianoliveira/confluence-cli/internal/storage"
	"github.com/cristianoliveira/confluence-cli/internal/storage/sqlite"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

// hostSettings would leak the developer's environment into the tests.
var hostSettings = []string{
	"CONFLUENCE_PROFILE",
	"CONFLUENCE_BASE_URL",
	"CONFLUENCE_PAT",
	"CONFLUENCE_TOKEN",
	"CONFLUENCE_DEFAULT_SPACE_KEY",
	"CONFLUENCE_SPACE_KEY",
	"CONFLUENCE_PARENT_PAGE_ID",
	"CONFLUENCE_PARENT_ID",
	"CONFLUENCE_OUTPUT_FORMAT",
	"CONFLUENCE_LLM_PROVIDER",
	"CONFLUENCE_MODEL",
	"CONFLUENCE_EDITOR",
}

// useConfig loads an isolated configuration and applies overrides.
func useConfig(t *testing.T, kv ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	t.Setenv("CONFLUENCE_CONFIG_PATH", path)
	t.Setenv("CONFLUENCE_STATE_DIR", dir)
	t.Setenv("CONFLUENCE_DRAFTS_DIR", filepath.Join(dir, "drafts"))
	for _, key := range hostSettings {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	config.Load()
	for i := 0; i+1 < len(kv); i += 2 {
		config.Set(kv[i], kv[i+1])
	}
	return dir
}

// captureConsole collects colors output for the duration of the test.
func captureConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	restore := colors.SetOutput(&buf, &buf)
	t.Cleanup(restore)
	return &buf
}

// runCmd executes c with args and returns what it printed on stdout.
func runCmd(t *testing.T, c *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&bytes.Buffer{})
	c.SetIn(strings.NewReader(stdin))
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func mockClientFactory(mc *confluence.MockClient) clientFactory {
	return func() (confluence.Client, error) { return mc, nil }
}

func testBrowseDeps(mc *confluence.MockClient, op *opener.MockOpener) (browseDeps, *[]tea.Model) {
	var ran []tea.Model
	return browseDeps{
		client: mockClientFactory(mc),
		opener: func() opener.Opener { return op },
		pager: func(title, text string) error {
			return nil
		},
		run: func(m tea.Model) error {
			ran = append(ran, m)
			return nil
		},
	}, &ran
}

// openTestHistory opens a real history database in a temp dir.
func openTestHistory(t *testing.T) (historyFactory, *sqlite.SQLiteStorage) {
	t.Helper()
	db, err := sqlite.NewSQLiteStorage(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return func() storage.Storage { return keepOpen{db} }, db
}

// keepOpen ignores Close so tests can read the database after a command.
type keepOpen struct {
	storage.Storage
}

func (keepOpen) Close() error { return nil }

func goldmarkConverters(engine, pandocArgs string) (convert.Converter, error) {
	return convert.NewGoldmark(), nil
}

func testPublishDeps(mc *confluence.MockClient, op *opener.MockOpener, history historyFactory) publishDeps {
	return publishDeps{
		client:     mockClientFactory(mc),
		history:    history,
		opener:     func() opener.Opener { return op },
		converters: goldmarkConverters,
		now:        func() time.Time { return fixedNow },
	}
}

func summaries(pairs ...string) []confluence.PageSummary {
	out := make([]confluence.PageSummary, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, confluence.PageSummary{ID: pairs[i], Title: pairs[i+1]})
	}
	return out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
