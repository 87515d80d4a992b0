package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/confluence-cli/internal/convert"
)

func TestConvertToStdout(t *testing.T) {
	useConfig(t)
	md := writeFile(t, "doc.md", "# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")

	out, err := runCmd(t, NewConvertCmd(newConverter), "", md, "--engine", "goldmark")
	require.NoError(t, err)
	assert.Contains(t, out, "Title</h1>")
	assert.Contains(t, out, "<table>")
}

func TestConvertToFile(t *testing.T) {
	useConfig(t)
	captureConsole(t)
	md := writeFile(t, "doc.md", "Some *text*\n")
	out := filepath.Join(t.TempDir(), "doc.html")

	_, err := runCmd(t, NewConvertCmd(newConverter), "", md, "-o", out, "--engine", "goldmark")
	require.NoError(t, err)
	html, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<em>text</em>")
}

func TestNewConverter(t *testing.T) {
	useConfig(t, "pandoc_path", "/nonexistent/pandoc")

	c, err := newConverter("", "")
	require.NoError(t, err)
	assert.IsType(t, &convert.Auto{}, c)

	c, err = newConverter("pandoc", "--toc --shift-heading-level-by=1")
	require.NoError(t, err)
	assert.Equal(t, convert.EnginePandoc, c.Name())

	_, err = newConverter("pandoc", `"unterminated`)
	assert.Error(t, err)

	_, err = newConverter("word", "")
	assert.Error(t, err)
}
