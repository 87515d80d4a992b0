// Package author drives guided page authoring: an outline and a draft,
// generated by an LLM or from a template, each refined in the user's editor.
package author

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/llm"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Editor edits a file in place and returns when the user is done.
type Editor interface {
	EditFile(path string) error
}

// Session holds the collaborators of one authoring run. A nil LLM selects
// the built-in templates.
type Session struct {
	LLM    llm.Client
	Editor Editor
	// TempDir receives the files handed to the editor; empty means os.TempDir.
	TempDir string
}

// Outline produces the outline and lets the user edit it.
func (s *Session) Outline(ctx context.Context, m Meta) (string, error) {
	text := templateOutline(m.Title)
	if s.LLM != nil {
		out, err := s.LLM.Chat(ctx, []llm.Message{llm.System(systemPrompt), llm.User(outlinePrompt(m))}, llm.Options{})
		if err != nil {
			return "", fmt.Errorf("generate outline: %w", err)
		}
		text = out
	}
	return s.edit("outline-*.md", text)
}

// Draft produces the full document from an outline and lets the user edit it.
func (s *Session) Draft(ctx context.Context, m Meta, outline string) (string, error) {
	text := templateDraft(m.Title)
	if s.LLM != nil {
		out, err := s.LLM.Chat(ctx, []llm.Message{llm.System(systemPrompt), llm.User(draftPrompt(m, outline))}, llm.Options{})
		if err != nil {
			return "", fmt.Errorf("generate draft: %w", err)
		}
		text = out
	}
	return s.edit("draft-*.md", text)
}

// edit round-trips text through the editor. An editor that leaves the file
// empty keeps the original text.
func (s *Session) edit(pattern, text string) (string, error) {
	if s.Editor == nil {
		return text, nil
	}
	f, err := os.CreateTemp(s.TempDir, pattern)
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := s.Editor.EditFile(path); err != nil {
		return "", err
	}
	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read edited file: %w", err)
	}
	if strings.TrimSpace(string(edited)) == "" {
		return text, nil
	}
	return string(edited), nil
}

// Slug turns a title into a file name stem.
func Slug(title string) string {
	slug := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		return "draft"
	}
	return slug
}

// SaveDraft writes markdown to <dir>/<slug>.md and returns the path.
func SaveDraft(dir, title, markdown string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create drafts dir: %w", err)
	}
	path := filepath.Join(dir, Slug(title)+".md")
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("save draft: %w", err)
	}
	colors.Debug("saved draft " + path)
	return path, nil
}
