package author

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a senior technical writer. You produce clear, concise Markdown documents for Confluence. " +
	"Prefer short paragraphs, descriptive headings, and actionable steps. Use fenced code blocks where needed. " +
	"Avoid fluff. If the user provides an outline, follow it."

// Meta is what the user tells us about the document.
type Meta struct {
	Title    string
	Audience string
	Purpose  string
	Tone     string
}

// DefaultTone is used when no tone is given.
const DefaultTone = "practical, concise"

func (m Meta) tone() string {
	if strings.TrimSpace(m.Tone) == "" {
		return DefaultTone
	}
	return m.Tone
}

func outlinePrompt(m Meta) string {
	return fmt.Sprintf(`Given:
- Working title: %q
- Audience: %s
- Purpose: %s
- Style/tone: %s

Produce a concise Markdown outline with 4-8 top-level sections and brief bullets per section.
Only output Markdown (no commentary).
`, m.Title, m.Audience, m.Purpose, m.tone())
}

func draftPrompt(m Meta, outline string) string {
	return fmt.Sprintf(`Title: %s

Audience: %s
Purpose: %s
Style/tone: %s

Outline:
%s

Write the full document in Markdown suitable for Confluence. Use headings, lists, code blocks where helpful.
Keep it practical and skimmable. Do not include front matter. Start with an H1 title.
`, m.Title, m.Audience, m.Purpose, m.tone(), outline)
}

func templateOutline(title string) string {
	return "# Outline for: " + title + "\n\n- Section 1\n- Section 2\n- Section 3\n"
}

func templateDraft(title string) string {
	return "# " + title + "\n\n## Introduction\n\n...\n\n## Details\n\n...\n"
}
