// Package document turns rendered page HTML into text for the terminal.
//
// The rich path converts HTML to Markdown and renders it with glamour. When
// either step fails the renderer degrades to plain extracted text instead of
// failing the view.
package document

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
)

const (
	// DefaultStyle is the glamour style used when none is configured.
	DefaultStyle = "dark"
	minWidth     = 10
)

// ErrConversion marks a failed HTML to Markdown conversion.
var ErrConversion = errors.New("document conversion failed")

// Result is a page body prepared for display.
type Result struct {
	// Text is ready to print at the requested width.
	Text string
	// Markdown is the intermediate form, empty when degraded.
	Markdown string
	// Degraded is set when Text is plain extracted text.
	Degraded bool
}

// Renderer renders HTML with a fixed glamour style. It is safe for
// concurrent use; term renderers are cached per width.
type Renderer struct {
	style string

	mu        sync.Mutex
	renderers map[string]*glamour.TermRenderer

	toMarkdown func(string) (string, error)
	toTerminal func(md string, width int) (string, error)
}

// NewRenderer creates a renderer for a glamour standard style name.
func NewRenderer(style string) *Renderer {
	style = strings.ToLower(strings.TrimSpace(style))
	if style == "" {
		style = DefaultStyle
	}
	r := &Renderer{style: style, renderers: map[string]*glamour.TermRenderer{}}
	r.toMarkdown = ToMarkdown
	r.toTerminal = r.glamourRender
	return r
}

// Style returns the configured style name.
func (r *Renderer) Style() string {
	return r.style
}

// Render converts src for a terminal of the given width. The error is
// reserved for inputs that produce no text at all through either path.
func (r *Renderer) Render(src string, width int) (Result, error) {
	width = max(width, minWidth)
	if strings.TrimSpace(src) == "" {
		return Result{}, nil
	}

	md, err := r.toMarkdown(src)
	if err == nil {
		var out string
		out, err = r.toTerminal(md, width)
		if err == nil {
			return Result{Text: out, Markdown: md}, nil
		}
	}

	colors.StructuredWarn("document", "render", "degraded", err, "", colors.Fields("width", width, "style", r.style))
	text := ansi.Wordwrap(PlainText(src), width, "")
	if text == "" {
		return Result{Degraded: true}, err
	}
	return Result{Text: text, Degraded: true}, nil
}

// RenderMarkdown renders Markdown directly, falling back to the source text.
func (r *Renderer) RenderMarkdown(md string, width int) string {
	out, err := r.toTerminal(md, max(width, minWidth))
	if err != nil {
		return md
	}
	return out
}

func (r *Renderer) glamourRender(md string, width int) (string, error) {
	md = strings.TrimSpace(md)
	if md == "" {
		return "", nil
	}
	tr, err := r.termRenderer(width)
	if err != nil {
		return "", err
	}
	out, err := tr.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

func (r *Renderer) termRenderer(width int) (*glamour.TermRenderer, error) {
	key := r.style + ":" + strconv.Itoa(width)
	r.mu.Lock()
	defer r.mu.Unlock()
	if tr := r.renderers[key]; tr != nil {
		return tr, nil
	}
	// WithAutoStyle queries the terminal and can block, so a named style is used.
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	r.renderers[key] = tr
	return tr, nil
}
