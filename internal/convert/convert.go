// Package convert turns Markdown into the XHTML Confluence stores.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
)

// DefaultTimeout bounds one pandoc run.
const DefaultTimeout = 60 * time.Second

// Engine names accepted by New.
const (
	EngineAuto     = "auto"
	EnginePandoc   = "pandoc"
	EngineGoldmark = "goldmark"
)

// ErrPandocNotFound is returned when the pandoc binary cannot be located.
var ErrPandocNotFound = errors.New("pandoc not found on PATH; install pandoc or use --engine goldmark")

// Converter converts GitHub flavoured Markdown to HTML.
type Converter interface {
	ToHTML(ctx context.Context, markdown []byte) ([]byte, error)
	Name() string
}

// Pandoc runs the pandoc binary with `-f gfm -t html`.
type Pandoc struct {
	path    string
	args    []string
	timeout time.Duration

	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args []string, stdin []byte) (stdout, stderr []byte, err error)
}

// Option configures a Pandoc converter.
type Option func(*Pandoc)

// WithPath sets the pandoc binary name or path.
func WithPath(path string) Option {
	return func(p *Pandoc) {
		if strings.TrimSpace(path) != "" {
			p.path = path
		}
	}
}

// WithArgs appends extra pandoc arguments.
func WithArgs(args ...string) Option {
	return func(p *Pandoc) {
		p.args = append(p.args, args...)
	}
}

// WithTimeout sets the timeout for a pandoc run.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pandoc) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// NewPandoc creates a pandoc converter.
func NewPandoc(opts ...Option) *Pandoc {
	p := &Pandoc{
		path:     "pandoc",
		timeout:  DefaultTimeout,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseArgs splits a shell-style argument string such as
// `--toc --metadata title="Weekly notes"`.
func ParseArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("parse pandoc args %q: %w", s, err)
	}
	return args, nil
}

// Name implements Converter.
func (p *Pandoc) Name() string { return EnginePandoc }

// Available reports whether the pandoc binary can be found.
func (p *Pandoc) Available() bool {
	_, err := p.lookPath(p.path)
	return err == nil
}

// ToHTML implements Converter.
func (p *Pandoc) ToHTML(ctx context.Context, markdown []byte) ([]byte, error) {
	bin, err := p.lookPath(p.path)
	if err != nil {
		return nil, ErrPandocNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append([]string{"-f", "gfm", "-t", "html"}, p.args...)
	start := time.Now()
	stdout, stderr, err := p.run(ctx, bin, args, markdown)
	fields := colors.Fields("args_count", len(args), "duration_seconds", time.Since(start).Seconds())
	if err != nil {
		colors.StructuredError("convert", "pandoc", "failed", err, "", fields)
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return nil, fmt.Errorf("pandoc failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pandoc failed: %w", err)
	}
	colors.StructuredDebug("convert", "pandoc", "completed", nil, "", fields)
	return stdout, nil
}

func runCommand(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Goldmark converts in process with the GFM extensions, emitting XHTML.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark creates the in-process converter.
func NewGoldmark() *Goldmark {
	return &Goldmark{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithXHTML(), html.WithUnsafe()),
	)}
}

// Name implements Converter.
func (g *Goldmark) Name() string { return EngineGoldmark }

// ToHTML implements Converter.
func (g *Goldmark) ToHTML(_ context.Context, markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("goldmark: %w", err)
	}
	return buf.Bytes(), nil
}

// Auto prefers pandoc and falls back to goldmark when pandoc is missing.
type Auto struct {
	pandoc   *Pandoc
	fallback *Goldmark
}

// Name implements Converter.
func (a *Auto) Name() string {
	if a.pandoc.Available() {
		return EnginePandoc
	}
	return EngineGoldmark
}

// ToHTML implements Converter.
func (a *Auto) ToHTML(ctx context.Context, markdown []byte) ([]byte, error) {
	out, err := a.pandoc.ToHTML(ctx, markdown)
	if errors.Is(err, ErrPandocNotFound) {
		colors.Debug("pandoc not found, converting with goldmark")
		return a.fallback.ToHTML(ctx, markdown)
	}
	return out, err
}

// New returns the converter for engine, one of auto, pandoc or goldmark.
func New(engine string, opts ...Option) (Converter, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineAuto:
		return &Auto{pandoc: NewPandoc(opts...), fallback: NewGoldmark()}, nil
	case EnginePandoc:
		return NewPandoc(opts...), nil
	case EngineGoldmark:
		return NewGoldmark(), nil
	default:
		return nil, fmt.Errorf("unknown conversion engine %q: must be one of auto, pandoc, goldmark", engine)
	}
}

// File converts the Markdown file at in and writes the HTML to out.
func File(ctx context.Context, c Converter, in, out string) error {
	src, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	body, err := c.ToHTML(ctx, src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}
