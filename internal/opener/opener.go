// Package opener hands URLs, text and files to the desktop: the web browser,
// the system clipboard and the user's editor.
package opener

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/google/shlex"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
)

// ErrEmptyURL is returned when there is nothing to open.
var ErrEmptyURL = errors.New("empty url")

// Opener is what commands and the interactive browser depend on.
type Opener interface {
	OpenURL(url string) error
	CopyText(text string) error
	// EditFile blocks until the editor exits.
	EditFile(path string) error
}

// DefaultOpener implements Opener with the platform tools.
type DefaultOpener struct {
	goos        string
	editor      string
	noClipboard bool

	start     func(name string, args ...string) error
	runAttach func(name string, args ...string) error
	copy      func(string) error
}

var _ Opener = (*DefaultOpener)(nil)

// Option configures a DefaultOpener.
type Option func(*DefaultOpener)

// WithEditor sets the editor command, overriding $VISUAL and $EDITOR.
func WithEditor(editor string) Option {
	return func(o *DefaultOpener) {
		o.editor = strings.TrimSpace(editor)
	}
}

// NewDefaultOpener creates an opener for the running platform.
func NewDefaultOpener(opts ...Option) *DefaultOpener {
	o := &DefaultOpener{
		goos:      runtime.GOOS,
		start:     startDetached,
		runAttach: runAttached,
		copy:      clipboard.WriteAll,
		// set by the clipboard package when no copy utility is installed
		noClipboard: clipboard.Unsupported,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OpenURL launches the default browser without waiting for it.
func (o *DefaultOpener) OpenURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}
	name, args := browserCommand(o.goos, url)
	colors.StructuredDebug("opener", "open_url", "started", nil, "", colors.Fields("command", name))
	if err := o.start(name, args...); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// CopyText writes text to the system clipboard.
func (o *DefaultOpener) CopyText(text string) error {
	if o.noClipboard {
		return errors.New("no clipboard utility found (install xclip, xsel or wl-clipboard)")
	}
	if err := o.copy(strings.ReplaceAll(text, "\r\n", "\n")); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// EditFile opens path in the configured editor attached to the terminal.
func (o *DefaultOpener) EditFile(path string) error {
	argv, err := o.EditorCommand(path)
	if err != nil {
		return err
	}
	if err := o.runAttach(argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("editor %s: %w", argv[0], err)
	}
	return nil
}

// EditorCommand returns the argv used to edit path: the configured editor,
// then $VISUAL, then $EDITOR, then vi.
func (o *DefaultOpener) EditorCommand(path string) ([]string, error) {
	editor := o.editor
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if editor != "" {
			break
		}
		editor = strings.TrimSpace(os.Getenv(env))
	}
	if editor == "" {
		editor = "vi"
	}
	argv, err := shlex.Split(editor)
	if err != nil {
		return nil, fmt.Errorf("parse editor %q: %w", editor, err)
	}
	if len(argv) == 0 {
		argv = []string{"vi"}
	}
	return append(argv, path), nil
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", "", url}
	default:
		return "xdg-open", []string{url}
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func runAttached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
