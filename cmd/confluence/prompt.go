package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter asks the user for values.
type prompter interface {
	Ask(label, defaultValue string) (string, error)
	// Secret reads a value without echoing it when stdin is a terminal.
	Secret(label string) (string, error)
	Confirm(label string, defaultValue bool) (bool, error)
}

// linePrompter reads answers line by line from the command's input.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal descriptor of the input, or -1.
	fd           int
	readPassword func(fd int) ([]byte, error)
}

func newLinePrompter(c *cobra.Command) prompter {
	p := &linePrompter{
		in:           bufio.NewReader(c.InOrStdin()),
		out:          c.ErrOrStderr(),
		fd:           -1,
		readPassword: term.ReadPassword,
	}
	if f, ok := c.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

func (p *linePrompter) line() (string, error) {
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (p *linePrompter) Ask(label, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, defaultValue)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	answer, err := p.line()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	if answer == "" {
		return defaultValue, nil
	}
	return answer, nil
}

func (p *linePrompter) Secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if p.fd < 0 {
		answer, err := p.line()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return answer, nil
	}
	b, err := p.readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (p *linePrompter) Confirm(label string, defaultValue bool) (bool, error) {
	hint := "y/N"
	if defaultValue {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s [%s]: ", label, hint)
	answer, err := p.line()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return defaultValue, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return defaultValue, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
