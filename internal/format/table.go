package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
)

// Alignment of a column's cells.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Column describes one table column. MaxWidth 0 means unbounded.
type Column struct {
	Name     string
	MaxWidth int
	Align    Alignment
}

// TableConfig holds configuration for table formatting.
type TableConfig struct {
	ShowHeaders bool
	// HeaderColor wraps the header line; empty prints it plain.
	HeaderColor string
	Separator   string
}

// DefaultTableConfig returns a default table configuration.
func DefaultTableConfig() *TableConfig {
	return &TableConfig{
		ShowHeaders: true,
		HeaderColor: colors.Blue,
		Separator:   "  ",
	}
}

// TableFormatter prints rows aligned to the widest cell of each column.
type TableFormatter struct {
	config *TableConfig
}

// NewTableFormatter creates a TableFormatter with the default config.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{config: DefaultTableConfig()}
}

// NewTableFormatterWithConfig creates a TableFormatter with cfg.
func NewTableFormatterWithConfig(cfg *TableConfig) *TableFormatter {
	return &TableFormatter{config: cfg}
}

func (f *TableFormatter) Format(w io.Writer, t Table) error {
	if len(t.Rows) == 0 {
		if t.Empty == "" {
			return nil
		}
		_, err := fmt.Fprintln(w, t.Empty)
		return err
	}

	widths := columnWidths(t)
	if f.config.ShowHeaders {
		names := make([]string, len(t.Columns))
		seps := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			names[i] = c.Name
			seps[i] = strings.Repeat("-", widths[i])
		}
		header := f.line(names, t.Columns, widths)
		if f.config.HeaderColor != "" {
			header = f.config.HeaderColor + header + colors.Reset
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, f.line(seps, t.Columns, widths)); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(w, f.line(row, t.Columns, widths)); err != nil {
			return err
		}
	}
	return nil
}

func (f *TableFormatter) line(cells []string, cols []Column, widths []int) string {
	parts := make([]string, len(widths))
	for i := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		align := AlignLeft
		if i < len(cols) {
			align = cols[i].Align
		}
		parts[i] = fit(cell, widths[i], align, i == len(widths)-1)
	}
	return strings.Join(parts, f.config.Separator)
}

func columnWidths(t Table) []int {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = ansi.StringWidth(c.Name)
		for _, row := range t.Rows {
			if i < len(row) {
				widths[i] = max(widths[i], ansi.StringWidth(row[i]))
			}
		}
		if c.MaxWidth > 0 {
			widths[i] = min(widths[i], c.MaxWidth)
		}
	}
	return widths
}

// fit truncates or pads s to width. The last left-aligned column is not
// padded so lines carry no trailing blanks.
func fit(s string, width int, align Alignment, last bool) string {
	if ansi.StringWidth(s) > width {
		return ansi.Truncate(s, width, "…")
	}
	pad := strings.Repeat(" ", width-ansi.StringWidth(s))
	if align == AlignRight {
		return pad + s
	}
	if last {
		return s
	}
	return s + pad
}
