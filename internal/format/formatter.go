// Package format prints command results as an aligned table, JSON or YAML.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type selects an output format.
type Type string

const (
	TypeTable Type = "table"
	TypeJSON  Type = "json"
	TypeYAML  Type = "yaml"
)

// ParseType validates a --format value. Empty means table.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TypeTable, nil
	case TypeTable, TypeJSON, TypeYAML:
		return t, nil
	}
	return "", fmt.Errorf("invalid output format %q: must be one of table, json, yaml", s)
}

// Table is one printable result. The table formatter prints Columns and
// Rows; json and yaml encode Data.
type Table struct {
	Columns []Column
	Rows    [][]string
	Data    any
	// Empty is printed instead of a table without rows.
	Empty string
}

// AddRow appends a row of cells.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Formatter writes a Table.
type Formatter interface {
	Format(w io.Writer, t Table) error
}

// NewFormatter returns the formatter for typ, defaulting to the table.
func NewFormatter(typ Type) Formatter {
	switch typ {
	case TypeJSON:
		return JSONFormatter{}
	case TypeYAML:
		return YAMLFormatter{}
	default:
		return NewTableFormatter()
	}
}

// Write formats t with the formatter for typ.
func Write(w io.Writer, typ Type, t Table) error {
	return NewFormatter(typ).Format(w, t)
}

// JSONFormatter prints Data as indented JSON.
type JSONFormatter struct{}

func (JSONFormatter) Format(w io.Writer, t Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dataOf(t))
}

// YAMLFormatter prints Data as a YAML document.
type YAMLFormatter struct{}

func (YAMLFormatter) Format(w io.Writer, t Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(dataOf(t)); err != nil {
		return err
	}
	return enc.Close()
}

func dataOf(t Table) any {
	if t.Data == nil {
		return []any{}
	}
	return t.Data
}
