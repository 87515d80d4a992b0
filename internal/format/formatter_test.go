package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

func sample() Table {
	t := Table{
		Columns: []Column{{Name: "ID", Align: AlignRight}, {Name: "TITLE", MaxWidth: 10}},
		Data:    []page{{ID: "1", Title: "Home"}, {ID: "200", Title: "A very long page title"}},
		Empty:   "No pages found",
	}
	t.AddRow("1", "Home")
	t.AddRow("200", "A very long page title")
	return t
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"", TypeTable, false},
		{"JSON", TypeJSON, false},
		{" yaml ", TypeYAML, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableAlignsAndTruncates(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatterWithConfig(&TableConfig{ShowHeaders: true, Separator: "  "})
	require.NoError(t, f.Format(&buf, sample()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, " ID  TITLE", lines[0])
	assert.Equal(t, "---  ----------", lines[1])
	assert.Equal(t, "  1  Home", lines[2])
	assert.Equal(t, "200  A very lo…", lines[3])
}

func TestTableHeaderColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Format(&buf, sample()))
	assert.True(t, strings.HasPrefix(buf.String(), DefaultTableConfig().HeaderColor))
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, TypeTable, Table{Columns: []Column{{Name: "ID"}}, Empty: "No pages found"}))
	assert.Equal(t, "No pages found\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, TypeTable, Table{}))
	assert.Empty(t, buf.String())
}

func TestStructuredFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, TypeJSON, sample()))
	assert.Contains(t, buf.String(), `"title": "A very long page title"`)

	buf.Reset()
	require.NoError(t, Write(&buf, TypeYAML, sample()))
	assert.Contains(t, buf.String(), "- id: \"1\"\n  title: Home\n")

	buf.Reset()
	require.NoError(t, Write(&buf, TypeJSON, Table{}))
	assert.Equal(t, "[]\n", buf.String())
}
