package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID   int    `table:"ID" json:"id" yaml:"id"`
	Name string `table:"NAME" json:"name" yaml:"name"`
	Note string `json:"note" yaml:"note"`
}

func TestNewFormatter(t *testing.T) {
	for format, want := range map[string]Formatter{
		"":          &TableFormatter{},
		FormatTable: &TableFormatter{},
		FormatJSON:  &JSONFormatter{},
		FormatYAML:  &YAMLFormatter{},
	} {
		f, err := NewFormatter(format)
		require.NoError(t, err, format)
		assert.IsType(t, want, f, format)
	}

	_, err := NewFormatter("csv")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestTableFormatterSlice(t *testing.T) {
	out := (&TableFormatter{}).Format([]sample{{ID: 1, Name: "feed-a", Note: "x"}, {ID: 2, Name: "feed-b"}})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^ID\s+NAME\s+NOTE$`, lines[0])
	assert.Regexp(t, `^1\s+feed-a\s+x$`, lines[1])
	assert.Regexp(t, `^2\s+feed-b`, lines[2])
}

func TestTableFormatterStruct(t *testing.T) {
	out := (&TableFormatter{}).Format(&sample{ID: 7, Name: "remote"})
	assert.Regexp(t, `ID:\s+7`, out)
	assert.Regexp(t, `NAME:\s+remote`, out)
}

func TestTableFormatterEmpty(t *testing.T) {
	f := &TableFormatter{}
	assert.Equal(t, "No resources found.\n", f.Format([]sample{}))
	assert.Equal(t, "No resources found.\n", f.Format((*sample)(nil)))
}

func TestJSONAndYAMLFormatters(t *testing.T) {
	v := sample{ID: 3, Name: "feed-a"}

	assert.JSONEq(t, `{"id":3,"name":"feed-a","note":""}`, (&JSONFormatter{}).Format(v))

	y := (&YAMLFormatter{}).Format(v)
	assert.Contains(t, y, "id: 3")
	assert.Contains(t, y, "name: feed-a")
}
