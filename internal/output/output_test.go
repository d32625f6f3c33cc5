package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Label string   `json:"label" yaml:"label"`
	Tags  []string `json:"tags" yaml:"tags"`
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestPrint(t *testing.T) {
	v := sample{Label: "main", Tags: []string{"a", "b"}}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON, false).Print(v))
	assert.Equal(t, `{"label":"main","tags":["a","b"]}`+"\n", buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatJSON, true).Print(v))
	assert.Contains(t, buf.String(), "\n  \"label\": \"main\"")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(v))
	assert.Contains(t, buf.String(), "label: main\n")
	assert.Contains(t, buf.String(), "- a\n")

	assert.Error(t, NewPrinter(&buf, "xml", false).Print(v))
}
