package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetText(t *testing.T) {
	doc, err := ParseDocument([]byte(`<div id="target">
  <span>Error:</span>
  Something <b>bad</b> happened
</div>`))
	require.NoError(t, err)

	text := GetText(doc.Find("#target").Nodes[0])
	require.Equal(t, "\n  Error:\n  Something bad happened\n", text)
}

func TestGetTextNil(t *testing.T) {
	require.Equal(t, "", GetText(nil))
}

func TestNormalizeText(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "", expected: ""},
		{in: "  plain  ", expected: "plain"},
		{in: "\n\t 12 \n users\n registered \n", expected: "12 users registered"},
		{in: "a\u200bb", expected: "ab"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, NormalizeText(test.in))
	}
}
