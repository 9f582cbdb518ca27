package core

import (
	"fmt"
	"testing"

	_ "embed"

	random "github.com/mazen160/go-random"
	"github.com/stretchr/testify/require"
)

//go:embed login_page_test.html
var loginPageTest []byte

func TestExtractCsrfTokenFromLoginPage(t *testing.T) {
	nonce, err := ExtractCsrfToken(loginPageTest)
	require.NoError(t, err)
	require.Equal(t, "5f27d2a5d10ad5c1e4bd1e2c7a5c38d4a1c0e0cb0e5a1d5e6f1f6e3f8c4e7d1b", nonce)
}

func TestExtractCsrfToken(t *testing.T) {
	for i := 0; i < 25; i++ {
		value, err := random.String(1 + i*3)
		require.NoError(t, err)

		body := fmt.Sprintf(`<form><input type="text" name="name"><input type="hidden" name="nonce" value="%s"></form>`, value)
		nonce, err := ExtractCsrfToken([]byte(body))
		require.NoError(t, err)
		require.Equal(t, value, nonce)
	}

	testCases := []struct {
		name     string
		body     string
		expected string
		err      error
	}{
		{
			name:     "empty value",
			body:     `<input type="hidden" name="nonce" value="">`,
			expected: "",
		},
		{
			name:     "first of many",
			body:     `<input name="nonce" value="first"><input name="nonce" value="second">`,
			expected: "first",
		},
		{
			name: "no nonce input",
			body: `<form><input type="hidden" name="csrf" value="abc"></form>`,
			err:  ErrMissingNonce,
		},
		{
			name: "nonce without value",
			body: `<input type="hidden" name="nonce">`,
			err:  ErrMissingNonce,
		},
		{
			name: "not html",
			body: `{"success": true}`,
			err:  ErrMissingNonce,
		},
		{
			name: "empty body",
			body: ``,
			err:  ErrMissingNonce,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			nonce, err := ExtractCsrfToken([]byte(test.body))
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expected, nonce)
		})
	}
}

func TestExtractErrorMessageFromLoginPage(t *testing.T) {
	message, err := ExtractErrorMessage(loginPageTest, DefaultAlertLineIndex)
	require.NoError(t, err)
	require.Equal(t, "Your username or password is incorrect", message)
}

func TestExtractErrorMessage(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		lineIndex int
		expected  string
	}{
		{
			name:      "third line",
			body:      "<div role=\"alert\">Error\n---\n   Permission denied   \nignored</div>",
			lineIndex: 2,
			expected:  "Permission denied",
		},
		{
			name:      "exactly three lines",
			body:      "<div role=\"alert\">a\nb\n c </div>",
			lineIndex: 2,
			expected:  "c",
		},
		{
			name:      "two lines",
			body:      "<div role=\"alert\">Error\nPermission denied</div>",
			lineIndex: 2,
			expected:  "",
		},
		{
			name:      "single line",
			body:      `<div role="alert">Permission denied</div>`,
			lineIndex: 2,
			expected:  "",
		},
		{
			name:      "no alert",
			body:      "<div class=\"alert\">Error\n-\nPermission denied</div>",
			lineIndex: 2,
			expected:  "",
		},
		{
			name:      "blank third line",
			body:      "<div role=\"alert\">Error\n-\n   \nmore</div>",
			lineIndex: 2,
			expected:  "",
		},
		{
			name:      "first alert only",
			body:      "<div role=\"alert\">a\nb\nfirst</div><div role=\"alert\">a\nb\nsecond</div>",
			lineIndex: 2,
			expected:  "first",
		},
		{
			name:      "configured line",
			body:      "<p role=\"alert\">Permission denied\nsecond</p>",
			lineIndex: 0,
			expected:  "Permission denied",
		},
		{
			name:      "negative line",
			body:      "<div role=\"alert\">a\nb\nc</div>",
			lineIndex: -1,
			expected:  "",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			message, err := ExtractErrorMessage([]byte(test.body), test.lineIndex)
			require.NoError(t, err)
			require.Equal(t, test.expected, message)
		})
	}
}
