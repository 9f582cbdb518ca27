package core

import (
	"ctfd-cli/lib/htmlutil"
	"strings"
)

// DefaultAlertLineIndex is the line of an alert's text that holds the
// message. CTFd renders the alert as a title line, a label line and then
// the message itself.
const DefaultAlertLineIndex = 2

// ExtractCsrfToken returns the value of the nonce input of a page.
func ExtractCsrfToken(body []byte) (string, error) {
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		return "", err
	}
	nonce, ok := doc.Find("input[name=nonce]").First().Attr("value")
	if !ok {
		return "", ErrMissingNonce
	}
	return nonce, nil
}

// ExtractErrorMessage returns line lineIndex of the first alert element of
// a page, an empty string means the page carries no error.
func ExtractErrorMessage(body []byte, lineIndex int) (string, error) {
	doc, err := htmlutil.ParseDocument(body)
	if err != nil {
		return "", err
	}
	alert := doc.Find("[role=alert]")
	if len(alert.Nodes) == 0 {
		return "", nil
	}
	lines := strings.Split(htmlutil.GetText(alert.Nodes[0]), "\n")
	if lineIndex < 0 || len(lines) <= lineIndex {
		return "", nil
	}
	return strings.TrimSpace(lines[lineIndex]), nil
}
