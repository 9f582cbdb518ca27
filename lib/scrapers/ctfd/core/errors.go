package core

import (
	"errors"
	"fmt"
)

// ErrMissingNonce is returned when a page that should render a form has no
// nonce input, which means the markup is not what this client expects.
var ErrMissingNonce = errors.New("could not find required form token")

// ErrSessionExpired is returned when an authenticated page answers with the
// login form instead.
var ErrSessionExpired = errors.New("session is no longer authenticated, please log in again")

// TransportError wraps network level failures (connection refused,
// timeouts, dns).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError is a failure reported by the server itself, either
// through the status code or through an alert rendered into the page.
type ApplicationError struct {
	StatusCode int
	// Message is the alert text of the page, it may be empty.
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP Error Code: %d", e.StatusCode)
}
