package commands

import (
	"ctfd-cli/lib/scrapers/ctfd/core"
	"ctfd-cli/lib/sessionstore"
	"errors"
	"fmt"
)

const (
	exitOk          = 0
	exitFailure     = 1
	exitApplication = 2
	exitNotLoggedIn = 3
	exitProtocol    = 4
	exitTransport   = 5
)

func exitCode(err error) int {
	var appErr *core.ApplicationError
	var transportErr *core.TransportError

	switch {
	case errors.Is(err, sessionstore.ErrNotFound), errors.Is(err, sessionstore.ErrReadFailed):
		return exitNotLoggedIn
	case errors.Is(err, core.ErrMissingNonce):
		return exitProtocol
	case errors.Is(err, core.ErrSessionExpired), errors.As(err, &appErr):
		return exitApplication
	case errors.As(err, &transportErr):
		return exitTransport
	}
	return exitFailure
}

// diagnostic renders err as the single line printed to stderr.
func diagnostic(err error) string {
	var appErr *core.ApplicationError
	var transportErr *core.TransportError

	switch {
	case errors.Is(err, sessionstore.ErrNotFound):
		return "Not logged in, please log in first with `ctfd-cli login`."
	case errors.Is(err, sessionstore.ErrReadFailed):
		return fmt.Sprintf("Could not read the saved session (%v), please log in again with `ctfd-cli login`.", err)
	case errors.Is(err, core.ErrMissingNonce):
		return fmt.Sprintf("Protocol error: %v", err)
	case errors.Is(err, core.ErrSessionExpired):
		return "Session expired, please log in again with `ctfd-cli login`."
	case errors.As(err, &appErr):
		if appErr.Message != "" {
			return "Error Message in HTML: " + appErr.Message
		}
		return appErr.Error()
	case errors.As(err, &transportErr):
		return fmt.Sprintf("Could not reach the CTFd instance: %v", transportErr)
	}
	return fmt.Sprintf("Error: %v", err)
}
