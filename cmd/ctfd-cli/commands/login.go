package commands

import (
	"bufio"
	"ctfd-cli/lib/scrapers/ctfd/core"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(a *app) *cobra.Command {
	var baseUrl, user, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a CTFd instance and save the session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if baseUrl == "" {
				baseUrl = a.config.Url
			}
			if user == "" {
				user = a.config.User
			}
			if baseUrl == "" {
				return errors.New("--url is required (or set url in the config file)")
			}
			if user == "" {
				return errors.New("--user is required (or set user in the config file)")
			}

			if !cmd.Flags().Changed("password") {
				var err error
				password, err = a.promptPassword()
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}

			fmt.Fprintf(a.stdout, "Logging in to %s as %s\n", baseUrl, user)

			opts := a.clientOptions()
			opts.BaseUrl = baseUrl
			client, err := core.NewClient(ctx, opts)
			if err != nil {
				return err
			}
			err = client.Login(ctx, user, password)
			if err != nil {
				return err
			}

			store, err := a.store()
			if err == nil {
				err = store.Save(client)
			}
			if err != nil {
				slog.WarnContext(ctx, "failed to save session", "err", err)
				fmt.Fprintf(a.stderr, "Warning: logged in but the session could not be saved: %v\n", err)
			}

			fmt.Fprintf(a.stdout, "Logged in to %s as %s\n", client.BaseUrl.String(), user)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseUrl, "url", "", "The base address of the CTFd instance, ex. http://localhost:8000.")
	cmd.Flags().StringVar(&user, "user", "", "The username to log in with.")
	cmd.Flags().StringVar(&password, "password", "", "The password to log in with, prompted for if omitted.")

	return cmd
}

// promptPassword reads a password without echo when stdin is a terminal,
// otherwise it reads the first line of stdin.
func (a *app) promptPassword() (string, error) {
	fmt.Fprint(a.stderr, "Password: ")

	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
