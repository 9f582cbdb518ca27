package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the status of the CLI and the saved session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.stdout, "CTFd Status")

			store, err := a.store()
			if err != nil {
				fmt.Fprintln(a.stdout, "Session: unavailable")
				return nil
			}
			record, err := store.Read()
			if err != nil {
				fmt.Fprintln(a.stdout, "Session: not logged in")
				return nil
			}
			fmt.Fprintf(a.stdout, "Session: %s (%d cookies)\n", record.BaseAddress, len(record.Cookies))
			return nil
		},
	}
}
