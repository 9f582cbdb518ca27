package commands

import (
	"ctfd-cli/lib/scrapers/ctfd/core"
	"ctfd-cli/lib/scrapers/ctfd/stats"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	var asJson bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the admin statistics of the logged in CTFd instance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := a.store()
			if err != nil {
				return err
			}
			client, err := store.Load(ctx, a.clientOptions())
			if err != nil {
				return err
			}

			res, err := client.Get(ctx, stats.Path, nil)
			if err != nil {
				return err
			}
			if core.IsLoginPage(res) {
				return core.ErrSessionExpired
			}
			err = client.DetectRequestError(res)
			if err != nil {
				return err
			}

			fields, err := stats.Parse(res.Body())
			if err != nil {
				return err
			}

			if asJson {
				encoder := json.NewEncoder(a.stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(fields)
			}

			t := newTable(a.stdout)
			t.SetTitle(fmt.Sprintf("Statistics of %s", client.BaseUrl.String()))
			t.AppendHeader(table.Row{"Level", "Text"})
			for _, f := range fields {
				t.AppendRow(table.Row{
					strings.Repeat("#", f.Level),
					f.Text,
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJson, "json", false, "Print the fields as JSON instead of a table.")

	return cmd
}
