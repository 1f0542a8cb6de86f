package commands

import (
	"errors"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(leadsCmd)
}

var leadsCmd = &cobra.Command{
	Use:   "leads <domain>",
	Short: "List email addresses found for a domain.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		res, err := client.Leads().Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !res.Success {
			return errors.New("leads lookup was not successful")
		}

		t := newTable()
		t.SetTitle(res.Domain)
		t.AppendHeader(table.Row{"email", "sources"})
		for _, lead := range res.Leads {
			t.AppendRow(table.Row{lead.Email, strings.Join(lead.Sources, "\n")})
		}
		t.AppendFooter(table.Row{"remaining requests", res.RemainingRequests})
		t.Render()
		return nil
	},
}
