package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scrapeOpts []string

func init() {
	scrapeCmd.Flags().StringArrayVarP(&scrapeOpts, "opt", "o", nil, "Request option as key=value, repeatable (e.g. scraper=amazon-product-details).")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url> [-o key=value...]",
	Short: "Extract structured data from a page with the scraper api.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		opts, err := parseOptions(scrapeOpts)
		if err != nil {
			return err
		}
		res, err := client.Scraper().Get(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		printMetadata(res.StatusCode, res.Metadata)
		fmt.Println(res.Body)
		return nil
	},
}
