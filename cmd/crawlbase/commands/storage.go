package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"crawlbase/lib/crawlbase"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	storageURL    string
	storageRID    string
	storageFormat string
	storageLimit  int
)

func init() {
	storageGetCmd.Flags().StringVar(&storageURL, "url", "", "Url the stored page was crawled from.")
	storageGetCmd.Flags().StringVar(&storageRID, "rid", "", "Request id of the stored page.")
	storageGetCmd.Flags().StringVar(&storageFormat, "format", "html", "Response format, html or json.")
	storageGetCmd.MarkFlagsMutuallyExclusive("url", "rid")
	storageGetCmd.MarkFlagsOneRequired("url", "rid")

	storageRIDsCmd.Flags().IntVar(&storageLimit, "limit", crawlbase.NoLimit, "Maximum number of ids to list, negative for the service default.")

	storageCmd.AddCommand(storageGetCmd, storageDeleteCmd, storageBulkCmd, storageRIDsCmd, storageCountCmd)
	rootCmd.AddCommand(storageCmd)
}

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Read and manage pages kept by the storage api.",
}

var storageGetCmd = &cobra.Command{
	Use:   "get (--url <url> | --rid <rid>) [--format html|json]",
	Short: "Fetch one stored page.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := crawlbase.Format(strings.ToLower(storageFormat))
		if format != crawlbase.FormatHTML && format != crawlbase.FormatJSON {
			return fmt.Errorf("unknown format %q, expected html or json", storageFormat)
		}

		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		var res *crawlbase.StorageResponse
		if storageRID != "" {
			res, err = client.Storage().GetByRID(cmd.Context(), storageRID, format)
		} else {
			res, err = client.Storage().GetByURL(cmd.Context(), storageURL, format)
		}
		if err != nil {
			return err
		}

		printStorageRecords([]crawlbase.StorageRecord{res.StorageRecord})
		fmt.Println(res.Body)
		return nil
	},
}

var storageDeleteCmd = &cobra.Command{
	Use:   "delete <rid>",
	Short: "Delete one stored page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		ok, err := client.Storage().Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("storage did not confirm the delete")
		}
		slog.Info("deleted stored page", "rid", args[0])
		return nil
	},
}

var storageBulkCmd = &cobra.Command{
	Use:   "bulk <rid>...",
	Short: "Fetch several stored pages at once.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		records, err := client.Storage().Bulk(cmd.Context(), args)
		if err != nil {
			return err
		}
		printStorageRecords(records)
		return nil
	},
}

var storageRIDsCmd = &cobra.Command{
	Use:   "rids [--limit n]",
	Short: "List request ids of stored pages.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		rids, err := client.Storage().RIDs(cmd.Context(), storageLimit)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"#", "rid"})
		for i, rid := range rids {
			t.AppendRow(table.Row{i + 1, rid})
		}
		t.Render()
		return nil
	},
}

var storageCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print how many pages are stored.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		count, err := client.Storage().TotalCount(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(count)
		return nil
	},
}
