package commands

import (
	"context"

	"crawlbase/lib/crawlbase"

	"github.com/spf13/cobra"
)

var (
	crawlOpts     []string
	crawlData     []string
	crawlSelector string
	crawlQuiet    bool
	crawlLinks    bool
)

func init() {
	for _, cmd := range []*cobra.Command{getCmd, postCmd} {
		cmd.Flags().StringArrayVarP(&crawlOpts, "opt", "o", nil, "Request option as key=value, repeatable (e.g. format=json).")
		cmd.Flags().StringVar(&crawlSelector, "select", "", "Print the text of elements matching this CSS selector instead of the body.")
		cmd.Flags().BoolVar(&crawlLinks, "links", false, "Print a table of the links on the page instead of the body.")
		cmd.Flags().BoolVarP(&crawlQuiet, "quiet", "q", false, "Do not print the response fields.")
		rootCmd.AddCommand(cmd)
	}
	postCmd.Flags().StringArrayVarP(&crawlData, "data", "d", nil, "Field to post as key=value, repeatable.")
}

var getCmd = &cobra.Command{
	Use:   "get <url> [-o key=value...]",
	Short: "Fetch a page through the crawling api.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		opts, err := parseOptions(crawlOpts)
		if err != nil {
			return err
		}
		res, err := client.Crawling().Get(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		return printCrawl(cmd.Context(), args[0], res)
	},
}

var postCmd = &cobra.Command{
	Use:   "post <url> [-d key=value...] [-o key=value...]",
	Short: "Post form or json data to a page through the crawling api.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		opts, err := parseOptions(crawlOpts)
		if err != nil {
			return err
		}
		data, err := parseOptions(crawlData)
		if err != nil {
			return err
		}
		res, err := client.Crawling().Post(cmd.Context(), args[0], data, opts)
		if err != nil {
			return err
		}
		return printCrawl(cmd.Context(), args[0], res)
	},
}

func printCrawl(ctx context.Context, target string, res *crawlbase.Response) error {
	if !crawlQuiet {
		printMetadata(res.StatusCode, res.Metadata)
	}
	if crawlLinks {
		// the service reports the final url after redirects
		base := res.URL
		if base == "" {
			base = target
		}
		return printLinks(ctx, res.Body, base)
	}
	return printBody(ctx, res.Body, crawlSelector)
}
