package commands

import (
	"log/slog"

	"crawlbase/lib/crawlbase"

	"github.com/spf13/cobra"
)

var (
	screenshotOpts []string
	screenshotOut  string
)

func init() {
	screenshotCmd.Flags().StringArrayVarP(&screenshotOpts, "opt", "o", nil, "Request option as key=value, repeatable (e.g. device=mobile).")
	screenshotCmd.Flags().StringVar(&screenshotOut, "out", "", "Where to save the jpeg, a temp file when empty.")
	rootCmd.AddCommand(screenshotCmd)
}

var screenshotCmd = &cobra.Command{
	Use:   "screenshot <url> [--out file.jpg] [-o key=value...]",
	Short: "Save a screenshot of a page with the screenshots api.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := parseOptions(screenshotOpts)
		if err != nil {
			return err
		}
		if screenshotOut != "" {
			if err := crawlbase.ValidateScreenshotPath(screenshotOut); err != nil {
				return err
			}
			opts.Set(crawlbase.SaveToPathOption, screenshotOut)
		}

		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		res, err := client.Screenshots().Get(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		printMetadata(res.StatusCode, res.Metadata)
		slog.Info("screenshot saved", "path", res.Path, "base64_bytes", len(res.Body))
		return nil
	},
}
