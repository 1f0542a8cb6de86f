package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"crawlbase/lib/configutil"
	"crawlbase/lib/crawlbase"
	"crawlbase/lib/restyutil"
	"crawlbase/lib/telemetry"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const configName = "crawlbase.json5"

type Config struct {
	Token     string           `json:"token"`
	BaseUrl   string           `json:"base_url"`
	DumpDir   string           `json:"dump_dir"`
	Telemetry telemetry.Config `json:"telemetry"`
}

var (
	flagToken   string
	flagBaseUrl string
	flagDumpDir string
	flagVerbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Crawlbase token, overrides $CRAWLBASE_TOKEN and the config file.")
	rootCmd.PersistentFlags().StringVar(&flagBaseUrl, "base-url", "", "API base url.")
	rootCmd.PersistentFlags().StringVar(&flagDumpDir, "dump-dir", "", "Write every http exchange to this directory (requires --verbose).")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging.")
}

var rootCmd = &cobra.Command{
	Use:           "crawlbase",
	Short:         "crawlbase is a CLI for the Crawlbase crawling, scraper, screenshots, storage and leads APIs.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(flagVerbose)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		tel, err := telemetry.Setup(cmd.Context(), "crawlbase-cli", cfg.Telemetry)
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}

		cmd.SetContext(setGlobals(cmd.Context(), &globals{
			Config:    cfg,
			Telemetry: tel,
		}))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		g := getGlobals(cmd.Context())
		if g == nil {
			return nil
		}
		return g.Telemetry.Shutdown(context.Background())
	},
}

// loadConfig reads crawlbase.json5 when present, then applies the
// environment and flags on top.
func loadConfig() (Config, error) {
	cfg, err := configutil.ReadRecursively[Config](configName)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", configName, err)
	}
	if token, ok := os.LookupEnv("CRAWLBASE_TOKEN"); ok && token != "" {
		cfg.Token = token
	}
	if flagToken != "" {
		cfg.Token = flagToken
	}
	if flagBaseUrl != "" {
		cfg.BaseUrl = flagBaseUrl
	}
	if flagDumpDir != "" {
		cfg.DumpDir = flagDumpDir
	}
	return cfg, nil
}

// newClient builds the api client from the resolved config, the token is
// only required by commands that talk to the api.
func newClient(cmd *cobra.Command) (*crawlbase.Client, error) {
	cfg := getGlobals(cmd.Context()).Config

	var output restyutil.InstrumentOutput
	if cfg.DumpDir != "" {
		fsOutput, err := restyutil.NewFilesystemOutput(afero.NewOsFs(), cfg.DumpDir)
		if err != nil {
			return nil, fmt.Errorf("prepare dump dir: %w", err)
		}
		output = fsOutput
	}

	return crawlbase.New(cfg.Token, crawlbase.ClientOptions{
		BaseURL:          cfg.BaseUrl,
		InstrumentOutput: output,
	})
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
