// Command caserss публикует ленты RSS судебных прецедентов.
//
//	caserss serve --config config.json
//	caserss render scourt --limit 10
//	caserss render law --court 서울고등법원
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"caserss/internal/app"
	"caserss/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env")

	var configPath string
	root := &cobra.Command{
		Use:           "caserss",
		Short:         "RSS feeds of Korean court precedents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to JSON config; empty for defaults")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(renderCmd(&configPath))

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Printf("FATAL: %v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); path != "" && os.IsNotExist(err) {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serveCmd(configPath *string) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /scourt.xml and /prec.xml over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address, overrides server.address")
	return cmd
}

func renderCmd(configPath *string) *cobra.Command {
	var (
		limit int
		court string
	)
	cmd := &cobra.Command{
		Use:       "render {scourt|law}",
		Short:     "Generate one feed and write it to stdout",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{app.FeedScourt, app.FeedLaw},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Render(ctx, args[0], limit, court, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of precedents; 0 uses app.default_limit")
	cmd.Flags().StringVar(&court, "court", "", "court name for the law feed; empty uses app.default_court")
	return cmd
}
