package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sol-swap/config"
	"sol-swap/pkg/server"
	"sol-swap/pkg/tokens"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP proxy for browser clients",
	Long: `Start an HTTP server that proxies quote, swap-build, and token-list
requests to the aggregator. Browser frontends use it to avoid CORS
issues and to keep the API key off the client.

Examples:
  sol-swap serve
  sol-swap serve --listen :9090`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	addr := listenAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	logger, err := zap.NewProduction()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer logger.Sync()

	apiClient := newJupiterClient(cfg)
	loader := tokens.NewLoader(tokens.Sources(cfg.StrictTokens), logger)

	srv := server.New(addr, apiClient, loader, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting proxy server", zap.String("addr", addr))

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
