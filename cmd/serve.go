package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"text2sql/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve SQL generation over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Without an LLM the server still answers /v1/context.
	a, err := newApp(ctx, cfg, logger, cfg.LLM.URI != "")
	if err != nil {
		return err
	}
	defer a.Close()

	handler := server.NewHandler(server.Dependencies{
		Generator: a.service,
		Readiness: func(ctx context.Context) error { return a.connector.Ping(ctx) },
		Logger:    logger,
	})
	return server.ListenAndServe(ctx, cfg.Server, handler, logger)
}
