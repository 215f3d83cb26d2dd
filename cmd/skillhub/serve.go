package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillhub/pkg/api"
	"github.com/jingkaihe/skillhub/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registry REST API server",
	Long: `Serve exposes the registry over HTTP. Authentication is expected to be
handled by a fronting proxy that sets the X-Skillhub-Namespace header.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reg, s, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		server, err := api.NewServer(reg, &api.ServerConfig{
			Host: viper.GetString("serve.host"),
			Port: viper.GetInt("serve.port"),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(ctx)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			logger.G(ctx).Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Stop(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().String("host", "127.0.0.1", "Host to bind")
	serveCmd.Flags().Int("port", 8315, "Port to listen on")

	viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
	viper.SetDefault("serve.host", "127.0.0.1")
	viper.SetDefault("serve.port", 8315)
}
