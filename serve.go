package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hubview/hubview/internal/config"
	"github.com/hubview/hubview/internal/server"
)

func newServeCmd() *cobra.Command {
	var flagListen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the explorer web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ValidateCredentials(resolvedCfg); err != nil {
				return err
			}

			if flagListen != "" {
				resolvedCfg.Listen = flagListen
			}

			logger := buildLogger()
			auth := buildAuthClient(logger)
			data := buildDataClient(logger)

			sessions := newSessionStore(auth, logger)
			srv := server.New(auth, data, sessions, logger, resolvedCfg.SecureCookies)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx, resolvedCfg.Listen)
		},
	}

	cmd.Flags().StringVar(&flagListen, "listen", "", "bind address (overrides config)")

	return cmd
}
