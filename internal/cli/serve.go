package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"digital.vasic.testconsole/pkg/logging"
	"digital.vasic.testconsole/pkg/monitor"
	"digital.vasic.testconsole/pkg/tui"
)

func (a *app) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web console",
		Long: `Serve the browser console with live updates over a websocket, a
JSON API under /api and Prometheus metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.ListenAddr
			}
			srv := monitor.NewServer(addr, a.console,
				monitor.WithLogger(a.logger),
				monitor.WithMetrics(a.metrics),
			)

			ctx := cmd.Context()
			errc := make(chan error, 1)
			go func() { errc <- srv.Start(ctx) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down web console", logging.StringField("addr", addr))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("stopping web console: %w", err)
			}
			return <-errc
		},
	}
	cmd.Flags().StringVar(&addr, "listen", "", "listen address (default from config)")
	return cmd
}

func (a *app) tuiCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "tui",
		Short:       "Run the interactive terminal console",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationQuiet: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(a.out) {
				return fmt.Errorf("tui needs a terminal; use generate, execute or orchestrate instead")
			}
			return tui.Run(cmd.Context(), a.console)
		},
	}
}
