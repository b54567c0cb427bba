package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/novabot-studio/web/internal/config"
	"github.com/novabot-studio/web/internal/errors"
	"github.com/novabot-studio/web/internal/gateway"
	"github.com/novabot-studio/web/pkg/middleware"
)

func serveCmd(gf *globalFlags) *cobra.Command {
	var (
		addr      string
		upstream  string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the edge-gated web gateway",
		Long: `Run the web gateway.

Requests to /login, /signup, /home and /home/* pass through the edge
auth gate, which redirects based on session cookie presence. Every
other path goes straight to the page handler.

Pages are proxied to server.upstream when set, otherwise minimal
placeholder pages are served.

Examples:
  novaweb serve
  novaweb serve --addr=:8080 --upstream=http://localhost:5173`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(gf, func(c *config.Config) {
				if addr != "" {
					c.Server.Addr = addr
				}
				if upstream != "" {
					c.Server.Upstream = upstream
				}
				if noMetrics {
					c.Metrics.Enabled = false
				}
			})
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{}, propagation.Baggage{},
			))

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			g, err := gateway.New(cfg, gateway.Deps{
				Logger:   logger,
				Metrics:  middleware.NewMetrics(middleware.WithRegistry(reg)),
				Gatherer: reg,
			})
			if err != nil {
				return errors.New("N102").Wrap(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			success(out, "Gateway on %s", cfg.Server.Addr)
			if cfg.Server.Upstream != "" {
				info(out, "Upstream: %s", cfg.Server.Upstream)
			} else {
				warn(out, "No upstream configured, serving placeholder pages")
			}
			if cfg.Metrics.Enabled {
				info(out, "Metrics:  %s", cfg.Metrics.Path)
			}

			if err := g.Run(ctx); err != nil {
				return errors.New("N301").Wrap(err)
			}
			info(out, "Stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&upstream, "upstream", "", "Page server to proxy to (default from config)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "Disable the metrics endpoint")

	return cmd
}
