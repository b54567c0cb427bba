// Package gateway assembles the novaweb HTTP front door: ambient middleware,
// the edge auth gate on its matcher routes, and the page handler behind it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/novabot-studio/web/internal/config"
	"github.com/novabot-studio/web/pkg/authmw"
	"github.com/novabot-studio/web/pkg/middleware"
	"github.com/novabot-studio/web/pkg/routepath"
)

// HealthPath answers liveness probes.
const HealthPath = "/healthz"

// Deps are the collaborators a Gateway is built with. All fields are
// optional.
type Deps struct {
	Logger *slog.Logger

	// Metrics records request and gate metrics. Nil disables them.
	Metrics *middleware.Metrics

	// Gatherer backs the metrics endpoint. Defaults to
	// prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Pages overrides the page handler built from server.upstream.
	Pages http.Handler

	// Rules overrides authmw.DefaultRules().
	Rules *authmw.Rules
}

// Gateway serves the web front door.
type Gateway struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler http.Handler
}

// New builds the router. cfg must already be validated.
func New(cfg *config.Config, deps Deps) (*Gateway, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gateway")

	pages := deps.Pages
	if pages == nil {
		var err error
		pages, err = pageHandler(cfg.Server.Upstream, logger)
		if err != nil {
			return nil, err
		}
	}

	rules := authmw.DefaultRules()
	if deps.Rules != nil {
		rules = *deps.Rules
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(logger))
	r.Use(routepath.Canonical)
	r.Use(middleware.Tracing(middleware.WithRequestFilter(func(req *http.Request) bool {
		return req.URL.Path != HealthPath && req.URL.Path != cfg.Metrics.Path
	})))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler)
	}

	r.Get(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Metrics.Enabled {
		gatherer := deps.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	gateOpts := []authmw.GateOption{
		authmw.WithLogger(logger),
		authmw.WithRedirectStatus(cfg.Auth.RedirectStatus),
	}
	if deps.Metrics != nil {
		gateOpts = append(gateOpts, authmw.WithObserver(deps.Metrics))
	}
	authmw.Mount(r, rules, pages, gateOpts...)
	r.Handle("/*", pages)

	return &Gateway{cfg: cfg, logger: logger, handler: r}, nil
}

// Handler returns the assembled router.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Run listens on server.addr and serves until ctx is cancelled, then shuts
// down gracefully within server.shutdownTimeout.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("gateway: listen %s: %w", g.cfg.Server.Addr, err)
	}
	return g.Serve(ctx, ln)
}

// Serve is Run on an existing listener. It closes ln.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           g.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String(), "upstream", g.cfg.Server.Upstream)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	g.logger.Info("gateway shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), g.cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		g.logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

// pageHandler proxies to upstream, or serves placeholder pages when no
// upstream is configured.
func pageHandler(upstream string, logger *slog.Logger) (http.Handler, error) {
	if upstream == "" {
		return placeholderPages(), nil
	}
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse upstream: %w", err)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			otel.GetTextMapPropagator().Inject(pr.Out.Context(), propagation.HeaderCarrier(pr.Out.Header))
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("upstream error", "path", r.URL.Path, "error", err,
				"request_id", middleware.RequestIDFromContext(r.Context()))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		},
	}, nil
}
