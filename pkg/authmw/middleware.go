package authmw

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DecisionObserver receives the rule label of every gate evaluation.
type DecisionObserver interface {
	ObserveDecision(rule string)
}

type gateConfig struct {
	logger   *slog.Logger
	observer DecisionObserver
	status   int
}

// GateOption configures Gate.
type GateOption func(*gateConfig)

// WithLogger sets the logger for diagnostic decision logs.
func WithLogger(logger *slog.Logger) GateOption {
	return func(c *gateConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a metrics hook for decisions.
func WithObserver(observer DecisionObserver) GateOption {
	return func(c *gateConfig) {
		c.observer = observer
	}
}

// WithRedirectStatus overrides the redirect status code (default 307).
func WithRedirectStatus(code int) GateOption {
	return func(c *gateConfig) {
		if code >= 300 && code < 400 {
			c.status = code
		}
	}
}

// Gate returns middleware that applies rules to every request whose path is
// in the matcher set. Requests outside it reach next without evaluation.
func Gate(rules Rules, opts ...GateOption) func(http.Handler) http.Handler {
	cfg := gateConfig{
		logger: slog.Default().With("component", "authmw"),
		status: http.StatusTemporaryRedirect,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !rules.Matches(path) {
				next.ServeHTTP(w, r)
				return
			}

			d := rules.Decide(path, rules.PossiblyAuthenticated(r))
			if cfg.observer != nil {
				cfg.observer.ObserveDecision(d.Rule)
			}

			if d.Action == Redirect {
				cfg.logger.Debug("edge redirect", "path", path, "location", d.Location, "rule", d.Rule)
				http.Redirect(w, r, d.Location, cfg.status)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Mount registers h behind the gate on every matcher pattern of rules, so the
// gate never runs for routes outside the matcher set.
//
// Usage:
//
//	r := chi.NewRouter()
//	authmw.Mount(r, authmw.DefaultRules(), pages)
//	r.Handle("/*", pages) // public pages, no gate
func Mount(r chi.Router, rules Rules, h http.Handler, opts ...GateOption) {
	gated := r.With(Gate(rules, opts...))
	for _, pattern := range rules.Patterns() {
		gated.Handle(pattern, h)
	}
}
