package main

import (
	stderrors "errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/novabot-studio/web/internal/config"
	"github.com/novabot-studio/web/internal/errors"
	"github.com/novabot-studio/web/pkg/auth"
	"github.com/novabot-studio/web/pkg/auth/sessionauth"
	"github.com/novabot-studio/web/pkg/middleware"
)

// loadConfig reads configuration, applies global flag overrides and then
// any command-specific overrides, and validates the result.
func loadConfig(gf *globalFlags, overrides ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(gf.dir)
	if err != nil {
		return nil, err
	}
	if gf.backend != "" {
		cfg.Backend.URL = gf.backend
	}
	if gf.logLevel != "" {
		cfg.Log.Level = gf.logLevel
	}
	if gf.logFormat != "" {
		cfg.Log.Format = gf.logFormat
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the slog logger described by cfg.Log and installs it as
// the default.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// cookieFlags carries session cookie values given on the command line.
type cookieFlags struct {
	refreshToken string
	sessionID    string
}

// session is a credentialed backend client plus the store it drives.
type session struct {
	provider *sessionauth.Provider
	store    *auth.Store
}

// newSession seeds the provider's cookie jar from flags, falling back to
// NOVAWEB_REFRESH_TOKEN and NOVAWEB_SESSION_ID.
func newSession(cfg *config.Config, cf cookieFlags, logger *slog.Logger, opts ...auth.StoreOption) (*session, error) {
	creds := cfg.Credentials
	if cf.refreshToken != "" {
		creds.RefreshToken = cf.refreshToken
	}
	if cf.sessionID != "" {
		creds.SessionID = cf.sessionID
	}
	if !creds.Complete() {
		return nil, errors.New("N300")
	}

	provider, err := sessionauth.New(cfg.Backend.URL, sessionauth.WithValidatePath(cfg.Backend.ValidatePath))
	if err != nil {
		return nil, errors.New("N101").Wrap(err)
	}
	provider.SetSessionCookies(creds.RefreshToken, creds.SessionID)

	opts = append([]auth.StoreOption{
		auth.WithTimeout(cfg.Auth.RefreshTimeout.Std()),
		auth.WithLogger(logger),
	}, opts...)
	return &session{provider: provider, store: auth.NewStore(provider, opts...)}, nil
}

// refreshMetrics collects session refresh metrics for one command run. With
// no path it records nothing.
type refreshMetrics struct {
	path    string
	reg     *prometheus.Registry
	metrics *middleware.Metrics
}

func newRefreshMetrics(path string) *refreshMetrics {
	if path == "" {
		return &refreshMetrics{}
	}
	reg := prometheus.NewRegistry()
	return &refreshMetrics{
		path:    path,
		reg:     reg,
		metrics: middleware.NewMetrics(middleware.WithRegistry(reg)),
	}
}

// storeOptions attaches the collectors to a store.
func (rm *refreshMetrics) storeOptions() []auth.StoreOption {
	if rm.metrics == nil {
		return nil
	}
	return []auth.StoreOption{auth.WithObserver(rm.metrics)}
}

// write replaces the metrics file atomically, in the format the node
// exporter textfile collector reads.
func (rm *refreshMetrics) write() error {
	if rm.reg == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(rm.path, rm.reg); err != nil {
		return errors.New("N302").WithDetail(rm.path).Wrap(err)
	}
	return nil
}

// outcomeError maps a non-confirmed refresh outcome to a coded error.
func outcomeError(outcome auth.Outcome) error {
	switch outcome {
	case auth.OutcomeConfirmed:
		return nil
	case auth.OutcomeRejected:
		return errors.New("N201")
	default:
		return errors.New("N200").Wrap(stderrors.New("session validation did not complete"))
	}
}
