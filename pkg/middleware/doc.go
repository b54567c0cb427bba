// Package middleware provides the HTTP middleware the novaweb gateway runs
// in front of every page.
//
// This package includes:
//   - Request IDs and structured request logging
//   - OpenTelemetry server spans
//   - Prometheus request, edge-gate and session-refresh metrics
//
// All middleware has the func(http.Handler) http.Handler shape, so it plugs
// into chi directly:
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID, middleware.Logger(logger))
//	r.Use(middleware.Tracing(), m.Handler)
//
// # Metrics
//
// Metrics implements authmw.DecisionObserver and auth.RefreshObserver,
// so the same instance counts gate decisions and refresh outcomes:
//   - novaweb_http_requests_total{method,route,code}
//   - novaweb_http_request_duration_seconds{method,route}
//   - novaweb_edge_gate_decisions_total{rule}
//   - novaweb_session_refresh_total{outcome}
//   - novaweb_session_refresh_duration_seconds
//   - novaweb_session_refresh_shared_total
//
// Route labels use the chi route pattern rather than the raw path.
//
// # Tracing
//
// Tracing extracts incoming trace context with the global propagator and
// starts a server span. Downstream handlers see the span on r.Context(),
// so outbound calls made with that context join the trace.
package middleware
