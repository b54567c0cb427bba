// Package sessionauth validates the current session against the Nova backend.
//
// A Provider implements auth.Validator over HTTP. Session cookies travel in the
// provider's cookie jar, so every request is credentialed the same way a
// browser would send it.
package sessionauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/novabot-studio/web/pkg/auth"
)

// DefaultValidatePath is the backend session-validation endpoint.
const DefaultValidatePath = "/api/auth/validate-session"

// maxResponseBytes caps how much of a validation response is read.
const maxResponseBytes = 1 << 20

const tracerName = "github.com/novabot-studio/web/pkg/auth/sessionauth"

// ErrMalformedResponse is returned when an OK response cannot be decoded.
// The store treats it as a transport failure, not as a rejection.
var ErrMalformedResponse = errors.New("sessionauth: malformed validation response")

// StatusError reports a non-OK response from the validation endpoint.
// It matches auth.ErrRejected.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sessionauth: validation rejected with status %d", e.StatusCode)
}

// Is reports whether target is auth.ErrRejected.
func (e *StatusError) Is(target error) bool {
	return target == auth.ErrRejected
}

// Provider calls the backend session-validation endpoint.
type Provider struct {
	baseURL      *url.URL
	validatePath string
	client       *http.Client
	tracer       trace.Tracer
}

// Option configures a Provider.
type Option func(*Provider)

// WithValidatePath overrides the validation endpoint path.
func WithValidatePath(path string) Option {
	return func(p *Provider) {
		if path != "" {
			p.validatePath = path
		}
	}
}

// WithHTTPClient sets the HTTP client. The provider works on a shallow copy,
// so the caller's client is never modified. A copy without a cookie jar gets
// one, since validation requests must carry the session cookies.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			c := *client
			p.client = &c
		}
	}
}

// WithTracer overrides the tracer used for client spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Provider) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// New creates a Provider for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Provider, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("sessionauth: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("sessionauth: base url %q must be http or https", baseURL)
	}

	p := &Provider{
		baseURL:      u,
		validatePath: DefaultValidatePath,
		client:       &http.Client{},
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("sessionauth: cookie jar: %w", err)
		}
		p.client.Jar = jar
	}

	return p, nil
}

// Client returns the credentialed HTTP client so other backend calls share
// the same cookies.
func (p *Provider) Client() *http.Client {
	return p.client
}

// BaseURL returns a copy of the backend base URL.
func (p *Provider) BaseURL() *url.URL {
	u := *p.baseURL
	return &u
}

// SetSessionCookies seeds the cookie jar with the session cookies the login
// flow issued. Empty values are skipped.
func (p *Provider) SetSessionCookies(refreshToken, sessionID string) {
	var cookies []*http.Cookie
	if refreshToken != "" {
		cookies = append(cookies, &http.Cookie{Name: auth.RefreshTokenCookie, Value: refreshToken, Path: "/"})
	}
	if sessionID != "" {
		cookies = append(cookies, &http.Cookie{Name: auth.SessionIDCookie, Value: sessionID, Path: "/"})
	}
	if len(cookies) > 0 {
		p.client.Jar.SetCookies(p.baseURL, cookies)
	}
}

// ValidateSession implements auth.Validator.
//
// Only the status code of a non-OK response is inspected.
func (p *Provider) ValidateSession(ctx context.Context) (auth.Identity, error) {
	endpoint := p.baseURL.JoinPath(p.validatePath)

	ctx, span := p.tracer.Start(ctx, "sessionauth.validate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", endpoint.String())),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return auth.Identity{}, p.fail(span, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return auth.Identity{}, p.fail(span, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return auth.Identity{}, &StatusError{StatusCode: resp.StatusCode}
	}

	var id auth.Identity
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&id); err != nil {
		return auth.Identity{}, p.fail(span, fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}

	span.SetStatus(codes.Ok, "")
	return id, nil
}

func (p *Provider) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
