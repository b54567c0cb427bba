// Package dashboard fetches the bot summary shown on the home dashboard.
//
// The summary endpoint is only called for a settled, confirmed session:
// [Loader] consults the session store first and skips the round trip for
// anonymous or still-loading visitors.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/novabot-studio/web/pkg/auth"
)

// DefaultSummaryPath is the backend bot-summary endpoint.
const DefaultSummaryPath = "/api/bots/details"

const (
	maxResponseBytes = 4 << 20
	tracerName       = "github.com/novabot-studio/web/pkg/dashboard"
)

var (
	// ErrNotAuthenticated is returned by Loader.Load when the session store
	// does not hold a confirmed session.
	ErrNotAuthenticated = errors.New("dashboard: session not confirmed")

	// ErrUnexpectedStatus is returned for a non-OK summary response.
	ErrUnexpectedStatus = errors.New("dashboard: unexpected status")
)

// Bot is one entry of the recent-bots list.
type Bot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is the bot-details payload.
type Summary struct {
	NoOfBots       int   `json:"noOfBots"`
	NoOfActiveBots int   `json:"noOfActiveBots"`
	RecentBots     []Bot `json:"recentBots"`
}

// Client calls the bot-summary endpoint with a credentialed HTTP client.
type Client struct {
	baseURL *url.URL
	path    string
	client  *http.Client
	tracer  trace.Tracer
}

// NewClient creates a Client. httpClient should be the same cookie-carrying
// client used for session validation.
func NewClient(baseURL *url.URL, httpClient *http.Client, path string) *Client {
	if path == "" {
		path = DefaultSummaryPath
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	u := *baseURL
	return &Client{
		baseURL: &u,
		path:    path,
		client:  httpClient,
		tracer:  otel.Tracer(tracerName),
	}
}

// Summary posts to the summary endpoint and decodes the response.
func (c *Client) Summary(ctx context.Context) (Summary, error) {
	endpoint := c.baseURL.JoinPath(c.path).String()

	ctx, span := c.tracer.Start(ctx, "dashboard.summary",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", endpoint)),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte("{}")))
	if err != nil {
		return Summary{}, fail(span, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Summary{}, fail(span, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return Summary{}, fail(span, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	var s Summary
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&s); err != nil {
		return Summary{}, fail(span, fmt.Errorf("dashboard: decode summary: %w", err))
	}
	span.SetStatus(codes.Ok, "")
	return s, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// SummaryFetcher is the part of Client the Loader needs.
type SummaryFetcher interface {
	Summary(ctx context.Context) (Summary, error)
}

// StateReader is the part of auth.Store the Loader needs.
type StateReader interface {
	Snapshot() auth.State
}

// Loader gates summary fetches on the session store.
type Loader struct {
	Store   StateReader
	Fetcher SummaryFetcher
}

// Load returns ErrNotAuthenticated without calling the backend unless the
// store holds a settled, confirmed session.
func (l Loader) Load(ctx context.Context) (Summary, error) {
	if err := auth.RequireLoggedIn(l.Store.Snapshot()); err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	return l.Fetcher.Summary(ctx)
}
