package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single validation round trip.
const DefaultRefreshTimeout = 10 * time.Second

const (
	tracerName = "github.com/novabot-studio/web/pkg/auth"
	refreshKey = "refresh"
)

// errMalformedIdentity marks a 200 response whose payload fails Identity.Validate.
var errMalformedIdentity = errors.New("auth: malformed identity in validation response")

// Store holds the client-wide session state. It is an application-scoped
// object: construct one per running client and pass it to whatever reads it.
//
// Writes happen only through Refresh, SetAuthData, Login and Logout, each of
// which commits a whole snapshot under one lock.
type Store struct {
	validator Validator
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
	observer  RefreshObserver
	tracer    trace.Tracer

	mu      sync.RWMutex
	state   State
	subs    map[uint64]chan State
	nextSub uint64

	flight singleflight.Group
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTimeout sets the deadline applied to each validation call.
// Non-positive values keep the default.
func WithTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for LastUpdatedAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObserver registers a metrics hook for refresh cycles.
func WithObserver(observer RefreshObserver) StoreOption {
	return func(s *Store) {
		s.observer = observer
	}
}

// WithTracer overrides the tracer used for refresh spans.
func WithTracer(tracer trace.Tracer) StoreOption {
	return func(s *Store) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewStore creates a Store in its initial state: Loading, logged out,
// LastUpdatedAt set to Epoch.
func NewStore(validator Validator, opts ...StoreOption) *Store {
	s := &Store{
		validator: validator,
		timeout:   DefaultRefreshTimeout,
		logger:    slog.Default().With("component", "auth"),
		now:       time.Now,
		tracer:    otel.Tracer(tracerName),
		state:     initialState(),
		subs:      make(map[uint64]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Refresh re-validates the session against the backend and returns the
// committed snapshot together with how the cycle resolved.
//
// Concurrent callers share one in-flight validation and receive the same
// result. The validation runs on a context detached from ctx and bounded by
// the store timeout; if ctx ends first the caller gets the current snapshot
// with OutcomeUnknown while the cycle completes for everyone else.
//
// Refresh never returns an error. A transport failure leaves the previous
// IsLoggedIn and identity untouched; a rejection clears them.
func (s *Store) Refresh(ctx context.Context) (State, Outcome) {
	if ctx == nil {
		ctx = context.Background()
	}

	ch := s.flight.DoChan(refreshKey, func() (any, error) {
		return s.runRefresh(context.WithoutCancel(ctx)), nil
	})

	select {
	case res := <-ch:
		if res.Shared && s.observer != nil {
			s.observer.ObserveRefreshShared()
		}
		r := res.Val.(refreshResult)
		return r.state, r.outcome
	case <-ctx.Done():
		return s.Snapshot(), OutcomeUnknown
	}
}

type refreshResult struct {
	state   State
	outcome Outcome
}

func (s *Store) runRefresh(parent context.Context) refreshResult {
	start := time.Now()

	ctx, span := s.tracer.Start(parent, "auth.refresh", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	s.commit(func(st State) State {
		st.Loading = true
		return st
	})

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.validate(ctx)
	if err == nil {
		if verr := id.Validate(); verr != nil {
			err = fmt.Errorf("%w: %w", errMalformedIdentity, verr)
		}
	}

	var outcome Outcome
	next := s.commit(func(st State) State {
		st.Loading = false
		switch {
		case err == nil:
			outcome = OutcomeConfirmed
			return st.withIdentity(id, s.now())
		case errors.Is(err, ErrRejected):
			outcome = OutcomeRejected
			return st.cleared()
		default:
			outcome = OutcomeUnknown
			return st
		}
	})

	elapsed := time.Since(start)
	span.SetAttributes(attribute.String("auth.refresh.outcome", outcome.String()))

	switch outcome {
	case OutcomeConfirmed:
		span.SetStatus(codes.Ok, "")
		s.logger.Debug("session confirmed", "user_id", next.UserID, "duration", elapsed)
	case OutcomeRejected:
		span.SetStatus(codes.Ok, "")
		s.logger.Info("session rejected", "error", err, "duration", elapsed)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("session refresh did not resolve", "error", err, "duration", elapsed)
	}

	if s.observer != nil {
		s.observer.ObserveRefresh(outcome.String(), elapsed)
	}

	return refreshResult{state: next, outcome: outcome}
}

// validate calls the validator, converting a panic into a transport error so
// Loading is always cleared.
func (s *Store) validate(ctx context.Context) (id Identity, err error) {
	if s.validator == nil {
		return Identity{}, errors.New("auth: no validator configured")
	}
	defer func() {
		if r := recover(); r != nil {
			id = Identity{}
			err = fmt.Errorf("auth: validator panic: %v", r)
		}
	}()
	return s.validator.ValidateSession(ctx)
}

// SetAuthData merges p into the current state in a single write.
//
// The merged state must satisfy State.Validate, the same invariant the refresh
// success path upholds; otherwise ErrInvalidState is returned and the state is
// left unchanged.
func (s *Store) SetAuthData(p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := p.apply(s.state)
	if err := next.Validate(); err != nil {
		return err
	}
	s.state = next
	s.notifyLocked()
	return nil
}

// Login seeds the store with identity data obtained by a login call, without
// a validation round trip.
func (s *Store) Login(id Identity) error {
	if err := id.Validate(); err != nil {
		return errors.Join(ErrInvalidState, err)
	}
	loggedIn, loading := true, false
	at := s.now()
	return s.SetAuthData(Patch{
		Loading:       &loading,
		IsLoggedIn:    &loggedIn,
		Username:      &id.Username,
		Email:         &id.Email,
		UserID:        &id.UserID,
		LastUpdatedAt: &at,
	})
}

// Logout clears identity data. Loading is left as is so an in-flight refresh
// still reports itself.
func (s *Store) Logout() {
	s.commit(State.cleared)
}

// Subscribe returns a channel that receives every committed snapshot. The
// channel holds at most one pending value; a slow reader sees the newest one.
// The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) commit(fn func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	s.notifyLocked()
	return s.state
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.state:
		default:
		}
	}
}
