package auth

import (
	"context"
	"errors"
	"time"
)

// Session cookie names shared by the edge gate and the backend validator.
// The backend (login flow) sets them; this module only reads them.
const (
	RefreshTokenCookie = "refreshToken"
	SessionIDCookie    = "sessionId"
)

// Epoch is the LastUpdatedAt sentinel for a session that was never validated
// (or whose last validation was rejected).
var Epoch = time.Unix(0, 0).UTC()

var (
	// ErrRejected marks an authoritative rejection from the session-validation
	// endpoint. Validators wrap or match it for any non-OK response status.
	ErrRejected = errors.New("auth: session rejected")

	// ErrUnauthorized is returned when an operation requires a confirmed session.
	ErrUnauthorized = errors.New("unauthorized: authentication required")

	// ErrInvalidState is returned by SetAuthData when the merged state would
	// break the identity invariants. Nothing is applied in that case.
	ErrInvalidState = errors.New("auth: invalid session state")

	// ErrIncompleteIdentity is returned by Identity.Validate when a field is empty.
	ErrIncompleteIdentity = errors.New("auth: incomplete identity")
)

// Identity is the payload of a successful session validation.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	UserID   string `json:"userId"`
}

// Validate checks that every identity field is populated. It is the single
// invariant check shared by the refresh success path and SetAuthData.
func (id Identity) Validate() error {
	switch {
	case id.Username == "":
		return errors.Join(ErrIncompleteIdentity, errors.New("username is empty"))
	case id.Email == "":
		return errors.Join(ErrIncompleteIdentity, errors.New("email is empty"))
	case id.UserID == "":
		return errors.Join(ErrIncompleteIdentity, errors.New("userId is empty"))
	}
	return nil
}

func (id Identity) empty() bool {
	return id.Username == "" && id.Email == "" && id.UserID == ""
}

// State is a consistent snapshot of the client's belief about the session.
// An empty identity string stands for "no value".
type State struct {
	Loading       bool      `json:"loading"`
	IsLoggedIn    bool      `json:"isLoggedIn"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	UserID        string    `json:"userId"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// Identity returns the identity fields of the snapshot.
func (s State) Identity() Identity {
	return Identity{Username: s.Username, Email: s.Email, UserID: s.UserID}
}

// Validate reports whether the snapshot satisfies the identity invariants:
// a logged-in state carries a complete identity, a logged-out state carries none.
func (s State) Validate() error {
	id := s.Identity()
	if s.IsLoggedIn {
		if err := id.Validate(); err != nil {
			return errors.Join(ErrInvalidState, err)
		}
		return nil
	}
	if !id.empty() {
		return errors.Join(ErrInvalidState, errors.New("identity present on a logged-out state"))
	}
	return nil
}

func initialState() State {
	return State{Loading: true, LastUpdatedAt: Epoch}
}

func (s State) withIdentity(id Identity, at time.Time) State {
	s.IsLoggedIn = true
	s.Username = id.Username
	s.Email = id.Email
	s.UserID = id.UserID
	s.LastUpdatedAt = at
	return s
}

func (s State) cleared() State {
	s.IsLoggedIn = false
	s.Username = ""
	s.Email = ""
	s.UserID = ""
	s.LastUpdatedAt = Epoch
	return s
}

// Patch is a partial state update for SetAuthData. Nil fields are left as is.
type Patch struct {
	Loading       *bool
	IsLoggedIn    *bool
	Username      *string
	Email         *string
	UserID        *string
	LastUpdatedAt *time.Time
}

func (p Patch) apply(s State) State {
	if p.Loading != nil {
		s.Loading = *p.Loading
	}
	if p.IsLoggedIn != nil {
		s.IsLoggedIn = *p.IsLoggedIn
	}
	if p.Username != nil {
		s.Username = *p.Username
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.UserID != nil {
		s.UserID = *p.UserID
	}
	if p.LastUpdatedAt != nil {
		s.LastUpdatedAt = *p.LastUpdatedAt
	}
	return s
}

// Outcome classifies how a refresh cycle resolved.
type Outcome int

const (
	// OutcomeUnknown means the cycle did not resolve: transport failure,
	// malformed payload, timeout or caller cancellation. Prior state is kept.
	OutcomeUnknown Outcome = iota
	// OutcomeConfirmed means the backend confirmed the session.
	OutcomeConfirmed
	// OutcomeRejected means the backend rejected the session.
	OutcomeRejected
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Validator performs the authoritative session check against the backend.
// It returns an error matching ErrRejected for a non-OK status; any other
// error is treated as a transport failure.
type Validator interface {
	ValidateSession(ctx context.Context) (Identity, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context) (Identity, error)

// ValidateSession implements Validator.
func (f ValidatorFunc) ValidateSession(ctx context.Context) (Identity, error) {
	return f(ctx)
}

// RefreshObserver receives one ObserveRefresh call per resolved refresh cycle
// and one ObserveRefreshShared call per caller whose result was shared with
// at least one other caller.
type RefreshObserver interface {
	ObserveRefresh(outcome string, duration time.Duration)
	ObserveRefreshShared()
}
