package authmw

import (
	"net/http"
	"strings"

	"github.com/novabot-studio/web/pkg/auth"
)

// Action is what the gate does with a request.
type Action int

const (
	// Allow passes the request through unmodified.
	Allow Action = iota
	// Redirect sends the visitor to Decision.Location.
	Redirect
)

// Rule labels reported in decisions, logs and metrics.
const (
	RuleAuthEntry = "auth_entry"
	RulePrivate   = "private"
	RuleAllow     = "allow"
)

// Decision is the outcome of evaluating Rules against one request.
type Decision struct {
	Action   Action
	Location string
	Rule     string
}

// Rules configures the gate. The zero value is not useful; start from
// DefaultRules.
type Rules struct {
	// AuthEntryPrefixes are login/signup style paths that an authenticated
	// visitor is bounced away from.
	AuthEntryPrefixes []string

	// PrivatePrefixes are paths that require the session cookies.
	PrivatePrefixes []string

	// HomePath is where possibly-authenticated visitors land.
	HomePath string

	// LoginPath is where anonymous visitors land.
	LoginPath string

	// RefreshTokenCookie and SessionIDCookie name the cookies whose presence
	// makes a request possibly authenticated.
	RefreshTokenCookie string
	SessionIDCookie    string

	// Matcher lists the paths the gate runs for. An entry ending in "/*"
	// matches its base path and everything below it; other entries match
	// exactly.
	Matcher []string
}

// DefaultRules returns the routing contract of the Nova front end.
func DefaultRules() Rules {
	return Rules{
		AuthEntryPrefixes:  []string{"/login", "/signup"},
		PrivatePrefixes:    []string{"/home"},
		HomePath:           "/home",
		LoginPath:          "/login",
		RefreshTokenCookie: auth.RefreshTokenCookie,
		SessionIDCookie:    auth.SessionIDCookie,
		Matcher:            []string{"/login", "/signup", "/home/*"},
	}
}

// Decide evaluates the rules for path. It is pure: no I/O, no shared state.
func (r Rules) Decide(path string, possiblyAuthenticated bool) Decision {
	if possiblyAuthenticated && hasAnyPrefix(path, r.AuthEntryPrefixes) {
		return Decision{Action: Redirect, Location: r.HomePath, Rule: RuleAuthEntry}
	}
	if !possiblyAuthenticated && hasAnyPrefix(path, r.PrivatePrefixes) {
		return Decision{Action: Redirect, Location: r.LoginPath, Rule: RulePrivate}
	}
	return Decision{Action: Allow, Rule: RuleAllow}
}

// PossiblyAuthenticated reports whether both session cookies are present.
// Cookie values are not inspected.
func (r Rules) PossiblyAuthenticated(req *http.Request) bool {
	if req == nil {
		return false
	}
	if _, err := req.Cookie(r.RefreshTokenCookie); err != nil {
		return false
	}
	if _, err := req.Cookie(r.SessionIDCookie); err != nil {
		return false
	}
	return true
}

// Matches reports whether the gate runs for path.
func (r Rules) Matches(path string) bool {
	for _, m := range r.Matcher {
		if base, ok := strings.CutSuffix(m, "/*"); ok {
			if path == base || strings.HasPrefix(path, base+"/") {
				return true
			}
			continue
		}
		if path == m {
			return true
		}
	}
	return false
}

// Patterns returns the chi route patterns covering the matcher set.
func (r Rules) Patterns() []string {
	patterns := make([]string, 0, len(r.Matcher)+1)
	for _, m := range r.Matcher {
		if base, ok := strings.CutSuffix(m, "/*"); ok {
			patterns = append(patterns, base, m)
			continue
		}
		patterns = append(patterns, m)
	}
	return patterns
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
