package authmw_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/novabot-studio/web/pkg/authmw"
)

type cookieSet struct {
	refresh bool
	session bool
}

var cookieCombos = []cookieSet{
	{false, false},
	{true, false},
	{false, true},
	{true, true},
}

func newRequest(path string, c cookieSet) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if c.refresh {
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "rt"})
	}
	if c.session {
		req.AddCookie(&http.Cookie{Name: "sessionId", Value: "sid"})
	}
	return req
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("page " + r.URL.Path))
	})
}

func TestDecide(t *testing.T) {
	rules := authmw.DefaultRules()

	tests := []struct {
		name     string
		path     string
		authed   bool
		action   authmw.Action
		location string
		rule     string
	}{
		{"login with cookies", "/login", true, authmw.Redirect, "/home", authmw.RuleAuthEntry},
		{"signup with cookies", "/signup", true, authmw.Redirect, "/home", authmw.RuleAuthEntry},
		{"login anonymous", "/login", false, authmw.Allow, "", authmw.RuleAllow},
		{"home anonymous", "/home", false, authmw.Redirect, "/login", authmw.RulePrivate},
		{"home subpath anonymous", "/home/ManageBots", false, authmw.Redirect, "/login", authmw.RulePrivate},
		{"home with cookies", "/home/ManageBots", true, authmw.Allow, "", authmw.RuleAllow},
		{"public", "/pricing", false, authmw.Allow, "", authmw.RuleAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := rules.Decide(tt.path, tt.authed)
			if d.Action != tt.action || d.Location != tt.location || d.Rule != tt.rule {
				t.Fatalf("Decide(%q, %v) = %+v", tt.path, tt.authed, d)
			}
		})
	}
}

func TestPossiblyAuthenticated(t *testing.T) {
	rules := authmw.DefaultRules()
	for _, c := range cookieCombos {
		got := rules.PossiblyAuthenticated(newRequest("/home", c))
		want := c.refresh && c.session
		if got != want {
			t.Errorf("cookies %+v: PossiblyAuthenticated = %v, want %v", c, got, want)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: ""})
	req.AddCookie(&http.Cookie{Name: "sessionId", Value: ""})
	if !rules.PossiblyAuthenticated(req) {
		t.Error("presence alone should count, even with empty values")
	}

	if rules.PossiblyAuthenticated(nil) {
		t.Error("nil request must not be possibly authenticated")
	}
}

func TestMatches(t *testing.T) {
	rules := authmw.DefaultRules()
	tests := map[string]bool{
		"/login":           true,
		"/signup":          true,
		"/home":            true,
		"/home/":           true,
		"/home/ManageBots": true,
		"/home/a/b":        true,
		"/homepage":        false,
		"/login/extra":     false,
		"/pricing":         false,
		"/":                false,
		"/api/bots":        false,
	}
	for path, want := range tests {
		if got := rules.Matches(path); got != want {
			t.Errorf("Matches(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestGate_PrivatePathsRequireBothCookies(t *testing.T) {
	h := authmw.Gate(authmw.DefaultRules())(okHandler())

	for _, path := range []string{"/home", "/home/ManageBots", "/home/analytics/42"} {
		for _, c := range cookieCombos {
			if c.refresh && c.session {
				continue
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, newRequest(path, c))

			if rec.Code != http.StatusTemporaryRedirect {
				t.Fatalf("%s %+v: status = %d, want 307", path, c, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/login" {
				t.Fatalf("%s %+v: Location = %q, want /login", path, c, loc)
			}
		}
	}
}

func TestGate_AuthEntryRedirectsHome(t *testing.T) {
	h := authmw.Gate(authmw.DefaultRules())(okHandler())

	for _, path := range []string{"/login", "/signup"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(path, cookieSet{true, true}))

		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("%s: status = %d, want 307", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/home" {
			t.Fatalf("%s: Location = %q, want /home", path, loc)
		}
	}
}

func TestGate_AllowsAndDoesNotTouchResponse(t *testing.T) {
	h := authmw.Gate(authmw.DefaultRules())(okHandler())

	tests := []struct {
		path string
		c    cookieSet
	}{
		{"/login", cookieSet{}},
		{"/signup", cookieSet{true, false}},
		{"/home/ManageBots", cookieSet{true, true}},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(tt.path, tt.c))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", tt.path, rec.Code)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatalf("%s: gate must not set cookies", tt.path)
		}
	}
}

func TestGate_SkipsPathsOutsideMatcher(t *testing.T) {
	obs := &recordingObserver{}
	h := authmw.Gate(authmw.DefaultRules(), authmw.WithObserver(obs))(okHandler())

	for _, c := range cookieCombos {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest("/pricing", c))
		if rec.Code != http.StatusOK {
			t.Fatalf("/pricing %+v: status = %d, want 200", c, rec.Code)
		}
	}
	if len(obs.rules) != 0 {
		t.Fatalf("gate evaluated %d requests outside the matcher set", len(obs.rules))
	}
}

func TestGate_ObserverAndStatus(t *testing.T) {
	obs := &recordingObserver{}
	h := authmw.Gate(authmw.DefaultRules(),
		authmw.WithObserver(obs),
		authmw.WithRedirectStatus(http.StatusFound),
		authmw.WithRedirectStatus(200), // ignored
	)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newRequest("/home", cookieSet{}))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, newRequest("/home", cookieSet{true, true}))

	want := []string{authmw.RulePrivate, authmw.RuleAllow}
	if len(obs.rules) != len(want) {
		t.Fatalf("observed %v, want %v", obs.rules, want)
	}
	for i := range want {
		if obs.rules[i] != want[i] {
			t.Fatalf("observed %v, want %v", obs.rules, want)
		}
	}
}

func TestMount_ScopesGateToMatcherRoutes(t *testing.T) {
	obs := &recordingObserver{}
	r := chi.NewRouter()
	authmw.Mount(r, authmw.DefaultRules(), okHandler(), authmw.WithObserver(obs))
	r.Handle("/*", okHandler())

	tests := []struct {
		path     string
		c        cookieSet
		code     int
		location string
	}{
		{"/home/ManageBots", cookieSet{}, http.StatusTemporaryRedirect, "/login"},
		{"/home", cookieSet{}, http.StatusTemporaryRedirect, "/login"},
		{"/login", cookieSet{true, true}, http.StatusTemporaryRedirect, "/home"},
		{"/signup", cookieSet{true, true}, http.StatusTemporaryRedirect, "/home"},
		{"/home/ManageBots", cookieSet{true, true}, http.StatusOK, ""},
		{"/pricing", cookieSet{}, http.StatusOK, ""},
		{"/pricing", cookieSet{true, true}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, newRequest(tt.path, tt.c))
		if rec.Code != tt.code {
			t.Fatalf("%s %+v: status = %d, want %d", tt.path, tt.c, rec.Code, tt.code)
		}
		if loc := rec.Header().Get("Location"); loc != tt.location {
			t.Fatalf("%s %+v: Location = %q, want %q", tt.path, tt.c, loc, tt.location)
		}
	}

	if len(obs.rules) != 5 {
		t.Fatalf("gate ran %d times, want 5 (public paths must not invoke it)", len(obs.rules))
	}
}

type recordingObserver struct {
	rules []string
}

func (o *recordingObserver) ObserveDecision(rule string) {
	o.rules = append(o.rules, rule)
}
