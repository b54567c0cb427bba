// Package auth holds the client-side session state of the Nova Bot Studio
// front end.
//
// A [Store] is the single source of truth for "is this visitor logged in"
// inside a running client. It is created once per client process and passed
// explicitly to the code that reads it. The dashboard loader reads
// [Store.Snapshot]; long-lived readers such as `novaweb whoami --watch`
// follow [Store.Subscribe].
//
// # Two tiers
//
// Access control happens in two places:
//
//   - The edge gate (package authmw) runs before a page is served and only
//     checks that the session cookies are present. It cannot tell a valid
//     session from an expired one.
//   - [Store.Refresh] asks the backend to validate the session and is the
//     authoritative answer inside the client.
//
// Do not treat the edge decision as security-authoritative.
//
// # Refresh outcomes
//
//	state, outcome := store.Refresh(ctx)
//	switch outcome {
//	case auth.OutcomeConfirmed: // identity committed, IsLoggedIn=true
//	case auth.OutcomeRejected:  // identity cleared, IsLoggedIn=false
//	case auth.OutcomeUnknown:   // network trouble, previous state kept
//	}
//
// Loading is true while a refresh is in flight and before the first one
// completes. It is cleared exactly once per refresh cycle, whatever the
// outcome. Concurrent refreshes share one backend call.
//
// # Seeding state
//
// Flows that already hold authoritative identity data (a successful login
// response) call [Store.Login] or [Store.SetAuthData]. Both enforce the same
// invariants as the refresh success path: a logged-in state carries a
// complete identity and a logged-out state carries none.
package auth
