// Package authmw provides the edge gate: route-level redirects decided from
// request cookies and path alone, before any page is served.
//
// The gate treats a request as possibly authenticated when both session
// cookies are present. It never validates a token, never calls the backend
// and never writes cookies. Authoritative validation happens later in the
// client (see package auth) and on every backend call.
//
// Rules are evaluated in order, first match wins:
//
//  1. auth-entry path (/login, /signup) and possibly authenticated → redirect /home
//  2. private path (/home and below) and not possibly authenticated → redirect /login
//  3. otherwise the request passes through unmodified
//
// The gate only runs for the matcher set (/login, /signup, /home, /home/...).
// [Mount] registers it on exactly those chi routes.
package authmw
