// Package routepath canonicalizes request paths before routing.
//
// The edge gate matches on path prefixes, so "/home//bots",
// "/signup/../home" or "/hom%65" must reach it in their canonical form.
// Canonical redirects every non-canonical request path to its canonical
// form.
package routepath

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Path canonicalization errors.
var (
	ErrBackslashInPath      = errors.New("routepath: path contains backslash")
	ErrNullByteInPath       = errors.New("routepath: path contains null byte")
	ErrInvalidPercentEscape = errors.New("routepath: invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("routepath: path escapes root via ..")
)

// Clean returns the canonical form of an escaped URL path and whether it
// differs from the input:
//   - a leading "/" is ensured
//   - repeated slashes collapse
//   - "." segments are dropped and ".." segments resolved
//   - a trailing slash is removed, except for "/"
//
// Backslashes, NUL bytes, malformed percent escapes and ".." above the root
// are rejected.
func Clean(escaped string) (string, bool, error) {
	if escaped == "" {
		return "/", true, nil
	}
	if strings.Contains(escaped, `\`) {
		return "", false, ErrBackslashInPath
	}
	if strings.Contains(escaped, "\x00") || strings.Contains(strings.ToUpper(escaped), "%00") {
		return "", false, ErrNullByteInPath
	}
	if strings.Contains(escaped, "%") && !validEscapes(escaped) {
		return "", false, ErrInvalidPercentEscape
	}

	segments := make([]string, 0, strings.Count(escaped, "/"))
	for _, seg := range strings.Split(escaped, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return "", false, ErrPathEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	clean := "/" + strings.Join(segments, "/")
	return clean, clean != escaped, nil
}

func validEscapes(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			return false
		}
		i += 2
	}
	return true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Path returns the canonical escaped path of u.
//
// Percent escapes are normalized before cleaning: the path is decoded and
// re-escaped the way net/url escapes a plain path. Escaped unreserved
// characters and escaped slashes therefore decode, so "/hom%65" reads as
// "/home" and "/home%2Fbots" as "/home/bots". Hex digits come out upper
// case.
func Path(u *url.URL) (string, error) {
	if _, _, err := Clean(u.EscapedPath()); err != nil {
		return "", err
	}
	clean, _, err := Clean((&url.URL{Path: u.Path}).EscapedPath())
	if err != nil {
		return "", err
	}
	return clean, nil
}

// Canonical redirects requests with a non-canonical path to the canonical
// one with 308 Permanent Redirect, which preserves the method. The query
// string is kept. Paths that cannot be canonicalized get 400.
//
// A request that passes through has an escaped path equal to the minimal
// escaping of r.URL.Path, so routers that match on RawPath and handlers
// that read Path see the same route.
func Canonical(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean, err := Path(r.URL)
		if err != nil {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}
		if clean != r.URL.EscapedPath() {
			target := clean
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}
