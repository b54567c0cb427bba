// Package errors provides coded, actionable errors for the novaweb CLI.
//
// Library packages under pkg/ return sentinel errors wrapped with %w. This
// package sits at the edge: the CLI and configuration loader translate
// failures into a NovaError carrying a stable code, a plain explanation and
// a hint on how to fix it.
//
// # Error Categories
//
//   - config: the project file or environment is invalid
//   - backend: the Nova backend could not be reached or refused a call
//   - cli: command usage errors
//
// # Error Codes
//
// Codes are grouped by range: N1xx config, N2xx backend, N3xx cli.
//
// # Usage
//
//	err := errors.New("N101").
//	    WithDetail(`backend.url "ftp://x" is not http or https`).
//	    Wrap(cause)
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR N101: Invalid backend URL
//	//
//	//   backend.url "ftp://x" is not http or https
//	//
//	//   Hint: Set backend.url in novaweb.json or NOVAWEB_BACKEND_URL
package errors
