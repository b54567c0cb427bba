package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Config (N100-N199)

	"N100": {
		Category:   CategoryConfig,
		Message:    "Invalid config file",
		Suggestion: "Check novaweb.json for JSON syntax errors",
	},
	"N101": {
		Category:   CategoryConfig,
		Message:    "Invalid backend URL",
		Suggestion: "Set backend.url in novaweb.json or NOVAWEB_BACKEND_URL to an http or https URL",
	},
	"N102": {
		Category:   CategoryConfig,
		Message:    "Invalid upstream URL",
		Suggestion: "Set server.upstream to an http or https URL, or leave it empty to serve placeholder pages",
	},
	"N103": {
		Category:   CategoryConfig,
		Message:    "Invalid listen address",
		Suggestion: "Use host:port, for example :3000",
	},
	"N104": {
		Category:   CategoryConfig,
		Message:    "Invalid refresh timeout",
		Suggestion: "auth.refreshTimeout must be a positive duration such as 10s",
	},
	"N105": {
		Category:   CategoryConfig,
		Message:    "Invalid environment",
		Suggestion: "Check NOVAWEB_* variables for malformed values",
	},
	"N106": {
		Category:   CategoryConfig,
		Message:    "Invalid log settings",
		Suggestion: "log.level is one of debug, info, warn, error and log.format is text or json",
	},
	"N107": {
		Category:   CategoryConfig,
		Message:    "Invalid metrics path",
		Suggestion: "metrics.path must start with / and must not collide with gated routes",
	},

	// Backend (N200-N299)

	"N200": {
		Category:   CategoryBackend,
		Message:    "Backend unreachable",
		Suggestion: "Check that the backend is running and backend.url is correct",
	},
	"N201": {
		Category:   CategoryBackend,
		Message:    "Session rejected",
		Suggestion: "Log in again to obtain fresh refreshToken and sessionId cookies",
	},
	"N202": {
		Category:   CategoryBackend,
		Message:    "Unexpected backend response",
		Suggestion: "The backend returned a response this client does not understand",
	},

	// CLI (N300-N399)

	"N300": {
		Category:   CategoryCLI,
		Message:    "Missing session cookies",
		Suggestion: "Pass --refresh-token and --session-id, or set NOVAWEB_REFRESH_TOKEN and NOVAWEB_SESSION_ID",
	},
	"N301": {
		Category:   CategoryCLI,
		Message:    "Server failed",
		Suggestion: "Check that the listen address is free",
	},
	"N302": {
		Category:   CategoryCLI,
		Message:    "Cannot write metrics file",
		Suggestion: "Check that the --metrics-file directory exists and is writable",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
