// Package config loads novaweb configuration.
//
// Settings come from three layers, later layers winning:
//
//  1. built-in defaults
//  2. novaweb.json at the project root (optional)
//  3. NOVAWEB_* environment variables, with an optional .env file filling
//     in variables the process environment does not set
//
// Command-line flags are applied by the CLI on top of the result.
//
// # Configuration File Structure
//
//	{
//	  "backend": {
//	    "url": "https://api.novabot.studio",
//	    "validatePath": "/api/auth/validate-session",
//	    "botSummaryPath": "/api/bots/details"
//	  },
//	  "server": {
//	    "addr": ":3000",
//	    "upstream": "http://localhost:5173",
//	    "shutdownTimeout": "10s"
//	  },
//	  "auth": {
//	    "refreshTimeout": "10s",
//	    "redirectStatus": 307
//	  },
//	  "log": {"level": "info", "format": "text"},
//	  "metrics": {"enabled": true, "path": "/metrics"}
//	}
//
// Session cookie values are never read from the file; they come from
// NOVAWEB_REFRESH_TOKEN and NOVAWEB_SESSION_ID or from flags.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    errors.Fprint(os.Stderr, err)
//	    os.Exit(1)
//	}
//	fmt.Println("Listening on", cfg.Server.Addr)
package config
