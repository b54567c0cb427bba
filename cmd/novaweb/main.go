package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/novabot-studio/web/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	dir         string
	backend     string
	logLevel    string
	logFormat   string
	metricsFile string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var gf globalFlags

	rootCmd := &cobra.Command{
		Use:   "novaweb",
		Short: "Nova Bot Studio web gateway and session client",
		Long: `novaweb runs the Nova Bot Studio web front door and talks to the
Nova backend on behalf of a logged-in user.

  • serve   the edge-gated web gateway
  • whoami  validate the current session
  • bots    show the bot summary for the current session`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&gf.dir, "dir", ".", "Project directory containing novaweb.json and .env")
	pf.StringVar(&gf.backend, "backend", "", "Backend base URL (default from config)")
	pf.StringVar(&gf.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&gf.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&gf.metricsFile, "metrics-file", "", "Write session refresh metrics to this file in Prometheus text format")

	rootCmd.AddCommand(
		serveCmd(&gf),
		whoamiCmd(&gf),
		botsCmd(&gf),
		versionCmd(),
	)

	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
