package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/novabot-studio/web/pkg/auth"
)

func whoamiCmd(gf *globalFlags) *cobra.Command {
	var (
		cf     cookieFlags
		asJSON bool
		watch  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Validate the current session",
		Long: `Validate the session cookies against the backend and print who
they belong to.

Cookies come from --refresh-token/--session-id or from
NOVAWEB_REFRESH_TOKEN/NOVAWEB_SESSION_ID.

With --watch the session is revalidated on that interval and every login
state change is printed until interrupted.

Examples:
  novaweb whoami --refresh-token=... --session-id=...
  novaweb whoami --json
  novaweb whoami --watch=30s --metrics-file=/var/lib/node_exporter/novaweb.prom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(gf)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			rm := newRefreshMetrics(gf.metricsFile)
			s, err := newSession(cfg, cf, logger, rm.storeOptions()...)
			if err != nil {
				return err
			}

			if watch > 0 {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				watchSession(ctx, s.store, watch, cmd.OutOrStdout())
				return rm.write()
			}

			state, outcome := s.store.Refresh(cmd.Context())
			if err := rm.write(); err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(state); err != nil {
					return err
				}
				return outcomeError(outcome)
			}
			if err := outcomeError(outcome); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			success(out, "Logged in as %s", state.Username)
			info(out, "Email:   %s", state.Email)
			info(out, "User ID: %s", state.UserID)
			info(out, "Checked: %s", state.LastUpdatedAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}

	cmd.Flags().StringVar(&cf.refreshToken, "refresh-token", "", "refreshToken cookie value")
	cmd.Flags().StringVar(&cf.sessionID, "session-id", "", "sessionId cookie value")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session state as JSON")
	cmd.Flags().DurationVar(&watch, "watch", 0, "Revalidate on this interval and print login state changes")

	return cmd
}

// watchSession refreshes the store every interval and prints each settled
// login state that differs from the last one printed. It returns once ctx
// ends and the refresh loop has stopped.
func watchSession(ctx context.Context, store *auth.Store, every time.Duration, out io.Writer) {
	updates, unsubscribe := store.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			store.Refresh(ctx)
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	defer wg.Wait()

	var (
		last    auth.State
		printed bool
	)
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-updates:
			if st.Loading {
				continue
			}
			if printed && st.IsLoggedIn == last.IsLoggedIn && st.UserID == last.UserID {
				continue
			}
			if st.IsLoggedIn {
				success(out, "Logged in as %s (%s)", st.Username, st.UserID)
			} else {
				warn(out, "Logged out")
			}
			last, printed = st, true
		}
	}
}
