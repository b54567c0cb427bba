package main

import (
	stderrors "errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/novabot-studio/web/internal/errors"
	"github.com/novabot-studio/web/pkg/auth"
	"github.com/novabot-studio/web/pkg/dashboard"
)

func botsCmd(gf *globalFlags) *cobra.Command {
	var cf cookieFlags

	cmd := &cobra.Command{
		Use:   "bots",
		Short: "Show the bot summary for the current session",
		Long: `Validate the session, then fetch the dashboard bot summary.

The summary endpoint is only called once the session is confirmed.

Examples:
  novaweb bots --refresh-token=... --session-id=...`,
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

			_, outcome := s.store.Refresh(cmd.Context())
			if err := rm.write(); err != nil {
				return err
			}
			if outcome == auth.OutcomeUnknown {
				return outcomeError(outcome)
			}

			loader := dashboard.Loader{
				Store:   s.store,
				Fetcher: dashboard.NewClient(s.provider.BaseURL(), s.provider.Client(), cfg.Backend.BotSummaryPath),
			}
			summary, err := loader.Load(cmd.Context())
			switch {
			case stderrors.Is(err, dashboard.ErrNotAuthenticated):
				return errors.New("N201").Wrap(err)
			case stderrors.Is(err, dashboard.ErrUnexpectedStatus):
				return errors.New("N202").Wrap(err)
			case err != nil:
				return errors.New("N200").Wrap(err)
			}

			out := cmd.OutOrStdout()
			success(out, "%d bots, %d active", summary.NoOfBots, summary.NoOfActiveBots)
			if len(summary.RecentBots) == 0 {
				info(out, "No recent bots")
				return nil
			}

			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "  ID\tNAME\tSTATUS\tCREATED")
			for _, b := range summary.RecentBots {
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", b.ID, b.Name, b.Status, b.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&cf.refreshToken, "refresh-token", "", "refreshToken cookie value")
	cmd.Flags().StringVar(&cf.sessionID, "session-id", "", "sessionId cookie value")

	return cmd
}
