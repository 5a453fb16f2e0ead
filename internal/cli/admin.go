package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DaanHessen/rabbithole/internal/logger"
	"github.com/DaanHessen/rabbithole/internal/remote"
)

// NewAdminCommand creates the admin command group.
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Read quest analytics from the backend",
		Long: `Read quest analytics from the backend admin API.

Credentials come from QUEST_ADMIN_USER and QUEST_ADMIN_PASSWORD.`,
	}
	cmd.AddCommand(newAdminOverviewCommand(rootOpts))
	cmd.AddCommand(newAdminUsersCommand(rootOpts))
	cmd.AddCommand(newAdminExportCommand(rootOpts))
	return cmd
}

func adminClient(opts *RootOptions) (*remote.AdminClient, error) {
	cfg := opts.Config
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding, OutputPath: cfg.LogOutput})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "init logger", err)
	}
	c, err := remote.NewClient(cfg.APIURL, cfg.APITimeout, log)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid api url", err)
	}
	return remote.NewAdminClient(c, cfg.AdminUser, cfg.AdminPassword), nil
}

func newAdminOverviewCommand(rootOpts *RootOptions) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show the analytics summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := adminClient(rootOpts)
			if err != nil {
				return err
			}
			o, err := ac.Overview(cmd.Context(), days)
			if err != nil {
				return WrapExitError(ExitFailure, "fetch overview", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Emit(o, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintf(tw, "Period\tlast %d days\n", days)
				fmt.Fprintf(tw, "Total users\t%d\n", o.TotalUsers)
				fmt.Fprintf(tw, "New users\t%d\n", o.NewUsers)
				fmt.Fprintf(tw, "Active users\t%d\n", o.ActiveUsers)
				fmt.Fprintf(tw, "Completed quests\t%d\n", o.CompletedQuests)
				fmt.Fprintf(tw, "Completion rate\t%.1f%%\n", o.CompletionRate)
				fmt.Fprintf(tw, "Avg completion time\t%.0fs\n", o.AvgCompletionTime)
				fmt.Fprintf(tw, "Promo codes\t%d\n", o.PromoCodesGenerated)
				fmt.Fprintf(tw, "Promo usage\t%.1f%%\n", o.PromoUsageRate)
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "reporting window in days")
	return cmd
}

func newAdminUsersCommand(rootOpts *RootOptions) *cobra.Command {
	var q remote.UsersQuery
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := adminClient(rootOpts)
			if err != nil {
				return err
			}
			users, err := ac.Users(cmd.Context(), q)
			if err != nil {
				return WrapExitError(ExitFailure, "fetch users", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Emit(users, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUSER\tNAME\tCOMPLETED\tPROMO\tLAST ACTIVITY")
				for _, u := range users {
					promo := "-"
					if u.GeneratedPromoCode != nil {
						promo = *u.GeneratedPromoCode
					}
					fmt.Fprintf(tw, "%s\t%s\t%s %s\t%t\t%s\t%s\n",
						u.TelegramID, u.Username, u.FirstName, u.LastName, u.QuestCompleted, promo,
						u.LastActivity.Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&q.Skip, "skip", 0, "rows to skip")
	cmd.Flags().IntVar(&q.Limit, "limit", 100, "maximum rows")
	cmd.Flags().StringVar(&q.Search, "search", "", "filter by name or id")
	cmd.Flags().BoolVar(&q.CompletedOnly, "completed", false, "only players who finished the quest")
	return cmd
}

func newAdminExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a user export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := adminClient(rootOpts)
			if err != nil {
				return err
			}
			exp, err := ac.ExportUsers(cmd.Context(), format)
			if err != nil {
				return WrapExitError(ExitFailure, "export users", err)
			}
			body := []byte(exp.Data)
			if format == "csv" {
				csv, err := exp.CSV()
				if err != nil {
					return WrapExitError(ExitFailure, "export users", err)
				}
				body = []byte(csv)
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return WrapExitError(ExitFailure, "write export", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (server name %s)\n", output, exp.Filename)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "export-format", "csv", "export format (csv|json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
