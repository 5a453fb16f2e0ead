package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/DaanHessen/rabbithole/internal/store"
	"github.com/DaanHessen/rabbithole/internal/text"
)

// ProgressReport is what the progress command prints.
type ProgressReport struct {
	engine.Progress
	UserID       string                   `json:"user_id"`
	HandOffPromo string                   `json:"handoff_promo_code,omitempty"`
	Badges       []engine.AchievementInfo `json:"badges"`
}

// NewProgressCommand creates the progress command.
func NewProgressCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show saved quest progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgress(cmd.Context(), rootOpts, cmd.OutOrStdout())
		},
	}
}

func runProgress(ctx context.Context, opts *RootOptions, w io.Writer) error {
	a, err := openApp(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.quests.Load(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "load progress", err)
	}
	report := ProgressReport{UserID: a.userID, Progress: st.Progress(), Badges: []engine.AchievementInfo{}}
	for _, id := range report.Achievements {
		report.Badges = append(report.Badges, engine.Describe(id))
	}
	promo, err := a.quests.Promo(ctx)
	switch {
	case err == nil:
		report.HandOffPromo = promo
	case !errors.Is(err, store.ErrNotFound):
		return WrapExitError(ExitFailure, "load promo code", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: w}
	return f.Emit(report, func(w io.Writer) error { return writeProgress(w, report) })
}

func writeProgress(w io.Writer, r ProgressReport) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	printf("User:        %s\n", r.UserID)
	printf("Scene:       %s\n", r.CurrentScene)
	printf("Choices:     %d\n", r.ChoicesMade)
	printf("Rabbits:     %d\n", r.WhiteRabbitsFound)
	printf("Easter eggs: %d\n", len(r.EasterEggsFound))
	printf("Perfect run: %t\n", r.PerfectRun)
	if r.QuestCompleted {
		printf("Completed:   yes")
		if r.CompletionTime != nil {
			printf(" in %s", text.FormatDuration(*r.CompletionTime))
		}
		if r.SpeedRun {
			printf(" (speed run)")
		}
		printf("\n")
	} else {
		printf("Completed:   no\n")
	}
	if r.PromoCode != nil {
		printf("Promo code:  %s\n", *r.PromoCode)
	} else if r.HandOffPromo != "" {
		printf("Promo code:  %s\n", r.HandOffPromo)
	}
	printf("Achievements:\n")
	if len(r.Badges) == 0 {
		printf("  (none)\n")
	}
	for _, b := range r.Badges {
		printf("  %s %s\n", b.Icon, b.Name)
	}
	return err
}
