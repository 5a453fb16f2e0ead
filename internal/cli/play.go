package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/DaanHessen/rabbithole/internal/metrics"
	"github.com/DaanHessen/rabbithole/internal/remote"
	"github.com/DaanHessen/rabbithole/internal/text"
	"github.com/DaanHessen/rabbithole/internal/ui"
)

// shutdownTimeout bounds the analytics flush and metrics push on exit.
const shutdownTimeout = 5 * time.Second

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Start or resume the quest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), rootOpts, offline)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "never contact the backend")
	return cmd
}

func runPlay(ctx context.Context, opts *RootOptions, offline bool) error {
	a, err := openApp(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()

	recorder := metrics.NewRecorder(a.logger)
	var (
		client  *remote.Client
		tracker *remote.Tracker
	)
	if !offline {
		if client, err = a.client(); err != nil {
			return err
		}
		tracker = remote.NewTracker(client, a.visitor(ctx), nil, a.logger)
	}

	observers := []engine.Observer{recorder}
	var uiTracker ui.Tracker
	if tracker != nil {
		observers = append(observers, tracker)
		uiTracker = tracker
	}
	e, err := a.newEngine(ctx, client, observers...)
	if err != nil {
		return err
	}

	a.logger.Info("quest session started",
		zap.String("user_id", a.userID),
		zap.Bool("returning", a.returning),
		zap.Bool("offline", offline))

	runErr := ui.Run(ctx, e, text.NewTemplateNarrator(), uiTracker, opts.Config)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if tracker != nil {
		if err := tracker.Flush(shutdownCtx); err != nil {
			a.logger.Warn("analytics not flushed", zap.Error(err))
		}
	}
	if err := recorder.Push(shutdownCtx, opts.Config.PushgatewayURL, opts.Config.MetricsJob); err != nil {
		a.logger.Warn("metrics not pushed", zap.Error(err))
	}
	return runErr
}
