package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase saved quest progress",
		Long: `Erase saved quest progress for this namespace.

The anonymous user id and the promo code hand-off are kept. This cannot be undone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "refusing to erase progress without --yes")
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts.Config)
			if err != nil {
				return err
			}
			defer a.Close()
			e, err := a.newEngine(ctx, nil)
			if err != nil {
				return err
			}
			if err := e.ResetProgress(ctx); err != nil {
				return WrapExitError(ExitFailure, "reset", err)
			}
			a.logger.Info("progress reset", zap.String("user_id", a.userID))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Progress erased. Wake up...")
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm erasing progress")
	return cmd
}
