package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/DaanHessen/rabbithole/internal/identity"
)

// Identity is what the whoami command prints.
type Identity struct {
	UserID      string              `json:"user_id"`
	Returning   bool                `json:"is_returning_user"`
	FirstVisit  *time.Time          `json:"first_visit,omitempty"`
	Fingerprint string              `json:"fingerprint"`
	Device      identity.DeviceInfo `json:"device"`
}

// NewWhoAmICommand creates the whoami command.
func NewWhoAmICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the anonymous player identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, rootOpts.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			env := identity.CurrentEnvironment()
			id := Identity{
				UserID:      a.userID,
				Returning:   a.returning,
				Fingerprint: identity.Fingerprint(env),
				Device:      identity.Device(env),
			}
			if t, ok := a.ids.FirstVisit(ctx); ok {
				id.FirstVisit = &t
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Emit(id, func(w io.Writer) error {
				first := "unknown"
				if id.FirstVisit != nil {
					first = id.FirstVisit.Local().Format(time.RFC1123)
				}
				_, err := fmt.Fprintf(w, "User:        %s\nReturning:   %t\nFirst visit: %s\nFingerprint: %s\nDevice:      %s/%s\n",
					id.UserID, id.Returning, first, id.Fingerprint, id.Device.OS, id.Device.Browser)
				return err
			})
		},
	}
}
