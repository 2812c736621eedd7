package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clipnest/clipnest/internal/session"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newRunner(opts...).runLogout(cmd.Context())
		},
	}
}

func (r *runner) runLogout(ctx context.Context) error {
	return r.withSession(ctx, func(sessions *session.Service) error {
		wasSignedIn := sessions.IsAuthenticated()
		if err := sessions.Logout(ctx); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}

		if wasSignedIn {
			fmt.Fprintln(r.out, "✓ Logged out")
		} else {
			fmt.Fprintln(r.out, "Not logged in.")
		}
		return nil
	})
}
