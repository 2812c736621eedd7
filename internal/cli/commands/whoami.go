package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clipnest/clipnest/internal/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts ...Option) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newRunner(opts...).runWhoami(cmd.Context(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the user as JSON")

	return cmd
}

func (r *runner) runWhoami(ctx context.Context, asJSON bool) error {
	return r.withSession(ctx, func(sessions *session.Service) error {
		user, ok := sessions.CurrentUser()

		if asJSON {
			enc := json.NewEncoder(r.out)
			enc.SetIndent("", "  ")
			if !ok {
				return enc.Encode(nil)
			}
			return enc.Encode(user)
		}

		if !ok {
			fmt.Fprintln(r.out, "Not logged in.")
			fmt.Fprintln(r.out, "\nSign in with: clipnest login --email <email>")
			return nil
		}

		fmt.Fprintf(r.out, "%s (%s)\n", user.Name, user.Email)
		fmt.Fprintf(r.out, "  ID:     %d\n", user.ID)
		fmt.Fprintf(r.out, "  Avatar: %s\n", user.Avatar)
		return nil
	})
}
