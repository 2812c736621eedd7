package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/clipnest/clipnest/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts ...Option) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := newRunner(opts...)
			return r.runLogin(cmd.Context(), session.Credentials{Email: email, Name: name, Password: password})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set CLIPNEST_EMAIL)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the email address)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CLIPNEST_PASSWORD, will prompt if not provided)")

	return cmd
}

func (r *runner) runLogin(ctx context.Context, creds session.Credentials) error {
	// Check for environment variables (useful for scripts)
	if creds.Email == "" {
		creds.Email = os.Getenv("CLIPNEST_EMAIL")
	}
	if creds.Password == "" {
		creds.Password = os.Getenv("CLIPNEST_PASSWORD")
	}

	if creds.Email == "" {
		return fmt.Errorf("email is required (use --email flag or CLIPNEST_EMAIL env var)")
	}

	// Prompt for password if not provided via flag or env var
	if creds.Password == "" && r.interactive() {
		fmt.Fprint(r.out, "Password: ")
		bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		creds.Password = string(bytePassword)
		fmt.Fprintln(r.out) // New line after password input
	}

	return r.withSession(ctx, func(sessions *session.Service) error {
		fmt.Fprintf(r.out, "Signing in as %s...\n", creds.Email)

		user, err := sessions.Login(ctx, creds)
		if err != nil {
			var loginErr *session.LoginError
			if errors.As(err, &loginErr) {
				return fmt.Errorf("login failed: %s", loginErr.Reason)
			}
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Fprintln(r.out, "✓ Login successful!")
		fmt.Fprintf(r.out, "  User: %s (%s)\n", user.Name, user.Email)
		return nil
	})
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
