package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clipnest/clipnest/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the clipnest command tree
func NewRootCmd(opts ...commands.Option) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "clipnest",
		Short: "Clipnest - collect and share visual ideas",
		Long: `Clipnest CLI - sign in, browse pins and open the web app.

The CLI and the web app share one remembered session: signing in here is
picked up the next time the server starts, and the other way round.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	opts = append([]commands.Option{commands.WithVerbose(&verbose)}, opts...)

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clipnest version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd(opts...))
	rootCmd.AddCommand(commands.NewLogoutCmd(opts...))
	rootCmd.AddCommand(commands.NewWhoamiCmd(opts...))
	rootCmd.AddCommand(commands.NewExploreCmd(opts...))
	rootCmd.AddCommand(commands.NewOpenCmd(opts...))

	return rootCmd
}

// Execute runs the root command. Ctrl-C cancels a sign-in in progress.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
