package commands

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// NewOpenCmd creates the open command
func NewOpenCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open [path]",
		Short: "Open the web app in browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return newRunner(opts...).runOpen(path)
		},
	}

	return cmd
}

func (r *runner) runOpen(path string) error {
	cfg, err := r.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appURL := strings.TrimRight(cfg.Server.BaseURL, "/")
	if path != "" {
		appURL += "/" + strings.TrimLeft(path, "/")
	}

	fmt.Fprintf(r.out, "Opening %s...\n", appURL)

	if err := r.openBrowser(appURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, appURL)
	}

	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
