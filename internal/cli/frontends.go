package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Yukaii/vibers-goal/internal/mcp"
	"github.com/Yukaii/vibers-goal/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logQuiet)
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.Run(tui.Options{
				Tasks:     a.tasks,
				Subscribe: a.subscribe,
				Voice:     a.voiceConfig(),
				Log:       a.log,
			})
		},
	}
}

func newMCPCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the task list to MCP clients over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, logStderr)
			if err != nil {
				return err
			}
			defer a.Close()

			return mcp.NewServer(a.tasks, version, a.log).Run(ctx)
		},
	}
}
