// Package cli is the vibers command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "vibers",
		Short: "vibers-goal - a voice-first todo list",
		Long: `vibers-goal keeps a prioritized task list with subtasks, reminders,
AI breakdowns and voice capture.

Run "vibers serve" for the HTTP API used by the web client, "vibers tui" for
the terminal dashboard or "vibers mcp" to expose the list to MCP clients.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (env vars override it)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newTUICmd())
	root.AddCommand(newMCPCmd(version))
	root.AddCommand(newAddCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newDoneCmd())
	root.AddCommand(newBreakdownCmd())
	root.AddCommand(newSettingsCmd())
	root.AddCommand(newTranscribeCmd())
	root.AddCommand(newHashPasswordCmd())
	return root
}

// Execute runs the root command
func Execute(version string) error {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
