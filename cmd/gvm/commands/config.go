package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gvmtool/gvm/cmd/gvm/handlers"
)

// Config returns the configuration command group.
func Config() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the gvm configuration",
	}

	var initOpts handlers.Options
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a user configuration interactively",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.ConfigInit(initOpts)
		},
	}
	initCmd.Flags().StringVarP(&initOpts.ConfigPath, "config", "c", "", "Write to this path instead of the default")

	var showOpts handlers.Options
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.ConfigShow(showOpts, os.Stdout)
		},
	}
	showCmd.Flags().StringVarP(&showOpts.ConfigPath, "config", "c", "", "Path to configuration file")

	cmd.AddCommand(initCmd)
	cmd.AddCommand(showCmd)
	return cmd
}
