package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gvmtool/gvm/cmd/gvm/handlers"
)

// Info returns the command that shows the module catalog and its state.
func Info() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show modules, dependencies and completion state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Info(cmd.Context(), opts, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	return cmd
}
