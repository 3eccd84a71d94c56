package commands

import (
	"github.com/spf13/cobra"

	"github.com/gvmtool/gvm/cmd/gvm/handlers"
)

// Fix returns the command that repairs a single module.
func Fix() *cobra.Command {
	var opts handlers.Options
	var yes bool

	cmd := &cobra.Command{
		Use:   "fix <module>",
		Short: "Clear a module's state and re-run it",
		Long: `Clear a module's completion marker and re-run it from scratch.

This is the remediation suggested when a module fails mid-run.

Examples:
  gvm fix apt
  gvm fix desktop:xfce --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Fix(cmd.Context(), opts, args[0], yes)
		},
	}

	runFlags(cmd, &opts)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
