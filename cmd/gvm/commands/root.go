// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/gvmtool/gvm/cmd/gvm/handlers"
)

// Root returns the root command for the gvm CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gvm",
		Short:         "Provision a Debian VM from a catalog of modules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Setup domain
	cmd.AddCommand(Setup())
	for _, id := range []string{"apt", "ssh", "shell", "gui", "user"} {
		cmd.AddCommand(moduleCommand(id))
	}
	cmd.AddCommand(Desktop())

	// Maintenance domain
	cmd.AddCommand(Fix())
	cmd.AddCommand(Info())
	cmd.AddCommand(GPU())
	cmd.AddCommand(Config())
	cmd.AddCommand(Start())

	// Utility commands
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// runFlags binds the flags shared by every provisioning command.
func runFlags(cmd *cobra.Command, opts *handlers.Options) {
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Rehearse the run without changing the system")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Ignore completion markers and re-run everything")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose logging")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Plain line output instead of the interactive UI")
}
