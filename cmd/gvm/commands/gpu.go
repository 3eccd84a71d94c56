package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gvmtool/gvm/cmd/gvm/handlers"
)

// GPU returns the command that diagnoses VirGL GPU acceleration.
func GPU() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "gpu <status|help>",
		Short: "Check VirGL GPU acceleration",
		Long: `Check whether VirGL GPU acceleration is active in the VM.

VirGL is toggled from the Android side before the VM boots;
'gvm gpu help' walks through enabling it.

Examples:
  gvm gpu status
  gvm gpu help`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "status":
				return handlers.GPUStatus(cmd.Context(), opts, os.Stdout)
			case "help":
				return handlers.GPUHelp(os.Stdout)
			}
			return fmt.Errorf("unknown gpu action %q, expected status or help", args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	return cmd
}
