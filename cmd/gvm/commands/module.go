package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gvmtool/gvm/cmd/gvm/handlers"
)

// moduleCommand returns a command that runs one core module (plus its
// dependencies) directly, e.g. `gvm ssh`.
func moduleCommand(id string) *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   id,
		Short: fmt.Sprintf("Run the %s module", id),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.RunModules(cmd.Context(), opts, []string{id})
		},
	}

	runFlags(cmd, &opts)
	return cmd
}
