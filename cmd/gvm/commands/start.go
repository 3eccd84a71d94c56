package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gvmtool/gvm/cmd/gvm/handlers"
)

// Start returns the command that launches an installed desktop session.
func Start() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "start [desktop]",
		Short: "Launch an installed desktop environment",
		Long: `Launch an installed desktop environment through its gvm launcher.

Without arguments the single installed desktop is started; with several
installed, name the one you want.

Examples:
  gvm start
  gvm start plasma-mobile
  gvm start --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if list {
				return handlers.StartList(os.Stdout)
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.Start(name)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List installed desktop launchers")
	return cmd
}
