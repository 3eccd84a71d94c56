package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gvmtool/gvm/cmd/gvm/handlers"
)

// Desktop returns the command that installs a desktop environment.
//
//	gvm desktop list           list available desktops
//	gvm desktop <name>         install a specific desktop
func Desktop() *cobra.Command {
	var opts handlers.Options

	cmd := &cobra.Command{
		Use:   "desktop <name>|list",
		Short: "Install a desktop environment",
		Long: `Install a desktop environment.

Desktop definitions ship with gvm; drop YAML files into
~/.config/gvm/packages to add or override them.

Examples:
  gvm desktop list
  gvm desktop plasma-mobile
  gvm desktop xfce --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "list" {
				return handlers.DesktopList(opts, os.Stdout)
			}
			return handlers.RunModules(cmd.Context(), opts, []string{"desktop:" + args[0]})
		},
	}

	runFlags(cmd, &opts)
	return cmd
}
