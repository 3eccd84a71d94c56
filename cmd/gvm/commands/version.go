package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information from main.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Version returns the version command. Useful in bug reports from inside
// the VM, where the binary usually arrives via scp rather than a package.
func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gvm version, commit and build date",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("gvm %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
