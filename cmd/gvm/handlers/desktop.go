package handlers

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gvmtool/gvm/internal/catalog"
	"github.com/gvmtool/gvm/internal/config"
)

// DesktopList writes the available desktop definitions.
func DesktopList(opts Options, out io.Writer) error {
	env, err := buildEnvironment(opts, false)
	if err != nil {
		return err
	}
	defer env.closeLog()

	userDir, err := config.UserPackagesDir()
	if err != nil {
		return err
	}
	desktops, err := catalog.ScanDesktops(env.rc.Log, userDir)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDISPLAY NAME\tPACKAGES\tDESCRIPTION")
	for _, d := range desktops {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			d.Meta.Name, d.DisplayName(), len(d.AllPackages()),
			strings.TrimSpace(d.Meta.Description))
	}
	return w.Flush()
}
