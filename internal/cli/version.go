package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information of heimdallctl",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "heimdallctl version: %s\n", a.info.Version)
			fmt.Fprintf(out, "commit:              %s\n", a.info.Commit)
			fmt.Fprintf(out, "built at:            %s\n", a.info.Date)
			fmt.Fprintf(out, "go version:          %s\n", runtime.Version())
			fmt.Fprintf(out, "os/arch:             %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
