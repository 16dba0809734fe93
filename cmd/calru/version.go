package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "calru version 'v%s' %s %s (%s %s/%s)\n",
				a.cfg.Version, a.cfg.BuildDate, a.cfg.Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
