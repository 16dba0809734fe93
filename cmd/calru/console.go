package main

import (
	"github.com/spf13/cobra"

	"calru/internal/repl"
)

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive console",
		Long: `Start an interactive console. Each line is checked and run against the
bindings of the previous ones. An empty line or ^D exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl.Start(repl.Config{
				HistoryFile: a.cfg.Repl.HistoryFile,
				ASTFormat:   a.cfg.ASTFormat,
				Color:       a.cfg.Color,
			}, cmd.OutOrStdout())
		},
	}
}
