package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"calru/internal/history"
	"calru/internal/report"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failedStyle = lipgloss.NewStyle().Foreground(report.ColorError)
	idStyle     = lipgloss.NewStyle().Foreground(report.ColorMuted)
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var show string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			out := cmd.OutOrStdout()

			if show != "" {
				run, err := store.Get(cmd.Context(), show)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "id:      %s\nstarted: %s\noutcome: %s\n", run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Outcome)
				fmt.Fprintf(out, "--- source\n%s\n--- output\n%s", strings.TrimRight(run.Source, "\n"), run.Output)
				if run.Error != "" {
					fmt.Fprintf(out, "--- error\n%s\n", run.Error)
				}
				return nil
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Fprintf(out, "%s  %s  %s  %s\n",
					a.paint(idStyle, run.ID),
					run.StartedAt.Format("2006-01-02 15:04:05"),
					a.paint(outcomeStyle(run), fmt.Sprintf("%-13s", run.Outcome)),
					firstLine(run.Source))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	cmd.Flags().StringVar(&show, "show", "", "Print the source, output and error of one run")
	return cmd
}

func outcomeStyle(run history.Run) lipgloss.Style {
	if run.Outcome == history.OutcomeOK {
		return okStyle
	}
	return failedStyle
}

func (a *app) paint(s lipgloss.Style, text string) string {
	if !a.cfg.Color {
		return text
	}
	return s.Render(text)
}

func firstLine(src string) string {
	src = strings.TrimSpace(src)
	if i := strings.IndexByte(src, '\n'); i >= 0 {
		return src[:i] + " ..."
	}
	return src
}
