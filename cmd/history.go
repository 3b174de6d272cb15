package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasmith-cli/internal/history"
	"github.com/KaramelBytes/datasmith-cli/internal/utils"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded balance and generate runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := history.NewStore(conf().DataDir).List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "(no runs)")
			return nil
		}
		if historyLimit > 0 && len(runs) > historyLimit {
			runs = runs[:historyLimit]
		}
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.AppendHeader(table.Row{"ID", "When", "Command", "Technique", "Target", "Class", "Synthetic", "Input"})
		for _, r := range runs {
			technique := r.Technique
			if technique == "" {
				technique = r.Diversity
			}
			synthetic := fmt.Sprintf("%d/%d", r.Generated, r.Requested)
			if s := r.Shortfall(); s > 0 {
				synthetic += fmt.Sprintf(" (-%d)", s)
			}
			t.AppendRow(table.Row{
				shortID(r.ID),
				r.CreatedAt.Local().Format(time.DateTime),
				r.Command,
				technique,
				r.TargetColumn,
				r.Minority,
				synthetic,
				r.Input,
			})
		}
		t.Render()
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run as JSON (a unique id prefix is enough)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := history.NewStore(conf().DataDir).Load(args[0])
		if err != nil {
			return err
		}
		b, err := utils.PrettyJSON(r)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "show at most this many runs (0 = all)")
}
