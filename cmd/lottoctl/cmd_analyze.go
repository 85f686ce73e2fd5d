package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/lotto/internal/modules/statistics"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Print the statistics of a draw history",
		RunE: func(cmd *cobra.Command, args []string) error {
			draws, err := root.loadHistory()
			if err != nil {
				return err
			}
			snap := statistics.Analyze(draws)
			if root.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			return printSnapshot(cmd.OutOrStdout(), snap)
		},
	}
}

func printSnapshot(out io.Writer, snap *statistics.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Draws\t%d\n", snap.DrawCount)
	fmt.Fprintf(w, "Hot\t%s\n", formatNumbers(snap.Hot))
	fmt.Fprintf(w, "Cold\t%s\n", formatNumbers(snap.Cold))
	fmt.Fprintf(w, "Overdue\t%s\n", formatNumbers(snap.Overdue))
	fmt.Fprintf(w, "Sum mean\t%.1f (sd %.1f)\n", snap.Sums.Mean, snap.Sums.StdDev)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PAIR\tCOUNT")
	for _, p := range snap.StrongPairs {
		fmt.Fprintf(w, "%d-%d\t%d\n", p.Pair[0], p.Pair[1], p.Count)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "DELTAS\tCOUNT")
	for _, d := range snap.DeltaPatterns {
		fmt.Fprintf(w, "%v\t%d\n", d.Pattern, d.Count)
	}

	return w.Flush()
}
