package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/checker"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	var (
		numbers    string
		minMatches int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a ticket against every draw in the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			picked, err := parseNumbers(numbers)
			if err != nil {
				return err
			}
			c, err := domain.NewCombination(picked)
			if err != nil {
				return err
			}
			if minMatches < 0 || minMatches > domain.PickSize {
				return fmt.Errorf("min-matches must be between 0 and %d", domain.PickSize)
			}
			draws, err := root.loadHistory()
			if err != nil {
				return err
			}

			results := checker.CheckHistory(c, draws, minMatches)
			if root.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			return printCheckResults(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&numbers, "numbers", "", "Six comma separated numbers")
	cmd.Flags().IntVar(&minMatches, "min-matches", 3, "Only list draws with at least this many matches")
	_ = cmd.MarkFlagRequired("numbers")
	return cmd
}

func printCheckResults(out io.Writer, results []checker.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(out, "No matching draws")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tMATCHES\tRESULT")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.DrawDate, formatNumbers(r.Matches), r.Label)
	}
	return w.Flush()
}
