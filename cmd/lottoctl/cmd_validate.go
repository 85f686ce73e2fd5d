package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/montecarlo"
	"github.com/aristath/lotto/internal/modules/sampling"
	"github.com/aristath/lotto/internal/modules/statistics"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var (
		numbers  string
		sims     int
		minMatch int
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Estimate how often a combination matches frequency-weighted draws",
		RunE: func(cmd *cobra.Command, args []string) error {
			picked, err := parseNumbers(numbers)
			if err != nil {
				return err
			}
			c, err := domain.NewCombination(picked)
			if err != nil {
				return err
			}
			draws, err := root.loadHistory()
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			est, err := montecarlo.New(sampling.NewRNG(seed)).
				Estimate(context.Background(), c, statistics.Analyze(draws), sims, minMatch)
			if err != nil {
				return err
			}

			if root.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), est)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d simulations matched %d+ (%.2f%%)\n",
				formatNumbers(est.Numbers[:]), est.Wins, est.Simulations, est.MinMatch, est.Percent)
			return nil
		},
	}

	cmd.Flags().StringVar(&numbers, "numbers", "", "Six comma separated numbers")
	cmd.Flags().IntVar(&sims, "sims", montecarlo.DefaultSimulations, "Number of simulated draws")
	cmd.Flags().IntVar(&minMatch, "min-match", montecarlo.DefaultMinMatch, "Matches needed to count a win")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 seeds from the clock)")
	_ = cmd.MarkFlagRequired("numbers")
	return cmd
}
