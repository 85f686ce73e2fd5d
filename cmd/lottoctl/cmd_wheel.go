package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aristath/lotto/internal/modules/checker"
)

func newWheelCmd(root *rootOptions) *cobra.Command {
	var (
		numbers   string
		wheelType string
	)

	cmd := &cobra.Command{
		Use:   "wheel",
		Short: "Expand a number set into wheel tickets",
		Long: `Build a full wheel (every 6-number subset of 6 to 15 numbers) or the
abbreviated 3-if-4-in-10 wheel of exactly 10 numbers. No history is needed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			picked, err := parseNumbers(numbers)
			if err != nil {
				return err
			}
			wheel, err := checker.Build(checker.WheelType(wheelType), picked)
			if err != nil {
				return err
			}

			if root.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), wheel)
			}
			out := cmd.OutOrStdout()
			for i, t := range wheel.Tickets {
				fmt.Fprintf(out, "%3d  %s\n", i+1, formatNumbers(t[:]))
			}
			if wheel.Truncated {
				fmt.Fprintf(out, "showing %d of %d tickets\n", len(wheel.Tickets), wheel.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&numbers, "numbers", "", "Comma separated numbers to wheel")
	cmd.Flags().StringVar(&wheelType, "type", string(checker.WheelFull), "Wheel type: full or 3-if-4-in-10")
	_ = cmd.MarkFlagRequired("numbers")
	return cmd
}
