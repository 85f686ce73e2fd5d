package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/optimizer"
	"github.com/aristath/lotto/internal/modules/statistics"
	"github.com/aristath/lotto/internal/worker"
)

type generateOptions struct {
	optionsFile string
	strategy    string
	count       int
	seed        int64
	population  int
	generations int
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Search for high-confidence combinations",
		Long: `Run the genetic search over the history and print the best combinations.

Run options (strategy, biases, custom rules, weights) can be given as YAML:

  strategy: custom
  favorHot: true
  customRules:
    sumMin: 120
    sumMax: 180
    include: [7]
    exclude: [13]
  weights:
    sum: 1.5
    hot: 0.5

Flags override the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.optionsFile, "options", "", "YAML file with run options")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "balanced", "balanced, aggressive, conservative, experimental or custom")
	cmd.Flags().IntVar(&opts.count, "count", 5, "Number of combinations to return")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed (0 seeds from the clock)")
	cmd.Flags().IntVar(&opts.population, "population", optimizer.DefaultPopulationSize, "Population size")
	cmd.Flags().IntVar(&opts.generations, "generations", optimizer.DefaultGenerations, "Number of generations")
	return cmd
}

// loadRunOptions reads YAML run options; a missing path yields zero options
func loadRunOptions(path string) (optimizer.Options, error) {
	var opts optimizer.Options
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse options file: %w", err)
	}
	return opts, nil
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions) error {
	runOpts, err := loadRunOptions(opts.optionsFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strategy") || runOpts.Strategy == "" {
		runOpts.Strategy = opts.strategy
	}

	draws, err := root.loadHistory()
	if err != nil {
		return err
	}

	cfg := optimizer.DefaultConfig()
	cfg.PopulationSize = opts.population
	cfg.Generations = opts.generations

	w := worker.New(worker.Config{Optimizer: cfg, Seed: opts.seed}, nil, nil, root.log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resp, err := w.Generate(ctx, worker.GeneratePayload{
		Snapshot: statistics.Analyze(draws),
		Options:  runOpts,
		Count:    opts.count,
	}, func(p worker.Response) {
		root.log.Debug().Int("generation", p.Generation).Float64("best", p.BestConfidence).Msg("Progress")
	})
	if err != nil {
		return err
	}

	if root.jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	return printCandidates(cmd.OutOrStdout(), resp.Combinations, resp.Seed)
}

func printCandidates(out io.Writer, candidates []domain.Candidate, seed int64) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNUMBERS\tCONFIDENCE\tSUM\tODD/EVEN\tHIGH/LOW")
	for i, c := range candidates {
		fmt.Fprintf(w, "%d\t%s\t%.1f%%\t%d\t%s\t%s\n",
			i+1, formatNumbers(c.Numbers[:]), c.Confidence, c.Sum, c.OddEven, c.HighLow)
	}
	fmt.Fprintf(w, "\nseed %d\n", seed)
	return w.Flush()
}
