// Package main is the lottoctl command line client.
//
// Every command works offline on a JSON history file; nothing talks to the
// server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/history"
	"github.com/aristath/lotto/pkg/logger"
)

// rootOptions are the flags shared by every command
type rootOptions struct {
	historyPath string
	format      string
	logLevel    string
	log         zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "lottoctl",
		Short: "Lotto combination search and statistics",
		Long: `lottoctl analyzes a 6/49 draw history, searches for high-confidence
combinations, estimates match probabilities, checks tickets and builds wheels.

Examples:
  lottoctl analyze --history draws.json
  lottoctl generate --history draws.json --strategy aggressive --count 5
  lottoctl validate --history draws.json --numbers 3,11,19,24,35,41
  lottoctl wheel --numbers 1,5,9,14,22,31,40`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case "table", "json":
			default:
				return fmt.Errorf("unknown format %q (table|json)", opts.format)
			}
			opts.log = logger.New(logger.Config{Level: opts.logLevel, Pretty: true, Output: cmd.ErrOrStderr()})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.historyPath, "history", "draws.json", "Path to the JSON draw history")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "table", "Output format: table, json")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newGenerateCmd(opts),
		newValidateCmd(opts),
		newCheckCmd(opts),
		newWheelCmd(opts),
	)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadHistory reads and cleans the history file, reporting dropped records
func (o *rootOptions) loadHistory() ([]domain.Draw, error) {
	draws, rejected, err := history.LoadFile(o.historyPath, o.log)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		o.log.Warn().Int("rejected", len(rejected)).Str("file", o.historyPath).Msg("Dropped malformed draws")
	}
	o.log.Info().Int("draws", len(draws)).Msg("History loaded")
	return draws, nil
}

func (o *rootOptions) jsonOutput() bool {
	return o.format == "json"
}

// parseNumbers reads a comma separated number list such as "3,11,19"
func parseNumbers(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("no numbers given")
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("%2d", n)
	}
	return strings.Join(parts, " ")
}
