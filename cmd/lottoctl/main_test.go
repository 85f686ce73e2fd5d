package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/lotto/internal/modules/checker"
	"github.com/aristath/lotto/internal/modules/montecarlo"
	"github.com/aristath/lotto/internal/modules/statistics"
	testhelpers "github.com/aristath/lotto/internal/testing"
	"github.com/aristath/lotto/internal/worker"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyze(t *testing.T) {
	path := testhelpers.WriteHistoryFile(t, testhelpers.HistoryJSON)

	out, err := run(t, "analyze", "--history", path, "--format", "json")
	require.NoError(t, err)

	var snap statistics.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 4, snap.DrawCount, "the record with a bad date is dropped")

	out, err = run(t, "analyze", "--history", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Draws")
	assert.Contains(t, out, "PAIR")
}

func TestUnknownFormat(t *testing.T) {
	_, err := run(t, "analyze", "--format", "xml")
	assert.Error(t, err)
}

func TestMissingHistory(t *testing.T) {
	_, err := run(t, "analyze", "--history", filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	path := testhelpers.WriteHistoryFile(t, testhelpers.HistoryJSON)

	optionsPath := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(optionsPath, []byte(`
strategy: custom
customRules:
  include: [7]
  exclude: [13]
weights:
  sum: 1.5
`), 0644))

	out, err := run(t, "generate", "--history", path, "--options", optionsPath,
		"--count", "3", "--seed", "11", "--population", "30", "--generations", "5", "--format", "json")
	require.NoError(t, err)

	var resp worker.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(11), resp.Seed)
	require.NotEmpty(t, resp.Combinations)
	for _, c := range resp.Combinations {
		assert.True(t, c.Numbers.Contains(7))
		assert.False(t, c.Numbers.Contains(13))
	}
}

func TestGenerateRejectsUnknownStrategy(t *testing.T) {
	path := testhelpers.WriteHistoryFile(t, testhelpers.HistoryJSON)

	_, err := run(t, "generate", "--history", path, "--strategy", "lucky", "--generations", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lucky")
}

func TestLoadRunOptions(t *testing.T) {
	opts, err := loadRunOptions("")
	require.NoError(t, err)
	assert.Empty(t, opts.Strategy)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: [unterminated"), 0644))
	_, err = loadRunOptions(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	path := testhelpers.WriteHistoryFile(t, testhelpers.HistoryJSON)

	out, err := run(t, "validate", "--history", path, "--numbers", "6,11,24,31,35,49",
		"--sims", "200", "--seed", "3", "--format", "json")
	require.NoError(t, err)

	var est montecarlo.Estimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Equal(t, 200, est.Simulations)
	assert.Equal(t, 3, est.MinMatch)

	_, err = run(t, "validate", "--history", path, "--numbers", "1,2,3")
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	path := testhelpers.WriteHistoryFile(t, testhelpers.HistoryJSON)

	out, err := run(t, "check", "--history", path, "--numbers", "6,11,24,31,35,49", "--format", "json")
	require.NoError(t, err)

	var results []checker.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "2024-01-17", results[0].DrawDate)
	assert.Equal(t, "Matched 6/6", results[0].Label)
}

func TestWheel(t *testing.T) {
	out, err := run(t, "wheel", "--numbers", "1,5,9,14,22,31,40")
	require.NoError(t, err)
	assert.Contains(t, out, "  7  ")

	out, err = run(t, "wheel", "--numbers", "1,2,3,4,5,6,7,8,9,10", "--type", "3-if-4-in-10", "--format", "json")
	require.NoError(t, err)
	var wheel checker.Wheel
	require.NoError(t, json.Unmarshal([]byte(out), &wheel))
	assert.Len(t, wheel.Tickets, 3)

	_, err = run(t, "wheel", "--numbers", "1,2,x")
	assert.Error(t, err)
}

func TestParseNumbers(t *testing.T) {
	got, err := parseNumbers(" 3, 11,19 ")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 11, 19}, got)

	_, err = parseNumbers("")
	assert.Error(t, err)
}
