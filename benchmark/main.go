// Package main provides a performance benchmarking tool for the segreg CLI.
// It measures execution times across series lengths and commands, running each
// case several times with run history disabled and again with SQLite history,
// treating the first history run as cold and averaging the rest as warm,
// and writes the results as CSV for documentation.
//
// Prerequisites:
// - segreg binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for chart files and the benchmark history database
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the timings of one command at one series length.
type BenchmarkResult struct {
	Periods       int
	Command       string
	NoHistoryTime string
	ColdTime      string
	WarmTime      string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	NoHistoryRuns int
	HistoryRuns   int
	Periods       []int
	Commands      []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       2 * time.Minute,
		NoHistoryRuns: 3,
		HistoryRuns:   4,
		Periods:       []int{36, 360, 3600, 36000},
		Commands:      []string{"simulate", "fit", "run"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the segreg binary and work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("segreg"); err != nil {
		return fmt.Errorf("segreg binary not found in PATH")
	}
	if info, err := os.Stat(config.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("work directory %s not found", config.WorkDir)
	}
	return nil
}

// historyDB is the SQLite file used by the history phase.
func historyDB(config BenchmarkConfig) string {
	return filepath.Join(config.WorkDir, "segreg_benchmark.db")
}

// runBenchmarks executes every command at every series length
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d lengths, %d commands, %v timeout, no-history: %d runs, history: %d runs\n",
		len(config.Periods), len(config.Commands), config.Timeout, config.NoHistoryRuns, config.HistoryRuns)

	for _, periods := range config.Periods {
		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, periods, command))
		}
	}
	return results
}

// runBenchmarkSuite runs both no-history and history phases for a command
func runBenchmarkSuite(config BenchmarkConfig, periods int, command string) BenchmarkResult {
	fmt.Printf("Running %s with %d periods\n", command, periods)

	runPhase := func(backend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		times := runBenchmark(config, periods, command, backend, numRuns)
		if len(times) == 0 {
			return 0, "FAILED"
		}
		coldTime = times[0]
		warm := times
		if len(times) > 1 {
			warm = times[1:]
		}
		var sum float64
		for _, t := range warm {
			sum += t
		}
		return coldTime, fmt.Sprintf("%.3fs", sum/float64(len(warm)))
	}

	// Phase 1: no history
	_, noHistoryAvg := runPhase("none", config.NoHistoryRuns, "No-history")

	// Phase 2: SQLite history from an empty database
	_ = os.Remove(historyDB(config))
	coldTime, warmAvg := runPhase("sqlite", config.HistoryRuns, "History")

	coldTimeStr := "FAILED"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-history average: %s, Cold time: %s, Warm average: %s\n", noHistoryAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Periods:       periods,
		Command:       command,
		NoHistoryTime: noHistoryAvg,
		ColdTime:      coldTimeStr,
		WarmTime:      warmAvg,
	}
}

// runBenchmark executes a segreg command several times and returns the successful durations
func runBenchmark(config BenchmarkConfig, periods int, command, backend string, numRuns int) []float64 {
	// The cutover sits at four fifths of the series like the default scenario
	args := []string{
		command,
		"--periods", strconv.Itoa(periods),
		"--cutover", strconv.Itoa(max(1, periods*4/5)),
		"--history-backend", backend,
		"--history-db-connect", historyDB(config),
		"--color", "no",
	}
	if command == "run" {
		args = append(args, "--chart-file", filepath.Join(config.WorkDir, "segreg_benchmark.svg"))
	}

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		cmd := exec.CommandContext(ctx, "segreg", args...)
		cmd.Dir = config.WorkDir

		start := time.Now()
		output, err := cmd.CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output, command) {
			times = append(times, elapsed)
		}
	}
	return times
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	outputStr := string(output)
	if command == "simulate" {
		return strings.Contains(outputStr, "Showing")
	}
	return strings.Contains(outputStr, "Prais-Winsten") && strings.Contains(outputStr, "trend_shift")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("segreg_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"periods", "cmd", "no_history_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		record := []string{strconv.Itoa(result.Periods), result.Command, result.NoHistoryTime, result.ColdTime, result.WarmTime}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results grouped by command
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-8d: No-history: %s, Cold: %s, Warm: %s\n", result.Periods, result.NoHistoryTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
