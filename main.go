// main holds the entry logic for the segreg CLI.
package main

import (
	"github.com/huangsam/segreg/cmd"
	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/internal/history"
)

// main wires the run history manager into the commands and executes the CLI.
func main() {
	defer history.CloseHistory()
	cmd.SetHistoryManager(history.Manager)

	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Error starting CLI", err)
	}

	if err := cmd.StopProfiling(); err != nil {
		contract.LogWarn("Failed to stop profiling", err)
	}
}
