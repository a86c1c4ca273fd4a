// Package cmd defines the command-line interface for segreg.
package cmd

import (
	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(fitCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().Int("periods", schema.DefaultPeriods, "Number of quarterly periods to simulate")
	rootCmd.PersistentFlags().Float64("start-value", schema.DefaultStartValue, "Base trend value at the first period")
	rootCmd.PersistentFlags().Float64("end-value", schema.DefaultEndValue, "Base trend value at the last period")
	rootCmd.PersistentFlags().Int("cutover", schema.DefaultCutover, "1-based period index where the intervention starts")
	rootCmd.PersistentFlags().Float64("max-effect", schema.DefaultMaxEffect, "Intervention effect reached at the last period")
	rootCmd.PersistentFlags().Float64("noise-sd", schema.DefaultNoiseSD, "Standard deviation of the Gaussian noise")
	rootCmd.PersistentFlags().Uint64("seed", schema.DefaultSeed, "Seed for the noise generator")
	rootCmd.PersistentFlags().Int("start-year", schema.DefaultStartYear, "Year of the first period label")
	rootCmd.PersistentFlags().Int("start-quarter", schema.DefaultStartQuarter, "Quarter (1-4) of the first period label")
	rootCmd.PersistentFlags().Float64("tolerance", schema.DefaultTolerance, "Convergence tolerance on the change in rho")
	rootCmd.PersistentFlags().Int("max-iterations", schema.DefaultMaxIterations, "Maximum Prais-Winsten iterations")
	rootCmd.PersistentFlags().Float64("alpha", schema.DefaultAlpha, "Significance level for coefficient labels")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or yaml or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("chart-file", contract.DefaultChartFile, "Chart output path; the extension selects svg or png or pdf")
	rootCmd.PersistentFlags().Float64("chart-width", contract.DefaultChartWidth, "Chart width in inches")
	rootCmd.PersistentFlags().Float64("chart-height", contract.DefaultChartHeight, "Chart height in inches")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
