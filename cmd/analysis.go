package cmd

import (
	"github.com/huangsam/segreg/core"
	"github.com/huangsam/segreg/internal/contract"
	"github.com/spf13/cobra"
)

// execute runs a pipeline command and exits on failure.
func execute(failureMsg string, executeFunc core.ExecutorFunc) {
	if err := executeFunc(rootCtx, cfg, historyManager); err != nil {
		contract.LogFatal(failureMsg, err)
	}
}

// simulateCmd generates a synthetic series without fitting it.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate a synthetic quarterly count series.",
	Long: `Generate a quarterly count series with a linear base trend, an intervention
ramp that starts at the cutover and additive Gaussian noise.

The same seed and parameters always produce the same values.

Examples:
  # Default scenario: 36 quarters from 2010.1, cutover at period 29
  segreg simulate

  # Save a series for later fitting
  segreg simulate --seed 7 --output csv --output-file series.csv

  # Columnar copy for DuckDB or pandas
  segreg simulate --output parquet --output-file series.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		execute("Cannot simulate series", core.ExecuteSimulate)
	},
}

// fitCmd fits the model and prints the coefficient report.
var fitCmd = &cobra.Command{
	Use:   "fit [input-file]",
	Short: "Fit the segmented regression and print the robust test table.",
	Long: `Fit y = b0 + b1*time + b2*flag + b3*post with iterative Prais-Winsten AR(1)
correction and report every coefficient with HC0-robust standard errors.

Without an input file the series is simulated from the configured parameters.
Input files may be CSV (label,outcome[,index,flag,post]) or Parquet.

Examples:
  # Fit the default simulated scenario
  segreg fit

  # Fit an external series with the intervention at period 20
  segreg fit series.csv --cutover 20

  # Machine-readable report
  segreg fit --output json --output-file report.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		execute("Cannot fit segmented regression", core.ExecuteFit)
	},
}

// plotCmd fits the model and renders the chart only.
var plotCmd = &cobra.Command{
	Use:   "plot [input-file]",
	Short: "Fit the model and render the trend chart.",
	Long: `Fit the model and draw the observed series, the fitted post-intervention trend
and the counterfactual trend, with the cutover marked and the effect shaded.

The chart file extension selects the format: .svg, .png or .pdf.

Examples:
  segreg plot --chart-file trend.png
  segreg plot series.csv --cutover 20 --chart-file trend.pdf`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		execute("Cannot render chart", core.ExecutePlot)
	},
}

// runCmd executes the whole pipeline.
var runCmd = &cobra.Command{
	Use:   "run [input-file]",
	Short: "Generate or load, fit, report and chart in one pass.",
	Long: `Run the full pipeline: generate (or load) the series, fit the model, print the
report and write the chart. No chart is written when the fit fails.

Examples:
  segreg run
  segreg run --history-backend sqlite --chart-file trend.svg`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		execute("Cannot run analysis", core.ExecuteRun)
	},
}
