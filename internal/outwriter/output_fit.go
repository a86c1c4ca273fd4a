package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ErrParquetFit is returned when parquet output is requested for a fit.
var ErrParquetFit = errors.New("parquet output is only supported for series; use the simulate command")

// FitReport is the structured form of a fit for JSON and YAML output.
type FitReport struct {
	Alpha        float64                           `json:"alpha" yaml:"alpha"`
	Fit          schema.ModelFit                   `json:"fit" yaml:"fit"`
	Significance map[schema.CoefficientName]string `json:"significance" yaml:"significance"`
	Trend        schema.TrendLines                 `json:"trend" yaml:"trend"`
}

// NewFitReport labels every coefficient by its p-value at the given alpha.
func NewFitReport(result schema.AnalysisResult, alpha float64) FitReport {
	labels := make(map[schema.CoefficientName]string, len(result.Fit.Coefficients))
	for _, c := range result.Fit.Coefficients {
		labels[c.Name] = contract.GetPlainLabel(c.PValue, alpha)
	}
	return FitReport{Alpha: alpha, Fit: result.Fit, Significance: labels, Trend: result.Trend}
}

// WriteFit outputs the model summary and robust test table, dispatching based on
// the output format configured.
func WriteFit(result schema.AnalysisResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, NewFitReport(result, cfg.Alpha))
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.YAMLOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, NewFitReport(result, cfg.Alpha))
		}, "Wrote YAML"); err != nil {
			return fmt.Errorf("error writing YAML output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFitCSV(w, result.Fit, cfg.Alpha, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return ErrParquetFit
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeFitSummary(w, result.Fit, fmtFloat, intFmt); err != nil {
				return err
			}
			return writeFitTable(w, result.Fit, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writeFitSummary prints the model-level statistics above the coefficient table.
func writeFitSummary(w io.Writer, fit schema.ModelFit, fmtFloat func(float64) string, intFmt string) error {
	lines := []string{
		fmt.Sprintf("Observations: "+intFmt+"  Cutover: "+intFmt+"  Degrees of freedom: "+intFmt,
			fit.Observations, fit.Cutover, fit.DegreesOfFreedom),
		fmt.Sprintf("Rho: %s  Iterations: "+intFmt+"  Converged: %t",
			fmtFloat(fit.Rho), fit.Iterations, fit.Converged),
		fmt.Sprintf("R-squared: %s  Residual std. error: %s",
			fmtFloat(fit.RSquared), fmtFloat(fit.ResidualStdError)),
		fmt.Sprintf("Durbin-Watson: %s (OLS) → %s (transformed)",
			fmtFloat(fit.DurbinWatsonOLS), fmtFloat(fit.DurbinWatson)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writeFitTable generates and writes the robust significance table.
func writeFitTable(w io.Writer, fit schema.ModelFit, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Term", "Estimate", "Std. Error", "Robust SE", "t", "p-value", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	label := contract.GetPlainLabel
	if cfg.UseColors {
		label = contract.GetColorLabel
	}

	var data [][]string
	for _, c := range fit.Coefficients {
		data = append(data, []string{
			string(c.Name),
			fmtFloat(c.Estimate),
			fmtFloat(c.StdError),
			fmtFloat(c.RobustSE),
			fmtFloat(c.TStat),
			formatPValue(c.PValue, cfg.Precision),
			label(c.PValue, cfg.Alpha),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if c, ok := fit.Coefficient(schema.TrendShift); ok {
		if _, err := fmt.Fprintf(w, "Trend change: %s per period (p %s, %s at alpha %g)\n",
			fmtFloat(c.Estimate), formatPValue(c.PValue, cfg.Precision),
			contract.GetPlainLabel(c.PValue, cfg.Alpha), cfg.Alpha); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Fit completed in %v with HC0 robust errors. History backend: %s\n", duration, cfg.HistoryBackend)
	return err
}

// writeFitCSV writes one row per coefficient.
func writeFitCSV(w io.Writer, fit schema.ModelFit, alpha float64, fmtFloat func(float64) string) error {
	header := []string{"term", "estimate", "std_error", "robust_std_error", "t_stat", "p_value", "label", "rho", "iterations", "converged"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range fit.Coefficients {
			rec := []string{
				string(c.Name),
				fmtFloat(c.Estimate),
				fmtFloat(c.StdError),
				fmtFloat(c.RobustSE),
				fmtFloat(c.TStat),
				fmt.Sprintf("%g", c.PValue),
				contract.GetPlainLabel(c.PValue, alpha),
				fmtFloat(fit.Rho),
				fmt.Sprintf("%d", fit.Iterations),
				fmt.Sprintf("%t", fit.Converged),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatPValue shows small p-values as a bound rather than rounding them to zero.
func formatPValue(p float64, precision int) string {
	floor := math.Pow10(-precision)
	if p < floor {
		return fmt.Sprintf("< %.*f", precision, floor)
	}
	return fmt.Sprintf("%.*f", precision, p)
}
