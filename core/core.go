// Package core runs the segmented regression pipeline: series, fit, report and chart.
package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/segreg/core/regress"
	"github.com/huangsam/segreg/core/series"
	"github.com/huangsam/segreg/internal/chart"
	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/internal/outwriter"
	"github.com/huangsam/segreg/schema"
)

// ExecutorFunc defines the function signature for executing a pipeline command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) error

// GetSeries loads the configured input file or simulates a series when none is set.
func GetSeries(ctx context.Context, cfg *contract.Config) (schema.Series, error) {
	if err := ctx.Err(); err != nil {
		return schema.Series{}, err
	}
	if cfg.InputFile != "" {
		return LoadSeries(cfg.InputFile, cfg.Cutover)
	}
	return series.Simulate(cfg.SimulationParams())
}

// GetAnalysisResult runs the series, fit and trend stages without printing results.
// When a history store is available the run and its coefficients are recorded;
// history failures are logged as warnings and never fail the analysis.
func GetAnalysisResult(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) (schema.AnalysisResult, time.Duration, error) {
	start := time.Now()
	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		logAnalysisHeader(cfg)
	}

	// --- 1. Series ---
	s, err := GetSeries(ctx, cfg)
	if err != nil {
		return schema.AnalysisResult{}, 0, err
	}

	// --- 2. Begin Run Tracking (if configured) ---
	var runID int64
	store := historyStore(mgr)
	if store != nil {
		runID, err = store.BeginRun(start, cfg.RunParams())
		if err != nil {
			contract.LogWarn("Run history initialization failed", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return schema.AnalysisResult{}, 0, err
	}

	// --- 3. Fit ---
	fit, err := regress.Fit(s, cfg.FitOptions())
	if err != nil {
		return schema.AnalysisResult{}, 0, err
	}

	// --- 4. Trend lines ---
	trend := DeriveTrendLines(s, fit)

	// --- 5. End Run Tracking ---
	if store != nil && runID > 0 {
		if err := store.RecordCoefficients(runID, fit.Coefficients); err != nil {
			contract.LogWarn("Failed to record coefficients", err)
		}
		if err := store.EndRun(runID, time.Now(), fit); err != nil {
			contract.LogWarn("Failed to finalize run history", err)
		}
	}

	return schema.AnalysisResult{Series: s, Fit: fit, Trend: trend}, time.Since(start), nil
}

// historyStore returns the configured store, or nil when history is not set up.
func historyStore(mgr contract.HistoryManager) contract.HistoryStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetHistoryStore()
}

// ExecuteSimulate produces a series and writes it using the configured output format.
func ExecuteSimulate(ctx context.Context, cfg *contract.Config, _ contract.HistoryManager) error {
	start := time.Now()
	if !shouldSuppressHeader(ctx) && cfg.Output == schema.TextOut {
		logAnalysisHeader(cfg)
	}
	s, err := GetSeries(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.WriteSeries(s, cfg, time.Since(start))
}

// ExecuteFit fits the model and prints the summary and robust test table.
func ExecuteFit(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) error {
	result, duration, err := GetAnalysisResult(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteFit(result, cfg, duration)
}

// ExecutePlot fits the model and renders the chart only.
func ExecutePlot(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) error {
	result, _, err := GetAnalysisResult(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return saveChart(ctx, cfg, result.Trend)
}

// ExecuteRun runs the full pipeline: series, fit, report and chart.
// No chart is written when the fit fails.
func ExecuteRun(ctx context.Context, cfg *contract.Config, mgr contract.HistoryManager) error {
	result, duration, err := GetAnalysisResult(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if err := outwriter.WriteFit(result, cfg, duration); err != nil {
		return err
	}
	return saveChart(ctx, cfg, result.Trend)
}

// saveChart renders trend lines to the configured chart file.
func saveChart(ctx context.Context, cfg *contract.Config, lines schema.TrendLines) error {
	path := ChartFile(cfg)
	if err := chart.Save(path, lines, cfg.ChartWidth, cfg.ChartHeight); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if !shouldSuppressHeader(ctx) {
		fmt.Fprintf(os.Stderr, "📊 Wrote chart to %s\n", path)
	}
	return nil
}

// ChartFile returns the configured chart path or the default one.
func ChartFile(cfg *contract.Config) string {
	if cfg.ChartFile != "" {
		return cfg.ChartFile
	}
	return contract.DefaultChartFile
}
