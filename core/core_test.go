package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/segreg/core/series"
	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/internal/history"
	"github.com/huangsam/segreg/internal/parquet"
	"github.com/huangsam/segreg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	return &contract.Config{
		Periods:        schema.DefaultPeriods,
		StartValue:     schema.DefaultStartValue,
		EndValue:       schema.DefaultEndValue,
		Cutover:        schema.DefaultCutover,
		MaxEffect:      schema.DefaultMaxEffect,
		NoiseSD:        schema.DefaultNoiseSD,
		Seed:           schema.DefaultSeed,
		StartYear:      schema.DefaultStartYear,
		StartQuarter:   schema.DefaultStartQuarter,
		Tolerance:      schema.DefaultTolerance,
		MaxIterations:  schema.DefaultMaxIterations,
		Alpha:          schema.DefaultAlpha,
		Precision:      contract.DefaultPrecision,
		Output:         schema.CSVOut,
		OutputFile:     filepath.Join(dir, "out.csv"),
		ChartFile:      filepath.Join(dir, "chart.svg"),
		ChartWidth:     contract.DefaultChartWidth,
		ChartHeight:    contract.DefaultChartHeight,
		HistoryBackend: schema.NoneBackend,
	}
}

// mockManager wires a mock store into a mock manager.
func mockManager(store *history.MockHistoryStore) *history.MockHistoryManager {
	mgr := &history.MockHistoryManager{}
	mgr.On("GetHistoryStore").Return(store)
	return mgr
}

func TestDeriveTrendLines(t *testing.T) {
	s, err := series.Build([]float64{10, 12, 14, 9, 8, 7}, nil, 4)
	require.NoError(t, err)
	fit := schema.ModelFit{Coefficients: []schema.Coefficient{
		{Name: schema.Intercept, Estimate: 8},
		{Name: schema.Time, Estimate: 2},
		{Name: schema.LevelShift, Estimate: -5},
		{Name: schema.TrendShift, Estimate: -3, PValue: 0.02},
	}}

	lines := DeriveTrendLines(s, fit)
	assert.Equal(t, 4, lines.Cutover)
	assert.Equal(t, 0.02, lines.TrendShiftPValue)
	require.Len(t, lines.Observed, 6)
	require.Len(t, lines.Counterfactual, 6)
	require.Len(t, lines.Fitted, 3)

	assert.Equal(t, 9.0, lines.Observed[3].Value)
	assert.Equal(t, 10.0, lines.Counterfactual[0].Value) // 8 + 2*1
	assert.Equal(t, 20.0, lines.Counterfactual[5].Value) // 8 + 2*6

	// 8 + 2*4 - 5 - 3*1
	assert.Equal(t, schema.TrendPoint{Index: 4, Label: "4", Value: 8}, lines.Fitted[0])
	// 8 + 2*6 - 5 - 3*3
	assert.Equal(t, 6.0, lines.Fitted[2].Value)
}

func TestDeriveTrendLinesWithoutFlaggedPeriods(t *testing.T) {
	s, err := series.Build([]float64{1, 2, 3}, nil, 0)
	require.NoError(t, err)
	lines := DeriveTrendLines(s, schema.ModelFit{})
	assert.Empty(t, lines.Fitted)
	assert.Len(t, lines.Counterfactual, 3)
}

func TestLoadSeries(t *testing.T) {
	dir := t.TempDir()

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "series.csv")
		require.NoError(t, os.WriteFile(path, []byte("label,outcome\n2010.1,5\n2010.2,6\n2010.3,4\n"), 0o644))
		s, err := LoadSeries(path, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, 2, s.Observations[2].Post)
	})

	t.Run("parquet", func(t *testing.T) {
		want, err := series.Build([]float64{5, 6, 4, 3}, series.QuarterLabels(4, 2010, 1), 3)
		require.NoError(t, err)
		path := filepath.Join(dir, "series.parquet")
		require.NoError(t, parquet.WriteSeriesParquet(want, path))

		got, err := LoadSeries(path, 3)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		// Stored flags disagree with another cutover
		_, err = LoadSeries(path, 2)
		assert.ErrorIs(t, err, contract.ErrInvalidConfiguration)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := LoadSeries(filepath.Join(dir, "series.txt"), 2)
		assert.ErrorIs(t, err, contract.ErrInvalidConfiguration)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSeries(filepath.Join(dir, "missing.csv"), 2)
		assert.Error(t, err)
	})
}

func TestGetSeries(t *testing.T) {
	cfg := testConfig(t)
	s, err := GetSeries(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultPeriods, s.Len())
	assert.Equal(t, "2018.4", s.Observations[s.Len()-1].Label)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = GetSeries(ctx, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetAnalysisResultRecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	store := &history.MockHistoryStore{}
	store.On("BeginRun", mock.Anything, cfg.RunParams()).Return(int64(5), nil)
	store.On("RecordCoefficients", int64(5), mock.MatchedBy(func(c []schema.Coefficient) bool {
		return len(c) == len(schema.ModelTerms)
	})).Return(nil)
	store.On("EndRun", int64(5), mock.Anything, mock.MatchedBy(func(fit schema.ModelFit) bool {
		return fit.Converged && fit.Cutover == schema.DefaultCutover
	})).Return(nil)

	result, duration, err := GetAnalysisResult(context.Background(), cfg, mockManager(store))
	require.NoError(t, err)
	assert.True(t, duration > 0)
	assert.True(t, result.Fit.Converged)
	assert.Len(t, result.Trend.Fitted, schema.DefaultPeriods-schema.DefaultCutover+1)
	store.AssertExpectations(t)
}

func TestGetAnalysisResultHistoryFailuresAreWarnings(t *testing.T) {
	cfg := testConfig(t)
	store := &history.MockHistoryStore{}
	store.On("BeginRun", mock.Anything, mock.Anything).Return(int64(0), errors.New("database is locked"))

	result, _, err := GetAnalysisResult(context.Background(), cfg, mockManager(store))
	require.NoError(t, err)
	assert.True(t, result.Fit.Converged)
	store.AssertNotCalled(t, "RecordCoefficients", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAnalysisResultFitFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cutover = 1 // every period flagged
	store := &history.MockHistoryStore{}
	store.On("BeginRun", mock.Anything, mock.Anything).Return(int64(9), nil)

	_, _, err := GetAnalysisResult(context.Background(), cfg, mockManager(store))
	assert.ErrorIs(t, err, contract.ErrFitFailure)
	store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAnalysisResultWithoutHistory(t *testing.T) {
	cfg := testConfig(t)
	mgr := &history.MockHistoryManager{}
	mgr.On("GetHistoryStore").Return(nil)

	_, _, err := GetAnalysisResult(context.Background(), cfg, mgr)
	require.NoError(t, err)

	_, _, err = GetAnalysisResult(context.Background(), cfg, nil)
	require.NoError(t, err)
}

func TestExecuteSimulate(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, ExecuteSimulate(context.Background(), cfg, nil))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, schema.DefaultPeriods+1)
	assert.Equal(t, strings.Join(series.CSVHeader, ","), lines[0])
}

func TestExecuteRunWritesReportAndChart(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, ExecuteRun(context.Background(), cfg, nil))

	report, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(report), "trend_shift")

	info, err := os.Stat(cfg.ChartFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExecuteRunFitFailureSkipsChart(t *testing.T) {
	cfg := testConfig(t)
	cfg.Periods = 3
	cfg.Cutover = 2

	err := ExecuteRun(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, contract.ErrInsufficientData)
	_, err = os.Stat(cfg.ChartFile)
	assert.True(t, os.IsNotExist(err))
}

func TestExecutePlot(t *testing.T) {
	cfg := testConfig(t)
	cfg.ChartFile = filepath.Join(t.TempDir(), "chart.pdf")
	require.NoError(t, ExecutePlot(context.Background(), cfg, nil))
	_, err := os.Stat(cfg.ChartFile)
	assert.NoError(t, err)

	// Plot writes no report
	_, err = os.Stat(cfg.OutputFile)
	assert.True(t, os.IsNotExist(err))
}

func TestChartFile(t *testing.T) {
	cfg := &contract.Config{}
	assert.Equal(t, contract.DefaultChartFile, ChartFile(cfg))
	cfg.ChartFile = "out.png"
	assert.Equal(t, "out.png", ChartFile(cfg))
}
