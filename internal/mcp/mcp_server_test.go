package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/huangsam/segreg/internal/contract"
	mcp_internal "github.com/huangsam/segreg/internal/mcp"
	"github.com/huangsam/segreg/internal/outwriter"
	"github.com/huangsam/segreg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *contract.Config {
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
		Output:         schema.TextOut,
		Precision:      contract.DefaultPrecision,
		HistoryBackend: schema.NoneBackend,
	}
}

func callTool(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var mgr contract.HistoryManager
	s := mcp_internal.NewMCPServer(baseConfig(), mgr)

	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCPServerSimulateSeries(t *testing.T) {
	res := callTool(t, "simulate_series", map[string]any{"periods": 12.0, "cutover": 9.0, "seed": 7.0})
	require.False(t, res.IsError, resultText(t, res))

	var s schema.Series
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &s))
	assert.Equal(t, 12, s.Len())
	assert.Equal(t, 9, s.Cutover)
	assert.Equal(t, 1, s.Observations[8].Flag)
	assert.Equal(t, 0, s.Observations[7].Flag)

	// Same seed, same series
	again := callTool(t, "simulate_series", map[string]any{"periods": 12.0, "cutover": 9.0, "seed": 7.0})
	assert.Equal(t, resultText(t, res), resultText(t, again))
}

func TestMCPServerFitSegmentedRegression(t *testing.T) {
	res := callTool(t, "fit_segmented_regression", map[string]any{})
	require.False(t, res.IsError, resultText(t, res))

	var report outwriter.FitReport
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &report))
	assert.True(t, report.Fit.Converged)
	assert.Equal(t, schema.DefaultPeriods, report.Fit.Observations)
	assert.Len(t, report.Fit.Coefficients, len(schema.ModelTerms))
	assert.Contains(t, report.Significance, schema.TrendShift)
}

func TestMCPServerGetTrendLines(t *testing.T) {
	res := callTool(t, "get_trend_lines", map[string]any{"periods": 20.0, "cutover": 13.0})
	require.False(t, res.IsError, resultText(t, res))

	var lines schema.TrendLines
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &lines))
	assert.Len(t, lines.Observed, 20)
	assert.Len(t, lines.Counterfactual, 20)
	assert.Len(t, lines.Fitted, 8)
	assert.Equal(t, 13, lines.Fitted[0].Index)
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		message string
	}{
		{"zero noise", "simulate_series", map[string]any{"noise_sd": 0.0}, "invalid series parameters"},
		{"cutover past end", "simulate_series", map[string]any{"periods": 10.0, "cutover": 11.0}, "series failed"},
		{"bad alpha", "fit_segmented_regression", map[string]any{"alpha": 2.0}, "invalid fit parameters"},
		{"too few periods", "fit_segmented_regression", map[string]any{"periods": 3.0, "cutover": 2.0}, "InsufficientData"},
		{"missing input file", "get_trend_lines", map[string]any{"input_file": "does-not-exist.csv"}, "fit failed"},
		{"unsupported input", "get_trend_lines", map[string]any{"input_file": "series.xlsx"}, "unsupported input format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(t, res), tt.message)
		})
	}
}
