// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/segreg/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// pipelineArgs are the tool options shared by every tool that builds a series.
func pipelineArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("input_file", mcp.Description("CSV or Parquet series to load instead of simulating one.")),
		mcp.WithNumber("periods", mcp.Description("Number of quarterly periods to simulate.")),
		mcp.WithNumber("cutover", mcp.Description("1-based period index at which the intervention starts.")),
		mcp.WithNumber("start_value", mcp.Description("Base trend value at the first period.")),
		mcp.WithNumber("end_value", mcp.Description("Base trend value at the last period.")),
		mcp.WithNumber("max_effect", mcp.Description("Intervention effect reached at the last period.")),
		mcp.WithNumber("noise_sd", mcp.Description("Standard deviation of the Gaussian noise.")),
		mcp.WithNumber("seed", mcp.Description("Seed of the random source; the same seed gives the same series.")),
	}
}

// fitArgs are the estimator options of the fitting tools.
func fitArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("tolerance", mcp.Description("Convergence tolerance on successive rho estimates.")),
		mcp.WithNumber("max_iterations", mcp.Description("Maximum number of Prais-Winsten iterations.")),
		mcp.WithNumber("alpha", mcp.Description("Significance level used for the labels.")),
	}
}

// newTool assembles a tool from a name, description and option groups.
func newTool(name, description string, groups ...[]mcp.ToolOption) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(description)}
	for _, g := range groups {
		opts = append(opts, g...)
	}
	return mcp.NewTool(name, opts...)
}

// NewMCPServer initializes and configures the segreg MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.HistoryManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Segmented Regression Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: simulate_series ---
	s.AddTool(newTool("simulate_series",
		"Generate a synthetic quarterly count series with a delayed intervention ramp, or load one from a file.",
		pipelineArgs(),
	), h.handleSimulateSeries)

	// --- 2. Tool: fit_segmented_regression ---
	s.AddTool(newTool("fit_segmented_regression",
		"Fit a segmented regression with Prais-Winsten AR(1) correction and HC0 robust tests.",
		pipelineArgs(), fitArgs(),
	), h.handleFitSegmentedRegression)

	// --- 3. Tool: get_trend_lines ---
	s.AddTool(newTool("get_trend_lines",
		"Fit the model and return observed, fitted and counterfactual trend lines for plotting.",
		pipelineArgs(), fitArgs(),
	), h.handleGetTrendLines)

	return s
}

// StartMCPServer starts the segreg MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.HistoryManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
