package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/segreg/core"
	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/internal/outwriter"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.HistoryManager
}

// configFor applies tool arguments on top of the server configuration.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if f := request.GetString("input_file", ""); f != "" {
		cfg.InputFile = f
	}
	cfg.Periods = request.GetInt("periods", cfg.Periods)
	cfg.Cutover = request.GetInt("cutover", cfg.Cutover)
	cfg.StartValue = request.GetFloat("start_value", cfg.StartValue)
	cfg.EndValue = request.GetFloat("end_value", cfg.EndValue)
	cfg.MaxEffect = request.GetFloat("max_effect", cfg.MaxEffect)
	cfg.NoiseSD = request.GetFloat("noise_sd", cfg.NoiseSD)
	if seed := request.GetInt("seed", -1); seed >= 0 {
		cfg.Seed = uint64(seed)
	}
	cfg.Tolerance = request.GetFloat("tolerance", cfg.Tolerance)
	cfg.MaxIterations = request.GetInt("max_iterations", cfg.MaxIterations)
	cfg.Alpha = request.GetFloat("alpha", cfg.Alpha)

	if err := contract.RevalidateOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// jsonResult marshals data into a text tool result.
func jsonResult(data any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleSimulateSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid series parameters: %v", err)), nil
	}

	s, err := core.GetSeries(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("series failed: %v", err)), nil
	}
	return jsonResult(s)
}

func (h *toolHandler) handleFitSegmentedRegression(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid fit parameters: %v", err)), nil
	}

	result, _, err := core.GetAnalysisResult(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fit failed: %v", err)), nil
	}
	return jsonResult(outwriter.NewFitReport(result, cfg.Alpha))
}

func (h *toolHandler) handleGetTrendLines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid fit parameters: %v", err)), nil
	}

	result, _, err := core.GetAnalysisResult(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fit failed: %v", err)), nil
	}
	return jsonResult(result.Trend)
}
