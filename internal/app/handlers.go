package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/interfaces"
	"github.com/bobmcallan/advisor/internal/models"
)

// handleGetVersion implements the get_version tool
func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("Advisor MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

// handleRecommend implements the recommend tool
func handleRecommend(svc interfaces.RecommendationService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, err := bindRequest(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		out, err := svc.Recommend(ctx, req)
		if err != nil {
			logger.Error().Err(err).Str("client_id", req.ClientID).Msg("Recommend tool failed")
			return errorResult(fmt.Sprintf("Recommend error: %v", err)), nil
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("Encode error: %v", err)), nil
		}
		return textResult(string(data)), nil
	}
}

// handleAdvise implements the advise tool
func handleAdvise(svc interfaces.RecommendationService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, err := bindRequest(request)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		adv, err := svc.Advise(ctx, req)
		if err != nil {
			logger.Error().Err(err).Str("client_id", req.ClientID).Msg("Advise tool failed")
			return errorResult(fmt.Sprintf("Advise error: %v", err)), nil
		}
		return textResult(adv.AdviceText), nil
	}
}

// handleListClients implements the list_clients tool
func handleListClients(svc interfaces.RecommendationService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := svc.Clients(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("List clients tool failed")
			return errorResult(fmt.Sprintf("List clients error: %v", err)), nil
		}
		if len(ids) == 0 {
			return textResult("No clients found."), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "# Clients (%d)\n\n", len(ids))
		for _, id := range ids {
			fmt.Fprintf(&sb, "- %s\n", id)
		}
		return textResult(sb.String()), nil
	}
}

// handleNormalizeSector implements the normalize_sector tool
func handleNormalizeSector(svc interfaces.RecommendationService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		label, err := request.RequireString("label")
		if err != nil {
			return errorResult("Error: label parameter is required"), nil
		}
		return textResult(svc.NormalizeSector(label)), nil
	}
}

// bindRequest decodes tool arguments into a RecommendRequest. Argument
// names match the REST API's JSON fields.
func bindRequest(request mcp.CallToolRequest) (models.RecommendRequest, error) {
	var req models.RecommendRequest
	args := request.GetArguments()
	if len(args) == 0 {
		return req, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return req, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("invalid arguments: %w", err)
	}
	return req, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
