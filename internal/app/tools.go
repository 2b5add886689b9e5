package app

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the advisor MCP server version and status. Use this to verify connectivity."),
	)
}

// requestOptions are the arguments shared by recommend and advise.
func requestOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("client_id",
			mcp.Description("Client id to look up in the configured portfolio file. Defaults to the first client."),
		),
		mcp.WithObject("portfolio",
			mcp.Description("Inline portfolio record (clientid, mosttradedsector, mostprofitablesector, tradesvolumeofmosttradedsector, totaltradesvolumein24, daysasclient, totaltradesin24, durationheld, ...). Overrides client_id lookup."),
		),
		mcp.WithArray("market",
			mcp.Items(map[string]any{"type": "object"}),
			mcp.Description("Inline market rows ({name, change_pct, sector}). change_pct is a fraction (0.025) or a percent string (\"+2.5%\"). Omit to use the configured market file."),
		),
		mcp.WithNumber("max_items",
			mcp.Description("Maximum recommendations to return (0 = all)"),
		),
		mcp.WithString("freshness_policy",
			mcp.Enum("degrade", "warn", "off"),
			mcp.Description("How stale market data affects recommendations (default from config: degrade)"),
		),
		mcp.WithNumber("stale_after_minutes",
			mcp.Description("Age in minutes after which market data is stale (default from config: 120)"),
		),
		mcp.WithString("market_asof",
			mcp.Description("RFC 3339 timestamp of the market snapshot (e.g. '2024-06-03T09:30:00Z')"),
		),
	}
}

// createRecommendTool returns the recommend tool definition
func createRecommendTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Generate ranked portfolio recommendations and the client's risk persona. Returns the engine output as JSON."),
	}, requestOptions()...)
	return mcp.NewTool("recommend", opts...)
}

// createAdviseTool returns the advise tool definition
func createAdviseTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Generate recommendations and render them as client-facing markdown advice."),
	}, requestOptions()...)
	opts = append(opts, mcp.WithString("renderer",
		mcp.Enum("template", "llm"),
		mcp.Description("Prose renderer: template (deterministic) or llm (Gemini, falls back to template). Default: llm when configured."),
	))
	return mcp.NewTool("advise", opts...)
}

// createListClientsTool returns the list_clients tool definition
func createListClientsTool() mcp.Tool {
	return mcp.NewTool("list_clients",
		mcp.WithDescription("List the client ids available in the configured portfolio file."),
	)
}

// createNormalizeSectorTool returns the normalize_sector tool definition
func createNormalizeSectorTool() mcp.Tool {
	return mcp.NewTool("normalize_sector",
		mcp.WithDescription("Map a free-text sector label (e.g. 'Banking', 'Tourism') onto a standard sector bucket."),
		mcp.WithString("label",
			mcp.Required(),
			mcp.Description("Sector label to normalize"),
		),
	)
}
