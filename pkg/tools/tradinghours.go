package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

var allowedMarketGroups = []string{"core", "extended", "all", "allowed"}

func tradingHoursListMarketsTool() mcp.Tool {
	return mcp.NewTool("get_mp_tradinghours_list_markets",
		mcp.WithDescription("List markets known to the TradingHours marketplace add-on."),
		mcp.WithString("group", mcp.Description("'core', 'extended', 'all' or 'allowed'; default 'core'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleTradingHoursListMarkets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	group := req.GetString("group", "core")
	if !contains(allowedMarketGroups, group) {
		return errResult("Invalid 'group'. Allowed: %v", allowedMarketGroups), nil
	}
	q := url.Values{}
	q.Set("group", group)
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/mp/tradinghours/markets", q, "json"), nil
}

func tradingHoursLookupMarketsTool() mcp.Tool {
	return mcp.NewTool("get_mp_tradinghours_lookup_markets",
		mcp.WithDescription("Search TradingHours markets by name, MIC or exchange code."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text search, e.g. 'nasdaq' or 'XNYS'")),
		mcp.WithString("group", mcp.Description("'core', 'extended', 'all' or 'allowed'; default 'core'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleTradingHoursLookupMarkets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || query == "" {
		return errResult("Parameter 'query' is required (e.g., 'nasdaq')."), nil
	}
	group := req.GetString("group", "core")
	if !contains(allowedMarketGroups, group) {
		return errResult("Invalid 'group'. Allowed: %v", allowedMarketGroups), nil
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("group", group)
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/mp/tradinghours/markets/lookup", q, "json"), nil
}

func tradingHoursMarketDetailsTool() mcp.Tool {
	return mcp.NewTool("get_mp_tradinghours_market_details",
		mcp.WithDescription("Trading schedule, holidays and metadata for one market."),
		mcp.WithString("fin_id", mcp.Required(), mcp.Description("TradingHours market identifier, e.g. 'US.NYSE'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleTradingHoursMarketDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	finID, err := req.RequireString("fin_id")
	if err != nil || finID == "" {
		return errResult("Parameter 'fin_id' is required (e.g., 'US.NYSE')."), nil
	}
	q := url.Values{}
	q.Set("fin_id", finID)
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/mp/tradinghours/markets/details", q, "json"), nil
}

func tradingHoursMarketStatusTool() mcp.Tool {
	return mcp.NewTool("get_mp_tradinghours_market_status",
		mcp.WithDescription("Whether a market is currently open, with next open/close times."),
		mcp.WithString("fin_id", mcp.Required(), mcp.Description("TradingHours market identifier, e.g. 'US.NYSE'. Comma-separate for several markets.")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleTradingHoursMarketStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	finID, err := req.RequireString("fin_id")
	if err != nil || finID == "" {
		return errResult("Parameter 'fin_id' is required (e.g., 'US.NYSE')."), nil
	}
	q := url.Values{}
	q.Set("fin_id", finID)
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/mp/tradinghours/markets/status", q, "json"), nil
}
