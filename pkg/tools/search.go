package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

var allowedSearchTypes = []string{"all", "stock", "etf", "fund", "bond", "index", "crypto"}

func stocksFromSearchTool() mcp.Tool {
	return mcp.NewTool("get_stocks_from_search",
		mcp.WithDescription("Search for instruments by ticker, company name or ISIN."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search string, e.g. 'apple' or 'AAPL'")),
		mcp.WithNumber("limit", mcp.Description("Result limit, default 15, max 500")),
		mcp.WithBoolean("bonds_only", mcp.Description("Restrict to bonds (adds bonds_only=1)")),
		mcp.WithString("exchange", mcp.Description("Restrict to an exchange, e.g. 'US', 'PA', 'FOREX'")),
		mcp.WithString("type", mcp.Description("Instrument type: all, stock, etf, fund, bond, index, crypto")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleStocksFromSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil || query == "" {
		return errResult("Parameter 'query' is required."), nil
	}
	limit := req.GetInt("limit", 15)
	if limit < 1 || limit > 500 {
		return errResult("'limit' must be between 1 and 500."), nil
	}
	typeParam := req.GetString("type", "")
	if typeParam != "" && !contains(allowedSearchTypes, typeParam) {
		return errResult("Invalid 'type'. Allowed: %v", allowedSearchTypes), nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("limit", strconv.Itoa(limit))
	if req.GetBool("bonds_only", false) {
		q.Set("bonds_only", "1")
	}
	if exchange := req.GetString("exchange", ""); exchange != "" {
		q.Set("exchange", exchange)
	}
	if typeParam != "" {
		q.Set("type", typeParam)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/search/"+url.PathEscape(query), q, "json"), nil
}
