package tools

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func stockScreenerTool() mcp.Tool {
	return mcp.NewTool("stock_screener",
		mcp.WithDescription("Stock screener. Filters are [field, operation, value] triples, e.g. [[\"market_capitalization\",\">\",1000000000],[\"exchange\",\"=\",\"us\"]]. Signals are predefined flags such as 'bookvalue_neg' or '200d_new_hi'."),
		mcp.WithString("filters", mcp.Description("JSON-encoded array of [field, operation, value] triples")),
		mcp.WithString("signals", mcp.Description("Comma-separated signal names")),
		mcp.WithString("sort", mcp.Description("Sort expression, e.g. 'market_capitalization.desc'")),
		mcp.WithNumber("limit", mcp.Description("1..100, default 50")),
		mcp.WithNumber("offset", mcp.Description("0..999, default 0")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleStockScreener(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 50)
	if limit < 1 || limit > 100 {
		return errResult("'limit' must be between 1 and 100."), nil
	}
	offset := req.GetInt("offset", 0)
	if offset < 0 || offset > 999 {
		return errResult("'offset' must be between 0 and 999."), nil
	}

	filters := strings.TrimSpace(req.GetString("filters", ""))
	if filters != "" && !json.Valid([]byte(filters)) {
		return errResult("'filters' must be a JSON-encoded array of [field, operation, value] triples."), nil
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if sort := req.GetString("sort", ""); sort != "" {
		q.Set("sort", sort)
	}
	if filters != "" {
		q.Set("filters", filters)
	}
	if signals := strings.TrimSpace(req.GetString("signals", "")); signals != "" {
		q.Set("signals", signals)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/screener", q, "json"), nil
}
