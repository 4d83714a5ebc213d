package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

func insiderTransactionsTool() mcp.Tool {
	return mcp.NewTool("get_insider_transactions",
		mcp.WithDescription("Insider transactions reported to the SEC, optionally filtered by symbol and date window."),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD, maps to 'from'")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD, maps to 'to'")),
		mcp.WithNumber("limit", mcp.Description("1..1000, default 100")),
		mcp.WithString("symbol", mcp.Description("Symbol filter (maps to 'code'), e.g. 'AAPL' or 'AAPL.US'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleInsiderTransactions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startDate := req.GetString("start_date", "")
	endDate := req.GetString("end_date", "")
	if res := validateDateRange(startDate, endDate, "start_date", "end_date"); res != nil {
		return res, nil
	}
	limit := req.GetInt("limit", 100)
	if limit < 1 || limit > 1000 {
		return errResult("'limit' must be an integer between 1 and 1000."), nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("limit", strconv.Itoa(limit))
	if startDate != "" {
		q.Set("from", startDate)
	}
	if endDate != "" {
		q.Set("to", endDate)
	}
	if symbol := req.GetString("symbol", ""); symbol != "" {
		q.Set("code", symbol)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/insider-transactions", q, "json"), nil
}
