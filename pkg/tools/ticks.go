package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
)

func usTickDataTool() mcp.Tool {
	return mcp.NewTool("get_us_tick_data",
		mcp.WithDescription("US market tick data for a symbol over a time window."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Symbol (maps to 's'), e.g. 'AAPL'")),
		mcp.WithString("from_timestamp", mcp.Required(), mcp.Description("Window start as Unix seconds (UTC) or date string")),
		mcp.WithString("to_timestamp", mcp.Required(), mcp.Description("Window end as Unix seconds (UTC) or date string")),
		mcp.WithNumber("limit", mcp.Description("Max ticks returned; default 1000")),
		mcp.WithString("fmt", mcp.Description("'json' or 'csv'; default 'json'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleUSTickData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required (e.g., 'AAPL')."), nil
	}

	args := req.GetArguments()
	fromTS, err := eodhd.ParseTimestamp(args["from_timestamp"])
	if err != nil {
		return errResult("'from_timestamp' and 'to_timestamp' are required (UNIX seconds)."), nil
	}
	toTS, err := eodhd.ParseTimestamp(args["to_timestamp"])
	if err != nil {
		return errResult("'from_timestamp' and 'to_timestamp' are required (UNIX seconds)."), nil
	}
	if fromTS > toTS {
		return errResult("'from_timestamp' cannot be greater than 'to_timestamp'."), nil
	}

	limit := req.GetInt("limit", 1000)
	if limit <= 0 {
		return errResult("'limit' must be a positive integer."), nil
	}
	fmtParam := req.GetString("fmt", "json")
	if !contains(allowedEODFmt, fmtParam) {
		return errResult("Invalid 'fmt'. Allowed: %v", allowedEODFmt), nil
	}

	q := url.Values{}
	q.Set("s", ticker)
	q.Set("from", strconv.FormatInt(fromTS, 10))
	q.Set("to", strconv.FormatInt(toTS, 10))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fmt", fmtParam)
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/ticks/", q, fmtParam), nil
}
