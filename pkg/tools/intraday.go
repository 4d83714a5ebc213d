package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
)

var allowedIntervals = []string{"1m", "5m", "1h"}

// maximum from->to span per interval, in days (per upstream docs)
var maxRangeDays = map[string]int64{
	"1m": 120,
	"5m": 600,
	"1h": 7200,
}

func intradayHistoricalDataTool() mcp.Tool {
	return mcp.NewTool("get_intraday_historical_data",
		mcp.WithDescription("Intraday historical price data. Without from/to the API returns the last 120 days. Max span: 1m -> 120 days, 5m -> 600 days, 1h -> 7200 days."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Symbol in SYMBOL.EXCHANGE format, e.g. 'AAPL.US'")),
		mcp.WithString("interval", mcp.Description("One of '1m', '5m', '1h'; default '5m'")),
		mcp.WithString("from_timestamp", mcp.Description("Start as Unix seconds or a date string (auto-detected), e.g. 1704067200, '2024-01-01', '2024-01-01T15:30:00Z'")),
		mcp.WithString("to_timestamp", mcp.Description("End as Unix seconds or a date string (auto-detected)")),
		mcp.WithString("fmt", mcp.Description("'json' or 'csv'; default 'json'")),
		mcp.WithBoolean("split_dt", mcp.Description("Adds split-dt=1 to split date and time fields")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleIntradayHistoricalData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required (e.g., 'AAPL.US')."), nil
	}
	interval := req.GetString("interval", "5m")
	if !contains(allowedIntervals, interval) {
		return errResult("Invalid 'interval'. Allowed: %v", allowedIntervals), nil
	}
	fmtParam := req.GetString("fmt", "json")
	if !contains(allowedEODFmt, fmtParam) {
		return errResult("Invalid 'fmt'. Allowed: %v", allowedEODFmt), nil
	}

	var fromTS, toTS int64
	args := req.GetArguments()
	if raw, ok := args["from_timestamp"]; ok && raw != nil && raw != "" {
		fromTS, err = eodhd.ParseTimestamp(raw)
		if err != nil {
			return errResult("'from_timestamp' (or its string form) is not a valid date/time."), nil
		}
	}
	if raw, ok := args["to_timestamp"]; ok && raw != nil && raw != "" {
		toTS, err = eodhd.ParseTimestamp(raw)
		if err != nil {
			return errResult("'to_timestamp' (or its string form) is not a valid date/time."), nil
		}
	}
	if fromTS > 0 && toTS > 0 {
		if fromTS > toTS {
			return errResult("'from_timestamp' cannot be greater than 'to_timestamp'."), nil
		}
		if toTS-fromTS > maxRangeDays[interval]*86400 {
			return errResult("Requested range exceeds maximum for interval '%s'. Max is %d days.", interval, maxRangeDays[interval]), nil
		}
	}

	q := url.Values{}
	q.Set("fmt", fmtParam)
	q.Set("interval", interval)
	if fromTS > 0 {
		q.Set("from", strconv.FormatInt(fromTS, 10))
	}
	if toTS > 0 {
		q.Set("to", strconv.FormatInt(toTS, 10))
	}
	if req.GetBool("split_dt", false) {
		q.Set("split-dt", "1")
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/intraday/"+url.PathEscape(ticker), q, fmtParam), nil
}
