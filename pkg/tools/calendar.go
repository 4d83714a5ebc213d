package tools

import (
	"context"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
)

// symbolsArg accepts either a comma-separated string or a string array.
func symbolsArg(req mcp.CallToolRequest, key string) string {
	args := req.GetArguments()
	switch v := args[key].(type) {
	case string:
		return strings.ReplaceAll(v, " ", "")
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return eodhd.NormalizeSymbols(parts)
	default:
		return ""
	}
}

func upcomingEarningsTool() mcp.Tool {
	return mcp.NewTool("get_upcoming_earnings",
		mcp.WithDescription("Upcoming earnings calendar, optionally filtered by date range or symbols."),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD, maps to 'from' (ignored when symbols given)")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD, maps to 'to' (ignored when symbols given)")),
		mcp.WithString("symbols", mcp.Description("Comma-separated symbols, e.g. 'AAPL.US,MSFT.US'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleUpcomingEarnings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startDate := req.GetString("start_date", "")
	endDate := req.GetString("end_date", "")
	if res := validateDateRange(startDate, endDate, "start_date", "end_date"); res != nil {
		return res, nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	if symbols := symbolsArg(req, "symbols"); symbols != "" {
		// symbol filtering and date windows are mutually exclusive upstream
		q.Set("symbols", symbols)
	} else {
		if startDate != "" {
			q.Set("from", startDate)
		}
		if endDate != "" {
			q.Set("to", endDate)
		}
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/calendar/earnings", q, "json"), nil
}

func earningsTrendsTool() mcp.Tool {
	return mcp.NewTool("get_earnings_trends",
		mcp.WithDescription("Earnings trend estimates for one or more symbols."),
		mcp.WithString("symbols", mcp.Required(), mcp.Description("Comma-separated symbols, e.g. 'AAPL.US,MSFT.US'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleEarningsTrends(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbols := symbolsArg(req, "symbols")
	if symbols == "" {
		return errResult("Parameter 'symbols' is required (comma-separated string)."), nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("symbols", symbols)
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/calendar/trends", q, "json"), nil
}

func upcomingIPOsTool() mcp.Tool {
	return mcp.NewTool("get_upcoming_ipos",
		mcp.WithDescription("IPO calendar for the given date window."),
		mcp.WithString("from_date", mcp.Description("YYYY-MM-DD, maps to 'from'")),
		mcp.WithString("to_date", mcp.Description("YYYY-MM-DD, maps to 'to'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleUpcomingIPOs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fromDate := req.GetString("from_date", "")
	toDate := req.GetString("to_date", "")
	if res := validateDateRange(fromDate, toDate, "from_date", "to_date"); res != nil {
		return res, nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	if fromDate != "" {
		q.Set("from", fromDate)
	}
	if toDate != "" {
		q.Set("to", toDate)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/calendar/ipos", q, "json"), nil
}

func upcomingSplitsTool() mcp.Tool {
	return mcp.NewTool("get_upcoming_splits",
		mcp.WithDescription("Stock split calendar for the given date window."),
		mcp.WithString("from_date", mcp.Description("YYYY-MM-DD, maps to 'from'")),
		mcp.WithString("to_date", mcp.Description("YYYY-MM-DD, maps to 'to'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleUpcomingSplits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fromDate := req.GetString("from_date", "")
	toDate := req.GetString("to_date", "")
	if res := validateDateRange(fromDate, toDate, "from_date", "to_date"); res != nil {
		return res, nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	if fromDate != "" {
		q.Set("from", fromDate)
	}
	if toDate != "" {
		q.Set("to", toDate)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/calendar/splits", q, "json"), nil
}
