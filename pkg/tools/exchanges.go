package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

var allowedTickerTypes = []string{"common_stock", "preferred_stock", "stock", "etf", "fund"}

func exchangesListTool() mcp.Tool {
	return mcp.NewTool("get_exchanges_list",
		mcp.WithDescription("List of all supported exchanges with code, country and currency."),
		mcp.WithString("fmt", mcp.Description("'json' or 'csv'; default 'json'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleExchangesList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fmtParam := req.GetString("fmt", "json")
	if !contains(allowedEODFmt, fmtParam) {
		return errResult("Invalid 'fmt'. Allowed: %v", allowedEODFmt), nil
	}
	q := url.Values{}
	q.Set("fmt", fmtParam)
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/exchanges-list/", q, fmtParam), nil
}

func exchangeTickersTool() mcp.Tool {
	return mcp.NewTool("get_exchange_tickers",
		mcp.WithDescription("All symbols traded on an exchange, optionally including delisted ones."),
		mcp.WithString("exchange_code", mcp.Required(), mcp.Description("Exchange code, e.g. 'US', 'LSE', 'XETRA'")),
		mcp.WithBoolean("delisted", mcp.Description("Include delisted symbols (adds delisted=1)")),
		mcp.WithString("type", mcp.Description("Filter by instrument type: common_stock, preferred_stock, stock, etf, fund")),
		mcp.WithString("fmt", mcp.Description("'json' or 'csv'; default 'json'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleExchangeTickers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("exchange_code")
	if err != nil || code == "" {
		return errResult("Parameter 'exchange_code' is required (e.g., 'US')."), nil
	}
	fmtParam := req.GetString("fmt", "json")
	if !contains(allowedEODFmt, fmtParam) {
		return errResult("Invalid 'fmt'. Allowed: %v", allowedEODFmt), nil
	}
	typeParam := req.GetString("type", "")
	if typeParam != "" && !contains(allowedTickerTypes, typeParam) {
		return errResult("Invalid 'type'. Allowed: %v", allowedTickerTypes), nil
	}

	q := url.Values{}
	q.Set("fmt", fmtParam)
	if req.GetBool("delisted", false) {
		q.Set("delisted", "1")
	}
	if typeParam != "" {
		q.Set("type", typeParam)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/exchange-symbol-list/"+url.PathEscape(code), q, fmtParam), nil
}

func exchangeDetailsTool() mcp.Tool {
	return mcp.NewTool("get_exchange_details",
		mcp.WithDescription("Exchange details including trading hours and holidays."),
		mcp.WithString("exchange_code", mcp.Required(), mcp.Description("Exchange code, e.g. 'US', 'LSE', 'XETRA'")),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD, maps to 'from' (holiday window)")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD, maps to 'to' (holiday window)")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleExchangeDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("exchange_code")
	if err != nil || code == "" {
		return errResult("Parameter 'exchange_code' is required (e.g., 'US')."), nil
	}
	startDate := req.GetString("start_date", "")
	endDate := req.GetString("end_date", "")
	if res := validateDateRange(startDate, endDate, "start_date", "end_date"); res != nil {
		return res, nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	if startDate != "" {
		q.Set("from", startDate)
	}
	if endDate != "" {
		q.Set("to", endDate)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/exchange-details/"+url.PathEscape(code), q, "json"), nil
}

func symbolChangeHistoryTool() mcp.Tool {
	return mcp.NewTool("get_symbol_change_history",
		mcp.WithDescription("History of ticker symbol changes across exchanges."),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD, maps to 'from'")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD, maps to 'to'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleSymbolChangeHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startDate := req.GetString("start_date", "")
	endDate := req.GetString("end_date", "")
	if res := validateDateRange(startDate, endDate, "start_date", "end_date"); res != nil {
		return res, nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	if startDate != "" {
		q.Set("from", startDate)
	}
	if endDate != "" {
		q.Set("to", endDate)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/symbol-change-history", q, "json"), nil
}
