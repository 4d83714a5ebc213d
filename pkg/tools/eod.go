package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	allowedPeriods = []string{"d", "w", "m"}
	allowedOrder   = []string{"a", "d"}
	allowedEODFmt  = []string{"json", "csv"}
)

func historicalStockPricesTool() mcp.Tool {
	return mcp.NewTool("get_historical_stock_prices",
		mcp.WithDescription("End-of-day historical stock market data (EOD). Returns OHLCV rows for a symbol, optionally bounded by a date range."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Symbol in SYMBOL.EXCHANGE format, e.g. 'AAPL.US'")),
		mcp.WithString("start_date", mcp.Description("'from' date in YYYY-MM-DD; omit for full history (plan limits apply)")),
		mcp.WithString("end_date", mcp.Description("'to' date in YYYY-MM-DD; omit for most recent")),
		mcp.WithString("period", mcp.Description("'d' (daily), 'w' (weekly) or 'm' (monthly); default 'd'")),
		mcp.WithString("order", mcp.Description("'a' ascending or 'd' descending; default 'a'")),
		mcp.WithString("fmt", mcp.Description("'json' or 'csv'; default 'json'")),
		mcp.WithString("filter", mcp.Description("Single-value filter such as 'last_close' or 'last_volume' (json only)")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleHistoricalStockPrices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required and must be a string (e.g., 'AAPL.US')."), nil
	}

	period := req.GetString("period", "d")
	if !contains(allowedPeriods, period) {
		return errResult("Invalid 'period'. Allowed values: %v", allowedPeriods), nil
	}
	order := req.GetString("order", "a")
	if !contains(allowedOrder, order) {
		return errResult("Invalid 'order'. Allowed values: %v", allowedOrder), nil
	}
	fmtParam := req.GetString("fmt", "json")
	if !contains(allowedEODFmt, fmtParam) {
		return errResult("Invalid 'fmt'. Allowed values: %v", allowedEODFmt), nil
	}

	startDate := req.GetString("start_date", "")
	endDate := req.GetString("end_date", "")
	if res := validateDateRange(startDate, endDate, "start_date", "end_date"); res != nil {
		return res, nil
	}

	q := url.Values{}
	q.Set("period", period)
	q.Set("order", order)
	q.Set("fmt", fmtParam)
	if startDate != "" {
		q.Set("from", startDate)
	}
	if endDate != "" {
		q.Set("to", endDate)
	}
	if filter := req.GetString("filter", ""); filter != "" {
		q.Set("filter", filter)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/eod/"+url.PathEscape(ticker), q, fmtParam), nil
}
