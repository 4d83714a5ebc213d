package tools

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

var allowedStatementPeriods = []string{"annual", "quarterly"}

func fundamentalsDataTool() mcp.Tool {
	return mcp.NewTool("get_fundamentals_data",
		mcp.WithDescription("Company fundamentals: general profile, highlights, valuation, earnings and financial statements. Use 'sections' to fetch a subset, e.g. [\"General\",\"Highlights\",\"Earnings\"]."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Symbol in SYMBOL.EXCHANGE format, e.g. 'AAPL.US', 'GSPC.INDX'")),
		mcp.WithArray("sections", mcp.Description("Top-level sections to fetch (maps to 'filter'); omit for the full document"), mcp.WithStringItems()),
		mcp.WithString("filter", mcp.Description("Raw filter expression, e.g. 'Financials::Balance_Sheet::quarterly'; overrides 'sections'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleFundamentalsData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required (e.g., 'AAPL.US')."), nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	if filter := req.GetString("filter", ""); filter != "" {
		q.Set("filter", filter)
	} else if sections := req.GetStringSlice("sections", nil); len(sections) > 0 {
		q.Set("filter", strings.Join(sections, ","))
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/fundamentals/"+url.PathEscape(ticker), q, "json"), nil
}

func balanceSheetsTool() mcp.Tool {
	return mcp.NewTool("get_balance_sheets",
		mcp.WithDescription("Most recent balance sheets for a company, newest first."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Symbol in SYMBOL.EXCHANGE format, e.g. 'AAPL.US'")),
		mcp.WithString("period", mcp.Description("'annual' or 'quarterly'; default 'annual'")),
		mcp.WithNumber("limit", mcp.Description("Number of statements to return; default 4")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleBalanceSheets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return d.handleFinancialStatements(ctx, req, "Balance_Sheet", "balance sheets")
}

func cashFlowStatementsTool() mcp.Tool {
	return mcp.NewTool("get_cash_flow_statements",
		mcp.WithDescription("Most recent cash flow statements for a company, newest first."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Symbol in SYMBOL.EXCHANGE format, e.g. 'AAPL.US'")),
		mcp.WithString("period", mcp.Description("'annual' or 'quarterly'; default 'annual'")),
		mcp.WithNumber("limit", mcp.Description("Number of statements to return; default 4")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleCashFlowStatements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return d.handleFinancialStatements(ctx, req, "Cash_Flow", "cash flow statements")
}

// handleFinancialStatements pulls the fundamentals document and extracts
// Financials.{statement}.{period}, newest dates first. The one place this
// server goes beyond pure pass-through, kept for caller convenience.
func (d Deps) handleFinancialStatements(ctx context.Context, req mcp.CallToolRequest, statement, label string) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required (e.g., 'AAPL.US')."), nil
	}
	period := req.GetString("period", "annual")
	if !contains(allowedStatementPeriods, period) {
		return errResult("Invalid 'period'. Allowed: %v", allowedStatementPeriods), nil
	}
	limit := req.GetInt("limit", 4)
	if limit < 1 {
		return errResult("'limit' must be a positive integer."), nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	applyTokenOverride(req, q)

	body, ferr := d.Client.Get(ctx, "/fundamentals/"+url.PathEscape(ticker), q)
	if ferr != nil {
		return errResult("%s", ferr.Error()), nil
	}

	var doc struct {
		Financials map[string]map[string]map[string]json.RawMessage `json:"Financials"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return errResult("Unable to fetch or parse %s.", label), nil
	}
	byDate := doc.Financials[statement][period]
	if len(byDate) == 0 {
		return errResult("Unable to fetch or parse %s.", label), nil
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > limit {
		dates = dates[:limit]
	}

	out := make([]json.RawMessage, 0, len(dates))
	for _, date := range dates {
		out = append(out, byDate[date])
	}
	encoded, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(encoded)), nil
}

func bulkFundamentalsTool() mcp.Tool {
	return mcp.NewTool("get_bulk_fundamentals",
		mcp.WithDescription("Bulk fundamentals for a whole exchange or a symbol list."),
		mcp.WithString("exchange", mcp.Required(), mcp.Description("Exchange code, e.g. 'NASDAQ', 'NYSE', 'US', 'LSE'")),
		mcp.WithString("symbols", mcp.Description("Comma-separated symbol list, e.g. 'AAPL,MSFT,GOOG'")),
		mcp.WithNumber("offset", mcp.Description("Pagination start; default 0")),
		mcp.WithNumber("limit", mcp.Description("Max symbols per page; default 500, max 500")),
		mcp.WithString("version", mcp.Description("API output version, e.g. '1.2' for single-symbol-like output")),
		mcp.WithString("fmt", mcp.Description("'json' or 'csv'; default 'json'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleBulkFundamentals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exchange, err := req.RequireString("exchange")
	if err != nil || exchange == "" {
		return errResult("Parameter 'exchange' is required (e.g., 'NASDAQ')."), nil
	}
	fmtParam := req.GetString("fmt", "json")
	if !contains(allowedEODFmt, fmtParam) {
		return errResult("Invalid 'fmt'. Allowed: %v", allowedEODFmt), nil
	}

	q := url.Values{}
	q.Set("fmt", fmtParam)
	if symbols := strings.TrimSpace(req.GetString("symbols", "")); symbols != "" {
		q.Set("symbols", symbols)
	}
	if offset := req.GetInt("offset", 0); offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if limit := req.GetInt("limit", 0); limit > 0 {
		if limit > 500 {
			return errResult("'limit' must not exceed 500."), nil
		}
		q.Set("limit", strconv.Itoa(limit))
	}
	if version := req.GetString("version", ""); version != "" {
		q.Set("version", version)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/bulk-fundamentals/"+url.PathEscape(exchange), q, fmtParam), nil
}

func historicalMarketCapTool() mcp.Tool {
	return mcp.NewTool("get_historical_market_cap",
		mcp.WithDescription("Weekly historical market capitalization for a symbol."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Symbol, e.g. 'AAPL' or 'AAPL.US'")),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD, maps to 'from'")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD, maps to 'to'")),
		mcp.WithString("fmt", mcp.Description("'json' or 'csv'; default 'json'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleHistoricalMarketCap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required (e.g., 'AAPL.US')."), nil
	}
	fmtParam := req.GetString("fmt", "json")
	if !contains(allowedEODFmt, fmtParam) {
		return errResult("Invalid 'fmt'. Allowed: %v", allowedEODFmt), nil
	}
	startDate := req.GetString("start_date", "")
	endDate := req.GetString("end_date", "")
	if res := validateDateRange(startDate, endDate, "start_date", "end_date"); res != nil {
		return res, nil
	}

	q := url.Values{}
	q.Set("fmt", fmtParam)
	if startDate != "" {
		q.Set("from", startDate)
	}
	if endDate != "" {
		q.Set("to", endDate)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/historical-market-cap/"+url.PathEscape(ticker), q, fmtParam), nil
}
