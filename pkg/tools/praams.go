package tools

import (
	"context"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func praamsReportEquityTool() mcp.Tool {
	return mcp.NewTool("get_mp_praams_report_equity_by_ticker",
		mcp.WithDescription("PRAAMS analytical risk report for an equity (marketplace add-on). The report is delivered to the given email address."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Equity symbol, e.g. 'AAPL.US'")),
		mcp.WithString("email", mcp.Required(), mcp.Description("Delivery address for the generated report")),
		mcp.WithBoolean("is_full", mcp.Description("Request the full report instead of the summary")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handlePraamsReportEquity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required (e.g., 'AAPL.US')."), nil
	}
	email, err := req.RequireString("email")
	if err != nil || !strings.Contains(email, "@") {
		return errResult("Parameter 'email' is required and must be a valid address."), nil
	}

	q := url.Values{}
	q.Set("email", email)
	if req.GetBool("is_full", false) {
		q.Set("isFull", "true")
	} else {
		q.Set("isFull", "false")
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/mp/praams/reports/equity/ticker/"+url.PathEscape(ticker), q, "json"), nil
}

func praamsReportBondTool() mcp.Tool {
	return mcp.NewTool("get_mp_praams_report_bond_by_isin",
		mcp.WithDescription("PRAAMS analytical risk report for a bond by ISIN (marketplace add-on). The report is delivered to the given email address."),
		mcp.WithString("isin", mcp.Required(), mcp.Description("Bond ISIN, e.g. 'US912828YV68'")),
		mcp.WithString("email", mcp.Required(), mcp.Description("Delivery address for the generated report")),
		mcp.WithBoolean("is_full", mcp.Description("Request the full report instead of the summary")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handlePraamsReportBond(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	isin, err := req.RequireString("isin")
	if err != nil || isin == "" {
		return errResult("Parameter 'isin' is required (e.g., 'US912828YV68')."), nil
	}
	email, err := req.RequireString("email")
	if err != nil || !strings.Contains(email, "@") {
		return errResult("Parameter 'email' is required and must be a valid address."), nil
	}

	q := url.Values{}
	q.Set("email", email)
	if req.GetBool("is_full", false) {
		q.Set("isFull", "true")
	} else {
		q.Set("isFull", "false")
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/mp/praams/reports/bond/"+url.PathEscape(isin), q, "json"), nil
}
