package tools

import (
	"context"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// docs recommend keeping the s= list to 15-20 symbols
const maxExtraTickers = 20

func livePriceDataTool() mcp.Tool {
	return mcp.NewTool("get_live_price_data",
		mcp.WithDescription("Live (delayed) stock prices. Fetches the primary symbol and up to 20 additional symbols in one request."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Primary symbol in SYMBOL.EXCHANGE format, e.g. 'AAPL.US'")),
		mcp.WithArray("additional_symbols", mcp.Description("Extra symbols for the 's=' query parameter, e.g. ['VTI','EUR.FOREX']"), mcp.WithStringItems()),
		mcp.WithString("fmt", mcp.Description("'json' or 'csv'; default 'json'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleLivePriceData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required (e.g., 'AAPL.US')."), nil
	}
	fmtParam := req.GetString("fmt", "json")
	if !contains(allowedEODFmt, fmtParam) {
		return errResult("Invalid 'fmt'. Allowed: %v", allowedEODFmt), nil
	}

	extras := make([]string, 0)
	for _, s := range req.GetStringSlice("additional_symbols", nil) {
		s = strings.TrimSpace(s)
		if s != "" && s != ticker {
			extras = append(extras, s)
		}
	}
	if len(extras) > maxExtraTickers {
		return errResult("Too many symbols in 'additional_symbols'. Got %d, max recommended is %d.", len(extras), maxExtraTickers), nil
	}

	q := url.Values{}
	q.Set("fmt", fmtParam)
	if len(extras) > 0 {
		q.Set("s", strings.Join(extras, ","))
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/real-time/"+url.PathEscape(ticker), q, fmtParam), nil
}

func currentStockPriceTool() mcp.Tool {
	return mcp.NewTool("get_current_stock_price",
		mcp.WithDescription("Current (delayed) price for a single symbol."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Symbol in SYMBOL.EXCHANGE format, e.g. 'AAPL.US'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleCurrentStockPrice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required (e.g., 'AAPL.US')."), nil
	}
	q := url.Values{}
	q.Set("fmt", "json")
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/real-time/"+url.PathEscape(ticker), q, "json"), nil
}
