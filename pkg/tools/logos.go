package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

func stockMarketLogosTool() mcp.Tool {
	return mcp.NewTool("get_stock_market_logos",
		mcp.WithDescription("Company logo (raster) lookup for a symbol."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Symbol in SYMBOL.EXCHANGE format, e.g. 'AAPL.US', 'BMW.XETRA'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleStockMarketLogos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := req.RequireString("symbol")
	if err != nil || symbol == "" {
		return errResult("Parameter 'symbol' is required (e.g., 'AAPL.US')."), nil
	}
	q := url.Values{}
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/logo/"+url.PathEscape(symbol), q, "json"), nil
}

func stockMarketLogosSVGTool() mcp.Tool {
	return mcp.NewTool("get_stock_market_logos_svg",
		mcp.WithDescription("Company logo (SVG) lookup for a symbol."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Symbol in SYMBOL.EXCHANGE format, e.g. 'AAPL.US', 'RY.TO'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleStockMarketLogosSVG(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := req.RequireString("symbol")
	if err != nil || symbol == "" {
		return errResult("Parameter 'symbol' is required (e.g., 'AAPL.US')."), nil
	}
	q := url.Values{}
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/logo-svg/"+url.PathEscape(symbol), q, "json"), nil
}
