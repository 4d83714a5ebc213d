package tools

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func ustLongTermRatesTool() mcp.Tool {
	return mcp.NewTool("get_ust_long_term_rates",
		mcp.WithDescription("US Treasury long-term rates, optionally filtered by year."),
		mcp.WithNumber("year", mcp.Description("Maps to filter[year], e.g. 2024")),
		mcp.WithNumber("limit", mcp.Description("Maps to page[limit]")),
		mcp.WithNumber("offset", mcp.Description("Maps to page[offset]")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleUSTLongTermRates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := url.Values{}
	if year := req.GetInt("year", 0); year != 0 {
		if year < 1990 || year > time.Now().Year()+1 {
			return errResult("'year' is out of range."), nil
		}
		q.Set("filter[year]", strconv.Itoa(year))
	}
	if limit := req.GetInt("limit", 0); limit > 0 {
		q.Set("page[limit]", strconv.Itoa(limit))
	}
	if offset := req.GetInt("offset", 0); offset > 0 {
		q.Set("page[offset]", strconv.Itoa(offset))
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/ust/long-term-rates", q, "json"), nil
}
