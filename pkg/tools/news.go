package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

var allowedNewsFmt = []string{"json", "xml"}

func companyNewsTool() mcp.Tool {
	return mcp.NewTool("get_company_news",
		mcp.WithDescription("Financial news articles filtered by symbol or topic tag. At least one of 'ticker' or 'tag' is required."),
		mcp.WithString("ticker", mcp.Description("Symbol in SYMBOL.EXCHANGE format (maps to 's'), e.g. 'AAPL.US'")),
		mcp.WithString("tag", mcp.Description("Topic tag (maps to 't'), e.g. 'technology'")),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD, maps to 'from'")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD, maps to 'to'")),
		mcp.WithNumber("limit", mcp.Description("1..1000, default 50")),
		mcp.WithNumber("offset", mcp.Description("Non-negative pagination offset, default 0")),
		mcp.WithString("fmt", mcp.Description("'json' or 'xml'; default 'json'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleCompanyNews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker := req.GetString("ticker", "")
	tag := req.GetString("tag", "")
	if ticker == "" && tag == "" {
		return errResult("Provide at least one of 'ticker' (s) or 'tag' (t)."), nil
	}

	fmtParam := req.GetString("fmt", "json")
	if !contains(allowedNewsFmt, fmtParam) {
		return errResult("Invalid 'fmt'. Allowed: %v", allowedNewsFmt), nil
	}

	startDate := req.GetString("start_date", "")
	endDate := req.GetString("end_date", "")
	if res := validateDateRange(startDate, endDate, "start_date", "end_date"); res != nil {
		return res, nil
	}

	limit := req.GetInt("limit", 50)
	if limit < 1 || limit > 1000 {
		return errResult("'limit' must be an integer between 1 and 1000."), nil
	}
	offset := req.GetInt("offset", 0)
	if offset < 0 {
		return errResult("'offset' must be a non-negative integer."), nil
	}

	q := url.Values{}
	q.Set("fmt", fmtParam)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if ticker != "" {
		q.Set("s", ticker)
	}
	if tag != "" {
		q.Set("t", tag)
	}
	if startDate != "" {
		q.Set("from", startDate)
	}
	if endDate != "" {
		q.Set("to", endDate)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/news", q, fmtParam), nil
}

func sentimentDataTool() mcp.Tool {
	return mcp.NewTool("get_sentiment_data",
		mcp.WithDescription("Aggregated news sentiment grouped by ticker."),
		mcp.WithString("symbols", mcp.Required(), mcp.Description("One or more comma-separated tickers, e.g. 'AAPL.US,BTC-USD.CC'")),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD, maps to 'from'")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD, maps to 'to'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleSentimentData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbols, err := req.RequireString("symbols")
	if err != nil || symbols == "" {
		return errResult("Parameter 'symbols' is required (comma-separated string)."), nil
	}
	startDate := req.GetString("start_date", "")
	endDate := req.GetString("end_date", "")
	if res := validateDateRange(startDate, endDate, "start_date", "end_date"); res != nil {
		return res, nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("s", symbols)
	if startDate != "" {
		q.Set("from", startDate)
	}
	if endDate != "" {
		q.Set("to", endDate)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/sentiments", q, "json"), nil
}

func newsWordWeightsTool() mcp.Tool {
	return mcp.NewTool("get_news_word_weights",
		mcp.WithDescription("Weighted word statistics from news coverage of a symbol."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Symbol in SYMBOL.EXCHANGE format (maps to 's')")),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD, maps to filter[date_from]")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD, maps to filter[date_to]")),
		mcp.WithNumber("limit", mcp.Description("Maps to page[limit]")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleNewsWordWeights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required (e.g., 'AAPL.US')."), nil
	}
	startDate := req.GetString("start_date", "")
	endDate := req.GetString("end_date", "")
	if res := validateDateRange(startDate, endDate, "start_date", "end_date"); res != nil {
		return res, nil
	}

	q := url.Values{}
	q.Set("s", ticker)
	q.Set("fmt", "json")
	if startDate != "" {
		q.Set("filter[date_from]", startDate)
	}
	if endDate != "" {
		q.Set("filter[date_to]", endDate)
	}
	if limit := req.GetInt("limit", 0); limit > 0 {
		q.Set("page[limit]", strconv.Itoa(limit))
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/news-word-weights", q, "json"), nil
}
