package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
)

var (
	allowedOptionsSort = []string{"exp_date", "strike", "-exp_date", "-strike"}
	allowedOptionTypes = []string{"put", "call"}
)

func mpTickDataTool() mcp.Tool {
	return mcp.NewTool("get_mp_tick_data",
		mcp.WithDescription("Marketplace (UnicornBay) tick data for a symbol."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Symbol (maps to 's'), e.g. 'AAPL'")),
		mcp.WithString("from_timestamp", mcp.Description("Window start as Unix seconds (UTC) or date string")),
		mcp.WithString("to_timestamp", mcp.Description("Window end as Unix seconds (UTC) or date string")),
		mcp.WithNumber("limit", mcp.Description("1..10000")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleMPTickData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := req.RequireString("ticker")
	if err != nil || ticker == "" {
		return errResult("Parameter 'ticker' is required (e.g., 'AAPL')."), nil
	}

	q := url.Values{}
	q.Set("s", ticker)

	args := req.GetArguments()
	if raw, ok := args["from_timestamp"]; ok && raw != nil && raw != "" {
		ts, perr := eodhd.ParseTimestamp(raw)
		if perr != nil {
			return errResult("'from_timestamp' is not a valid date/time."), nil
		}
		q.Set("from", strconv.FormatInt(ts, 10))
	}
	if raw, ok := args["to_timestamp"]; ok && raw != nil && raw != "" {
		ts, perr := eodhd.ParseTimestamp(raw)
		if perr != nil {
			return errResult("'to_timestamp' is not a valid date/time."), nil
		}
		q.Set("to", strconv.FormatInt(ts, 10))
	}
	if limit := req.GetInt("limit", 0); limit != 0 {
		if limit < 1 || limit > 10000 {
			return errResult("'limit' must be between 1 and 10000."), nil
		}
		q.Set("limit", strconv.Itoa(limit))
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/mp/unicornbay/tickdata/ticks", q, "json"), nil
}

// optionsFilterParams maps tool arguments onto the JSON-API style
// filter[...] query parameters shared by the options endpoints.
func optionsFilterParams(req mcp.CallToolRequest, q url.Values) *mcp.CallToolResult {
	stringFilters := []struct{ arg, param string }{
		{"contract", "filter[contract]"},
		{"underlying_symbol", "filter[underlying_symbol]"},
		{"exp_date_eq", "filter[exp_date_eq]"},
		{"exp_date_from", "filter[exp_date_from]"},
		{"exp_date_to", "filter[exp_date_to]"},
		{"tradetime_eq", "filter[tradetime_eq]"},
		{"tradetime_from", "filter[tradetime_from]"},
		{"tradetime_to", "filter[tradetime_to]"},
	}
	for _, f := range stringFilters {
		if v := req.GetString(f.arg, ""); v != "" {
			q.Set(f.param, v)
		}
	}

	if optType := req.GetString("type", ""); optType != "" {
		if !contains(allowedOptionTypes, optType) {
			return errResult("Invalid 'type'. Allowed: %v", allowedOptionTypes)
		}
		q.Set("filter[type]", optType)
	}

	floatFilters := []struct{ arg, param string }{
		{"strike_eq", "filter[strike_eq]"},
		{"strike_from", "filter[strike_from]"},
		{"strike_to", "filter[strike_to]"},
	}
	for _, f := range floatFilters {
		if v := req.GetFloat(f.arg, 0); v != 0 {
			q.Set(f.param, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}

	if sort := req.GetString("sort", ""); sort != "" {
		if !contains(allowedOptionsSort, sort) {
			return errResult("Invalid 'sort'. Allowed: %v", allowedOptionsSort)
		}
		q.Set("sort", sort)
	}

	pageOffset := req.GetInt("page_offset", 0)
	if pageOffset < 0 || pageOffset > 10000 {
		return errResult("'page_offset' must be between 0 and 10000.")
	}
	pageLimit := req.GetInt("page_limit", 1000)
	if pageLimit < 1 || pageLimit > 1000 {
		return errResult("'page_limit' must be between 1 and 1000.")
	}
	q.Set("page[offset]", strconv.Itoa(pageOffset))
	q.Set("page[limit]", strconv.Itoa(pageLimit))
	return nil
}

func optionsToolParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("underlying_symbol", mcp.Description("Maps to filter[underlying_symbol], e.g. 'AAPL'")),
		mcp.WithString("contract", mcp.Description("Maps to filter[contract], e.g. 'AAPL240621C00190000'")),
		mcp.WithString("exp_date_eq", mcp.Description("YYYY-MM-DD expiration equals filter")),
		mcp.WithString("exp_date_from", mcp.Description("YYYY-MM-DD expiration lower bound")),
		mcp.WithString("exp_date_to", mcp.Description("YYYY-MM-DD expiration upper bound")),
		mcp.WithString("tradetime_eq", mcp.Description("YYYY-MM-DD trade time equals filter")),
		mcp.WithString("tradetime_from", mcp.Description("YYYY-MM-DD trade time lower bound")),
		mcp.WithString("tradetime_to", mcp.Description("YYYY-MM-DD trade time upper bound")),
		mcp.WithString("type", mcp.Description("'put' or 'call'")),
		mcp.WithNumber("strike_eq", mcp.Description("Strike equals filter")),
		mcp.WithNumber("strike_from", mcp.Description("Strike lower bound")),
		mcp.WithNumber("strike_to", mcp.Description("Strike upper bound")),
		mcp.WithString("sort", mcp.Description("exp_date, strike, -exp_date or -strike")),
		mcp.WithNumber("page_offset", mcp.Description("page[offset], 0..10000")),
		mcp.WithNumber("page_limit", mcp.Description("page[limit], 1..1000, default 1000")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	}
}

func usOptionsContractsTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("US options contract reference data (UnicornBay marketplace)."),
	}, optionsToolParams()...)
	return mcp.NewTool("get_us_options_contracts", opts...)
}

func (d Deps) handleUSOptionsContracts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := url.Values{}
	if res := optionsFilterParams(req, q); res != nil {
		return res, nil
	}
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/mp/unicornbay/options/contracts", q, "json"), nil
}

func usOptionsEODTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("End-of-day US options data (UnicornBay marketplace)."),
	}, optionsToolParams()...)
	return mcp.NewTool("get_us_options_eod", opts...)
}

func (d Deps) handleUSOptionsEOD(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := url.Values{}
	if res := optionsFilterParams(req, q); res != nil {
		return res, nil
	}
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/mp/unicornbay/options/eod", q, "json"), nil
}

func usOptionsUnderlyingsTool() mcp.Tool {
	return mcp.NewTool("get_us_options_underlyings",
		mcp.WithDescription("All underlying symbols that have listed options (UnicornBay marketplace)."),
		mcp.WithNumber("page_offset", mcp.Description("page[offset]")),
		mcp.WithNumber("page_limit", mcp.Description("page[limit]")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleUSOptionsUnderlyings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := url.Values{}
	if offset := req.GetInt("page_offset", 0); offset > 0 {
		q.Set("page[offset]", strconv.Itoa(offset))
	}
	if limit := req.GetInt("page_limit", 0); limit > 0 {
		q.Set("page[limit]", strconv.Itoa(limit))
	}
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/mp/unicornbay/options/underlying-symbols", q, "json"), nil
}

func mpIndicesListTool() mcp.Tool {
	return mcp.NewTool("mp_indices_list",
		mcp.WithDescription("S&P Global indices available through the UnicornBay marketplace."),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleMPIndicesList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := url.Values{}
	q.Set("fmt", "json")
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/mp/unicornbay/spglobal/list", q, "json"), nil
}

func mpIndexComponentsTool() mcp.Tool {
	return mcp.NewTool("mp_index_components",
		mcp.WithDescription("Constituents of an S&P Global index (UnicornBay marketplace)."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Index symbol from mp_indices_list, e.g. 'GSPC.INDX'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleMPIndexComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := req.RequireString("symbol")
	if err != nil || symbol == "" {
		return errResult("Parameter 'symbol' is required (e.g., 'GSPC.INDX')."), nil
	}
	q := url.Values{}
	q.Set("fmt", "json")
	applyTokenOverride(req, q)
	return d.fetch(ctx, "/mp/unicornbay/spglobal/comp/"+url.PathEscape(symbol), q, "json"), nil
}
