package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
)

// upstreamCall records what a handler actually sent upstream.
type upstreamCall struct {
	path  string
	query url.Values
}

// newTestDeps returns Deps wired to a fake upstream. respond may be nil, in
// which case the upstream answers {"ok":true}.
func newTestDeps(t *testing.T, respond http.HandlerFunc) (Deps, *upstreamCall) {
	t.Helper()
	call := &upstreamCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call.path = r.URL.Path
		call.query = r.URL.Query()
		if respond != nil {
			respond(w, r)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	return Deps{
		Client: eodhd.NewClient(srv.URL, "test-key", zerolog.Nop()),
		WSBase: "ws://unused",
		Logger: zerolog.Nop(),
	}, call
}

func callReq(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func errMsgOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &payload))
	return payload["error"]
}

func TestHistoricalStockPricesQuery(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	res, err := deps.handleHistoricalStockPrices(context.Background(), callReq("get_historical_stock_prices", map[string]interface{}{
		"ticker":     "AAPL.US",
		"start_date": "2024-01-01",
		"end_date":   "2024-06-30",
		"period":     "w",
		"order":      "d",
		"filter":     "last_close",
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, textOf(t, res))

	assert.Equal(t, "/eod/AAPL.US", call.path)
	assert.Equal(t, "w", call.query.Get("period"))
	assert.Equal(t, "d", call.query.Get("order"))
	assert.Equal(t, "json", call.query.Get("fmt"))
	assert.Equal(t, "2024-01-01", call.query.Get("from"))
	assert.Equal(t, "2024-06-30", call.query.Get("to"))
	assert.Equal(t, "last_close", call.query.Get("filter"))
	assert.Equal(t, "test-key", call.query.Get("api_token"))
}

func TestHistoricalStockPricesValidation(t *testing.T) {
	deps, _ := newTestDeps(t, nil)

	res, err := deps.handleHistoricalStockPrices(context.Background(), callReq("get_historical_stock_prices", map[string]interface{}{
		"ticker": "AAPL.US",
		"period": "yearly",
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "Invalid 'period'")

	res, err = deps.handleHistoricalStockPrices(context.Background(), callReq("get_historical_stock_prices", map[string]interface{}{
		"ticker":     "AAPL.US",
		"start_date": "01/01/2024",
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "start_date")

	res, err = deps.handleHistoricalStockPrices(context.Background(), callReq("get_historical_stock_prices", map[string]interface{}{
		"ticker":     "AAPL.US",
		"start_date": "2024-06-30",
		"end_date":   "2024-01-01",
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "cannot be after")

	res, err = deps.handleHistoricalStockPrices(context.Background(), callReq("get_historical_stock_prices", nil))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "'ticker' is required")
}

func TestPerCallTokenOverride(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	_, err := deps.handleCurrentStockPrice(context.Background(), callReq("get_current_stock_price", map[string]interface{}{
		"ticker":    "AAPL.US",
		"api_token": "override-key",
	}))
	require.NoError(t, err)
	assert.Equal(t, "override-key", call.query.Get("api_token"))
}

func TestLivePriceDataExtraSymbols(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	_, err := deps.handleLivePriceData(context.Background(), callReq("get_live_price_data", map[string]interface{}{
		"ticker":             "AAPL.US",
		"additional_symbols": []interface{}{"VTI", " ", "AAPL.US", "EUR.FOREX"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "/real-time/AAPL.US", call.path)
	// primary symbol and blanks are dropped from s=
	assert.Equal(t, "VTI,EUR.FOREX", call.query.Get("s"))
}

func TestCSVResponsesAreWrapped(t *testing.T) {
	deps, _ := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Date,Close\n2024-01-02,185.64\n"))
	})

	res, err := deps.handleHistoricalStockPrices(context.Background(), callReq("get_historical_stock_prices", map[string]interface{}{
		"ticker": "AAPL.US",
		"fmt":    "csv",
	}))
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &payload))
	assert.Contains(t, payload["csv"], "2024-01-02,185.64")
}

func TestUpstreamErrorBecomesToolResult(t *testing.T) {
	deps, _ := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("API key not valid"))
	})

	res, err := deps.handleCurrentStockPrice(context.Background(), callReq("get_current_stock_price", map[string]interface{}{
		"ticker": "AAPL.US",
	}))
	require.NoError(t, err, "upstream failures must surface as tool results, not protocol errors")
	msg := errMsgOf(t, res)
	assert.Contains(t, msg, "403")
	assert.Contains(t, msg, "API key not valid")
}

func TestStockScreenerFilters(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	res, err := deps.handleStockScreener(context.Background(), callReq("stock_screener", map[string]interface{}{
		"filters": "not json",
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "filters")

	_, err = deps.handleStockScreener(context.Background(), callReq("stock_screener", map[string]interface{}{
		"filters": `[["market_capitalization",">",1000000000]]`,
		"signals": "200d_new_hi",
		"sort":    "market_capitalization.desc",
		"limit":   float64(25),
	}))
	require.NoError(t, err)
	assert.Equal(t, "/screener", call.path)
	assert.Equal(t, "25", call.query.Get("limit"))
	assert.Equal(t, `[["market_capitalization",">",1000000000]]`, call.query.Get("filters"))
	assert.Equal(t, "200d_new_hi", call.query.Get("signals"))
}

func TestUpcomingEarningsSymbolsWinOverDates(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	_, err := deps.handleUpcomingEarnings(context.Background(), callReq("get_upcoming_earnings", map[string]interface{}{
		"symbols":    "AAPL.US, MSFT.US",
		"start_date": "2024-01-01",
		"end_date":   "2024-02-01",
	}))
	require.NoError(t, err)
	assert.Equal(t, "/calendar/earnings", call.path)
	assert.Equal(t, "AAPL.US,MSFT.US", call.query.Get("symbols"))
	assert.Empty(t, call.query.Get("from"))
	assert.Empty(t, call.query.Get("to"))
}

func TestBalanceSheetsNewestFirst(t *testing.T) {
	doc := map[string]interface{}{
		"Financials": map[string]interface{}{
			"Balance_Sheet": map[string]interface{}{
				"annual": map[string]interface{}{
					"2021-12-31": map[string]string{"date": "2021-12-31"},
					"2023-12-31": map[string]string{"date": "2023-12-31"},
					"2022-12-31": map[string]string{"date": "2022-12-31"},
				},
			},
		},
	}
	deps, call := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(doc)
	})

	res, err := deps.handleBalanceSheets(context.Background(), callReq("get_balance_sheets", map[string]interface{}{
		"ticker": "AAPL.US",
		"limit":  float64(2),
	}))
	require.NoError(t, err)
	assert.Equal(t, "/fundamentals/AAPL.US", call.path)

	var sheets []map[string]string
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &sheets))
	require.Len(t, sheets, 2)
	assert.Equal(t, "2023-12-31", sheets[0]["date"])
	assert.Equal(t, "2022-12-31", sheets[1]["date"])
}

func TestBalanceSheetsMissingSection(t *testing.T) {
	deps, _ := newTestDeps(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"General":{}}`))
	})

	res, err := deps.handleBalanceSheets(context.Background(), callReq("get_balance_sheets", map[string]interface{}{
		"ticker": "AAPL.US",
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "balance sheets")
}

func TestUSTickDataTimestamps(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	_, err := deps.handleUSTickData(context.Background(), callReq("get_us_tick_data", map[string]interface{}{
		"ticker":         "AAPL",
		"from_timestamp": "2023-11-14T22:13:20Z",
		"to_timestamp":   float64(1700005000),
	}))
	require.NoError(t, err)
	assert.Equal(t, "/ticks/", call.path)
	assert.Equal(t, "AAPL", call.query.Get("s"))
	assert.Equal(t, "1700000000", call.query.Get("from"))
	assert.Equal(t, "1700005000", call.query.Get("to"))

	res, err := deps.handleUSTickData(context.Background(), callReq("get_us_tick_data", map[string]interface{}{
		"ticker":         "AAPL",
		"from_timestamp": float64(1700005000),
		"to_timestamp":   float64(1700000000),
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "cannot be greater")
}

func TestOptionsContractsFilterMapping(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	_, err := deps.handleUSOptionsContracts(context.Background(), callReq("get_us_options_contracts", map[string]interface{}{
		"underlying_symbol": "AAPL",
		"type":              "call",
		"strike_from":       float64(150),
		"sort":              "-exp_date",
		"page_limit":        float64(200),
	}))
	require.NoError(t, err)
	assert.Equal(t, "/mp/unicornbay/options/contracts", call.path)
	assert.Equal(t, "AAPL", call.query.Get("filter[underlying_symbol]"))
	assert.Equal(t, "call", call.query.Get("filter[type]"))
	assert.Equal(t, "150", call.query.Get("filter[strike_from]"))
	assert.Equal(t, "-exp_date", call.query.Get("sort"))
	assert.Equal(t, "200", call.query.Get("page[limit]"))
	assert.Equal(t, "0", call.query.Get("page[offset]"))

	res, err := deps.handleUSOptionsContracts(context.Background(), callReq("get_us_options_contracts", map[string]interface{}{
		"type": "straddle",
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "Invalid 'type'")
}

func TestTradingHoursGroupValidation(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	_, err := deps.handleTradingHoursListMarkets(context.Background(), callReq("get_mp_tradinghours_list_markets", nil))
	require.NoError(t, err)
	assert.Equal(t, "/mp/tradinghours/markets", call.path)
	assert.Equal(t, "core", call.query.Get("group"))

	res, err := deps.handleTradingHoursListMarkets(context.Background(), callReq("get_mp_tradinghours_list_markets", map[string]interface{}{
		"group": "everything",
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "Invalid 'group'")
}

func TestPraamsReportParams(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	_, err := deps.handlePraamsReportEquity(context.Background(), callReq("get_mp_praams_report_equity_by_ticker", map[string]interface{}{
		"ticker":  "AAPL.US",
		"email":   "analyst@example.com",
		"is_full": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "/mp/praams/reports/equity/ticker/AAPL.US", call.path)
	assert.Equal(t, "analyst@example.com", call.query.Get("email"))
	assert.Equal(t, "true", call.query.Get("isFull"))

	res, err := deps.handlePraamsReportBond(context.Background(), callReq("get_mp_praams_report_bond_by_isin", map[string]interface{}{
		"isin":  "US912828YV68",
		"email": "not-an-address",
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "email")
}

func TestIntradayRangeLimits(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	_, err := deps.handleIntradayHistoricalData(context.Background(), callReq("get_intraday_historical_data", map[string]interface{}{
		"ticker":         "AAPL.US",
		"interval":       "1m",
		"from_timestamp": "2024-01-01",
		"to_timestamp":   "2024-02-01",
		"split_dt":       true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "/intraday/AAPL.US", call.path)
	assert.Equal(t, "1m", call.query.Get("interval"))
	assert.Equal(t, "1", call.query.Get("split-dt"))
	assert.NotEmpty(t, call.query.Get("from"))
	assert.NotEmpty(t, call.query.Get("to"))

	// 1m data is capped at a 120 day span
	res, err := deps.handleIntradayHistoricalData(context.Background(), callReq("get_intraday_historical_data", map[string]interface{}{
		"ticker":         "AAPL.US",
		"interval":       "1m",
		"from_timestamp": "2023-01-01",
		"to_timestamp":   "2024-01-01",
	}))
	require.NoError(t, err)
	assert.Contains(t, errMsgOf(t, res), "exceeds maximum")
}

func TestMacroIndicatorDefaults(t *testing.T) {
	deps, call := newTestDeps(t, nil)

	_, err := deps.handleMacroIndicator(context.Background(), callReq("get_macro_indicator", map[string]interface{}{
		"country": "USA",
	}))
	require.NoError(t, err)
	assert.Equal(t, "/macro-indicator/USA", call.path)
	assert.Equal(t, "gdp_current_usd", call.query.Get("indicator"))
}
