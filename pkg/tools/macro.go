package tools

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const defaultMacroIndicator = "gdp_current_usd"

var allowedMacroIndicators = []string{
	"real_interest_rate",
	"population_total",
	"population_growth_annual",
	"inflation_consumer_prices_annual",
	"consumer_price_index",
	"gdp_current_usd",
	"gdp_per_capita_usd",
	"gdp_growth_annual",
	"debt_percent_gdp",
	"net_trades_goods_services",
	"inflation_gdp_deflator_annual",
	"agriculture_value_added_percent_gdp",
	"industry_value_added_percent_gdp",
	"services_value_added_percent_gdp",
	"exports_of_goods_services_percent_gdp",
	"imports_of_goods_services_percent_gdp",
	"gross_capital_formation_percent_gdp",
	"net_migration",
	"gni_usd",
	"gni_per_capita_usd",
	"gni_ppp_usd",
	"gni_per_capita_ppp_usd",
	"income_share_lowest_twenty",
	"life_expectancy",
	"fertility_rate",
	"prevalence_hiv_total",
	"co2_emissions_tons_per_capita",
	"surface_area_km",
	"poverty_poverty_lines_percent_population",
	"revenue_excluding_grants_percent_gdp",
	"cash_surplus_deficit_percent_gdp",
	"startup_procedures_register",
	"market_cap_domestic_companies_percent_gdp",
	"mobile_subscriptions_per_hundred",
	"internet_users_per_hundred",
	"high_technology_exports_percent_total",
	"merchandise_trade_percent_gdp",
	"total_debt_service_percent_gni",
	"unemployment_total_percent",
}

func macroIndicatorTool() mcp.Tool {
	return mcp.NewTool("get_macro_indicator",
		mcp.WithDescription("Macroeconomic indicator time series for a country (World Bank derived). Default indicator: gdp_current_usd."),
		mcp.WithString("country", mcp.Required(), mcp.Description("ISO-3166 alpha-3 country code, e.g. 'USA', 'FRA', 'DEU'")),
		mcp.WithString("indicator", mcp.Description("Indicator name, e.g. 'inflation_consumer_prices_annual'; default 'gdp_current_usd'")),
		mcp.WithString("fmt", mcp.Description("'json' or 'csv'; default 'json'")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleMacroIndicator(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	country, err := req.RequireString("country")
	if err != nil || country == "" {
		return errResult("Parameter 'country' is required (ISO-3 code, e.g. 'USA')."), nil
	}
	fmtParam := req.GetString("fmt", "json")
	if !contains(allowedEODFmt, fmtParam) {
		return errResult("Invalid 'fmt'. Allowed: %v", allowedEODFmt), nil
	}
	indicator := req.GetString("indicator", defaultMacroIndicator)
	if !contains(allowedMacroIndicators, indicator) {
		return errResult("Invalid 'indicator'. See the tool description for the supported set."), nil
	}

	q := url.Values{}
	q.Set("fmt", fmtParam)
	q.Set("indicator", indicator)
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/macro-indicator/"+url.PathEscape(country), q, fmtParam), nil
}

var allowedComparison = []string{"mom", "qoq", "yoy"}

func economicEventsTool() mcp.Tool {
	return mcp.NewTool("get_economic_events",
		mcp.WithDescription("Economic events calendar: releases, actual/previous values and estimates."),
		mcp.WithString("start_date", mcp.Description("YYYY-MM-DD, maps to 'from'")),
		mcp.WithString("end_date", mcp.Description("YYYY-MM-DD, maps to 'to'")),
		mcp.WithString("country", mcp.Description("ISO-3166 alpha-2 country code, e.g. 'US', 'GB', 'DE'")),
		mcp.WithString("comparison", mcp.Description("'mom', 'qoq' or 'yoy'")),
		mcp.WithString("type", mcp.Description("Event type filter, e.g. 'House Price Index'")),
		mcp.WithNumber("offset", mcp.Description("0..1000, default 0")),
		mcp.WithNumber("limit", mcp.Description("0..1000, default 50")),
		mcp.WithString("api_token", mcp.Description("Per-call API token override")),
	)
}

func (d Deps) handleEconomicEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startDate := req.GetString("start_date", "")
	endDate := req.GetString("end_date", "")
	if res := validateDateRange(startDate, endDate, "start_date", "end_date"); res != nil {
		return res, nil
	}
	comparison := req.GetString("comparison", "")
	if comparison != "" && !contains(allowedComparison, comparison) {
		return errResult("Invalid 'comparison'. Allowed: %v", allowedComparison), nil
	}
	offset := req.GetInt("offset", 0)
	limit := req.GetInt("limit", 50)
	if offset < 0 || offset > 1000 {
		return errResult("'offset' must be between 0 and 1000."), nil
	}
	if limit < 0 || limit > 1000 {
		return errResult("'limit' must be between 0 and 1000."), nil
	}

	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	if startDate != "" {
		q.Set("from", startDate)
	}
	if endDate != "" {
		q.Set("to", endDate)
	}
	if country := req.GetString("country", ""); country != "" {
		q.Set("country", strings.ToUpper(country))
	}
	if comparison != "" {
		q.Set("comparison", comparison)
	}
	if eventType := req.GetString("type", ""); eventType != "" {
		q.Set("type", eventType)
	}
	applyTokenOverride(req, q)

	return d.fetch(ctx, "/economic-events", q, "json"), nil
}
