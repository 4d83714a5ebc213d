package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterAll wires every EODHD tool onto the MCP server.
func RegisterAll(s *server.MCPServer, deps Deps) {
	registrations := []struct {
		tool    mcp.Tool
		handler server.ToolHandlerFunc
	}{
		{historicalStockPricesTool(), deps.handleHistoricalStockPrices},
		{livePriceDataTool(), deps.handleLivePriceData},
		{currentStockPriceTool(), deps.handleCurrentStockPrice},
		{intradayHistoricalDataTool(), deps.handleIntradayHistoricalData},
		{companyNewsTool(), deps.handleCompanyNews},
		{sentimentDataTool(), deps.handleSentimentData},
		{newsWordWeightsTool(), deps.handleNewsWordWeights},
		{exchangesListTool(), deps.handleExchangesList},
		{exchangeTickersTool(), deps.handleExchangeTickers},
		{exchangeDetailsTool(), deps.handleExchangeDetails},
		{symbolChangeHistoryTool(), deps.handleSymbolChangeHistory},
		{macroIndicatorTool(), deps.handleMacroIndicator},
		{economicEventsTool(), deps.handleEconomicEvents},
		{stocksFromSearchTool(), deps.handleStocksFromSearch},
		{stockScreenerTool(), deps.handleStockScreener},
		{userDetailsTool(), deps.handleUserDetails},
		{historicalMarketCapTool(), deps.handleHistoricalMarketCap},
		{insiderTransactionsTool(), deps.handleInsiderTransactions},
		{usTickDataTool(), deps.handleUSTickData},
		{upcomingEarningsTool(), deps.handleUpcomingEarnings},
		{earningsTrendsTool(), deps.handleEarningsTrends},
		{upcomingIPOsTool(), deps.handleUpcomingIPOs},
		{upcomingSplitsTool(), deps.handleUpcomingSplits},
		{fundamentalsDataTool(), deps.handleFundamentalsData},
		{balanceSheetsTool(), deps.handleBalanceSheets},
		{cashFlowStatementsTool(), deps.handleCashFlowStatements},
		{bulkFundamentalsTool(), deps.handleBulkFundamentals},
		{stockMarketLogosTool(), deps.handleStockMarketLogos},
		{stockMarketLogosSVGTool(), deps.handleStockMarketLogosSVG},
		{ustLongTermRatesTool(), deps.handleUSTLongTermRates},
		{mpTickDataTool(), deps.handleMPTickData},
		{usOptionsContractsTool(), deps.handleUSOptionsContracts},
		{usOptionsEODTool(), deps.handleUSOptionsEOD},
		{usOptionsUnderlyingsTool(), deps.handleUSOptionsUnderlyings},
		{mpIndicesListTool(), deps.handleMPIndicesList},
		{mpIndexComponentsTool(), deps.handleMPIndexComponents},
		{tradingHoursListMarketsTool(), deps.handleTradingHoursListMarkets},
		{tradingHoursLookupMarketsTool(), deps.handleTradingHoursLookupMarkets},
		{tradingHoursMarketDetailsTool(), deps.handleTradingHoursMarketDetails},
		{tradingHoursMarketStatusTool(), deps.handleTradingHoursMarketStatus},
		{praamsReportEquityTool(), deps.handlePraamsReportEquity},
		{praamsReportBondTool(), deps.handlePraamsReportBond},
		{captureRealtimeWSTool(), deps.handleCaptureRealtimeWS},
	}

	for _, r := range registrations {
		s.AddTool(r.tool, r.handler)
		deps.Logger.Debug().Str("name", r.tool.Name).Msg("registered tool")
	}
	deps.Logger.Info().Int("count", len(registrations)).Msg("registered EODHD tools")
}
