package tools

import (
	"finassist/internal/tools/education"
	"finassist/internal/tools/market"
	"finassist/internal/tools/planning"
	"finassist/internal/tools/portfolio"
	"finassist/internal/tools/shared"
	"finassist/internal/tools/tax"
)

// RegisterAllTools registers all available tools in the registry.
//
// Every tool is built through shared.NewToolBuilder, which applies a per-call
// timeout and, where the constructor asks for it, retry and stats middleware.
func RegisterAllTools(registry *Registry, deps shared.Deps) {
	log := deps.Logger().With("component", "tool_registration")

	// Market data
	registry.Register("get_stock_quote", market.NewGetStockQuoteTool(deps))
	registry.Register("get_company_information", market.NewGetCompanyInformationTool(deps))
	registry.Register("get_market_indices", market.NewGetMarketIndicesTool(deps))
	registry.Register("get_price_history", market.NewGetPriceHistoryTool(deps))
	registry.Register("get_trending_stocks", market.NewGetTrendingStocksTool(deps))
	registry.Register("get_stock_news", market.NewGetStockNewsTool(deps))
	registry.Register("get_market_news", market.NewGetMarketNewsTool(deps))
	log.Debug("Registered market data tools")

	// Portfolio
	registry.Register("analyze_portfolio_allocation", portfolio.NewAnalyzePortfolioAllocationTool(deps))
	registry.Register("check_portfolio_diversification", portfolio.NewCheckPortfolioDiversificationTool(deps))
	log.Debug("Registered portfolio tools")

	// Planning
	registry.Register("calculate_retirement_savings", planning.NewCalculateRetirementSavingsTool(deps))
	registry.Register("calculate_savings_goal", planning.NewCalculateSavingsGoalTool(deps))
	log.Debug("Registered planning tools")

	// Tax
	registry.Register("compare_retirement_accounts", tax.NewCompareRetirementAccountsTool(deps))
	registry.Register("explain_capital_gains_tax", tax.NewExplainCapitalGainsTaxTool(deps))
	registry.Register("explain_tax_loss_harvesting", tax.NewExplainTaxLossHarvestingTool(deps))
	log.Debug("Registered tax tools")

	// Education
	registry.Register("search_financial_term", education.NewSearchFinancialTermTool(deps))
	registry.Register("get_educational_content", education.NewGetEducationalContentTool(deps))
	registry.Register("explain_financial_calculator", education.NewExplainFinancialCalculatorTool(deps))
	if deps.HasKnowledge() {
		registry.Register("search_knowledge_base", education.NewSearchKnowledgeBaseTool(deps))
	} else {
		log.Info("Knowledge base disabled, search_knowledge_base not registered")
	}
	log.Debug("Registered education tools")

	log.Infof("Tool registration complete: %d tools available", len(registry.List()))
}
