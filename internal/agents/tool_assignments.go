package agents

// AgentToolMap lists the tools each agent may call. Tools missing from the
// registry at build time (the knowledge base search when it is disabled) are
// skipped.
var AgentToolMap = map[AgentType][]string{
	AgentFinanceQA: {
		"search_financial_term",
		"get_educational_content",
		"explain_financial_calculator",
		"search_knowledge_base",
	},
	AgentPortfolioAnalyzer: {
		"analyze_portfolio_allocation",
		"check_portfolio_diversification",
		"get_stock_quote",
	},
	AgentMarketAnalyst: {
		"get_stock_quote",
		"get_company_information",
		"get_market_indices",
		"get_stock_news",
		"get_price_history",
		"get_trending_stocks",
		"get_market_news",
	},
	AgentGoalPlanner: {
		"calculate_retirement_savings",
		"calculate_savings_goal",
		"explain_financial_calculator",
	},
	AgentTaxEducator: {
		"compare_retirement_accounts",
		"explain_capital_gains_tax",
		"explain_tax_loss_harvesting",
	},
}
