package tools

// Definition describes a tool's metadata for registration and documentation.
type Definition struct {
	Name        string
	Description string
	Category    string
}

// toolDefinitions enumerates every tool, grouped by category.
var toolDefinitions = []Definition{
	{Name: "get_stock_quote", Description: "Real-time stock quote with daily change and 52-week range", Category: CategoryMarketData},
	{Name: "get_company_information", Description: "Company sector, industry, description and fundamentals", Category: CategoryMarketData},
	{Name: "get_market_indices", Description: "S&P 500, Dow Jones, NASDAQ and Russell 2000 levels", Category: CategoryMarketData},
	{Name: "get_price_history", Description: "Price history summary over a period", Category: CategoryMarketData},
	{Name: "get_trending_stocks", Description: "Popular, widely followed tickers", Category: CategoryMarketData},

	{Name: "get_stock_news", Description: "Recent news about a stock", Category: CategoryNews},
	{Name: "get_market_news", Description: "Recent market news by category", Category: CategoryNews},

	{Name: "analyze_portfolio_allocation", Description: "Value holdings and report allocation percentages", Category: CategoryPortfolio},
	{Name: "check_portfolio_diversification", Description: "Sector breakdown of a list of tickers", Category: CategoryPortfolio},

	{Name: "calculate_retirement_savings", Description: "Projected retirement balance from monthly contributions", Category: CategoryPlanning},
	{Name: "calculate_savings_goal", Description: "Monthly saving needed to reach a goal", Category: CategoryPlanning},

	{Name: "compare_retirement_accounts", Description: "Compare IRA, Roth IRA, 401(k), 403(b) and HSA rules", Category: CategoryTax},
	{Name: "explain_capital_gains_tax", Description: "Short-term and long-term capital gains rates", Category: CategoryTax},
	{Name: "explain_tax_loss_harvesting", Description: "Tax-loss harvesting and the wash sale rule", Category: CategoryTax},

	{Name: "search_financial_term", Description: "Definition of a financial term", Category: CategoryEducation},
	{Name: "get_educational_content", Description: "Learning resources on a topic", Category: CategoryEducation},
	{Name: "explain_financial_calculator", Description: "Formula and inputs of common financial calculators", Category: CategoryEducation},
	{Name: "search_knowledge_base", Description: "Semantic search over the finance concept corpus", Category: CategoryEducation},
}

// Definitions exposes a copy of all tool definitions.
func Definitions() []Definition {
	defs := make([]Definition, len(toolDefinitions))
	copy(defs, toolDefinitions)
	return defs
}

// DefinitionFor returns the catalog entry of a tool.
func DefinitionFor(name string) (Definition, bool) {
	for _, def := range toolDefinitions {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}
